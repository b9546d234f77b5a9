// Package aisearch реализует HTTP-обработчик списания AI-search-кредитов.
//
// Один поисковый запрос по базе заёмщиков стоит один кредит; количество
// можно передать явно для пакетных операций.
package aisearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Service описывает интерфейс бизнес-логики списания кредитов.
type Service interface {
	Debit(ctx context.Context, uid string, currency models.Currency, amount int) (int, error)
}

// Handler управляет HTTP-запросами на списание AI-search-кредитов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Request тело запроса на списание. Пустое тело означает amount = 1.
type Request struct {
	Amount int `json:"amount" validate:"min=1"`
}

// ServeHTTP godoc
// @Summary Списать AI-search-кредиты
// @Description Списывает кредиты за поисковый запрос и возвращает новый остаток.
// @Tags Lenders
// @Accept  json
// @Produce  json
// @Param request body Request false "Количество (по умолчанию 1)"
// @Success 200 {object} map[string]any "Новый остаток"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Недостаточно кредитов"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /lenders/me/ai-search/debit [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lender.aisearch"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	lenderUID, ok := middlewarectx.LenderUIDFromContext(r.Context())
	if !ok {
		log.Error("lender uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	req := Request{Amount: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	balance, err := h.service.Debit(r.Context(), lenderUID, models.CurrencyAISearch, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInsufficientCredits):
			log.Info("insufficient ai-search credits", slog.String("lender_uid", lenderUID))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("insufficient ai-search credits"))
		case errors.Is(err, models.ErrAccountNotFound):
			log.Info("account not found", slog.String("lender_uid", lenderUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
		default:
			log.Error("failed to debit ai-search credits", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not debit credits"))
		}
		return
	}

	log.Info("ai-search credits debited",
		slog.Int("amount", req.Amount),
		slog.Int("balance", balance))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"balance": balance,
	}))
}
