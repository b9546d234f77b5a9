// Package credits реализует HTTP-обработчик чтения баланса кредитора.
package credits

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Service описывает интерфейс бизнес-логики чтения счёта.
type Service interface {
	GetAccount(ctx context.Context, uid string) (*models.LenderAccount, error)
}

// Handler управляет HTTP-запросами на чтение баланса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Баланс кредитора
// @Description Возвращает остатки lead- и AI-search-кредитов и статус подписки.
// @Tags Lenders
// @Produce  json
// @Success 200 {object} map[string]any "Счёт кредитора"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Счёт не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /lenders/me/credits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lender.credits"
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

	account, err := h.service.GetAccount(r.Context(), lenderUID)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			log.Info("account not found", slog.String("lender_uid", lenderUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to read account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read account"))
		return
	}

	log.Info("account read", slog.String("lender_uid", lenderUID))
	render.JSON(w, r, response.OKWithData(account))
}
