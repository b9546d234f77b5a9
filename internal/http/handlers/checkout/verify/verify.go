// Package verify реализует HTTP-обработчик подтверждения оплаты подписки
// со стороны клиента.
//
// Резервный путь на случай потери вебхука: клиент после возврата со
// страницы оплаты передаёт идентификатор подписки, и сервер активирует
// план. Повторное подтверждение той же подписки кредитов не добавляет.
package verify

import (
	"context"
	"encoding/json"
	"errors"
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

// Service описывает интерфейс бизнес-логики активации подписки.
type Service interface {
	ActivateSubscription(ctx context.Context, uid, planPriceID, subscriptionRef string) (bool, error)
}

// Handler управляет HTTP-запросами на подтверждение оплаты.
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

// Request тело запроса на подтверждение оплаты.
type Request struct {
	PriceID         string `json:"price_id" validate:"required"`
	SubscriptionRef string `json:"subscription_ref" validate:"required"`
}

// ServeHTTP godoc
// @Summary Подтвердить оплату подписки
// @Description Активирует план по данным клиента. Идемпотентно по subscription_ref.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные оплаченной подписки"
// @Success 200 {object} map[string]any "Результат активации"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или неизвестный план"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /checkout/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.verify"
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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	granted, err := h.service.ActivateSubscription(r.Context(), lenderUID, req.PriceID, req.SubscriptionRef)
	if err != nil {
		if errors.Is(err, models.ErrUnknownPlan) {
			log.Info("unknown plan price id", slog.String("price_id", req.PriceID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown plan price id"))
			return
		}
		log.Error("failed to activate subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not activate subscription"))
		return
	}

	log.Info("checkout verified",
		slog.String("price_id", req.PriceID),
		slog.Bool("granted", granted))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"granted": granted,
	}))
}
