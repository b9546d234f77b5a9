// Package webhook реализует HTTP-обработчик вебхуков платёжного провайдера.
//
// Обработчик проверяет HMAC-подпись тела запроса (заголовок X-Api-Signature),
// разбирает событие и передаёт его сервису согласования платежей. Дубликаты
// событий для провайдера выглядят как успех.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
	"github.com/magabrotheeeer/lead-marketplace/internal/services/reconciler"
)

// Service описывает интерфейс сервиса согласования платёжных событий.
type Service interface {
	Apply(ctx context.Context, event models.PaymentEvent) (reconciler.Outcome, error)
}

// Handler обрабатывает вебхуки платёжного провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
	validate      *validator.Validate
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
		validate:      validator.New(),
	}
}

// Payload тело вебхука платёжного провайдера.
type Payload struct {
	EventID         string `json:"event_id" validate:"required"`
	Type            string `json:"type" validate:"required,oneof=subscription_activated subscription_renewed one_time_purchase subscription_canceled"`
	PriceID         string `json:"price_id"`
	Quantity        int    `json:"quantity" validate:"min=0"`
	CustomerRef     string `json:"customer_ref" validate:"required"`
	SubscriptionRef string `json:"subscription_ref"`
}

// Проверка подписи вебхука (X-Api-Signature).
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Вебхук платёжного провайдера
// @Description Принимает событие платёжного провайдера, проверяет подпись и начисляет кредиты.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param X-Api-Signature header string true "HMAC-SHA256 подпись тела (base64)"
// @Param request body Payload true "Событие провайдера"
// @Success 200 {object} map[string]any "Исход обработки события"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 404 {object} response.ErrorResponse "Счёт кредитора не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки события"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	event := models.PaymentEvent{
		ExternalID:      payload.EventID,
		Type:            models.PaymentEventType(payload.Type),
		PriceID:         payload.PriceID,
		Quantity:        payload.Quantity,
		CustomerRef:     payload.CustomerRef,
		SubscriptionRef: payload.SubscriptionRef,
	}

	outcome, err := h.service.Apply(r.Context(), event)
	if err != nil {
		if errors.Is(err, models.ErrAccountNotFound) {
			log.Error("account not found for customer ref", slog.String("customer_ref", payload.CustomerRef))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("account not found"))
			return
		}
		log.Error("failed to apply payment event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not process event"))
		return
	}

	log.Info("webhook processed",
		slog.String("event_id", payload.EventID),
		slog.String("outcome", string(outcome)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"outcome": string(outcome),
	}))
}
