// Package purchase реализует HTTP-обработчик покупки лида кредитором.
//
// Обработчик извлекает идентификатор кредитора из контекста, списывает один
// lead-кредит и создаёт запись покупки одной транзакцией. Повторная покупка
// той же пары (кредитор, лид) возвращает конфликт без списания.
package purchase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Service описывает интерфейс бизнес-логики покупки лида.
type Service interface {
	Purchase(ctx context.Context, lenderUID string, leadID int) (*models.Purchase, error)
}

// Handler управляет HTTP-запросами на покупку лидов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Купить лид
// @Description Списывает один lead-кредит и открывает кредитору контактные данные заёмщика.
// @Tags Leads
// @Produce  json
// @Param id path int true "ID лида"
// @Success 200 {object} map[string]any "Созданная покупка"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID лида"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Недостаточно кредитов"
// @Failure 404 {object} response.ErrorResponse "Лид или счёт не найден"
// @Failure 409 {object} response.ErrorResponse "Лид уже куплен этим кредитором"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /leads/{id}/purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.purchase"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	leadID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid lead id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid lead id"))
		return
	}

	lenderUID, ok := middlewarectx.LenderUIDFromContext(r.Context())
	if !ok {
		log.Error("lender uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	purchase, err := h.service.Purchase(r.Context(), lenderUID, leadID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyPurchased):
			log.Info("lead already purchased", slog.Int("lead_id", leadID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("lead already purchased"))
		case errors.Is(err, models.ErrInsufficientCredits):
			log.Info("insufficient lead credits", slog.String("lender_uid", lenderUID))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("insufficient lead credits"))
		case errors.Is(err, models.ErrLeadNotFound), errors.Is(err, models.ErrAccountNotFound):
			log.Info("lead or account not found", slog.Int("lead_id", leadID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("lead or account not found"))
		default:
			log.Error("failed to purchase lead", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not purchase lead"))
		}
		return
	}

	log.Info("lead purchased",
		slog.Int("lead_id", leadID),
		slog.String("purchase_id", purchase.ID))
	render.JSON(w, r, response.OKWithData(purchase))
}
