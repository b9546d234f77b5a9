// Package read реализует HTTP-обработчик чтения одного лида.
//
// Контактные данные заёмщика включаются в ответ только если запрашивающий
// кредитор купил этот лид.
package read

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

// Service описывает интерфейс бизнес-логики чтения лида.
type Service interface {
	Get(ctx context.Context, leadID int, lenderUID string) (*models.LeadListing, error)
}

// Handler управляет HTTP-запросами на чтение лида.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить лид
// @Description Возвращает лид со скоринговым сигналом; контакты — только после покупки.
// @Tags Leads
// @Produce  json
// @Param id path int true "ID лида"
// @Success 200 {object} map[string]any "Лид"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID лида"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Лид не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /leads/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.read"
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

	listing, err := h.service.Get(r.Context(), leadID, lenderUID)
	if err != nil {
		if errors.Is(err, models.ErrLeadNotFound) {
			log.Info("lead not found", slog.Int("lead_id", leadID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("lead not found"))
			return
		}
		log.Error("failed to read lead", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read lead"))
		return
	}

	log.Info("lead read", slog.Int("lead_id", leadID), slog.Bool("is_purchased", listing.IsPurchased))
	render.JSON(w, r, response.OKWithData(listing))
}
