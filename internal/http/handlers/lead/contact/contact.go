// Package contact реализует HTTP-обработчик отметки контакта с заёмщиком.
//
// Отметить контакт может только кредитор, купивший лид. Переход статуса
// подчиняется таблице new/viewed -> contacted, closed — терминальный.
package contact

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

// Service описывает интерфейс бизнес-логики отметки контакта.
type Service interface {
	MarkContacted(ctx context.Context, lenderUID string, leadID int) error
}

// Handler управляет HTTP-запросами на отметку контакта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отметить контакт с заёмщиком
// @Description Переводит купленный лид в статус contacted и фиксирует время контакта.
// @Tags Leads
// @Produce  json
// @Param id path int true "ID лида"
// @Success 200 {object} response.Response "Контакт зафиксирован"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID лида"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Лид не куплен этим кредитором"
// @Failure 404 {object} response.ErrorResponse "Лид не найден"
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход статуса"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /leads/{id}/contact [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.contact"
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

	if err := h.service.MarkContacted(r.Context(), lenderUID, leadID); err != nil {
		switch {
		case errors.Is(err, models.ErrPurchaseRequired):
			log.Info("contact without purchase rejected", slog.Int("lead_id", leadID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("lead must be purchased first"))
		case errors.Is(err, models.ErrLeadNotFound):
			log.Info("lead not found", slog.Int("lead_id", leadID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("lead not found"))
		case errors.Is(err, models.ErrInvalidTransition):
			log.Info("invalid status transition", slog.Int("lead_id", leadID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("invalid lead status transition"))
		default:
			log.Error("failed to mark lead contacted", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not mark lead contacted"))
		}
		return
	}

	log.Info("lead marked contacted", slog.Int("lead_id", leadID))
	render.JSON(w, r, response.OK())
}
