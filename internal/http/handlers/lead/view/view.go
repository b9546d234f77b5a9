// Package view реализует HTTP-обработчик отметки лида просмотренным.
// Переход new -> viewed идемпотентен: повторный вызов для уже
// просмотренного лида — успех без изменений.
package view

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Service описывает интерфейс бизнес-логики отметки просмотра.
type Service interface {
	MarkViewed(ctx context.Context, leadID int) error
}

// Handler управляет HTTP-запросами на отметку просмотра лида.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отметить лид просмотренным
// @Description Переводит лид из new в viewed. Повторный вызов безопасен.
// @Tags Leads
// @Produce  json
// @Param id path int true "ID лида"
// @Success 200 {object} response.Response "Лид отмечен просмотренным"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID лида"
// @Failure 404 {object} response.ErrorResponse "Лид не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /leads/{id}/view [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.view"
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

	if err := h.service.MarkViewed(r.Context(), leadID); err != nil {
		if errors.Is(err, models.ErrLeadNotFound) {
			log.Info("lead not found", slog.Int("lead_id", leadID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("lead not found"))
			return
		}
		log.Error("failed to mark lead viewed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not mark lead viewed"))
		return
	}

	log.Info("lead marked viewed", slog.Int("lead_id", leadID))
	render.JSON(w, r, response.OK())
}
