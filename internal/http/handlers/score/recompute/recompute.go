// Package recompute реализует HTTP-обработчик пересчёта скоринга заёмщика.
//
// Пересчёт запускается синхронно: обработчик собирает финансовый профиль и
// сохранённый лингвистический анализ, считает итоговый скор и возвращает
// свежий профиль.
package recompute

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Service описывает интерфейс бизнес-логики пересчёта скоринга.
type Service interface {
	Recompute(ctx context.Context, borrowerUID string) (*models.ScoreProfile, error)
}

// Handler управляет HTTP-запросами на пересчёт скоринга.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Пересчитать скоринг заёмщика
// @Description Пересчитывает финансовый и итоговый скор и сохраняет профиль.
// @Tags Scores
// @Produce  json
// @Param uid path string true "UID заёмщика"
// @Success 200 {object} map[string]any "Скоринговый профиль"
// @Failure 400 {object} response.ErrorResponse "Некорректный UID"
// @Failure 404 {object} response.ErrorResponse "Заёмщик не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /borrowers/{uid}/score [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.score.recompute"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	borrowerUID := chi.URLParam(r, "uid")
	if _, err := uuid.Parse(borrowerUID); err != nil {
		log.Error("invalid borrower uid", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid borrower uid"))
		return
	}

	profile, err := h.service.Recompute(r.Context(), borrowerUID)
	if err != nil {
		if errors.Is(err, models.ErrBorrowerNotFound) {
			log.Info("borrower not found", slog.String("borrower_uid", borrowerUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("borrower not found"))
			return
		}
		log.Error("failed to recompute score", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not recompute score"))
		return
	}

	log.Info("score recomputed",
		slog.String("borrower_uid", borrowerUID),
		slog.Float64("final_score", profile.FinalScore))
	render.JSON(w, r, response.OKWithData(profile))
}
