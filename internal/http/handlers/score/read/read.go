// Package read реализует HTTP-обработчик чтения скорингового профиля.
// Чтение идёт через кеш; промах заполняется из хранилища.
package read

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

// Service описывает интерфейс бизнес-логики чтения скоринга.
type Service interface {
	Get(ctx context.Context, borrowerUID string) (*models.ScoreProfile, error)
}

// Handler управляет HTTP-запросами на чтение скоринга.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Получить скоринговый профиль
// @Description Возвращает сохранённый скоринговый профиль заёмщика.
// @Tags Scores
// @Produce  json
// @Param uid path string true "UID заёмщика"
// @Success 200 {object} map[string]any "Скоринговый профиль"
// @Failure 400 {object} response.ErrorResponse "Некорректный UID"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /borrowers/{uid}/score [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.score.read"
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

	profile, err := h.service.Get(r.Context(), borrowerUID)
	if err != nil {
		if errors.Is(err, models.ErrBorrowerNotFound) {
			log.Info("score profile not found", slog.String("borrower_uid", borrowerUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("score profile not found"))
			return
		}
		log.Error("failed to read score profile", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read score profile"))
		return
	}

	log.Info("score profile read", slog.String("borrower_uid", borrowerUID))
	render.JSON(w, r, response.OKWithData(profile))
}
