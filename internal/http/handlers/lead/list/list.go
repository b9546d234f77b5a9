// Package list реализует HTTP-обработчик листинга лидов маркетплейса.
//
// Листинг отдаёт открытые лиды со скоринговым сигналом и флагом покупки;
// контактные данные заёмщика присутствуют только у купленных лидов.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Service описывает интерфейс бизнес-логики листинга лидов.
type Service interface {
	List(ctx context.Context, lenderUID string, limit, offset int) ([]*models.LeadListing, error)
}

// Handler управляет HTTP-запросами на листинг лидов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список лидов
// @Description Возвращает открытые лиды, отсортированные по итоговому скору, с флагом покупки.
// @Tags Leads
// @Produce  json
// @Param limit query int false "Размер страницы (по умолчанию 20, максимум 100)"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список лидов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /leads [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.list"
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

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	listings, err := h.service.List(r.Context(), lenderUID, limit, offset)
	if err != nil {
		log.Error("failed to list leads", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list leads"))
		return
	}

	log.Info("leads listed", slog.Int("count", len(listings)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"leads": listings,
		"count": len(listings),
	}))
}
