// Package purchased реализует HTTP-обработчик списка купленных лидов.
package purchased

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/lead-marketplace/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-marketplace/internal/http/response"
	"github.com/magabrotheeeer/lead-marketplace/internal/lib/sl"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Service описывает интерфейс бизнес-логики списка покупок.
type Service interface {
	ListPurchased(ctx context.Context, lenderUID string) ([]*models.LeadListing, error)
}

// Handler управляет HTTP-запросами на список купленных лидов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Купленные лиды
// @Description Возвращает лиды, купленные текущим кредитором, с контактами заёмщиков.
// @Tags Lenders
// @Produce  json
// @Success 200 {object} map[string]any "Список купленных лидов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /lenders/me/leads [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lender.purchased"
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

	listings, err := h.service.ListPurchased(r.Context(), lenderUID)
	if err != nil {
		log.Error("failed to list purchased leads", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list purchased leads"))
		return
	}

	log.Info("purchased leads listed", slog.Int("count", len(listings)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"leads": listings,
		"count": len(listings),
	}))
}
