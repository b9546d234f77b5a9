// Package create реализует HTTP-обработчик приёма новых лидов.
//
// Эндпоинт используется внутренним продюсером лидов (сервисом заявок):
// публикация одобренной заявки создаёт лид в статусе new.
package create

import (
	"context"
	"encoding/json"
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

// Service описывает интерфейс бизнес-логики создания лида.
type Service interface {
	Create(ctx context.Context, lead models.Lead) (int, error)
}

// Handler управляет HTTP-запросами на создание лидов.
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

// Request тело запроса на создание лида.
type Request struct {
	LoanRequestID int     `json:"loan_request_id" validate:"required,min=1"`
	BorrowerUID   string  `json:"borrower_uid" validate:"required,uuid"`
	ListPrice     float64 `json:"list_price" validate:"min=0"`
	Notes         string  `json:"notes"`
}

// ServeHTTP godoc
// @Summary Создать лид
// @Description Создаёт новый лид в статусе new. Доступно только роли producer.
// @Tags Leads
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового лида"
// @Success 200 {object} map[string]any "ID созданного лида"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /leads [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lead.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role, _ := r.Context().Value(middlewarectx.Role).(string)
	if role != "producer" && role != "admin" {
		log.Error("insufficient role for lead intake", slog.String("role", role))
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
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

	id, err := h.service.Create(r.Context(), models.Lead{
		LoanRequestID: req.LoanRequestID,
		BorrowerUID:   req.BorrowerUID,
		Status:        models.LeadStatusNew,
		ListPrice:     req.ListPrice,
		Notes:         req.Notes,
	})
	if err != nil {
		log.Error("failed to create lead", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create lead"))
		return
	}

	log.Info("lead created", slog.Int("lead_id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"lead_id": id,
	}))
}
