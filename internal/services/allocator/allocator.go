// Package allocator управляет жизненным циклом лидов и гарантией
// эксклюзивности покупки: пара (кредитор, лид) продаётся не более одного
// раза, списание кредита и запись покупки атомарны.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/lead-marketplace/internal/metrics"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// Repository определяет методы хранилища для аллокатора.
type Repository interface {
	// PurchaseLead атомарно списывает кредит и создаёт покупку.
	PurchaseLead(ctx context.Context, lenderUID string, leadID int) (*models.Purchase, error)
	// HasPurchase сообщает о существовании покупки пары.
	HasPurchase(ctx context.Context, lenderUID string, leadID int) (bool, error)
	// GetLead возвращает лид по ID.
	GetLead(ctx context.Context, leadID int) (*models.Lead, error)
	// GetLeadForLender возвращает лид с флагом покупки и контактами.
	GetLeadForLender(ctx context.Context, leadID int, lenderUID string) (*models.LeadListing, error)
	// CreateLead вставляет новый лид.
	CreateLead(ctx context.Context, lead models.Lead) (int, error)
	// MarkLeadViewed идемпотентно переводит new -> viewed.
	MarkLeadViewed(ctx context.Context, leadID int) error
	// MarkLeadContacted переводит лид в contacted.
	MarkLeadContacted(ctx context.Context, leadID int) error
	// ListLeads возвращает страницу листинга для кредитора.
	ListLeads(ctx context.Context, lenderUID string, limit, offset int) ([]*models.LeadListing, error)
	// ListPurchasedLeads возвращает выкупленные кредитором лиды.
	ListPurchasedLeads(ctx context.Context, lenderUID string) ([]*models.LeadListing, error)
}

// Publisher публикует уведомления о покупках (best-effort).
type Publisher interface {
	Publish(routingKey string, message any) error
}

// PurchaseNotification сообщение о состоявшейся покупке лида.
type PurchaseNotification struct {
	PurchaseID string `json:"purchase_id"`
	LenderUID  string `json:"lender_uid"`
	LeadID     int    `json:"lead_id"`
}

// Service аллокатор лидов.
type Service struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

// New создаёт новый экземпляр Service. publisher может быть nil.
func New(repo Repository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, log: log}
}

// Purchase выкупает лид для кредитора. Предварительные проверки — лишь
// оптимизация: авторитетная защита от двойной продажи — уникальное
// ограничение пары в хранилище, срабатывающее внутри той же транзакции,
// что и списание кредита. При конфликте списание откатывается и кредитор
// получает ErrAlreadyPurchased, а не потерю кредита.
func (s *Service) Purchase(ctx context.Context, lenderUID string, leadID int) (*models.Purchase, error) {
	const op = "allocator.Purchase"

	purchase, err := s.repo.PurchaseLead(ctx, lenderUID, leadID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyPurchased):
			metrics.PurchasesTotal.WithLabelValues("already_purchased").Inc()
		case errors.Is(err, models.ErrInsufficientCredits):
			metrics.PurchasesTotal.WithLabelValues("insufficient_credits").Inc()
		default:
			metrics.PurchasesTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.PurchasesTotal.WithLabelValues("ok").Inc()
	metrics.CreditDebitsTotal.WithLabelValues(string(models.CurrencyLead)).Inc()
	s.log.Info("lead purchased",
		slog.String("purchase_id", purchase.ID),
		slog.String("lender_uid", lenderUID),
		slog.Int("lead_id", leadID))

	if s.publisher != nil {
		n := PurchaseNotification{PurchaseID: purchase.ID, LenderUID: lenderUID, LeadID: leadID}
		if err := s.publisher.Publish("lead.purchased", n); err != nil {
			s.log.Warn("failed to publish purchase notification",
				slog.String("purchase_id", purchase.ID), slog.Any("err", err))
		}
	}
	return purchase, nil
}

// MarkViewed переводит лид new -> viewed. Идемпотентна: повторный вызов
// и вызов для лида дальше по циклу — no-op.
func (s *Service) MarkViewed(ctx context.Context, leadID int) error {
	return s.repo.MarkLeadViewed(ctx, leadID)
}

// MarkContacted фиксирует контакт кредитора с заёмщиком. Требует
// существующей покупки пары и допустимого перехода статуса.
func (s *Service) MarkContacted(ctx context.Context, lenderUID string, leadID int) error {
	const op = "allocator.MarkContacted"

	purchased, err := s.repo.HasPurchase(ctx, lenderUID, leadID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !purchased {
		return models.ErrPurchaseRequired
	}

	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return err
	}
	if lead.Status != models.LeadStatusContacted &&
		!lead.Status.CanTransitionTo(models.LeadStatusContacted) {
		return models.ErrInvalidTransition
	}

	return s.repo.MarkLeadContacted(ctx, leadID)
}

// Create публикует новый лид (вход внешнего генератора лидов).
func (s *Service) Create(ctx context.Context, lead models.Lead) (int, error) {
	id, err := s.repo.CreateLead(ctx, lead)
	if err != nil {
		return 0, err
	}
	s.log.Info("lead created", slog.Int("lead_id", id),
		slog.Int("loan_request_id", lead.LoanRequestID))
	return id, nil
}

// Get возвращает лид глазами кредитора; контакты заёмщика видны только
// при выкупленной паре — правило применяется на границе чтения.
func (s *Service) Get(ctx context.Context, leadID int, lenderUID string) (*models.LeadListing, error) {
	return s.repo.GetLeadForLender(ctx, leadID, lenderUID)
}

// List возвращает страницу листинга маркетплейса для кредитора.
func (s *Service) List(ctx context.Context, lenderUID string, limit, offset int) ([]*models.LeadListing, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListLeads(ctx, lenderUID, limit, offset)
}

// ListPurchased возвращает выкупленные кредитором лиды.
func (s *Service) ListPurchased(ctx context.Context, lenderUID string) ([]*models.LeadListing, error) {
	return s.repo.ListPurchasedLeads(ctx, lenderUID)
}
