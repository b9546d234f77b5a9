// Package ledger реализует кредитный леджер: атомарные начисления и
// списания по счетам кредиторов в двух независимых валютах.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/lead-marketplace/internal/metrics"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
	"github.com/magabrotheeeer/lead-marketplace/internal/plans"
)

// Repository определяет методы хранилища для леджера.
type Repository interface {
	// GetLenderAccount возвращает счёт кредитора.
	GetLenderAccount(ctx context.Context, uid string) (*models.LenderAccount, error)
	// GrantCredits атомарно увеличивает баланс и возвращает новый.
	GrantCredits(ctx context.Context, uid string, currency models.Currency, amount int) (int, error)
	// DebitCredits атомарно уменьшает баланс и возвращает новый;
	// при нехватке кредитов — models.ErrInsufficientCredits.
	DebitCredits(ctx context.Context, uid string, currency models.Currency, amount int) (int, error)
	// ActivateSubscription активирует подписку и начисляет кредиты плана,
	// идемпотентно по subscriptionRef.
	ActivateSubscription(ctx context.Context, uid, planName, subscriptionRef string, allotment int) (bool, error)
}

// Service кредитный леджер.
type Service struct {
	repo  Repository
	plans *plans.Table
	log   *slog.Logger
}

// New создаёт новый экземпляр Service.
func New(repo Repository, planTable *plans.Table, log *slog.Logger) *Service {
	return &Service{repo: repo, plans: planTable, log: log}
}

// GetAccount возвращает счёт кредитора с текущими балансами.
func (s *Service) GetAccount(ctx context.Context, uid string) (*models.LenderAccount, error) {
	return s.repo.GetLenderAccount(ctx, uid)
}

// Grant начисляет amount кредитов в валюте currency и возвращает новый баланс.
func (s *Service) Grant(ctx context.Context, uid string, currency models.Currency, amount int) (int, error) {
	const op = "ledger.Grant"

	if amount <= 0 {
		return 0, fmt.Errorf("%s: amount must be positive, got %d", op, amount)
	}
	if !currency.Valid() {
		return 0, fmt.Errorf("%s: unknown currency %q", op, currency)
	}

	balance, err := s.repo.GrantCredits(ctx, uid, currency, amount)
	if err != nil {
		return 0, err
	}

	metrics.CreditGrantsTotal.WithLabelValues(string(currency)).Add(float64(amount))
	s.log.Info("granted credits",
		slog.String("lender_uid", uid),
		slog.String("currency", string(currency)),
		slog.Int("amount", amount),
		slog.Int("balance", balance))
	return balance, nil
}

// Debit списывает amount кредитов в валюте currency и возвращает новый
// баланс. Баланс не может стать отрицательным: нехватка кредитов отдаётся
// как models.ErrInsufficientCredits без каких-либо изменений счёта.
func (s *Service) Debit(ctx context.Context, uid string, currency models.Currency, amount int) (int, error) {
	const op = "ledger.Debit"

	if amount <= 0 {
		return 0, fmt.Errorf("%s: amount must be positive, got %d", op, amount)
	}
	if !currency.Valid() {
		return 0, fmt.Errorf("%s: unknown currency %q", op, currency)
	}

	balance, err := s.repo.DebitCredits(ctx, uid, currency, amount)
	if err != nil {
		return 0, err
	}

	metrics.CreditDebitsTotal.WithLabelValues(string(currency)).Add(float64(amount))
	s.log.Info("debited credits",
		slog.String("lender_uid", uid),
		slog.String("currency", string(currency)),
		slog.Int("amount", amount),
		slog.Int("balance", balance))
	return balance, nil
}

// ActivateSubscription активирует подписку по плану и начисляет его квоту
// лид-кредитов. Повторная активация с тем же subscriptionRef не начисляет
// ничего: запасной путь сверки чекаута безопасен после вебхука.
func (s *Service) ActivateSubscription(ctx context.Context, uid, planPriceID, subscriptionRef string) (bool, error) {
	const op = "ledger.ActivateSubscription"

	plan, ok := s.plans.Subscription(planPriceID)
	if !ok {
		return false, fmt.Errorf("%s: %q: %w", op, planPriceID, models.ErrUnknownPlan)
	}

	granted, err := s.repo.ActivateSubscription(ctx, uid, plan.Name, subscriptionRef, plan.Credits)
	if err != nil {
		return false, err
	}
	if granted {
		metrics.CreditGrantsTotal.WithLabelValues(string(models.CurrencyLead)).Add(float64(plan.Credits))
		s.log.Info("subscription activated",
			slog.String("lender_uid", uid),
			slog.String("plan", plan.Name),
			slog.Int("credits", plan.Credits))
	} else {
		s.log.Info("subscription already active for ref",
			slog.String("lender_uid", uid),
			slog.String("subscription_ref", subscriptionRef))
	}
	return granted, nil
}
