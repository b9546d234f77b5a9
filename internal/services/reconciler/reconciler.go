// Package reconciler превращает события платёжного провайдера в начисления
// кредитного леджера. Доставка событий как минимум однократная, возможны
// дубли и нарушение порядка, поэтому каждое событие фиксируется в
// append-only таблице дедупликации в одной транзакции со своими эффектами.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/lead-marketplace/internal/metrics"
	"github.com/magabrotheeeer/lead-marketplace/internal/models"
	"github.com/magabrotheeeer/lead-marketplace/internal/plans"
	"github.com/magabrotheeeer/lead-marketplace/internal/storage"
)

// Outcome исход применения события.
type Outcome string

const (
	// OutcomeApplied событие применено, кредиты начислены.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadyProcessed событие уже обработано ранее; идемпотентный
	// no-op, для вызывающего — успех.
	OutcomeAlreadyProcessed Outcome = "already_processed"
	// OutcomeUnknownPrice неизвестный идентификатор цены: начислено ноль,
	// событие помечено обработанным, доставка не считается неуспешной.
	OutcomeUnknownPrice Outcome = "unknown_price"
)

// Repository определяет методы хранилища для согласования платежей.
type Repository interface {
	// GetAccountUIDByCustomerRef находит счёт по идентификатору клиента
	// платёжного провайдера.
	GetAccountUIDByCustomerRef(ctx context.Context, customerRef string) (string, error)
	// ApplyPaymentEvent атомарно фиксирует событие и применяет эффекты;
	// false означает дубликат.
	ApplyPaymentEvent(ctx context.Context, event models.PaymentEvent, effects storage.EventEffects) (bool, error)
}

// Publisher публикует уведомления о начислениях для внешнего сервиса
// рассылки. Публикация best-effort и не влияет на исход события.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// GrantNotification сообщение о начислении кредитов.
type GrantNotification struct {
	LenderUID string          `json:"lender_uid"`
	Currency  models.Currency `json:"currency"`
	Amount    int             `json:"amount"`
	EventID   string          `json:"event_id"`
	PlanName  string          `json:"plan_name,omitempty"`
}

// Service согласует платёжные события с леджером.
type Service struct {
	repo      Repository
	plans     *plans.Table
	publisher Publisher
	log       *slog.Logger
}

// New создаёт новый экземпляр Service. publisher может быть nil.
func New(repo Repository, planTable *plans.Table, publisher Publisher, log *slog.Logger) *Service {
	return &Service{repo: repo, plans: planTable, publisher: publisher, log: log}
}

// Apply применяет одно событие провайдера. Проверка дедупликации и все
// эффекты выполняются одной транзакцией хранилища: повторная доставка
// любого события даёт AlreadyProcessed без побочных эффектов.
// Подпись вебхука проверяется до вызова Apply.
func (s *Service) Apply(ctx context.Context, event models.PaymentEvent) (Outcome, error) {
	const op = "reconciler.Apply"

	log := s.log.With(
		slog.String("op", op),
		slog.String("event_id", event.ExternalID),
		slog.String("event_type", string(event.Type)))

	if event.ExternalID == "" {
		return "", fmt.Errorf("%s: empty external event id", op)
	}
	if !event.Type.Valid() {
		return "", fmt.Errorf("%s: unknown event type %q", op, event.Type)
	}

	accountUID, err := s.repo.GetAccountUIDByCustomerRef(ctx, event.CustomerRef)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	effects, outcome := s.resolveEffects(event, accountUID, log)

	applied, err := s.repo.ApplyPaymentEvent(ctx, event, effects)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !applied {
		log.Info("duplicate payment event ignored")
		metrics.PaymentEventsTotal.WithLabelValues(string(OutcomeAlreadyProcessed)).Inc()
		return OutcomeAlreadyProcessed, nil
	}

	metrics.PaymentEventsTotal.WithLabelValues(string(outcome)).Inc()
	if effects.Amount > 0 {
		metrics.CreditGrantsTotal.WithLabelValues(string(effects.Currency)).Add(float64(effects.Amount))
		s.notify(GrantNotification{
			LenderUID: accountUID,
			Currency:  effects.Currency,
			Amount:    effects.Amount,
			EventID:   event.ExternalID,
		})
	}

	log.Info("payment event applied",
		slog.String("outcome", string(outcome)),
		slog.Int("granted", effects.Amount))
	return outcome, nil
}

// resolveEffects переводит событие в эффекты леджера. Диспетчеризация по
// типу события выполняется здесь один раз, после проверки идемпотентности
// остаётся только применить уже вычисленные эффекты.
func (s *Service) resolveEffects(event models.PaymentEvent, accountUID string, log *slog.Logger) (storage.EventEffects, Outcome) {
	effects := storage.EventEffects{AccountUID: accountUID}

	switch event.Type {
	case models.EventSubscriptionActivated, models.EventSubscriptionRenewed:
		plan, ok := s.plans.Subscription(event.PriceID)
		if !ok {
			log.Warn("unknown subscription price id, granting zero",
				slog.String("price_id", event.PriceID))
			return effects, OutcomeUnknownPrice
		}
		effects.Currency = models.CurrencyLead
		effects.Amount = plan.Credits
		effects.Subscription = &storage.SubscriptionUpdate{
			Status:   models.SubscriptionActive,
			Ref:      event.SubscriptionRef,
			PlanName: plan.Name,
		}
		return effects, OutcomeApplied

	case models.EventSubscriptionCanceled:
		effects.Subscription = &storage.SubscriptionUpdate{
			Status: models.SubscriptionCanceled,
			Ref:    event.SubscriptionRef,
		}
		return effects, OutcomeApplied

	case models.EventOneTimePurchase:
		grant, ok := s.plans.ResolveOneTime(event.PriceID, event.Quantity)
		if !ok {
			log.Warn("unknown one-time price id, granting zero",
				slog.String("price_id", event.PriceID))
			return effects, OutcomeUnknownPrice
		}
		effects.Currency = grant.Currency
		effects.Amount = grant.Amount
		return effects, OutcomeApplied
	}

	// недостижимо: тип провалидирован в Apply
	return effects, OutcomeUnknownPrice
}

func (s *Service) notify(n GrantNotification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish("credits.granted", n); err != nil {
		s.log.Warn("failed to publish grant notification",
			slog.String("event_id", n.EventID), slog.Any("err", err))
	}
}
