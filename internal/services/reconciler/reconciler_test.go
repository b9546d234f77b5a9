package reconciler

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-marketplace/internal/models"
	"github.com/magabrotheeeer/lead-marketplace/internal/plans"
	"github.com/magabrotheeeer/lead-marketplace/internal/storage"
)

// MockRepository реализует интерфейс reconciler.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetAccountUIDByCustomerRef(ctx context.Context, customerRef string) (string, error) {
	args := m.Called(ctx, customerRef)
	return args.String(0), args.Error(1)
}

func (m *MockRepository) ApplyPaymentEvent(ctx context.Context, event models.PaymentEvent, effects storage.EventEffects) (bool, error) {
	args := m.Called(ctx, event, effects)
	return args.Bool(0), args.Error(1)
}

// MockPublisher реализует интерфейс reconciler.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func activationEvent() models.PaymentEvent {
	return models.PaymentEvent{
		ExternalID:      "evt-1",
		Type:            models.EventSubscriptionActivated,
		PriceID:         "price_pro_monthly",
		CustomerRef:     "cus-1",
		SubscriptionRef: "sub-1",
	}
}

func TestApply_SubscriptionActivation(t *testing.T) {
	repo := new(MockRepository)
	publisher := new(MockPublisher)

	repo.On("GetAccountUIDByCustomerRef", mock.Anything, "cus-1").Return("lender-1", nil)
	repo.On("ApplyPaymentEvent", mock.Anything, activationEvent(), mock.MatchedBy(func(e storage.EventEffects) bool {
		return e.AccountUID == "lender-1" &&
			e.Currency == models.CurrencyLead &&
			e.Amount == 50 &&
			e.Subscription != nil &&
			e.Subscription.Status == models.SubscriptionActive &&
			e.Subscription.PlanName == "Pro"
	})).Return(true, nil)
	publisher.On("Publish", "credits.granted", mock.AnythingOfType("reconciler.GrantNotification")).Return(nil)

	svc := New(repo, plans.Default(), publisher, testLogger())

	outcome, err := svc.Apply(context.Background(), activationEvent())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestApply_DuplicateEventIsNoOp(t *testing.T) {
	repo := new(MockRepository)
	publisher := new(MockPublisher)

	repo.On("GetAccountUIDByCustomerRef", mock.Anything, "cus-1").Return("lender-1", nil)
	repo.On("ApplyPaymentEvent", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	svc := New(repo, plans.Default(), publisher, testLogger())

	outcome, err := svc.Apply(context.Background(), activationEvent())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyProcessed, outcome)

	// дубликат не порождает уведомлений
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestApply_OneTimeVariablePack(t *testing.T) {
	repo := new(MockRepository)

	event := models.PaymentEvent{
		ExternalID:  "evt-2",
		Type:        models.EventOneTimePurchase,
		PriceID:     "price_lead_pack_variable",
		Quantity:    25,
		CustomerRef: "cus-1",
	}

	repo.On("GetAccountUIDByCustomerRef", mock.Anything, "cus-1").Return("lender-1", nil)
	repo.On("ApplyPaymentEvent", mock.Anything, event, mock.MatchedBy(func(e storage.EventEffects) bool {
		return e.Currency == models.CurrencyLead && e.Amount == 25 && e.Subscription == nil
	})).Return(true, nil)

	svc := New(repo, plans.Default(), nil, testLogger())

	outcome, err := svc.Apply(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	repo.AssertExpectations(t)
}

func TestApply_AISearchPack(t *testing.T) {
	repo := new(MockRepository)

	event := models.PaymentEvent{
		ExternalID:  "evt-3",
		Type:        models.EventOneTimePurchase,
		PriceID:     "price_ai_search_pack",
		Quantity:    40,
		CustomerRef: "cus-1",
	}

	repo.On("GetAccountUIDByCustomerRef", mock.Anything, "cus-1").Return("lender-1", nil)
	repo.On("ApplyPaymentEvent", mock.Anything, event, mock.MatchedBy(func(e storage.EventEffects) bool {
		return e.Currency == models.CurrencyAISearch && e.Amount == 40
	})).Return(true, nil)

	svc := New(repo, plans.Default(), nil, testLogger())

	outcome, err := svc.Apply(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
}

func TestApply_UnknownPriceGrantsZero(t *testing.T) {
	repo := new(MockRepository)

	event := models.PaymentEvent{
		ExternalID:  "evt-4",
		Type:        models.EventOneTimePurchase,
		PriceID:     "price_mystery",
		CustomerRef: "cus-1",
	}

	repo.On("GetAccountUIDByCustomerRef", mock.Anything, "cus-1").Return("lender-1", nil)
	repo.On("ApplyPaymentEvent", mock.Anything, event, mock.MatchedBy(func(e storage.EventEffects) bool {
		// событие фиксируется как обработанное, но не начисляет ничего
		return e.Amount == 0 && e.Subscription == nil
	})).Return(true, nil)

	svc := New(repo, plans.Default(), nil, testLogger())

	outcome, err := svc.Apply(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownPrice, outcome)
	repo.AssertExpectations(t)
}

func TestApply_SubscriptionCancellation(t *testing.T) {
	repo := new(MockRepository)

	event := models.PaymentEvent{
		ExternalID:      "evt-5",
		Type:            models.EventSubscriptionCanceled,
		CustomerRef:     "cus-1",
		SubscriptionRef: "sub-1",
	}

	repo.On("GetAccountUIDByCustomerRef", mock.Anything, "cus-1").Return("lender-1", nil)
	repo.On("ApplyPaymentEvent", mock.Anything, event, mock.MatchedBy(func(e storage.EventEffects) bool {
		return e.Amount == 0 &&
			e.Subscription != nil &&
			e.Subscription.Status == models.SubscriptionCanceled
	})).Return(true, nil)

	svc := New(repo, plans.Default(), nil, testLogger())

	outcome, err := svc.Apply(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
}

func TestApply_RejectsInvalidEvent(t *testing.T) {
	svc := New(new(MockRepository), plans.Default(), nil, testLogger())

	_, err := svc.Apply(context.Background(), models.PaymentEvent{
		Type:        models.EventOneTimePurchase,
		CustomerRef: "cus-1",
	})
	assert.Error(t, err) // пустой external id

	_, err = svc.Apply(context.Background(), models.PaymentEvent{
		ExternalID:  "evt-6",
		Type:        models.PaymentEventType("refund"),
		CustomerRef: "cus-1",
	})
	assert.Error(t, err) // неизвестный тип события
}

func TestApply_AccountNotFound(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAccountUIDByCustomerRef", mock.Anything, "cus-ghost").Return("", models.ErrAccountNotFound)

	svc := New(repo, plans.Default(), nil, testLogger())

	_, err := svc.Apply(context.Background(), models.PaymentEvent{
		ExternalID:  "evt-7",
		Type:        models.EventOneTimePurchase,
		PriceID:     "price_lead_pack_1",
		CustomerRef: "cus-ghost",
	})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}
