package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

func TestGrantAndDebitCredits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	uid := createTestLender(t, storage, "cus-grant", 0, 0)

	balance, err := storage.GrantCredits(ctx, uid, models.CurrencyLead, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, balance)

	balance, err = storage.DebitCredits(ctx, uid, models.CurrencyLead, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, balance)

	// валюты независимы
	balance, err = storage.GrantCredits(ctx, uid, models.CurrencyAISearch, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, balance)

	account, err := storage.GetLenderAccount(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 7, account.LeadCredits)
	assert.Equal(t, 5, account.AISearchCredits)
}

func TestDebitCredits_FloorIsZero(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	uid := createTestLender(t, storage, "cus-floor", 2, 0)

	_, err := storage.DebitCredits(ctx, uid, models.CurrencyLead, 5)
	assert.ErrorIs(t, err, models.ErrInsufficientCredits)

	// баланс не изменился
	account, err := storage.GetLenderAccount(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 2, account.LeadCredits)
}

func TestDebitCredits_UnknownAccount(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := storage.DebitCredits(context.Background(), "00000000-0000-0000-0000-000000000000", models.CurrencyLead, 1)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestApplyPaymentEvent_Deduplication(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	uid := createTestLender(t, storage, "cus-dedupe", 0, 0)

	event := models.PaymentEvent{
		ExternalID:  "evt-dedupe-1",
		Type:        models.EventOneTimePurchase,
		PriceID:     "price_lead_pack_10",
		CustomerRef: "cus-dedupe",
	}
	effects := EventEffects{AccountUID: uid, Currency: models.CurrencyLead, Amount: 10}

	// N доставок — ровно одно начисление
	for i := 0; i < 3; i++ {
		applied, err := storage.ApplyPaymentEvent(ctx, event, effects)
		require.NoError(t, err)
		assert.Equal(t, i == 0, applied, "delivery %d", i)
	}

	account, err := storage.GetLenderAccount(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 10, account.LeadCredits)
}

func TestApplyPaymentEvent_SubscriptionUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	uid := createTestLender(t, storage, "cus-sub", 0, 0)

	event := models.PaymentEvent{
		ExternalID:      "evt-sub-1",
		Type:            models.EventSubscriptionActivated,
		PriceID:         "price_pro_monthly",
		CustomerRef:     "cus-sub",
		SubscriptionRef: "sub-1",
	}
	effects := EventEffects{
		AccountUID: uid,
		Currency:   models.CurrencyLead,
		Amount:     50,
		Subscription: &SubscriptionUpdate{
			Status:   models.SubscriptionActive,
			Ref:      "sub-1",
			PlanName: "Pro",
		},
	}

	applied, err := storage.ApplyPaymentEvent(ctx, event, effects)
	require.NoError(t, err)
	require.True(t, applied)

	account, err := storage.GetLenderAccount(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 50, account.LeadCredits)
	assert.Equal(t, models.SubscriptionActive, account.SubscriptionStatus)
	require.NotNil(t, account.CurrentPlan)
	assert.Equal(t, "Pro", *account.CurrentPlan)
}

func TestPurchaseLead(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	lenderUID := createTestLender(t, storage, "cus-buy", 10, 0)
	borrowerUID := createTestBorrower(t, storage)
	leadID := createTestLead(t, storage, borrowerUID)

	purchase, err := storage.PurchaseLead(ctx, lenderUID, leadID)
	require.NoError(t, err)
	assert.Equal(t, lenderUID, purchase.LenderUID)
	assert.Equal(t, leadID, purchase.LeadID)

	account, err := storage.GetLenderAccount(ctx, lenderUID)
	require.NoError(t, err)
	assert.Equal(t, 9, account.LeadCredits)

	// повторная покупка той же пары: конфликт, баланс не меняется
	_, err = storage.PurchaseLead(ctx, lenderUID, leadID)
	assert.ErrorIs(t, err, models.ErrAlreadyPurchased)

	account, err = storage.GetLenderAccount(ctx, lenderUID)
	require.NoError(t, err)
	assert.Equal(t, 9, account.LeadCredits)
}

func TestPurchaseLead_SharedLeadModel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	first := createTestLender(t, storage, "cus-shared-1", 5, 0)
	second := createTestLender(t, storage, "cus-shared-2", 5, 0)
	borrowerUID := createTestBorrower(t, storage)
	leadID := createTestLead(t, storage, borrowerUID)

	_, err := storage.PurchaseLead(ctx, first, leadID)
	require.NoError(t, err)

	// лид остаётся доступен другому кредитору
	_, err = storage.PurchaseLead(ctx, second, leadID)
	require.NoError(t, err)
}

func TestPurchaseLead_ConcurrentSamePair(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	lenderUID := createTestLender(t, storage, "cus-race", 10, 0)
	borrowerUID := createTestBorrower(t, storage)
	leadID := createTestLead(t, storage, borrowerUID)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := storage.PurchaseLead(ctx, lenderUID, leadID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, models.ErrAlreadyPurchased):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one purchase must win")
	assert.Equal(t, workers-1, conflicted)

	// списан ровно один кредит
	account, err := storage.GetLenderAccount(ctx, lenderUID)
	require.NoError(t, err)
	assert.Equal(t, 9, account.LeadCredits)
}

func TestPurchaseLead_InsufficientCredits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	lenderUID := createTestLender(t, storage, "cus-poor", 0, 0)
	borrowerUID := createTestBorrower(t, storage)
	leadID := createTestLead(t, storage, borrowerUID)

	_, err := storage.PurchaseLead(ctx, lenderUID, leadID)
	assert.ErrorIs(t, err, models.ErrInsufficientCredits)
}

func TestContactGating(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	buyer := createTestLender(t, storage, "cus-gate-1", 5, 0)
	watcher := createTestLender(t, storage, "cus-gate-2", 5, 0)
	borrowerUID := createTestBorrower(t, storage)
	leadID := createTestLead(t, storage, borrowerUID)

	_, err := storage.PurchaseLead(ctx, buyer, leadID)
	require.NoError(t, err)

	// покупатель видит контакты
	listing, err := storage.GetLeadForLender(ctx, leadID, buyer)
	require.NoError(t, err)
	assert.True(t, listing.IsPurchased)
	require.NotNil(t, listing.Contact)
	assert.Equal(t, "maria@example.com", listing.Contact.Email)

	// не-покупатель — нет
	listing, err = storage.GetLeadForLender(ctx, leadID, watcher)
	require.NoError(t, err)
	assert.False(t, listing.IsPurchased)
	assert.Nil(t, listing.Contact)
}

func TestLeadStatusTransitions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	borrowerUID := createTestBorrower(t, storage)
	leadID := createTestLead(t, storage, borrowerUID)

	// new -> viewed, повтор — no-op
	require.NoError(t, storage.MarkLeadViewed(ctx, leadID))
	require.NoError(t, storage.MarkLeadViewed(ctx, leadID))

	lead, err := storage.GetLead(ctx, leadID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusViewed, lead.Status)

	// viewed -> contacted
	require.NoError(t, storage.MarkLeadContacted(ctx, leadID))
	lead, err = storage.GetLead(ctx, leadID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusContacted, lead.Status)
	assert.True(t, lead.ContactMade)
	assert.NotNil(t, lead.ContactDate)

	// закрытый лид менять нельзя
	_, err = storage.DB.Exec(`UPDATE leads SET status = 'closed' WHERE id = $1`, leadID)
	require.NoError(t, err)
	assert.ErrorIs(t, storage.MarkLeadContacted(ctx, leadID), models.ErrInvalidTransition)
}

func TestActivateSubscription_IdempotentPerRef(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	uid := createTestLender(t, storage, "cus-activate", 0, 0)

	granted, err := storage.ActivateSubscription(ctx, uid, "Starter", "sub-a", 10)
	require.NoError(t, err)
	assert.True(t, granted)

	// повтор той же подписки не начисляет
	granted, err = storage.ActivateSubscription(ctx, uid, "Starter", "sub-a", 10)
	require.NoError(t, err)
	assert.False(t, granted)

	account, err := storage.GetLenderAccount(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 10, account.LeadCredits)

	// новая подписка начисляет снова
	granted, err = storage.ActivateSubscription(ctx, uid, "Pro", "sub-b", 50)
	require.NoError(t, err)
	assert.True(t, granted)

	account, err = storage.GetLenderAccount(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 60, account.LeadCredits)
}

func TestScoreProfileRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	borrowerUID := createTestBorrower(t, storage)

	_, err := storage.DB.Exec(`
		INSERT INTO borrower_financials (borrower_uid, debt_to_income_ratio, employment_status)
		VALUES ($1, 0.25, 'Empleado')`, borrowerUID)
	require.NoError(t, err)

	financials, err := storage.GetBorrowerFinancials(ctx, borrowerUID)
	require.NoError(t, err)
	require.NotNil(t, financials.DebtToIncomeRatio)
	assert.InDelta(t, 0.25, *financials.DebtToIncomeRatio, 1e-9)

	score := 80
	require.NoError(t, storage.UpsertLinguisticAnalysis(ctx, models.LinguisticAnalysis{
		BorrowerUID: borrowerUID,
		Score:       &score,
		Indicators: []models.Indicator{
			{Text: "pago puntual", Tag: models.IndicatorPositive},
		},
	}))

	analysis, err := storage.GetLinguisticAnalysis(ctx, borrowerUID)
	require.NoError(t, err)
	require.NotNil(t, analysis)
	require.Len(t, analysis.Indicators, 1)
	assert.Equal(t, models.IndicatorPositive, analysis.Indicators[0].Tag)

	require.NoError(t, storage.UpsertScoreProfile(ctx, models.ScoreProfile{
		BorrowerUID:    borrowerUID,
		FinancialScore: 85,
		FinalScore:     83.5,
	}))

	profile, err := storage.GetScoreProfile(ctx, borrowerUID)
	require.NoError(t, err)
	assert.InDelta(t, 83.5, profile.FinalScore, 1e-9)

	// upsert перезаписывает
	require.NoError(t, storage.UpsertScoreProfile(ctx, models.ScoreProfile{
		BorrowerUID:    borrowerUID,
		FinancialScore: 40,
		FinalScore:     28,
	}))
	profile, err = storage.GetScoreProfile(ctx, borrowerUID)
	require.NoError(t, err)
	assert.InDelta(t, 28, profile.FinalScore, 1e-9)
}

func TestListLeads_OrderAndFlags(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	storage, cleanup := setupTestDb(t)
	defer cleanup()
	ctx := context.Background()

	lenderUID := createTestLender(t, storage, "cus-list", 5, 0)

	highBorrower := createTestBorrower(t, storage)
	lowBorrower := createTestBorrower(t, storage)
	unscoredBorrower := createTestBorrower(t, storage)

	highLead := createTestLead(t, storage, highBorrower)
	lowLead := createTestLead(t, storage, lowBorrower)
	unscoredLead := createTestLead(t, storage, unscoredBorrower)

	require.NoError(t, storage.UpsertScoreProfile(ctx, models.ScoreProfile{BorrowerUID: highBorrower, FinalScore: 90}))
	require.NoError(t, storage.UpsertScoreProfile(ctx, models.ScoreProfile{BorrowerUID: lowBorrower, FinalScore: 30}))

	_, err := storage.PurchaseLead(ctx, lenderUID, lowLead)
	require.NoError(t, err)

	listings, err := storage.ListLeads(ctx, lenderUID, 20, 0)
	require.NoError(t, err)
	require.Len(t, listings, 3)

	// сортировка по убыванию скора, лиды без скора в конце
	assert.Equal(t, highLead, listings[0].Lead.ID)
	assert.Equal(t, lowLead, listings[1].Lead.ID)
	assert.Equal(t, unscoredLead, listings[2].Lead.ID)

	assert.False(t, listings[0].IsPurchased)
	assert.True(t, listings[1].IsPurchased)
	assert.Nil(t, listings[2].FinalScore)

	purchasedOnly, err := storage.ListPurchasedLeads(ctx, lenderUID)
	require.NoError(t, err)
	require.Len(t, purchasedOnly, 1)
	assert.Equal(t, lowLead, purchasedOnly[0].Lead.ID)
}
