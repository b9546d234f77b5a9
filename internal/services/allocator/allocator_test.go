package allocator

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-marketplace/internal/models"
)

// MockRepository реализует интерфейс allocator.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) PurchaseLead(ctx context.Context, lenderUID string, leadID int) (*models.Purchase, error) {
	args := m.Called(ctx, lenderUID, leadID)
	if res := args.Get(0); res != nil {
		return res.(*models.Purchase), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) HasPurchase(ctx context.Context, lenderUID string, leadID int) (bool, error) {
	args := m.Called(ctx, lenderUID, leadID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetLead(ctx context.Context, leadID int) (*models.Lead, error) {
	args := m.Called(ctx, leadID)
	if res := args.Get(0); res != nil {
		return res.(*models.Lead), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) GetLeadForLender(ctx context.Context, leadID int, lenderUID string) (*models.LeadListing, error) {
	args := m.Called(ctx, leadID, lenderUID)
	if res := args.Get(0); res != nil {
		return res.(*models.LeadListing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) CreateLead(ctx context.Context, lead models.Lead) (int, error) {
	args := m.Called(ctx, lead)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) MarkLeadViewed(ctx context.Context, leadID int) error {
	args := m.Called(ctx, leadID)
	return args.Error(0)
}

func (m *MockRepository) MarkLeadContacted(ctx context.Context, leadID int) error {
	args := m.Called(ctx, leadID)
	return args.Error(0)
}

func (m *MockRepository) ListLeads(ctx context.Context, lenderUID string, limit, offset int) ([]*models.LeadListing, error) {
	args := m.Called(ctx, lenderUID, limit, offset)
	if res := args.Get(0); res != nil {
		return res.([]*models.LeadListing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRepository) ListPurchasedLeads(ctx context.Context, lenderUID string) ([]*models.LeadListing, error) {
	args := m.Called(ctx, lenderUID)
	if res := args.Get(0); res != nil {
		return res.([]*models.LeadListing), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPublisher реализует интерфейс allocator.Publisher
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

func TestPurchase(t *testing.T) {
	repo := new(MockRepository)
	publisher := new(MockPublisher)

	purchase := &models.Purchase{ID: "p-1", LenderUID: "lender-1", LeadID: 7}
	repo.On("PurchaseLead", mock.Anything, "lender-1", 7).Return(purchase, nil)
	publisher.On("Publish", "lead.purchased", PurchaseNotification{
		PurchaseID: "p-1", LenderUID: "lender-1", LeadID: 7,
	}).Return(nil)

	svc := New(repo, publisher, testLogger())

	got, err := svc.Purchase(context.Background(), "lender-1", 7)
	require.NoError(t, err)
	assert.Equal(t, purchase, got)

	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestPurchase_AlreadyPurchased(t *testing.T) {
	repo := new(MockRepository)
	publisher := new(MockPublisher)

	repo.On("PurchaseLead", mock.Anything, "lender-1", 7).Return(nil, models.ErrAlreadyPurchased)

	svc := New(repo, publisher, testLogger())

	_, err := svc.Purchase(context.Background(), "lender-1", 7)
	assert.ErrorIs(t, err, models.ErrAlreadyPurchased)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPurchase_InsufficientCredits(t *testing.T) {
	repo := new(MockRepository)
	repo.On("PurchaseLead", mock.Anything, "lender-1", 7).Return(nil, models.ErrInsufficientCredits)

	svc := New(repo, nil, testLogger())

	_, err := svc.Purchase(context.Background(), "lender-1", 7)
	assert.ErrorIs(t, err, models.ErrInsufficientCredits)
}

func TestPurchase_PublishFailureDoesNotFailPurchase(t *testing.T) {
	repo := new(MockRepository)
	publisher := new(MockPublisher)

	purchase := &models.Purchase{ID: "p-2", LenderUID: "lender-1", LeadID: 8}
	repo.On("PurchaseLead", mock.Anything, "lender-1", 8).Return(purchase, nil)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := New(repo, publisher, testLogger())

	got, err := svc.Purchase(context.Background(), "lender-1", 8)
	require.NoError(t, err)
	assert.Equal(t, "p-2", got.ID)
}

func TestMarkContacted(t *testing.T) {
	repo := new(MockRepository)

	repo.On("HasPurchase", mock.Anything, "lender-1", 7).Return(true, nil)
	repo.On("GetLead", mock.Anything, 7).Return(&models.Lead{ID: 7, Status: models.LeadStatusViewed}, nil)
	repo.On("MarkLeadContacted", mock.Anything, 7).Return(nil)

	svc := New(repo, nil, testLogger())

	require.NoError(t, svc.MarkContacted(context.Background(), "lender-1", 7))
	repo.AssertExpectations(t)
}

func TestMarkContacted_WithoutPurchase(t *testing.T) {
	repo := new(MockRepository)
	repo.On("HasPurchase", mock.Anything, "lender-1", 7).Return(false, nil)

	svc := New(repo, nil, testLogger())

	err := svc.MarkContacted(context.Background(), "lender-1", 7)
	assert.ErrorIs(t, err, models.ErrPurchaseRequired)
	repo.AssertNotCalled(t, "MarkLeadContacted", mock.Anything, mock.Anything)
}

func TestMarkContacted_ClosedLead(t *testing.T) {
	repo := new(MockRepository)
	repo.On("HasPurchase", mock.Anything, "lender-1", 7).Return(true, nil)
	repo.On("GetLead", mock.Anything, 7).Return(&models.Lead{ID: 7, Status: models.LeadStatusClosed}, nil)

	svc := New(repo, nil, testLogger())

	err := svc.MarkContacted(context.Background(), "lender-1", 7)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestMarkContacted_AlreadyContactedIsNoOp(t *testing.T) {
	repo := new(MockRepository)
	repo.On("HasPurchase", mock.Anything, "lender-1", 7).Return(true, nil)
	repo.On("GetLead", mock.Anything, 7).Return(&models.Lead{ID: 7, Status: models.LeadStatusContacted}, nil)
	repo.On("MarkLeadContacted", mock.Anything, 7).Return(nil)

	svc := New(repo, nil, testLogger())

	require.NoError(t, svc.MarkContacted(context.Background(), "lender-1", 7))
}

func TestList_ClampsPagination(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListLeads", mock.Anything, "lender-1", 20, 0).Return([]*models.LeadListing{}, nil)

	svc := New(repo, nil, testLogger())

	_, err := svc.List(context.Background(), "lender-1", 1000, -5)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCreate(t *testing.T) {
	repo := new(MockRepository)
	lead := models.Lead{LoanRequestID: 12, BorrowerUID: "b-1", Status: models.LeadStatusNew}
	repo.On("CreateLead", mock.Anything, lead).Return(42, nil)

	svc := New(repo, nil, testLogger())

	id, err := svc.Create(context.Background(), lead)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}
