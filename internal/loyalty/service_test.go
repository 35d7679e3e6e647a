package loyalty

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/outbox"
)

type stubLoyaltyStore struct {
	settings models.LoyaltySettings
	inserted []*models.LoyaltyTransaction
}

func (s *stubLoyaltyStore) GetSettings(_ context.Context) (*models.LoyaltySettings, error) {
	copied := s.settings
	return &copied, nil
}

func (s *stubLoyaltyStore) UpdateSettings(_ context.Context, settings *models.LoyaltySettings) (*models.LoyaltySettings, error) {
	s.settings = *settings
	return settings, nil
}

func (s *stubLoyaltyStore) InsertTransactionTx(_ *gorm.DB, row *models.LoyaltyTransaction) error {
	s.inserted = append(s.inserted, row)
	return nil
}

func (s *stubLoyaltyStore) ListTransactions(_ context.Context, _ uuid.UUID, _ int) ([]models.LoyaltyTransaction, error) {
	return nil, nil
}

type stubAccounts struct {
	customer *models.Customer
	points   decimal.Decimal
	lifetime decimal.Decimal
}

func (s *stubAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Customer, error) {
	if s.customer == nil || s.customer.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.customer, nil
}

func (s *stubAccounts) LockForUpdateTx(_ *gorm.DB, id uuid.UUID) (*models.Customer, error) {
	return s.GetByID(context.Background(), id)
}

func (s *stubAccounts) SetPointsTx(_ *gorm.DB, _ uuid.UUID, points, lifetime decimal.Decimal) error {
	s.points = points
	s.lifetime = lifetime
	return nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestLoyalty(t *testing.T, store *stubLoyaltyStore, accounts *stubAccounts) Service {
	t.Helper()
	svc, err := NewService(store, accounts, &stubEmitter{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestQuoteRedemptionHappyPath(t *testing.T) {
	t.Parallel()

	customer := &models.Customer{ID: uuid.New(), LoyaltyPoints: decimal.NewFromInt(500)}
	svc := newTestLoyalty(t, &stubLoyaltyStore{settings: defaultSettings()}, &stubAccounts{customer: customer})

	quote, err := svc.QuoteRedemption(context.Background(), customer.ID, decimal.NewFromInt(200), decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("QuoteRedemption: %v", err)
	}
	if !quote.Discount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected discount 200, got %s", quote.Discount)
	}
}

func TestQuoteRedemptionClampsToMaxPercent(t *testing.T) {
	t.Parallel()

	customer := &models.Customer{ID: uuid.New(), LoyaltyPoints: decimal.NewFromInt(5000)}
	svc := newTestLoyalty(t, &stubLoyaltyStore{settings: defaultSettings()}, &stubAccounts{customer: customer})

	// 50% of a 1000 cart caps the discount at 500
	quote, err := svc.QuoteRedemption(context.Background(), customer.ID, decimal.NewFromInt(2000), decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("QuoteRedemption: %v", err)
	}
	if !quote.Discount.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected clamped discount 500, got %s", quote.Discount)
	}
	if !quote.Points.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected points recomputed to 500, got %s", quote.Points)
	}
}

func TestQuoteRedemptionRejectsBelowMinimum(t *testing.T) {
	t.Parallel()

	customer := &models.Customer{ID: uuid.New(), LoyaltyPoints: decimal.NewFromInt(500)}
	svc := newTestLoyalty(t, &stubLoyaltyStore{settings: defaultSettings()}, &stubAccounts{customer: customer})

	_, err := svc.QuoteRedemption(context.Background(), customer.ID, decimal.NewFromInt(50), decimal.NewFromInt(1000))
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION for points below minimum, got %v", err)
	}
}

func TestQuoteRedemptionRejectsInsufficientBalance(t *testing.T) {
	t.Parallel()

	customer := &models.Customer{ID: uuid.New(), LoyaltyPoints: decimal.NewFromInt(100)}
	svc := newTestLoyalty(t, &stubLoyaltyStore{settings: defaultSettings()}, &stubAccounts{customer: customer})

	_, err := svc.QuoteRedemption(context.Background(), customer.ID, decimal.NewFromInt(200), decimal.NewFromInt(1000))
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION for insufficient balance, got %v", err)
	}
}

func TestAwardForSaleAppliesTierMultiplier(t *testing.T) {
	t.Parallel()

	customer := &models.Customer{
		ID:             uuid.New(),
		LoyaltyPoints:  decimal.NewFromInt(0),
		LifetimePoints: decimal.NewFromInt(6000), // gold
	}
	store := &stubLoyaltyStore{settings: defaultSettings()}
	accounts := &stubAccounts{customer: customer}
	svc := newTestLoyalty(t, store, accounts)

	row, err := svc.AwardForSaleTx(context.Background(), &gorm.DB{}, customer.ID, uuid.New(), decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("AwardForSaleTx: %v", err)
	}
	// 1000 * 0.01 * 1.5 = 15
	if !row.Points.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected 15 points, got %s", row.Points)
	}
	if !accounts.points.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected balance updated to 15, got %s", accounts.points)
	}
}

func TestAwardForSaleDisabledProgram(t *testing.T) {
	t.Parallel()

	settings := defaultSettings()
	settings.Enabled = false
	customer := &models.Customer{ID: uuid.New()}
	svc := newTestLoyalty(t, &stubLoyaltyStore{settings: settings}, &stubAccounts{customer: customer})

	row, err := svc.AwardForSaleTx(context.Background(), &gorm.DB{}, customer.ID, uuid.New(), decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("AwardForSaleTx: %v", err)
	}
	if row != nil {
		t.Fatal("expected no award when program disabled")
	}
}

func TestRedeemForSaleDeductsBalance(t *testing.T) {
	t.Parallel()

	customer := &models.Customer{
		ID:             uuid.New(),
		LoyaltyPoints:  decimal.NewFromInt(300),
		LifetimePoints: decimal.NewFromInt(300),
	}
	accounts := &stubAccounts{customer: customer}
	svc := newTestLoyalty(t, &stubLoyaltyStore{settings: defaultSettings()}, accounts)

	row, err := svc.RedeemForSaleTx(context.Background(), &gorm.DB{}, customer.ID, uuid.New(), decimal.NewFromInt(200))
	if err != nil {
		t.Fatalf("RedeemForSaleTx: %v", err)
	}
	if !row.BalanceAfter.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance 100, got %s", row.BalanceAfter)
	}
	if !accounts.lifetime.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("redeeming must not change lifetime points, got %s", accounts.lifetime)
	}
}
