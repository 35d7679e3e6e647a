package sales

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/internal/inventory"
	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/outbox"
	"github.com/lankapos/pos-backend/pkg/pagination"
	"github.com/lankapos/pos-backend/pkg/types"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubSaleStore struct {
	count    int64
	inserted []*models.Sale
}

func (s *stubSaleStore) InsertTx(_ *gorm.DB, sale *models.Sale) error {
	s.inserted = append(s.inserted, sale)
	return nil
}

func (s *stubSaleStore) CountForDayTx(_ *gorm.DB, _ time.Time) (int64, error) {
	return s.count, nil
}

func (s *stubSaleStore) GetByID(_ context.Context, id uuid.UUID) (*models.Sale, error) {
	for _, sale := range s.inserted {
		if sale.ID == id {
			return sale, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSaleStore) GetByInvoice(_ context.Context, invoice string) (*models.Sale, error) {
	for _, sale := range s.inserted {
		if sale.InvoiceNumber == invoice {
			return sale, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSaleStore) List(_ context.Context, _ pagination.Params) ([]models.Sale, string, error) {
	return nil, "", nil
}

type stubStockMover struct {
	movements []inventory.MovementInput
	err       error
}

func (s *stubStockMover) ApplyMovementTx(_ context.Context, _ *gorm.DB, input inventory.MovementInput) (*models.InventoryLog, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.movements = append(s.movements, input)
	return &models.InventoryLog{ProductID: input.ProductID, Quantity: input.Quantity}, nil
}

type stubLoyaltyLedger struct {
	awarded  []decimal.Decimal
	redeemed []decimal.Decimal
}

func (s *stubLoyaltyLedger) AwardForSaleTx(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ uuid.UUID, total decimal.Decimal) (*models.LoyaltyTransaction, error) {
	s.awarded = append(s.awarded, total)
	return &models.LoyaltyTransaction{}, nil
}

func (s *stubLoyaltyLedger) RedeemForSaleTx(_ context.Context, _ *gorm.DB, _ uuid.UUID, _ uuid.UUID, points decimal.Decimal) (*models.LoyaltyTransaction, error) {
	s.redeemed = append(s.redeemed, points)
	return &models.LoyaltyTransaction{}, nil
}

type stubSaleEmitter struct {
	events []outbox.DomainEvent
}

func (s *stubSaleEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type saleFixture struct {
	svc     Service
	store   *stubSaleStore
	stock   *stubStockMover
	loyalty *stubLoyaltyLedger
	emitter *stubSaleEmitter
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	f := &saleFixture{
		store:   &stubSaleStore{},
		stock:   &stubStockMover{},
		loyalty: &stubLoyaltyLedger{},
		emitter: &stubSaleEmitter{},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(stubTxRunner{}, f.store, f.stock, f.loyalty, f.emitter, nil, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func cashSaleInput() CreateSaleInput {
	item := types.LineItem{
		ProductID: uuid.New(),
		SKU:       "RICE-5KG",
		Name:      "Rice 5kg",
		Quantity:  decimal.NewFromInt(2),
		UnitPrice: decimal.NewFromInt(500),
	}
	item.Recalculate()
	return CreateSaleInput{
		Tier:     enums.PriceTierRetail,
		Items:    types.LineItems{item},
		Subtotal: decimal.NewFromInt(1000),
		Total:    decimal.NewFromInt(1000),
		Payments: types.Payments{
			{Method: enums.PaymentMethodCash, Amount: decimal.NewFromInt(1000)},
		},
		PaymentMode:    enums.PaymentModeSingle,
		AmountTendered: decimal.NewFromInt(1000),
		Terminal:       "counter-1",
		Cashier:        "nimal",
	}
}

func TestCreateSaleMintsSequentialInvoice(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	f.store.count = 41
	day := time.Date(2025, 8, 15, 14, 30, 0, 0, time.UTC)
	f.svc.(*service).now = func() time.Time { return day }

	sale, err := f.svc.CreateSale(context.Background(), cashSaleInput())
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale.InvoiceNumber != "INV-20250815-0042" {
		t.Fatalf("unexpected invoice number %q", sale.InvoiceNumber)
	}
	if len(f.store.inserted) != 1 {
		t.Fatalf("expected one sale row, got %d", len(f.store.inserted))
	}
}

func TestCreateSaleDeductsStockPerLine(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	input := cashSaleInput()

	sale, err := f.svc.CreateSale(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if len(f.stock.movements) != 1 {
		t.Fatalf("expected one stock movement, got %d", len(f.stock.movements))
	}
	mv := f.stock.movements[0]
	if !mv.Quantity.Equal(decimal.NewFromInt(-2)) {
		t.Fatalf("expected movement -2, got %s", mv.Quantity)
	}
	if mv.LogType != enums.InventoryLogSale {
		t.Fatalf("expected sale log type, got %s", mv.LogType)
	}
	if mv.Reference == nil || *mv.Reference != sale.InvoiceNumber {
		t.Fatal("movement must reference the invoice number")
	}
}

func TestCreateSaleEmitsCompletionEvent(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	if _, err := f.svc.CreateSale(context.Background(), cashSaleInput()); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if len(f.emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.emitter.events))
	}
	if f.emitter.events[0].EventType != enums.EventSaleCompleted {
		t.Fatalf("unexpected event type %s", f.emitter.events[0].EventType)
	}
}

func TestCreateSaleRunsLoyaltyForAttachedCustomer(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	customerID := uuid.New()
	input := cashSaleInput()
	input.CustomerID = &customerID
	input.RedeemPoints = decimal.NewFromInt(100)
	input.LoyaltyRedeem = decimal.NewFromInt(100)

	if _, err := f.svc.CreateSale(context.Background(), input); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if len(f.loyalty.redeemed) != 1 || !f.loyalty.redeemed[0].Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected one redemption of 100 points, got %v", f.loyalty.redeemed)
	}
	if len(f.loyalty.awarded) != 1 {
		t.Fatalf("expected one award, got %d", len(f.loyalty.awarded))
	}
}

func TestCreateSaleSkipsLoyaltyForWalkIn(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	if _, err := f.svc.CreateSale(context.Background(), cashSaleInput()); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if len(f.loyalty.awarded) != 0 || len(f.loyalty.redeemed) != 0 {
		t.Fatal("walk-in sale must not touch loyalty")
	}
}

func TestCreateSaleValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*CreateSaleInput)
	}{
		{"empty cart", func(i *CreateSaleInput) { i.Items = nil }},
		{"missing terminal", func(i *CreateSaleInput) { i.Terminal = "  " }},
		{"negative total", func(i *CreateSaleInput) { i.Total = decimal.NewFromInt(-1) }},
		{"no payments", func(i *CreateSaleInput) { i.Payments = nil }},
		{"short payment", func(i *CreateSaleInput) {
			i.Payments = types.Payments{{Method: enums.PaymentMethodCash, Amount: decimal.NewFromInt(400)}}
		}},
		{"redeem without customer", func(i *CreateSaleInput) { i.RedeemPoints = decimal.NewFromInt(50) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newSaleFixture(t)
			input := cashSaleInput()
			tc.mutate(&input)
			_, err := f.svc.CreateSale(context.Background(), input)
			if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
				t.Fatalf("expected VALIDATION, got %v", err)
			}
			if len(f.store.inserted) != 0 {
				t.Fatal("rejected sale must not be written")
			}
		})
	}
}

func TestCreateSaleRollsBackOnStockFailure(t *testing.T) {
	t.Parallel()

	f := newSaleFixture(t)
	f.stock.err = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")

	_, err := f.svc.CreateSale(context.Background(), cashSaleInput())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if len(f.emitter.events) != 0 {
		t.Fatal("failed sale must not emit events")
	}
}
