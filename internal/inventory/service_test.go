package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/outbox"
)

type stubTxRunner struct {
	err error
}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(&gorm.DB{})
}

type stubProducts struct {
	product  *models.Product
	lockErr  error
	setStock []decimal.Decimal
}

func (s *stubProducts) LockForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	if s.lockErr != nil {
		return nil, s.lockErr
	}
	return s.product, nil
}

func (s *stubProducts) SetStockTx(tx *gorm.DB, id uuid.UUID, stock decimal.Decimal) error {
	s.setStock = append(s.setStock, stock)
	return nil
}

type stubLogs struct {
	inserted []*models.InventoryLog
	rows     []models.InventoryLog
}

func (s *stubLogs) InsertTx(tx *gorm.DB, log *models.InventoryLog) error {
	s.inserted = append(s.inserted, log)
	return nil
}

func (s *stubLogs) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryLog, error) {
	return s.rows, nil
}

type stubEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

type fixture struct {
	svc      Service
	products *stubProducts
	logs     *stubLogs
	emitter  *stubEmitter
}

func newFixture(t *testing.T, product *models.Product) *fixture {
	t.Helper()
	products := &stubProducts{product: product}
	logs := &stubLogs{}
	emitter := &stubEmitter{}
	svc, err := NewService(&stubTxRunner{}, products, logs, emitter)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{svc: svc, products: products, logs: logs, emitter: emitter}
}

func testProduct(stock, reorder int64) *models.Product {
	return &models.Product{
		ID:           uuid.New(),
		SKU:          "RICE-5KG",
		Stock:        decimal.NewFromInt(stock),
		ReorderLevel: decimal.NewFromInt(reorder),
	}
}

func TestAdjustMovesStockAndWritesLedger(t *testing.T) {
	t.Parallel()

	product := testProduct(10, 0)
	f := newFixture(t, product)

	log, err := f.svc.Adjust(context.Background(), AdjustInput{
		ProductID: product.ID,
		LogType:   enums.InventoryLogReceiving,
		Quantity:  decimal.NewFromInt(5),
		CreatedBy: "kasun",
	})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}

	if !log.PreviousStock.Equal(decimal.NewFromInt(10)) || !log.NewStock.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("unexpected ledger row: previous=%s new=%s", log.PreviousStock, log.NewStock)
	}
	if len(f.products.setStock) != 1 || !f.products.setStock[0].Equal(decimal.NewFromInt(15)) {
		t.Fatalf("stock not updated to 15: %v", f.products.setStock)
	}
	if len(f.logs.inserted) != 1 {
		t.Fatalf("expected one ledger insert, got %d", len(f.logs.inserted))
	}
	if len(f.emitter.events) != 1 || f.emitter.events[0].EventType != enums.EventStockAdjusted {
		t.Fatalf("expected one stock adjusted event, got %v", f.emitter.events)
	}
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	t.Parallel()

	product := testProduct(3, 0)
	f := newFixture(t, product)

	_, err := f.svc.Adjust(context.Background(), AdjustInput{
		ProductID: product.ID,
		LogType:   enums.InventoryLogAdjustment,
		Quantity:  decimal.NewFromInt(-5),
	})
	if err == nil {
		t.Fatal("expected negative stock rejection")
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdjustValidatesInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t, testProduct(10, 0))

	cases := []struct {
		name  string
		input AdjustInput
	}{
		{"missing product", AdjustInput{LogType: enums.InventoryLogAdjustment, Quantity: decimal.NewFromInt(1)}},
		{"zero quantity", AdjustInput{ProductID: uuid.New(), LogType: enums.InventoryLogAdjustment}},
		{"sale log type", AdjustInput{ProductID: uuid.New(), LogType: enums.InventoryLogSale, Quantity: decimal.NewFromInt(1)}},
	}
	for _, tc := range cases {
		if _, err := f.svc.Adjust(context.Background(), tc.input); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestApplyMovementEmitsDepletionWhenCrossingReorderLevel(t *testing.T) {
	t.Parallel()

	product := testProduct(12, 10)
	f := newFixture(t, product)

	_, err := f.svc.ApplyMovementTx(context.Background(), &gorm.DB{}, MovementInput{
		ProductID: product.ID,
		LogType:   enums.InventoryLogSale,
		Quantity:  decimal.NewFromInt(-4),
	})
	if err != nil {
		t.Fatalf("ApplyMovementTx: %v", err)
	}

	if len(f.emitter.events) != 2 {
		t.Fatalf("expected adjusted plus depleted events, got %d", len(f.emitter.events))
	}
	if f.emitter.events[1].EventType != enums.EventStockDepleted {
		t.Fatalf("expected depletion event, got %s", f.emitter.events[1].EventType)
	}
}

func TestApplyMovementAllowsNegativeStockForSales(t *testing.T) {
	t.Parallel()

	product := testProduct(1, 0)
	f := newFixture(t, product)

	log, err := f.svc.ApplyMovementTx(context.Background(), &gorm.DB{}, MovementInput{
		ProductID: product.ID,
		LogType:   enums.InventoryLogSale,
		Quantity:  decimal.NewFromInt(-3),
	})
	if err != nil {
		t.Fatalf("ApplyMovementTx: %v", err)
	}
	if !log.NewStock.Equal(decimal.NewFromInt(-2)) {
		t.Fatalf("expected stock to go to -2, got %s", log.NewStock)
	}
}

func TestApplyMovementUnknownProduct(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.products.lockErr = gorm.ErrRecordNotFound

	_, err := f.svc.ApplyMovementTx(context.Background(), &gorm.DB{}, MovementInput{
		ProductID: uuid.New(),
		LogType:   enums.InventoryLogSale,
		Quantity:  decimal.NewFromInt(-1),
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdjustRollsBackOnEmitterFailure(t *testing.T) {
	t.Parallel()

	product := testProduct(10, 0)
	f := newFixture(t, product)
	f.emitter.err = errors.New("outbox insert failed")

	_, err := f.svc.Adjust(context.Background(), AdjustInput{
		ProductID: product.ID,
		LogType:   enums.InventoryLogReceiving,
		Quantity:  decimal.NewFromInt(5),
	})
	if err == nil {
		t.Fatal("expected emitter failure to surface")
	}
}
