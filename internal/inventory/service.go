package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/outbox"
	"github.com/lankapos/pos-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLocker interface {
	LockForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error)
	SetStockTx(tx *gorm.DB, id uuid.UUID, stock decimal.Decimal) error
}

type logAppender interface {
	InsertTx(tx *gorm.DB, log *models.InventoryLog) error
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryLog, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns stock movements. Every change to a product's stock goes
// through ApplyMovementTx so the ledger stays complete.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*models.InventoryLog, error)
	ApplyMovementTx(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.InventoryLog, error)
	History(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryLog, error)
}

type service struct {
	tx       txRunner
	products productLocker
	logs     logAppender
	events   eventEmitter
}

// NewService builds an inventory service.
func NewService(tx txRunner, products productLocker, logs logAppender, events eventEmitter) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logs == nil {
		return nil, fmt.Errorf("log repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{tx: tx, products: products, logs: logs, events: events}, nil
}

// AdjustInput is a manual stock correction or goods receipt.
type AdjustInput struct {
	ProductID uuid.UUID
	LogType   enums.InventoryLogType
	Quantity  decimal.Decimal
	Reference *string
	Notes     *string
	CreatedBy string
}

// MovementInput is one signed stock movement applied inside a transaction.
type MovementInput struct {
	ProductID uuid.UUID
	LogType   enums.InventoryLogType
	Quantity  decimal.Decimal
	Reference *string
	Notes     *string
	CreatedBy string
	Actor     *outbox.ActorRef
}

// Adjust applies a manual movement in its own transaction. Adjustments may
// not drive stock negative; sales may (offline counts get reconciled later).
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.InventoryLog, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be zero")
	}
	switch input.LogType {
	case enums.InventoryLogAdjustment, enums.InventoryLogReceiving, enums.InventoryLogReturn:
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "log type must be adjustment, receiving or return")
	}

	var log *models.InventoryLog
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		log, txErr = s.ApplyMovementTx(ctx, tx, MovementInput{
			ProductID: input.ProductID,
			LogType:   input.LogType,
			Quantity:  input.Quantity,
			Reference: input.Reference,
			Notes:     input.Notes,
			CreatedBy: input.CreatedBy,
		})
		if txErr != nil {
			return txErr
		}
		if log.NewStock.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "adjustment would drive stock negative")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return log, nil
}

// ApplyMovementTx locks the product row, moves stock, appends the ledger row
// and queues the outbox events. Callers own the surrounding transaction.
func (s *service) ApplyMovementTx(ctx context.Context, tx *gorm.DB, input MovementInput) (*models.InventoryLog, error) {
	product, err := s.products.LockForUpdateTx(tx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "locking product")
	}

	previous := product.Stock
	newStock := previous.Add(input.Quantity)
	if err := s.products.SetStockTx(tx, product.ID, newStock); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating stock")
	}

	log := &models.InventoryLog{
		ProductID:     product.ID,
		LogType:       input.LogType,
		Quantity:      input.Quantity,
		PreviousStock: previous,
		NewStock:      newStock,
		Reference:     input.Reference,
		Notes:         input.Notes,
		CreatedBy:     input.CreatedBy,
	}
	if err := s.logs.InsertTx(tx, log); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "writing inventory log")
	}

	reference := ""
	if input.Reference != nil {
		reference = *input.Reference
	}
	err = s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateProduct,
		AggregateID:   product.ID,
		Actor:         input.Actor,
		Version:       1,
		Data: payloads.StockAdjusted{
			ProductID:     product.ID,
			LogType:       input.LogType,
			Quantity:      input.Quantity,
			PreviousStock: previous,
			NewStock:      newStock,
			Reference:     reference,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "queueing stock event")
	}

	if crossedReorderLevel(previous, newStock, product.ReorderLevel) {
		err = s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockDepleted,
			AggregateType: enums.AggregateProduct,
			AggregateID:   product.ID,
			Actor:         input.Actor,
			Version:       1,
			Data: payloads.StockDepleted{
				ProductID:    product.ID,
				SKU:          product.SKU,
				NewStock:     newStock,
				ReorderLevel: product.ReorderLevel,
			},
		})
		if err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "queueing depletion event")
		}
	}

	return log, nil
}

func (s *service) History(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryLog, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	rows, err := s.logs.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading inventory history")
	}
	return rows, nil
}

func crossedReorderLevel(previous, current, level decimal.Decimal) bool {
	if !level.IsPositive() {
		return false
	}
	return previous.GreaterThan(level) && current.LessThanOrEqual(level)
}
