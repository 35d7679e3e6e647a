package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/internal/inventory"
	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/metrics"
	"github.com/lankapos/pos-backend/pkg/outbox"
	"github.com/lankapos/pos-backend/pkg/outbox/payloads"
	"github.com/lankapos/pos-backend/pkg/pagination"
	"github.com/lankapos/pos-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type saleStore interface {
	InsertTx(tx *gorm.DB, sale *models.Sale) error
	CountForDayTx(tx *gorm.DB, day time.Time) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	GetByInvoice(ctx context.Context, invoice string) (*models.Sale, error)
	List(ctx context.Context, params pagination.Params) ([]models.Sale, string, error)
}

type stockMover interface {
	ApplyMovementTx(ctx context.Context, tx *gorm.DB, input inventory.MovementInput) (*models.InventoryLog, error)
}

type loyaltyLedger interface {
	AwardForSaleTx(ctx context.Context, tx *gorm.DB, customerID, saleID uuid.UUID, saleTotal decimal.Decimal) (*models.LoyaltyTransaction, error)
	RedeemForSaleTx(ctx context.Context, tx *gorm.DB, customerID, saleID uuid.UUID, points decimal.Decimal) (*models.LoyaltyTransaction, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service finalizes checkouts into immutable sale records.
type Service interface {
	CreateSale(ctx context.Context, input CreateSaleInput) (*models.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error)
	GetByInvoice(ctx context.Context, invoice string) (*models.Sale, error)
	ListSales(ctx context.Context, params pagination.Params) ([]models.Sale, string, error)
}

type service struct {
	tx      txRunner
	repo    saleStore
	stock   stockMover
	loyalty loyaltyLedger
	events  eventEmitter
	metrics *metrics.POSMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds a sales service.
func NewService(tx txRunner, repo saleStore, stock stockMover, loyalty loyaltyLedger, events eventEmitter, posMetrics *metrics.POSMetrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if loyalty == nil {
		return nil, fmt.Errorf("loyalty service required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		stock:   stock,
		loyalty: loyalty,
		events:  events,
		metrics: posMetrics,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// CreateSaleInput is the reconciled checkout snapshot to persist.
type CreateSaleInput struct {
	CustomerID     *uuid.UUID
	CustomerName   string
	Tier           enums.PriceTier
	Items          types.LineItems
	Subtotal       decimal.Decimal
	TotalDiscount  decimal.Decimal
	LoyaltyRedeem  decimal.Decimal
	RedeemPoints   decimal.Decimal
	Total          decimal.Decimal
	Payments       types.Payments
	PaymentMode    enums.PaymentMode
	AmountTendered decimal.Decimal
	ChangeDue      decimal.Decimal
	Terminal       string
	Cashier        string
	Notes          *string
}

func (i CreateSaleInput) validate() error {
	if len(i.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale must contain at least one item")
	}
	if strings.TrimSpace(i.Terminal) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "terminal is required")
	}
	if i.Total.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale total cannot be negative")
	}
	if len(i.Payments) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale must carry at least one payment")
	}
	if i.Payments.Sum().LessThan(i.Total) {
		return pkgerrors.New(pkgerrors.CodeValidation, "payments do not cover the sale total")
	}
	for _, p := range i.Payments {
		if !p.Method.Valid() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
		}
		if !p.Amount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment amounts must be positive")
		}
	}
	if i.RedeemPoints.IsPositive() && i.CustomerID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "loyalty redemption requires a customer")
	}
	return nil
}

// CreateSale runs the whole submission in one transaction: invoice number,
// sale row, stock deductions with ledger rows, loyalty movements and the
// completion event. Any failure rolls everything back.
func (s *service) CreateSale(ctx context.Context, input CreateSaleInput) (*models.Sale, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	actor := &outbox.ActorRef{Terminal: input.Terminal, Cashier: input.Cashier}
	var sale *models.Sale

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now()
		seq, err := s.repo.CountForDayTx(tx, now)
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "counting daily sales")
		}
		invoice := fmt.Sprintf("INV-%s-%04d", now.Format("20060102"), seq+1)

		sale = &models.Sale{
			ID:             uuid.New(),
			InvoiceNumber:  invoice,
			CustomerID:     input.CustomerID,
			CustomerName:   input.CustomerName,
			PriceTier:      input.Tier,
			Items:          input.Items.Clone(),
			Subtotal:       input.Subtotal,
			TotalDiscount:  input.TotalDiscount,
			LoyaltyRedeem:  input.LoyaltyRedeem,
			Total:          input.Total,
			Payments:       input.Payments,
			AmountTendered: input.AmountTendered,
			ChangeDue:      input.ChangeDue,
			Status:         enums.SaleStatusCompleted,
			TerminalName:   input.Terminal,
			CashierName:    input.Cashier,
			Notes:          input.Notes,
		}
		if err := s.repo.InsertTx(tx, sale); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "writing sale")
		}

		for idx := range sale.Items {
			item := &sale.Items[idx]
			ref := invoice
			if _, err := s.stock.ApplyMovementTx(ctx, tx, inventory.MovementInput{
				ProductID: item.ProductID,
				LogType:   enums.InventoryLogSale,
				Quantity:  item.Quantity.Neg(),
				Reference: &ref,
				CreatedBy: input.Cashier,
				Actor:     actor,
			}); err != nil {
				return err
			}
		}

		if input.CustomerID != nil {
			if input.RedeemPoints.IsPositive() {
				if _, err := s.loyalty.RedeemForSaleTx(ctx, tx, *input.CustomerID, sale.ID, input.RedeemPoints); err != nil {
					return err
				}
			}
			if _, err := s.loyalty.AwardForSaleTx(ctx, tx, *input.CustomerID, sale.ID, sale.Total); err != nil {
				return err
			}
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSaleCompleted,
			AggregateType: enums.AggregateSale,
			AggregateID:   sale.ID,
			Actor:         actor,
			Version:       1,
			Data: payloads.SaleCompleted{
				SaleID:        sale.ID,
				InvoiceNumber: sale.InvoiceNumber,
				CustomerID:    sale.CustomerID,
				PriceTier:     sale.PriceTier,
				Items:         sale.Items,
				Subtotal:      sale.Subtotal,
				TotalDiscount: sale.TotalDiscount,
				Total:         sale.Total,
				PaymentMode:   input.PaymentMode,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithInvoice(s.logg.WithTerminal(ctx, input.Terminal), sale.InvoiceNumber)
	s.logg.Info(logCtx, "sale completed")
	s.metrics.ObserveSale(string(input.PaymentMode), sale.Total)

	return sale, nil
}

func (s *service) GetSale(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale id is required")
	}
	sale, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading sale")
	}
	return sale, nil
}

func (s *service) GetByInvoice(ctx context.Context, invoice string) (*models.Sale, error) {
	if strings.TrimSpace(invoice) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number is required")
	}
	sale, err := s.repo.GetByInvoice(ctx, invoice)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "sale not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading sale")
	}
	return sale, nil
}

func (s *service) ListSales(ctx context.Context, params pagination.Params) ([]models.Sale, string, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing sales")
	}
	return rows, next, nil
}
