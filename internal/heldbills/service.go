package heldbills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/types"
)

type billStore interface {
	Create(ctx context.Context, bill *models.HeldBill) (*models.HeldBill, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.HeldBill, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByTerminal(ctx context.Context, terminal string) ([]models.HeldBill, error)
	List(ctx context.Context) ([]models.HeldBill, error)
}

// Service parks and restores cart snapshots.
type Service interface {
	Hold(ctx context.Context, input HoldInput) (*models.HeldBill, error)
	Resume(ctx context.Context, id uuid.UUID) (*models.HeldBill, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTerminal(ctx context.Context, terminal string) ([]models.HeldBill, error)
	List(ctx context.Context) ([]models.HeldBill, error)
}

type service struct {
	repo billStore
}

// NewService builds a held bill service.
func NewService(repo billStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("held bill repository required")
	}
	return &service{repo: repo}, nil
}

// HoldInput is the cart snapshot to park.
type HoldInput struct {
	BillName      string
	CustomerID    *uuid.UUID
	CustomerName  string
	Tier          enums.PriceTier
	Items         types.LineItems
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	Total         decimal.Decimal
	Terminal      string
	Cashier       string
	Notes         *string
}

// Hold persists the snapshot. Empty carts are rejected.
func (s *service) Hold(ctx context.Context, input HoldInput) (*models.HeldBill, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot hold an empty cart")
	}
	if strings.TrimSpace(input.Terminal) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal is required")
	}

	name := strings.TrimSpace(input.BillName)
	if name == "" {
		name = fmt.Sprintf("Bill %s", input.Terminal)
	}

	bill := &models.HeldBill{
		BillName:      name,
		CustomerID:    input.CustomerID,
		CustomerName:  input.CustomerName,
		PriceTier:     input.Tier,
		Items:         input.Items.Clone(),
		Subtotal:      input.Subtotal,
		TotalDiscount: input.TotalDiscount,
		Total:         input.Total,
		TerminalName:  input.Terminal,
		CashierName:   input.Cashier,
		Notes:         input.Notes,
	}
	created, err := s.repo.Create(ctx, bill)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "holding bill")
	}
	return created, nil
}

// Resume fetches the bill and deletes it in the same call, so a snapshot can
// only ever be restored once. A concurrent resume loses the delete race and
// gets a conflict.
func (s *service) Resume(ctx context.Context, id uuid.UUID) (*models.HeldBill, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill id is required")
	}

	bill, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "held bill not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading held bill")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "consuming held bill")
	}
	if !deleted {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "held bill already resumed")
	}
	return bill, nil
}

// Delete discards a parked bill without restoring it.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "bill id is required")
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "deleting held bill")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "held bill not found")
	}
	return nil
}

func (s *service) ListByTerminal(ctx context.Context, terminal string) ([]models.HeldBill, error) {
	if strings.TrimSpace(terminal) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "terminal is required")
	}
	rows, err := s.repo.ListByTerminal(ctx, terminal)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing held bills")
	}
	return rows, nil
}

func (s *service) List(ctx context.Context) ([]models.HeldBill, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing held bills")
	}
	return rows, nil
}
