package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/api/responses"
	"github.com/lankapos/pos-backend/api/validators"
	heldbillsvc "github.com/lankapos/pos-backend/internal/heldbills"
	"github.com/lankapos/pos-backend/pkg/db/models"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/types"
)

// HeldBillList returns parked bills, optionally scoped to one terminal.
func HeldBillList(svc heldbillsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "held bill service unavailable"))
			return
		}

		var (
			records []models.HeldBill
			err     error
		)
		if terminal := strings.TrimSpace(r.URL.Query().Get("terminal")); terminal != "" {
			records, err = svc.ListByTerminal(r.Context(), terminal)
		} else {
			records, err = svc.List(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]heldBillResponse, 0, len(records))
		for i := range records {
			items = append(items, newHeldBillResponse(&records[i]))
		}

		responses.WriteSuccess(w, items)
	}
}

// HeldBillDelete discards a parked bill without resuming it.
func HeldBillDelete(svc heldbillsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "held bill service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type heldBillResponse struct {
	ID            uuid.UUID       `json:"id"`
	BillName      string          `json:"bill_name"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	PriceTier     string          `json:"price_tier"`
	Items         types.LineItems `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
	TerminalName  string          `json:"terminal_name"`
	CashierName   string          `json:"cashier_name"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newHeldBillResponse(record *models.HeldBill) heldBillResponse {
	return heldBillResponse{
		ID:            record.ID,
		BillName:      record.BillName,
		CustomerID:    record.CustomerID,
		CustomerName:  record.CustomerName,
		PriceTier:     string(record.PriceTier),
		Items:         record.Items,
		Subtotal:      record.Subtotal,
		TotalDiscount: record.TotalDiscount,
		Total:         record.Total,
		TerminalName:  record.TerminalName,
		CashierName:   record.CashierName,
		Notes:         record.Notes,
		CreatedAt:     record.CreatedAt,
	}
}
