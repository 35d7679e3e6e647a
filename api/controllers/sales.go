package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/api/responses"
	"github.com/lankapos/pos-backend/api/validators"
	salessvc "github.com/lankapos/pos-backend/internal/sales"
	"github.com/lankapos/pos-backend/pkg/db/models"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/pagination"
	"github.com/lankapos/pos-backend/pkg/types"
)

func SaleGet(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetSale(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSaleResponse(record))
	}
}

// SaleGetByInvoice looks a sale up by its printed invoice number, for
// receipt reprints and returns.
func SaleGetByInvoice(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		invoice := strings.TrimSpace(chi.URLParam(r, "invoice"))
		if invoice == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invoice number required"))
			return
		}

		record, err := svc.GetByInvoice(r.Context(), invoice)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newSaleResponse(record))
	}
}

func SaleList(svc salessvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, nextCursor, err := svc.ListSales(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]saleResponse, 0, len(records))
		for i := range records {
			items = append(items, newSaleResponse(&records[i]))
		}

		responses.WriteSuccess(w, listResponse[saleResponse]{Items: items, NextCursor: nextCursor})
	}
}

type saleResponse struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceNumber  string          `json:"invoice_number"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	CustomerName   string          `json:"customer_name,omitempty"`
	PriceTier      string          `json:"price_tier"`
	Items          types.LineItems `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	LoyaltyRedeem  decimal.Decimal `json:"loyalty_redeem"`
	Total          decimal.Decimal `json:"total"`
	Payments       types.Payments  `json:"payments"`
	AmountTendered decimal.Decimal `json:"amount_tendered"`
	ChangeDue      decimal.Decimal `json:"change_due"`
	Status         string          `json:"status"`
	TerminalName   string          `json:"terminal_name"`
	CashierName    string          `json:"cashier_name"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newSaleResponse(record *models.Sale) saleResponse {
	return saleResponse{
		ID:             record.ID,
		InvoiceNumber:  record.InvoiceNumber,
		CustomerID:     record.CustomerID,
		CustomerName:   record.CustomerName,
		PriceTier:      string(record.PriceTier),
		Items:          record.Items,
		Subtotal:       record.Subtotal,
		TotalDiscount:  record.TotalDiscount,
		LoyaltyRedeem:  record.LoyaltyRedeem,
		Total:          record.Total,
		Payments:       record.Payments,
		AmountTendered: record.AmountTendered,
		ChangeDue:      record.ChangeDue,
		Status:         string(record.Status),
		TerminalName:   record.TerminalName,
		CashierName:    record.CashierName,
		Notes:          record.Notes,
		CreatedAt:      record.CreatedAt,
	}
}
