package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/api/responses"
	"github.com/lankapos/pos-backend/api/validators"
	checkoutsvc "github.com/lankapos/pos-backend/internal/checkout"
	"github.com/lankapos/pos-backend/internal/scanner"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/types"
)

// SessionSnapshot returns the current cart view for a terminal.
func SessionSnapshot(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.Snapshot(terminal))
	}
}

// SessionScan resolves a complete barcode and adds the product to the cart.
func SessionScan(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload scanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddScanned(r.Context(), terminal, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionKeystrokes feeds raw keyboard-wedge input through the burst
// accumulator. Any codes completed by the batch are resolved and added.
func SessionKeystrokes(svc checkoutsvc.Service, pipeline *scanner.Pipeline, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload keystrokesRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := svc.Snapshot(terminal)
		unmatched := make([]string, 0, 1)
		for _, key := range payload.Text {
			code, ok := pipeline.Keystroke(terminal, key)
			if !ok {
				continue
			}
			next, addErr := svc.AddScanned(r.Context(), terminal, code)
			if addErr != nil {
				if pkgerrors.CodeOf(addErr) == pkgerrors.CodeNotFound {
					unmatched = append(unmatched, code)
					continue
				}
				responses.WriteError(r.Context(), logg, w, addErr)
				return
			}
			view = next
		}

		responses.WriteSuccess(w, scanResult{View: view, Unmatched: unmatched})
	}
}

// SessionFieldInput records search-field text for debounced auto-search.
func SessionFieldInput(svc checkoutsvc.Service, pipeline *scanner.Pipeline, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload fieldInputRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.Submit {
			code, ok := pipeline.FieldSubmit(terminal)
			if !ok {
				responses.WriteSuccess(w, scanResult{View: svc.Snapshot(terminal)})
				return
			}
			resolveFieldCode(w, r, svc, pipeline, logg, terminal, code)
			return
		}

		pipeline.FieldInput(terminal, payload.Text)
		responses.WriteSuccess(w, svc.Snapshot(terminal))
	}
}

// SessionFieldPoll fires the debounced search when the field has settled.
func SessionFieldPoll(svc checkoutsvc.Service, pipeline *scanner.Pipeline, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, ok := pipeline.FieldPoll(terminal)
		if !ok {
			responses.WriteSuccess(w, scanResult{View: svc.Snapshot(terminal)})
			return
		}
		resolveFieldCode(w, r, svc, pipeline, logg, terminal, code)
	}
}

// resolveFieldCode looks the code up and clears the entry field once it is
// consumed, matched or not, so stale text cannot shadow the next entry.
func resolveFieldCode(w http.ResponseWriter, r *http.Request, svc checkoutsvc.Service, pipeline *scanner.Pipeline, logg *logger.Logger, terminal, code string) {
	view, err := svc.AddScanned(r.Context(), terminal, code)
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound {
			pipeline.ClearField(terminal)
			responses.WriteSuccess(w, scanResult{View: svc.Snapshot(terminal), Unmatched: []string{code}})
			return
		}
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	pipeline.ClearField(terminal)
	responses.WriteSuccess(w, scanResult{View: view})
}

// SessionAddItem adds a product by id, for touch and search-result entry.
func SessionAddItem(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity := decimal.NewFromInt(1)
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}

		view, err := svc.AddProduct(r.Context(), terminal, payload.ProductID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionUpdateItem edits one cart line by position.
func SessionUpdateItem(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		index, err := itemIndexParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateItem(r.Context(), terminal, index, checkoutsvc.UpdateItemInput{
			Quantity:        payload.Quantity,
			Weight:          payload.Weight,
			DiscountPercent: payload.DiscountPercent,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func SessionRemoveItem(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		index, err := itemIndexParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RemoveItem(r.Context(), terminal, index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func SessionClear(svc checkoutsvc.Service, pipeline *scanner.Pipeline, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if pipeline != nil {
			pipeline.ClearField(terminal)
		}
		responses.WriteSuccess(w, svc.Clear(terminal))
	}
}

// SessionSetCustomer attaches or detaches the cart's customer.
func SessionSetCustomer(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetCustomer(r.Context(), terminal, payload.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func SessionSetTier(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setTierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetTier(r.Context(), terminal, enums.PriceTier(payload.Tier))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func SessionSetPaymentMode(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setPaymentModeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.SetPaymentMode(terminal, enums.PaymentMode(payload.Mode))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func SessionAddPayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.AddPayment(terminal, types.Payment{
			Method:    enums.PaymentMethod(payload.Method),
			Amount:    payload.Amount,
			Reference: payload.Reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

func SessionRemovePayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := chi.URLParam(r, "index")
		index, convErr := strconv.Atoi(strings.TrimSpace(raw))
		if convErr != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment index must be numeric"))
			return
		}

		view, err := svc.RemovePayment(terminal, index)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionRedeem quotes and applies a loyalty point redemption.
func SessionRedeem(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload redeemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.RedeemPoints(r.Context(), terminal, payload.Points)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionHold parks the cart so the terminal can serve the next customer.
func SessionHold(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload holdRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := svc.Hold(r.Context(), terminal, payload.BillName, payload.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newHeldBillResponse(bill))
	}
}

// SessionResume restores a parked bill onto the terminal, replacing any
// cart in progress.
func SessionResume(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload resumeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Resume(r.Context(), terminal, payload.BillID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// SessionCheckout settles the cart and records the sale.
func SessionCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		terminal, err := validators.TerminalParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := svc.Checkout(r.Context(), terminal, checkoutsvc.CheckoutInput{
			AmountTendered: payload.AmountTendered,
			Notes:          payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSaleResponse(sale))
	}
}

func itemIndexParam(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "index"))
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "item index must be numeric")
	}
	return index, nil
}

type scanRequest struct {
	Code string `json:"code" validate:"required"`
}

type keystrokesRequest struct {
	Text string `json:"text" validate:"required"`
}

type fieldInputRequest struct {
	Text   string `json:"text"`
	Submit bool   `json:"submit"`
}

type scanResult struct {
	View      checkoutsvc.View `json:"view"`
	Unmatched []string         `json:"unmatched,omitempty"`
}

type addItemRequest struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Quantity  *decimal.Decimal `json:"quantity"`
}

type updateItemRequest struct {
	Quantity        *decimal.Decimal `json:"quantity"`
	Weight          *decimal.Decimal `json:"weight"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
}

type setCustomerRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
}

type setTierRequest struct {
	Tier string `json:"tier" validate:"required"`
}

type setPaymentModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type addPaymentRequest struct {
	Method    string          `json:"method" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Reference string          `json:"reference"`
}

type redeemRequest struct {
	Points decimal.Decimal `json:"points"`
}

type holdRequest struct {
	BillName string  `json:"bill_name" validate:"required"`
	Notes    *string `json:"notes"`
}

type resumeRequest struct {
	BillID uuid.UUID `json:"bill_id" validate:"required"`
}

type checkoutRequest struct {
	AmountTendered decimal.Decimal `json:"amount_tendered"`
	Notes          *string         `json:"notes"`
}
