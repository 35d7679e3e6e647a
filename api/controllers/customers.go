package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/api/responses"
	"github.com/lankapos/pos-backend/api/validators"
	catalogsvc "github.com/lankapos/pos-backend/internal/catalog"
	"github.com/lankapos/pos-backend/pkg/db/models"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/pagination"
)

func CustomerCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload customerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreateCustomer(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newCustomerResponse(record))
	}
}

func CustomerUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload customerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateCustomer(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCustomerResponse(record))
	}
}

func CustomerGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetCustomer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newCustomerResponse(record))
	}
}

func CustomerList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, nextCursor, err := svc.ListCustomers(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]customerResponse, 0, len(records))
		for i := range records {
			items = append(items, newCustomerResponse(&records[i]))
		}

		responses.WriteSuccess(w, listResponse[customerResponse]{Items: items, NextCursor: nextCursor})
	}
}

// CustomerSearch matches customers by name or phone for the cashier lookup.
func CustomerSearch(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.SearchCustomers(r.Context(), r.URL.Query().Get("q"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]customerResponse, 0, len(records))
		for i := range records {
			items = append(items, newCustomerResponse(&records[i]))
		}

		responses.WriteSuccess(w, items)
	}
}

type customerRequest struct {
	Name        string  `json:"name" validate:"required"`
	Phone       string  `json:"phone"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	TaxID       *string `json:"tax_id"`
	DefaultTier string  `json:"default_tier"`
	Notes       *string `json:"notes"`
	IsActive    *bool   `json:"is_active"`
}

func (p customerRequest) toInput() catalogsvc.CustomerInput {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return catalogsvc.CustomerInput{
		Name:        p.Name,
		Phone:       p.Phone,
		Email:       p.Email,
		Address:     p.Address,
		TaxID:       p.TaxID,
		DefaultTier: p.DefaultTier,
		Notes:       p.Notes,
		IsActive:    active,
	}
}

type customerResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Email          *string         `json:"email,omitempty"`
	Address        *string         `json:"address,omitempty"`
	TaxID          *string         `json:"tax_id,omitempty"`
	DefaultTier    string          `json:"default_tier"`
	LoyaltyPoints  decimal.Decimal `json:"loyalty_points"`
	LifetimePoints decimal.Decimal `json:"lifetime_points"`
	Notes          *string         `json:"notes,omitempty"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func newCustomerResponse(record *models.Customer) customerResponse {
	return customerResponse{
		ID:             record.ID,
		Name:           record.Name,
		Phone:          record.Phone,
		Email:          record.Email,
		Address:        record.Address,
		TaxID:          record.TaxID,
		DefaultTier:    string(record.DefaultTier),
		LoyaltyPoints:  record.LoyaltyPoints,
		LifetimePoints: record.LifetimePoints,
		Notes:          record.Notes,
		IsActive:       record.IsActive,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}
