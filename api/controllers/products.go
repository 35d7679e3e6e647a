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

// ProductCreate registers a new catalog item.
func ProductCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newProductResponse(record))
	}
}

// ProductUpdate replaces a catalog item's details.
func ProductUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.UpdateProduct(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(record))
	}
}

func ProductGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		record, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newProductResponse(record))
	}
}

// ProductList pages through the catalog with a cursor.
func ProductList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		records, nextCursor, err := svc.ListProducts(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(records))
		for i := range records {
			items = append(items, newProductResponse(&records[i]))
		}

		responses.WriteSuccess(w, listResponse[productResponse]{Items: items, NextCursor: nextCursor})
	}
}

// ProductSearch matches products by name, SKU or barcode fragment.
func ProductSearch(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		records, err := svc.SearchProducts(r.Context(), r.URL.Query().Get("q"), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]productResponse, 0, len(records))
		for i := range records {
			items = append(items, newProductResponse(&records[i]))
		}

		responses.WriteSuccess(w, items)
	}
}

type productRequest struct {
	SKU            string          `json:"sku" validate:"required"`
	Barcodes       []string        `json:"barcodes"`
	NameEN         string          `json:"name_en" validate:"required"`
	NameSI         string          `json:"name_si"`
	NameTA         string          `json:"name_ta"`
	Category       string          `json:"category" validate:"required"`
	Unit           string          `json:"unit"`
	PriceRetail    decimal.Decimal `json:"price_retail" validate:"required"`
	PriceWholesale decimal.Decimal `json:"price_wholesale"`
	PriceCredit    decimal.Decimal `json:"price_credit"`
	PriceOther     decimal.Decimal `json:"price_other"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	Stock          decimal.Decimal `json:"stock"`
	ReorderLevel   decimal.Decimal `json:"reorder_level"`
	WeightBased    bool            `json:"weight_based"`
	IsActive       *bool           `json:"is_active"`
}

func (p productRequest) toInput() catalogsvc.ProductInput {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return catalogsvc.ProductInput{
		SKU:            p.SKU,
		Barcodes:       p.Barcodes,
		NameEN:         p.NameEN,
		NameSI:         p.NameSI,
		NameTA:         p.NameTA,
		Category:       p.Category,
		Unit:           p.Unit,
		PriceRetail:    p.PriceRetail,
		PriceWholesale: p.PriceWholesale,
		PriceCredit:    p.PriceCredit,
		PriceOther:     p.PriceOther,
		CostPrice:      p.CostPrice,
		Stock:          p.Stock,
		ReorderLevel:   p.ReorderLevel,
		WeightBased:    p.WeightBased,
		IsActive:       active,
	}
}

type productResponse struct {
	ID             uuid.UUID       `json:"id"`
	SKU            string          `json:"sku"`
	Barcodes       []string        `json:"barcodes"`
	NameEN         string          `json:"name_en"`
	NameSI         string          `json:"name_si,omitempty"`
	NameTA         string          `json:"name_ta,omitempty"`
	Category       string          `json:"category"`
	Unit           string          `json:"unit"`
	PriceRetail    decimal.Decimal `json:"price_retail"`
	PriceWholesale decimal.Decimal `json:"price_wholesale"`
	PriceCredit    decimal.Decimal `json:"price_credit"`
	PriceOther     decimal.Decimal `json:"price_other"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	Stock          decimal.Decimal `json:"stock"`
	ReorderLevel   decimal.Decimal `json:"reorder_level"`
	WeightBased    bool            `json:"weight_based"`
	IsActive       bool            `json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func newProductResponse(record *models.Product) productResponse {
	return productResponse{
		ID:             record.ID,
		SKU:            record.SKU,
		Barcodes:       []string(record.Barcodes),
		NameEN:         record.NameEN,
		NameSI:         record.NameSI,
		NameTA:         record.NameTA,
		Category:       record.Category,
		Unit:           record.Unit,
		PriceRetail:    record.PriceRetail,
		PriceWholesale: record.PriceWholesale,
		PriceCredit:    record.PriceCredit,
		PriceOther:     record.PriceOther,
		CostPrice:      record.CostPrice,
		Stock:          record.Stock,
		ReorderLevel:   record.ReorderLevel,
		WeightBased:    record.WeightBased,
		IsActive:       record.IsActive,
		CreatedAt:      record.CreatedAt,
		UpdatedAt:      record.UpdatedAt,
	}
}

type listResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}
