package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/api/middleware"
	"github.com/lankapos/pos-backend/api/responses"
	"github.com/lankapos/pos-backend/api/validators"
	inventorysvc "github.com/lankapos/pos-backend/internal/inventory"
	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
)

// InventoryAdjust applies a manual stock movement outside of a sale.
func InventoryAdjust(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Adjust(r.Context(), inventorysvc.AdjustInput{
			ProductID: payload.ProductID,
			LogType:   enums.InventoryLogType(payload.LogType),
			Quantity:  payload.Quantity,
			Reference: payload.Reference,
			Notes:     payload.Notes,
			CreatedBy: middleware.UsernameFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newInventoryLogResponse(record))
	}
}

// InventoryHistory lists recent stock movements for one product.
func InventoryHistory(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.History(r.Context(), productID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]inventoryLogResponse, 0, len(records))
		for i := range records {
			items = append(items, newInventoryLogResponse(&records[i]))
		}

		responses.WriteSuccess(w, items)
	}
}

type adjustStockRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	LogType   string          `json:"log_type" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"required"`
	Reference *string         `json:"reference"`
	Notes     *string         `json:"notes"`
}

type inventoryLogResponse struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	LogType       string          `json:"log_type"`
	Quantity      decimal.Decimal `json:"quantity"`
	PreviousStock decimal.Decimal `json:"previous_stock"`
	NewStock      decimal.Decimal `json:"new_stock"`
	Reference     *string         `json:"reference,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func newInventoryLogResponse(record *models.InventoryLog) inventoryLogResponse {
	return inventoryLogResponse{
		ID:            record.ID,
		ProductID:     record.ProductID,
		LogType:       string(record.LogType),
		Quantity:      record.Quantity,
		PreviousStock: record.PreviousStock,
		NewStock:      record.NewStock,
		Reference:     record.Reference,
		Notes:         record.Notes,
		CreatedBy:     record.CreatedBy,
		CreatedAt:     record.CreatedAt,
	}
}
