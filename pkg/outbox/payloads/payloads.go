package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/enums"
	"github.com/lankapos/pos-backend/pkg/types"
)

// SaleCompleted is emitted when a checkout finishes.
type SaleCompleted struct {
	SaleID        uuid.UUID         `json:"saleId"`
	InvoiceNumber string            `json:"invoiceNumber"`
	CustomerID    *uuid.UUID        `json:"customerId,omitempty"`
	PriceTier     enums.PriceTier   `json:"priceTier"`
	Items         types.LineItems   `json:"items"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	TotalDiscount decimal.Decimal   `json:"totalDiscount"`
	Total         decimal.Decimal   `json:"total"`
	PaymentMode   enums.PaymentMode `json:"paymentMode"`
}

// StockAdjusted is emitted for every stock movement.
type StockAdjusted struct {
	ProductID     uuid.UUID              `json:"productId"`
	LogType       enums.InventoryLogType `json:"logType"`
	Quantity      decimal.Decimal        `json:"quantity"`
	PreviousStock decimal.Decimal        `json:"previousStock"`
	NewStock      decimal.Decimal        `json:"newStock"`
	Reference     string                 `json:"reference,omitempty"`
}

// StockDepleted is emitted when a movement drives stock to or below the
// product's reorder level.
type StockDepleted struct {
	ProductID    uuid.UUID       `json:"productId"`
	SKU          string          `json:"sku"`
	NewStock     decimal.Decimal `json:"newStock"`
	ReorderLevel decimal.Decimal `json:"reorderLevel"`
}

// LoyaltyAwarded is emitted when a completed sale earns points.
type LoyaltyAwarded struct {
	CustomerID   uuid.UUID       `json:"customerId"`
	SaleID       uuid.UUID       `json:"saleId"`
	Points       decimal.Decimal `json:"points"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
}
