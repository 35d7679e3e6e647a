package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/enums"
	"github.com/lankapos/pos-backend/pkg/types"
)

// HeldBill is a parked cart snapshot. Resuming a bill deletes the row, so a
// bill can only ever be restored once.
type HeldBill struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BillName      string          `gorm:"column:bill_name;not null"`
	CustomerID    *uuid.UUID      `gorm:"column:customer_id;type:uuid"`
	CustomerName  string          `gorm:"column:customer_name"`
	PriceTier     enums.PriceTier `gorm:"column:price_tier;type:text;not null;default:retail"`
	Items         types.LineItems `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Subtotal      decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TotalDiscount decimal.Decimal `gorm:"column:total_discount;type:numeric(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	TerminalName  string          `gorm:"column:terminal_name;not null;index"`
	CashierName   string          `gorm:"column:cashier_name;not null"`
	Notes         *string         `gorm:"column:notes"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
