package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/enums"
	"github.com/lankapos/pos-backend/pkg/types"
)

// Sale is the immutable record of a completed checkout. Line items and
// payments are stored as documents because a finished sale is never edited
// line by line.
type Sale struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceNumber  string           `gorm:"column:invoice_number;type:text;not null;uniqueIndex"`
	CustomerID     *uuid.UUID       `gorm:"column:customer_id;type:uuid;index"`
	CustomerName   string           `gorm:"column:customer_name"`
	PriceTier      enums.PriceTier  `gorm:"column:price_tier;type:text;not null;default:retail"`
	Items          types.LineItems  `gorm:"column:items;type:jsonb;serializer:json;not null"`
	Subtotal       decimal.Decimal  `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TotalDiscount  decimal.Decimal  `gorm:"column:total_discount;type:numeric(12,2);not null;default:0"`
	LoyaltyRedeem  decimal.Decimal  `gorm:"column:loyalty_redeem;type:numeric(12,2);not null;default:0"`
	Total          decimal.Decimal  `gorm:"column:total;type:numeric(12,2);not null"`
	Payments       types.Payments   `gorm:"column:payments;type:jsonb;serializer:json;not null"`
	AmountTendered decimal.Decimal  `gorm:"column:amount_tendered;type:numeric(12,2);not null;default:0"`
	ChangeDue      decimal.Decimal  `gorm:"column:change_due;type:numeric(12,2);not null;default:0"`
	Status         enums.SaleStatus `gorm:"column:status;type:text;not null;default:completed"`
	TerminalName   string           `gorm:"column:terminal_name;not null"`
	CashierName    string           `gorm:"column:cashier_name;not null"`
	Notes          *string          `gorm:"column:notes"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime;index"`
}
