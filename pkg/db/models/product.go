package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/google/uuid"
)

// Product represents one sellable catalog item. Weight-based products carry
// per-kilogram tier prices and fractional stock.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU            string          `gorm:"column:sku;type:text;not null;uniqueIndex"`
	Barcodes       pq.StringArray  `gorm:"column:barcodes;type:text[];not null;default:ARRAY[]::text[]"`
	NameEN         string          `gorm:"column:name_en;not null"`
	NameSI         string          `gorm:"column:name_si"`
	NameTA         string          `gorm:"column:name_ta"`
	Category       string          `gorm:"column:category;not null;index"`
	Unit           string          `gorm:"column:unit;not null;default:pcs"`
	PriceRetail    decimal.Decimal `gorm:"column:price_retail;type:numeric(12,2);not null"`
	PriceWholesale decimal.Decimal `gorm:"column:price_wholesale;type:numeric(12,2);not null;default:0"`
	PriceCredit    decimal.Decimal `gorm:"column:price_credit;type:numeric(12,2);not null;default:0"`
	PriceOther     decimal.Decimal `gorm:"column:price_other;type:numeric(12,2);not null;default:0"`
	CostPrice      decimal.Decimal `gorm:"column:cost_price;type:numeric(12,2);not null;default:0"`
	Stock          decimal.Decimal `gorm:"column:stock;type:numeric(12,3);not null;default:0"`
	ReorderLevel   decimal.Decimal `gorm:"column:reorder_level;type:numeric(12,3);not null;default:0"`
	WeightBased    bool            `gorm:"column:weight_based;not null;default:false"`
	PackedDate     *time.Time      `gorm:"column:packed_date"`
	ExpireDate     *time.Time      `gorm:"column:expire_date"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
