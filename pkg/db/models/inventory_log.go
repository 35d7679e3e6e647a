package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/enums"
)

// InventoryLog is an append-only stock movement record. Quantity is signed,
// negative for deductions.
type InventoryLog struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID              `gorm:"column:product_id;type:uuid;not null;index"`
	LogType       enums.InventoryLogType `gorm:"column:log_type;type:text;not null"`
	Quantity      decimal.Decimal        `gorm:"column:quantity;type:numeric(12,3);not null"`
	PreviousStock decimal.Decimal        `gorm:"column:previous_stock;type:numeric(12,3);not null"`
	NewStock      decimal.Decimal        `gorm:"column:new_stock;type:numeric(12,3);not null"`
	Reference     *string                `gorm:"column:reference"`
	Notes         *string                `gorm:"column:notes"`
	CreatedBy     string                 `gorm:"column:created_by"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime;index"`
}
