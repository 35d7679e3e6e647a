package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/enums"
)

// Customer represents a registered buyer with a default price tier and a
// loyalty balance.
type Customer struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Phone          string          `gorm:"column:phone;index"`
	Email          *string         `gorm:"column:email"`
	Address        *string         `gorm:"column:address"`
	TaxID          *string         `gorm:"column:tax_id"`
	DefaultTier    enums.PriceTier `gorm:"column:default_tier;type:text;not null;default:retail"`
	LoyaltyPoints  decimal.Decimal `gorm:"column:loyalty_points;type:numeric(12,2);not null;default:0"`
	LifetimePoints decimal.Decimal `gorm:"column:lifetime_points;type:numeric(12,2);not null;default:0"`
	Notes          *string         `gorm:"column:notes"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
