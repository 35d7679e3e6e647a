package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/enums"
)

// LoyaltySettings is a single-row table holding the store's loyalty program
// parameters.
type LoyaltySettings struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Enabled              bool            `gorm:"column:enabled;not null;default:true"`
	PointsPerCurrency    decimal.Decimal `gorm:"column:points_per_currency;type:numeric(12,4);not null;default:0.01"`
	CurrencyPerPoint     decimal.Decimal `gorm:"column:currency_per_point;type:numeric(12,4);not null;default:1"`
	MinPurchaseForPoints decimal.Decimal `gorm:"column:min_purchase_for_points;type:numeric(12,2);not null;default:0"`
	MinPointsForRedeem   decimal.Decimal `gorm:"column:min_points_for_redeem;type:numeric(12,2);not null;default:100"`
	MaxRedemptionPercent decimal.Decimal `gorm:"column:max_redemption_percent;type:numeric(5,2);not null;default:50"`
	SilverThreshold      decimal.Decimal `gorm:"column:silver_threshold;type:numeric(12,2);not null;default:1000"`
	GoldThreshold        decimal.Decimal `gorm:"column:gold_threshold;type:numeric(12,2);not null;default:5000"`
	PlatinumThreshold    decimal.Decimal `gorm:"column:platinum_threshold;type:numeric(12,2);not null;default:10000"`
	SilverMultiplier     decimal.Decimal `gorm:"column:silver_multiplier;type:numeric(5,2);not null;default:1.25"`
	GoldMultiplier       decimal.Decimal `gorm:"column:gold_multiplier;type:numeric(5,2);not null;default:1.5"`
	PlatinumMultiplier   decimal.Decimal `gorm:"column:platinum_multiplier;type:numeric(5,2);not null;default:2"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// LoyaltyTransaction is an append-only record of points earned or redeemed.
type LoyaltyTransaction struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID   uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	TxType       enums.LoyaltyTxType `gorm:"column:tx_type;type:text;not null"`
	Points       decimal.Decimal     `gorm:"column:points;type:numeric(12,2);not null"`
	BalanceAfter decimal.Decimal     `gorm:"column:balance_after;type:numeric(12,2);not null"`
	Reference    *string             `gorm:"column:reference"`
	Description  string              `gorm:"column:description"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
}
