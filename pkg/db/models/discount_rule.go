package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/enums"
)

// DiscountRule describes one automatic or manual discount. Target carries a
// product id, a SKU or a category name depending on RuleType.
type DiscountRule struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string                  `gorm:"column:name;not null"`
	RuleType      enums.DiscountRuleType  `gorm:"column:rule_type;type:text;not null"`
	Target        *string                 `gorm:"column:target"`
	DiscountType  enums.DiscountValueType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue decimal.Decimal         `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MaxDiscount   decimal.Decimal         `gorm:"column:max_discount;type:numeric(12,2);not null;default:0"`
	MinQuantity   decimal.Decimal         `gorm:"column:min_quantity;type:numeric(12,3);not null;default:0"`
	MaxQuantity   decimal.Decimal         `gorm:"column:max_quantity;type:numeric(12,3);not null;default:0"`
	AutoApply     bool                    `gorm:"column:auto_apply;not null;default:true"`
	IsActive      bool                    `gorm:"column:is_active;not null;default:true"`
	StartsAt      *time.Time              `gorm:"column:starts_at"`
	EndsAt        *time.Time              `gorm:"column:ends_at"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
