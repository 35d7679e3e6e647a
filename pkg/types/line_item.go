package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one product's presence in a cart, held bill or sale. Subtotal
// and Total are always derived from the other fields via Recalculate, never
// edited independently.
type LineItem struct {
	ProductID       uuid.UUID       `json:"product_id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	NameSI          string          `json:"name_si,omitempty"`
	NameTA          string          `json:"name_ta,omitempty"`
	Category        string          `json:"category,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Weight          decimal.Decimal `json:"weight"`
	WeightBased     bool            `json:"weight_based"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Total           decimal.Decimal `json:"total"`
	AppliedRule     string          `json:"applied_rule,omitempty"`
	ManualDiscount  bool            `json:"manual_discount,omitempty"`
}

// Recalculate rebuilds the derived amounts from quantity, unit price and the
// current discount amount. Line totals are deliberately not clamped at zero;
// sale submission rejects negative grand totals instead.
func (l *LineItem) Recalculate() {
	l.Subtotal = l.Quantity.Mul(l.UnitPrice)
	l.Total = l.Subtotal.Sub(l.DiscountAmount)
}

// LineItems is stored as a JSON document on sales and held bills.
type LineItems []LineItem

// Clone returns a deep copy so optimistic cart state and engine snapshots
// never alias.
func (ls LineItems) Clone() LineItems {
	if ls == nil {
		return nil
	}
	out := make(LineItems, len(ls))
	copy(out, ls)
	return out
}
