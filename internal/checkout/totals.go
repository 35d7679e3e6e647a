package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/types"
)

// Totals are derived from the line items on every read, never stored.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
}

// CalculateTotals folds the cart lines into the three cart-level amounts.
func CalculateTotals(items types.LineItems) Totals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].Subtotal)
		discount = discount.Add(items[i].DiscountAmount)
	}
	return Totals{
		Subtotal:      subtotal,
		TotalDiscount: discount,
		Total:         subtotal.Sub(discount),
	}
}
