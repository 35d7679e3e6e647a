package types

import (
	"github.com/lankapos/pos-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Payment is one tendered amount against a sale.
type Payment struct {
	Method    enums.PaymentMethod `json:"method"`
	Amount    decimal.Decimal     `json:"amount"`
	Reference string              `json:"reference,omitempty"`
}

// Payments is stored as a JSON document on sales.
type Payments []Payment

// Clone returns a copy safe to annotate without aliasing session state.
func (ps Payments) Clone() Payments {
	if ps == nil {
		return nil
	}
	out := make(Payments, len(ps))
	copy(out, ps)
	return out
}

// Sum returns the total tendered across all payments.
func (ps Payments) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.Amount)
	}
	return total
}
