package enums

// PriceTier selects which price column applies to every cart line.
type PriceTier string

const (
	PriceTierRetail    PriceTier = "retail"
	PriceTierWholesale PriceTier = "wholesale"
	PriceTierCredit    PriceTier = "credit"
	PriceTierOther     PriceTier = "other"
)

// Valid reports whether the tier is one of the closed enumeration.
func (t PriceTier) Valid() bool {
	switch t {
	case PriceTierRetail, PriceTierWholesale, PriceTierCredit, PriceTierOther:
		return true
	}
	return false
}

// ParsePriceTier normalizes a raw tier string, defaulting to retail.
func ParsePriceTier(value string) PriceTier {
	tier := PriceTier(value)
	if !tier.Valid() {
		return PriceTierRetail
	}
	return tier
}
