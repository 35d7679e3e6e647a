package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
)

// ResolveUnitPrice returns the unit price for the product under the given
// tier. Tiers with a zero or negative configured price fall back to retail so
// a half-configured product never sells for free.
func ResolveUnitPrice(product *models.Product, tier enums.PriceTier) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}

	price := tierPrice(product, tier)
	if price.IsPositive() {
		return price
	}
	return product.PriceRetail
}

func tierPrice(product *models.Product, tier enums.PriceTier) decimal.Decimal {
	switch tier {
	case enums.PriceTierWholesale:
		return product.PriceWholesale
	case enums.PriceTierCredit:
		return product.PriceCredit
	case enums.PriceTierOther:
		return product.PriceOther
	default:
		return product.PriceRetail
	}
}

// TierForCustomer resolves the active tier for a cart: the customer's default
// tier when one is selected, retail otherwise.
func TierForCustomer(customer *models.Customer) enums.PriceTier {
	if customer == nil || !customer.DefaultTier.Valid() {
		return enums.PriceTierRetail
	}
	return customer.DefaultTier
}
