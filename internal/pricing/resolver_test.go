package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
)

func testProduct() *models.Product {
	return &models.Product{
		PriceRetail:    decimal.NewFromInt(100),
		PriceWholesale: decimal.NewFromInt(80),
		PriceCredit:    decimal.NewFromInt(110),
		PriceOther:     decimal.Zero,
	}
}

func TestResolveUnitPricePerTier(t *testing.T) {
	t.Parallel()

	p := testProduct()

	cases := []struct {
		name string
		tier enums.PriceTier
		want decimal.Decimal
	}{
		{"retail", enums.PriceTierRetail, decimal.NewFromInt(100)},
		{"wholesale", enums.PriceTierWholesale, decimal.NewFromInt(80)},
		{"credit", enums.PriceTierCredit, decimal.NewFromInt(110)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ResolveUnitPrice(p, tc.tier)
			if !got.Equal(tc.want) {
				t.Fatalf("ResolveUnitPrice(%s) = %s, want %s", tc.tier, got, tc.want)
			}
		})
	}
}

func TestResolveUnitPriceFallsBackToRetail(t *testing.T) {
	t.Parallel()

	p := testProduct()

	got := ResolveUnitPrice(p, enums.PriceTierOther)
	if !got.Equal(p.PriceRetail) {
		t.Fatalf("expected fallback to retail %s, got %s", p.PriceRetail, got)
	}

	p.PriceWholesale = decimal.NewFromInt(-5)
	got = ResolveUnitPrice(p, enums.PriceTierWholesale)
	if !got.Equal(p.PriceRetail) {
		t.Fatalf("expected negative tier price to fall back to retail, got %s", got)
	}
}

func TestResolveUnitPriceUnknownTier(t *testing.T) {
	t.Parallel()

	got := ResolveUnitPrice(testProduct(), enums.PriceTier("vip"))
	if !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unknown tier should resolve retail, got %s", got)
	}
}

func TestTierForCustomer(t *testing.T) {
	t.Parallel()

	if got := TierForCustomer(nil); got != enums.PriceTierRetail {
		t.Fatalf("nil customer should be retail, got %s", got)
	}

	c := &models.Customer{DefaultTier: enums.PriceTierWholesale}
	if got := TierForCustomer(c); got != enums.PriceTierWholesale {
		t.Fatalf("expected wholesale, got %s", got)
	}

	c.DefaultTier = enums.PriceTier("bogus")
	if got := TierForCustomer(c); got != enums.PriceTierRetail {
		t.Fatalf("invalid tier should fall back to retail, got %s", got)
	}
}
