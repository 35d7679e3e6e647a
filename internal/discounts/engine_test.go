package discounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	"github.com/lankapos/pos-backend/pkg/types"
)

type stubRuleSource struct {
	rules []models.DiscountRule
	err   error
}

func (s *stubRuleSource) ListActive(_ context.Context, _ time.Time) ([]models.DiscountRule, error) {
	return s.rules, s.err
}

func strPtr(s string) *string { return &s }

func newLine(sku, category string, qty, unitPrice int64) types.LineItem {
	line := types.LineItem{
		ProductID: uuid.New(),
		SKU:       sku,
		Category:  category,
		Quantity:  decimal.NewFromInt(qty),
		UnitPrice: decimal.NewFromInt(unitPrice),
	}
	line.Recalculate()
	return line
}

func newTestEngine(t *testing.T, src ruleSource) *Engine {
	t.Helper()
	engine, err := NewEngine(src)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestEvaluateProductRuleBySKU(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubRuleSource{rules: []models.DiscountRule{{
		Name:          "soda promo",
		RuleType:      enums.RuleTypeProduct,
		Target:        strPtr("SODA-1"),
		DiscountType:  enums.DiscountValuePercent,
		DiscountValue: decimal.NewFromInt(10),
	}}})

	items := types.LineItems{newLine("SODA-1", "beverages", 2, 100)}
	out, err := engine.Evaluate(context.Background(), enums.PriceTierRetail, items)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !out[0].DiscountAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected discount 20, got %s", out[0].DiscountAmount)
	}
	if out[0].AppliedRule != "soda promo" {
		t.Fatalf("expected applied rule name, got %q", out[0].AppliedRule)
	}
	if !out[0].Total.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("expected total 180, got %s", out[0].Total)
	}
}

func TestEvaluateCategoryRule(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubRuleSource{rules: []models.DiscountRule{{
		Name:          "beverage sale",
		RuleType:      enums.RuleTypeCategory,
		Target:        strPtr("Beverages"),
		DiscountType:  enums.DiscountValueFixed,
		DiscountValue: decimal.NewFromInt(5),
	}}})

	items := types.LineItems{
		newLine("SODA-1", "beverages", 3, 100),
		newLine("RICE-1", "grain", 1, 500),
	}
	out, err := engine.Evaluate(context.Background(), enums.PriceTierRetail, items)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	// fixed discounts multiply by quantity
	if !out[0].DiscountAmount.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected discount 15, got %s", out[0].DiscountAmount)
	}
	if !out[1].DiscountAmount.IsZero() {
		t.Fatalf("expected no discount on unrelated category, got %s", out[1].DiscountAmount)
	}
}

func TestEvaluateQuantityBounds(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubRuleSource{rules: []models.DiscountRule{{
		Name:          "bulk only",
		RuleType:      enums.RuleTypeLineItem,
		DiscountType:  enums.DiscountValuePercent,
		DiscountValue: decimal.NewFromInt(10),
		MinQuantity:   decimal.NewFromInt(5),
		MaxQuantity:   decimal.NewFromInt(10),
	}}})

	items := types.LineItems{
		newLine("A", "x", 2, 100),
		newLine("B", "x", 5, 100),
		newLine("C", "x", 12, 100),
	}
	out, err := engine.Evaluate(context.Background(), enums.PriceTierRetail, items)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !out[0].DiscountAmount.IsZero() {
		t.Fatalf("below min quantity should not discount, got %s", out[0].DiscountAmount)
	}
	if !out[1].DiscountAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected discount 50, got %s", out[1].DiscountAmount)
	}
	if !out[2].DiscountAmount.IsZero() {
		t.Fatalf("above max quantity should not discount, got %s", out[2].DiscountAmount)
	}
}

func TestEvaluateMaxDiscountCap(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubRuleSource{rules: []models.DiscountRule{{
		Name:          "capped",
		RuleType:      enums.RuleTypeLineItem,
		DiscountType:  enums.DiscountValuePercent,
		DiscountValue: decimal.NewFromInt(50),
		MaxDiscount:   decimal.NewFromInt(100),
	}}})

	items := types.LineItems{newLine("A", "x", 10, 100)}
	out, err := engine.Evaluate(context.Background(), enums.PriceTierRetail, items)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !out[0].DiscountAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected cap at 100, got %s", out[0].DiscountAmount)
	}
}

func TestEvaluateBestSingleRuleWins(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubRuleSource{rules: []models.DiscountRule{
		{
			Name:          "small",
			RuleType:      enums.RuleTypeLineItem,
			DiscountType:  enums.DiscountValuePercent,
			DiscountValue: decimal.NewFromInt(5),
		},
		{
			Name:          "big",
			RuleType:      enums.RuleTypeLineItem,
			DiscountType:  enums.DiscountValuePercent,
			DiscountValue: decimal.NewFromInt(15),
		},
	}})

	items := types.LineItems{newLine("A", "x", 1, 200)}
	out, err := engine.Evaluate(context.Background(), enums.PriceTierRetail, items)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if out[0].AppliedRule != "big" {
		t.Fatalf("expected best rule to win, got %q", out[0].AppliedRule)
	}
	if !out[0].DiscountAmount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected discount 30, got %s", out[0].DiscountAmount)
	}
}

func TestEvaluateSkipsNonRetailTiers(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubRuleSource{rules: []models.DiscountRule{{
		Name:          "retail only",
		RuleType:      enums.RuleTypeLineItem,
		DiscountType:  enums.DiscountValuePercent,
		DiscountValue: decimal.NewFromInt(10),
	}}})

	items := types.LineItems{newLine("A", "x", 1, 100)}
	out, err := engine.Evaluate(context.Background(), enums.PriceTierWholesale, items)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !out[0].DiscountAmount.IsZero() {
		t.Fatalf("wholesale tier should not receive rule discounts, got %s", out[0].DiscountAmount)
	}
}

func TestEvaluatePreservesManualDiscounts(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubRuleSource{rules: []models.DiscountRule{{
		Name:          "auto",
		RuleType:      enums.RuleTypeLineItem,
		DiscountType:  enums.DiscountValuePercent,
		DiscountValue: decimal.NewFromInt(10),
	}}})

	manual := newLine("A", "x", 1, 100)
	manual.ManualDiscount = true
	manual.DiscountPercent = decimal.NewFromInt(25)
	manual.DiscountAmount = decimal.NewFromInt(25)
	manual.Recalculate()

	items := types.LineItems{manual, newLine("B", "x", 1, 100)}
	out, err := engine.Evaluate(context.Background(), enums.PriceTierRetail, items)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !out[0].DiscountAmount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("manual discount must survive rule pass, got %s", out[0].DiscountAmount)
	}
	if !out[1].DiscountAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected auto discount on second line, got %s", out[1].DiscountAmount)
	}
}

func TestEvaluatePropagatesSourceError(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubRuleSource{err: errors.New("db down")})

	items := types.LineItems{newLine("A", "x", 1, 100)}
	if _, err := engine.Evaluate(context.Background(), enums.PriceTierRetail, items); err == nil {
		t.Fatal("expected error from rule source")
	}
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, &stubRuleSource{rules: []models.DiscountRule{{
		Name:          "auto",
		RuleType:      enums.RuleTypeLineItem,
		DiscountType:  enums.DiscountValuePercent,
		DiscountValue: decimal.NewFromInt(10),
	}}})

	items := types.LineItems{newLine("A", "x", 1, 100)}
	if _, err := engine.Evaluate(context.Background(), enums.PriceTierRetail, items); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if !items[0].DiscountAmount.IsZero() {
		t.Fatalf("input snapshot must stay untouched, got %s", items[0].DiscountAmount)
	}
}
