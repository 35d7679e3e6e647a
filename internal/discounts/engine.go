package discounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	"github.com/lankapos/pos-backend/pkg/types"
)

type ruleSource interface {
	ListActive(ctx context.Context, now time.Time) ([]models.DiscountRule, error)
}

// Engine evaluates automatic discount rules against a cart snapshot.
type Engine struct {
	rules ruleSource
	now   func() time.Time
}

// NewEngine builds a rule engine over the provided rule source.
func NewEngine(rules ruleSource) (*Engine, error) {
	if rules == nil {
		return nil, fmt.Errorf("rule source required")
	}
	return &Engine{rules: rules, now: time.Now}, nil
}

// Evaluate returns a copy of the cart lines with automatic discounts applied.
// Rules fire only for the retail tier; for any other tier the input is
// returned unchanged. Lines carrying a manual discount are never touched.
// For each line the single rule producing the largest discount wins.
func (e *Engine) Evaluate(ctx context.Context, tier enums.PriceTier, items types.LineItems) (types.LineItems, error) {
	out := items.Clone()
	if tier != enums.PriceTierRetail || len(out) == 0 {
		return out, nil
	}

	rules, err := e.rules.ListActive(ctx, e.now())
	if err != nil {
		return nil, fmt.Errorf("loading active rules: %w", err)
	}

	for i := range out {
		line := &out[i]
		if line.ManualDiscount {
			continue
		}

		best := decimal.Zero
		bestName := ""
		for _, rule := range rules {
			if !ruleMatchesLine(rule, line) {
				continue
			}
			amount := ruleAmount(rule, line)
			if amount.GreaterThan(best) {
				best = amount
				bestName = rule.Name
			}
		}

		line.DiscountAmount = best
		line.AppliedRule = bestName
		if line.Subtotal.IsPositive() {
			line.DiscountPercent = best.Div(line.Subtotal).Mul(decimal.NewFromInt(100)).Round(2)
		} else {
			line.DiscountPercent = decimal.Zero
		}
		line.Recalculate()
	}

	return out, nil
}

func ruleMatchesLine(rule models.DiscountRule, line *types.LineItem) bool {
	switch rule.RuleType {
	case enums.RuleTypeProduct:
		target := targetOf(rule)
		if target == "" {
			return false
		}
		if !strings.EqualFold(target, line.ProductID.String()) && !strings.EqualFold(target, line.SKU) {
			return false
		}
	case enums.RuleTypeCategory:
		target := targetOf(rule)
		if target == "" || !strings.EqualFold(target, line.Category) {
			return false
		}
	case enums.RuleTypeLineItem:
		// applies to every line
	default:
		return false
	}

	qty := line.Quantity
	if rule.MinQuantity.IsPositive() && qty.LessThan(rule.MinQuantity) {
		return false
	}
	if rule.MaxQuantity.IsPositive() && qty.GreaterThan(rule.MaxQuantity) {
		return false
	}
	return true
}

func ruleAmount(rule models.DiscountRule, line *types.LineItem) decimal.Decimal {
	var amount decimal.Decimal
	switch rule.DiscountType {
	case enums.DiscountValuePercent:
		amount = line.Subtotal.Mul(rule.DiscountValue).Div(decimal.NewFromInt(100))
	case enums.DiscountValueFixed:
		amount = rule.DiscountValue.Mul(line.Quantity)
	default:
		return decimal.Zero
	}

	if rule.MaxDiscount.IsPositive() && amount.GreaterThan(rule.MaxDiscount) {
		amount = rule.MaxDiscount
	}
	if amount.GreaterThan(line.Subtotal) {
		amount = line.Subtotal
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}

func targetOf(rule models.DiscountRule) string {
	if rule.Target == nil {
		return ""
	}
	return strings.TrimSpace(*rule.Target)
}
