package enums

// DiscountRuleType scopes which cart lines a rule can touch.
type DiscountRuleType string

const (
	RuleTypeProduct  DiscountRuleType = "product"
	RuleTypeCategory DiscountRuleType = "category"
	RuleTypeLineItem DiscountRuleType = "line_item"
)

func (t DiscountRuleType) Valid() bool {
	switch t {
	case RuleTypeProduct, RuleTypeCategory, RuleTypeLineItem:
		return true
	}
	return false
}

// DiscountValueType distinguishes percentage rules from fixed-amount rules.
type DiscountValueType string

const (
	DiscountValuePercent DiscountValueType = "percent"
	DiscountValueFixed   DiscountValueType = "fixed"
)

func (t DiscountValueType) Valid() bool {
	return t == DiscountValuePercent || t == DiscountValueFixed
}
