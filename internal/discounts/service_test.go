package discounts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
)

type stubRuleStore struct {
	byID    map[uuid.UUID]*models.DiscountRule
	deleted []uuid.UUID
}

func newStubRuleStore() *stubRuleStore {
	return &stubRuleStore{byID: make(map[uuid.UUID]*models.DiscountRule)}
}

func (s *stubRuleStore) Create(ctx context.Context, rule *models.DiscountRule) (*models.DiscountRule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	s.byID[rule.ID] = rule
	return rule, nil
}

func (s *stubRuleStore) Update(ctx context.Context, rule *models.DiscountRule) (*models.DiscountRule, error) {
	s.byID[rule.ID] = rule
	return rule, nil
}

func (s *stubRuleStore) GetByID(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error) {
	rule, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return rule, nil
}

func (s *stubRuleStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRuleStore) List(ctx context.Context) ([]models.DiscountRule, error) {
	rows := make([]models.DiscountRule, 0, len(s.byID))
	for _, rule := range s.byID {
		rows = append(rows, *rule)
	}
	return rows, nil
}

func validRuleInput() RuleInput {
	target := "BREAD-001"
	return RuleInput{
		Name:          "Bread promo",
		RuleType:      string(enums.RuleTypeProduct),
		Target:        &target,
		DiscountType:  string(enums.DiscountValuePercent),
		DiscountValue: decimal.NewFromInt(10),
		AutoApply:     true,
		IsActive:      true,
	}
}

func TestCreateRulePersistsTrimmedRule(t *testing.T) {
	t.Parallel()

	store := newStubRuleStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	input := validRuleInput()
	input.Name = "  Bread promo  "
	created, err := svc.CreateRule(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	if created.Name != "Bread promo" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.RuleType != enums.RuleTypeProduct {
		t.Fatalf("unexpected rule type %s", created.RuleType)
	}
	if !created.AutoApply || !created.IsActive {
		t.Fatal("auto apply and active flags were dropped")
	}
}

func TestRuleInputValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubRuleStore())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	mutate := func(fn func(*RuleInput)) RuleInput {
		input := validRuleInput()
		fn(&input)
		return input
	}

	cases := []struct {
		name  string
		input RuleInput
	}{
		{"blank name", mutate(func(i *RuleInput) { i.Name = "  " })},
		{"unknown rule type", mutate(func(i *RuleInput) { i.RuleType = "bundle" })},
		{"product rule without target", mutate(func(i *RuleInput) { i.Target = nil })},
		{"unknown discount type", mutate(func(i *RuleInput) { i.DiscountType = "bogo" })},
		{"zero discount value", mutate(func(i *RuleInput) { i.DiscountValue = decimal.Zero })},
		{"percent above 100", mutate(func(i *RuleInput) { i.DiscountValue = decimal.NewFromInt(150) })},
		{"min above max quantity", mutate(func(i *RuleInput) {
			i.MinQuantity = decimal.NewFromInt(5)
			i.MaxQuantity = decimal.NewFromInt(2)
		})},
	}
	for _, tc := range cases {
		_, err := svc.CreateRule(context.Background(), tc.input)
		if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestLineItemRuleNeedsNoTarget(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubRuleStore())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	input := validRuleInput()
	input.RuleType = string(enums.RuleTypeLineItem)
	input.Target = nil
	if _, err := svc.CreateRule(context.Background(), input); err != nil {
		t.Fatalf("CreateRule: %v", err)
	}
}

func TestUpdateRuleUnknownID(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubRuleStore())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.UpdateRule(context.Background(), uuid.New(), validRuleInput())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRuleOverwritesFields(t *testing.T) {
	t.Parallel()

	store := newStubRuleStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	created, err := svc.CreateRule(context.Background(), validRuleInput())
	if err != nil {
		t.Fatalf("CreateRule: %v", err)
	}

	input := validRuleInput()
	input.DiscountType = string(enums.DiscountValueFixed)
	input.DiscountValue = decimal.NewFromInt(50)
	input.IsActive = false

	updated, err := svc.UpdateRule(context.Background(), created.ID, input)
	if err != nil {
		t.Fatalf("UpdateRule: %v", err)
	}
	if updated.DiscountType != enums.DiscountValueFixed || !updated.DiscountValue.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("discount fields not updated: %s %s", updated.DiscountType, updated.DiscountValue)
	}
	if updated.IsActive {
		t.Fatal("expected rule to be deactivated")
	}
}

func TestDeleteRuleRequiresID(t *testing.T) {
	t.Parallel()

	store := newStubRuleStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	if err := svc.DeleteRule(context.Background(), uuid.Nil); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	id := uuid.New()
	if err := svc.DeleteRule(context.Background(), id); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != id {
		t.Fatalf("delete not forwarded to store: %v", store.deleted)
	}
}
