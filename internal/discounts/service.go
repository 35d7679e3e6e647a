package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
)

type ruleStore interface {
	Create(ctx context.Context, rule *models.DiscountRule) (*models.DiscountRule, error)
	Update(ctx context.Context, rule *models.DiscountRule) (*models.DiscountRule, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]models.DiscountRule, error)
}

// Service exposes discount rule management.
type Service interface {
	CreateRule(ctx context.Context, input RuleInput) (*models.DiscountRule, error)
	UpdateRule(ctx context.Context, id uuid.UUID, input RuleInput) (*models.DiscountRule, error)
	GetRule(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
	ListRules(ctx context.Context) ([]models.DiscountRule, error)
}

type service struct {
	repo ruleStore
}

// NewService builds a discount rule service.
func NewService(repo ruleStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rule repository required")
	}
	return &service{repo: repo}, nil
}

// RuleInput captures the payload for creating or updating a discount rule.
type RuleInput struct {
	Name          string
	RuleType      string
	Target        *string
	DiscountType  string
	DiscountValue decimal.Decimal
	MaxDiscount   decimal.Decimal
	MinQuantity   decimal.Decimal
	MaxQuantity   decimal.Decimal
	AutoApply     bool
	IsActive      bool
}

func (i RuleInput) validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rule name is required")
	}
	ruleType := enums.DiscountRuleType(i.RuleType)
	if !ruleType.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "rule type must be product, category or line_item")
	}
	if ruleType != enums.RuleTypeLineItem {
		if i.Target == nil || strings.TrimSpace(*i.Target) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "target is required for product and category rules")
		}
	}
	if !enums.DiscountValueType(i.DiscountType).Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount type must be percent or fixed")
	}
	if !i.DiscountValue.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if enums.DiscountValueType(i.DiscountType) == enums.DiscountValuePercent && i.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent discount cannot exceed 100")
	}
	if i.MaxQuantity.IsPositive() && i.MinQuantity.GreaterThan(i.MaxQuantity) {
		return pkgerrors.New(pkgerrors.CodeValidation, "min quantity cannot exceed max quantity")
	}
	return nil
}

func (s *service) CreateRule(ctx context.Context, input RuleInput) (*models.DiscountRule, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, ruleFromInput(&models.DiscountRule{}, input))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "creating discount rule")
	}
	return created, nil
}

func (s *service) UpdateRule(ctx context.Context, id uuid.UUID, input RuleInput) (*models.DiscountRule, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount rule not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading discount rule")
	}
	updated, err := s.repo.Update(ctx, ruleFromInput(existing, input))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating discount rule")
	}
	return updated, nil
}

func (s *service) GetRule(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule id is required")
	}
	rule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount rule not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading discount rule")
	}
	return rule, nil
}

func (s *service) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "rule id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "deleting discount rule")
	}
	return nil
}

func (s *service) ListRules(ctx context.Context) ([]models.DiscountRule, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing discount rules")
	}
	return rows, nil
}

func ruleFromInput(rule *models.DiscountRule, input RuleInput) *models.DiscountRule {
	rule.Name = strings.TrimSpace(input.Name)
	rule.RuleType = enums.DiscountRuleType(input.RuleType)
	rule.Target = input.Target
	rule.DiscountType = enums.DiscountValueType(input.DiscountType)
	rule.DiscountValue = input.DiscountValue
	rule.MaxDiscount = input.MaxDiscount
	rule.MinQuantity = input.MinQuantity
	rule.MaxQuantity = input.MaxQuantity
	rule.AutoApply = input.AutoApply
	rule.IsActive = input.IsActive
	return rule
}
