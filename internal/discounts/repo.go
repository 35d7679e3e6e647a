package discounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
)

// RuleRepository exposes persistence operations for discount rules.
type RuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository constructs a rule repository bound to the provided DB.
func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Create inserts a new discount rule.
func (r *RuleRepository) Create(ctx context.Context, rule *models.DiscountRule) (*models.DiscountRule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// Update saves the provided rule.
func (r *RuleRepository) Update(ctx context.Context, rule *models.DiscountRule) (*models.DiscountRule, error) {
	if err := r.db.WithContext(ctx).Save(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// GetByID loads one rule by primary key.
func (r *RuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error) {
	var rule models.DiscountRule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// Delete removes the rule.
func (r *RuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DiscountRule{}).Error
}

// List returns every rule ordered by creation time.
func (r *RuleRepository) List(ctx context.Context) ([]models.DiscountRule, error) {
	var rows []models.DiscountRule
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

// ListActive returns auto-apply rules active at the given instant.
func (r *RuleRepository) ListActive(ctx context.Context, now time.Time) ([]models.DiscountRule, error) {
	var rows []models.DiscountRule
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND auto_apply = ?", true, true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
