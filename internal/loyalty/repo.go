package loyalty

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/pagination"
)

// Repository exposes persistence for loyalty settings and transactions.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a loyalty repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSettings loads the single settings row, creating defaults on first use.
func (r *Repository) GetSettings(ctx context.Context) (*models.LoyaltySettings, error) {
	var settings models.LoyaltySettings
	err := r.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = defaultSettings()
		if createErr := r.db.WithContext(ctx).Create(&settings).Error; createErr != nil {
			return nil, createErr
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings saves the settings row.
func (r *Repository) UpdateSettings(ctx context.Context, settings *models.LoyaltySettings) (*models.LoyaltySettings, error) {
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// InsertTransactionTx appends a points movement inside the transaction.
func (r *Repository) InsertTransactionTx(tx *gorm.DB, row *models.LoyaltyTransaction) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return tx.Create(row).Error
}

// ListTransactions returns the customer's points history, newest first.
func (r *Repository) ListTransactions(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LoyaltyTransaction, error) {
	var rows []models.LoyaltyTransaction
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	return rows, err
}
