package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/pagination"
)

// LogRepository exposes persistence operations for the stock movement ledger.
type LogRepository struct {
	db *gorm.DB
}

// NewLogRepository constructs a ledger repository bound to the provided DB.
func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// InsertTx appends a movement row inside the transaction.
func (r *LogRepository) InsertTx(tx *gorm.DB, log *models.InventoryLog) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	return tx.Create(log).Error
}

// ListByProduct returns the product's movements, newest first.
func (r *LogRepository) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.InventoryLog, error) {
	var rows []models.InventoryLog
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	return rows, err
}
