package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/pagination"
)

// Repository exposes persistence operations for completed sales.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// InsertTx writes the sale row inside the transaction.
func (r *Repository) InsertTx(tx *gorm.DB, sale *models.Sale) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	return tx.Create(sale).Error
}

// CountForDayTx counts sales created on the given calendar day, for the
// per-day invoice sequence. Runs inside the sale transaction so two
// concurrent checkouts cannot mint the same number.
func (r *Repository) CountForDayTx(tx *gorm.DB, day time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var count int64
	err := tx.Model(&models.Sale{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	return count, err
}

// GetByID loads one sale.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetByInvoice loads one sale by its invoice number.
func (r *Repository) GetByInvoice(ctx context.Context, invoice string) (*models.Sale, error) {
	var sale models.Sale
	err := r.db.WithContext(ctx).Where("invoice_number = ?", invoice).First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// List returns a cursor page of sales, newest first.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Sale, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Sale
	if err := q.Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}
