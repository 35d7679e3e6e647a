package heldbills

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
)

// Repository exposes persistence operations for held bills.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a held bill repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new held bill snapshot.
func (r *Repository) Create(ctx context.Context, bill *models.HeldBill) (*models.HeldBill, error) {
	if bill.ID == uuid.Nil {
		bill.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(bill).Error; err != nil {
		return nil, err
	}
	return bill, nil
}

// GetByID loads one held bill.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.HeldBill, error) {
	var bill models.HeldBill
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&bill).Error
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// Delete removes the held bill and reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.HeldBill{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListByTerminal returns the terminal's parked bills, oldest first.
func (r *Repository) ListByTerminal(ctx context.Context, terminal string) ([]models.HeldBill, error) {
	var rows []models.HeldBill
	err := r.db.WithContext(ctx).
		Where("terminal_name = ?", terminal).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// List returns every parked bill, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.HeldBill, error) {
	var rows []models.HeldBill
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}
