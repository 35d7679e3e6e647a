package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/pagination"
)

// CustomerRepository exposes persistence operations for customers.
type CustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository constructs a customer repository bound to the provided DB.
func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *CustomerRepository) WithTx(tx *gorm.DB) *CustomerRepository {
	if tx == nil {
		return r
	}
	return &CustomerRepository{db: tx}
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// Update saves the provided customer.
func (r *CustomerRepository) Update(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// GetByID loads one customer by primary key.
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// Search matches active customers on name or phone.
func (r *CustomerRepository) Search(ctx context.Context, query string, limit int) ([]models.Customer, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var rows []models.Customer
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(name) LIKE ? OR phone LIKE ?", pattern, pattern).
		Order("name ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	return rows, err
}

// List returns a cursor page of customers ordered by created_at, id.
func (r *CustomerRepository) List(ctx context.Context, params pagination.Params) ([]models.Customer, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	q := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if cursor != nil {
		q = q.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Customer
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

// LockForUpdateTx loads a customer with a row lock inside the transaction.
func (r *CustomerRepository) LockForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// SetPointsTx writes the customer's loyalty balances inside the transaction.
func (r *CustomerRepository) SetPointsTx(tx *gorm.DB, id uuid.UUID, points, lifetime decimal.Decimal) error {
	return tx.Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"loyalty_points":  points,
			"lifetime_points": lifetime,
		}).Error
}
