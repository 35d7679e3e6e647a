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

// ProductRepository exposes persistence operations for catalog products.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository constructs a product repository bound to the provided DB.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	if tx == nil {
		return r
	}
	return &ProductRepository{db: tx}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves the provided product.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// GetByID loads one product by primary key.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetBySKU loads one active product by its unique SKU.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("sku = ? AND is_active = ?", sku, true).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByBarcode loads one active product whose barcode array contains the code.
// Postgres only; the GIN index on barcodes serves this lookup.
func (r *ProductRepository) GetByBarcode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("? = ANY(barcodes) AND is_active = ?", code, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Search returns active products whose SKU or names match the query.
func (r *ProductRepository) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(sku) LIKE ? OR LOWER(name_en) LIKE ? OR LOWER(name_si) LIKE ? OR LOWER(name_ta) LIKE ?",
			pattern, pattern, pattern, pattern).
		Order("name_en ASC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	return rows, err
}

// List returns a cursor page of products ordered by created_at, id.
func (r *ProductRepository) List(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	q := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if cursor != nil {
		q = q.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Product
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

// LockForUpdateTx loads a product with a row lock inside the transaction.
func (r *ProductRepository) LockForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SetStockTx writes the new stock level inside the transaction.
func (r *ProductRepository) SetStockTx(tx *gorm.DB, id uuid.UUID, stock decimal.Decimal) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", stock).Error
}
