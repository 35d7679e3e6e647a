package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/pagination"
)

type productStore interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySKU(ctx context.Context, sku string) (*models.Product, error)
	GetByBarcode(ctx context.Context, code string) (*models.Product, error)
	Search(ctx context.Context, query string, limit int) ([]models.Product, error)
	List(ctx context.Context, params pagination.Params) ([]models.Product, string, error)
}

type customerStore interface {
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Search(ctx context.Context, query string, limit int) ([]models.Customer, error)
	List(ctx context.Context, params pagination.Params) ([]models.Customer, string, error)
}

// Service exposes catalog operations for products and customers.
type Service interface {
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params) ([]models.Product, string, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error)
	ResolveBarcode(ctx context.Context, code string) (*models.Product, error)

	CreateCustomer(ctx context.Context, input CustomerInput) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (*models.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	SearchCustomers(ctx context.Context, query string, limit int) ([]models.Customer, error)
	ListCustomers(ctx context.Context, params pagination.Params) ([]models.Customer, string, error)
}

type service struct {
	products  productStore
	customers customerStore
}

// NewService builds a catalog service backed by the provided repositories.
func NewService(products productStore, customers customerStore) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	return &service{products: products, customers: customers}, nil
}

// ProductInput captures the payload for creating or updating a product.
type ProductInput struct {
	SKU            string
	Barcodes       []string
	NameEN         string
	NameSI         string
	NameTA         string
	Category       string
	Unit           string
	PriceRetail    decimal.Decimal
	PriceWholesale decimal.Decimal
	PriceCredit    decimal.Decimal
	PriceOther     decimal.Decimal
	CostPrice      decimal.Decimal
	Stock          decimal.Decimal
	ReorderLevel   decimal.Decimal
	WeightBased    bool
	IsActive       bool
}

// CustomerInput captures the payload for creating or updating a customer.
type CustomerInput struct {
	Name        string
	Phone       string
	Email       *string
	Address     *string
	TaxID       *string
	DefaultTier string
	Notes       *string
	IsActive    bool
}

func (i ProductInput) validate() error {
	if strings.TrimSpace(i.SKU) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}
	if strings.TrimSpace(i.NameEN) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if strings.TrimSpace(i.Category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	if !i.PriceRetail.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "retail price must be positive")
	}
	if i.Stock.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	return nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	product := productFromInput(&models.Product{}, input)
	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "creating product")
	}
	return created, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := input.validate(); err != nil {
		return nil, err
	}
	existing, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "product")
	}
	updated, err := s.products.Update(ctx, productFromInput(existing, input))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating product")
	}
	return updated, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) ([]models.Product, string, error) {
	rows, next, err := s.products.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing products")
	}
	return rows, next, nil
}

func (s *service) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	rows, err := s.products.Search(ctx, query, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "searching products")
	}
	return rows, nil
}

// ResolveBarcode maps a scanned code to a product: exact barcode match first,
// exact SKU second.
func (s *service) ResolveBarcode(ctx context.Context, code string) (*models.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}

	product, err := s.products.GetByBarcode(ctx, code)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "looking up barcode")
	}

	product, err = s.products.GetBySKU(ctx, code)
	if err == nil {
		return product, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no product matches scanned code")
	}
	return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "looking up sku")
}

func (s *service) CreateCustomer(ctx context.Context, input CustomerInput) (*models.Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	customer := customerFromInput(&models.Customer{}, input)
	created, err := s.customers.Create(ctx, customer)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "creating customer")
	}
	return created, nil
}

func (s *service) UpdateCustomer(ctx context.Context, id uuid.UUID, input CustomerInput) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	existing, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "customer")
	}
	updated, err := s.customers.Update(ctx, customerFromInput(existing, input))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating customer")
	}
	return updated, nil
}

func (s *service) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "customer")
	}
	return customer, nil
}

func (s *service) SearchCustomers(ctx context.Context, query string, limit int) ([]models.Customer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	rows, err := s.customers.Search(ctx, query, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "searching customers")
	}
	return rows, nil
}

func (s *service) ListCustomers(ctx context.Context, params pagination.Params) ([]models.Customer, string, error) {
	rows, next, err := s.customers.List(ctx, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(err, pkgerrors.CodeInternal, "listing customers")
	}
	return rows, next, nil
}

func productFromInput(product *models.Product, input ProductInput) *models.Product {
	product.SKU = strings.TrimSpace(input.SKU)
	product.Barcodes = pq.StringArray(input.Barcodes)
	product.NameEN = strings.TrimSpace(input.NameEN)
	product.NameSI = strings.TrimSpace(input.NameSI)
	product.NameTA = strings.TrimSpace(input.NameTA)
	product.Category = strings.TrimSpace(input.Category)
	product.Unit = strings.TrimSpace(input.Unit)
	if product.Unit == "" {
		product.Unit = "pcs"
	}
	product.PriceRetail = input.PriceRetail
	product.PriceWholesale = input.PriceWholesale
	product.PriceCredit = input.PriceCredit
	product.PriceOther = input.PriceOther
	product.CostPrice = input.CostPrice
	product.Stock = input.Stock
	product.ReorderLevel = input.ReorderLevel
	product.WeightBased = input.WeightBased
	product.IsActive = input.IsActive
	return product
}

func customerFromInput(customer *models.Customer, input CustomerInput) *models.Customer {
	customer.Name = strings.TrimSpace(input.Name)
	customer.Phone = strings.TrimSpace(input.Phone)
	customer.Email = input.Email
	customer.Address = input.Address
	customer.TaxID = input.TaxID
	customer.DefaultTier = enums.ParsePriceTier(input.DefaultTier)
	customer.Notes = input.Notes
	customer.IsActive = input.IsActive
	return customer
}

func notFoundOrInternal(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading "+entity)
}
