package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/pagination"
)

type stubProductStore struct {
	byBarcode map[string]*models.Product
	bySKU     map[string]*models.Product
	created   []*models.Product
}

func (s *stubProductStore) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	s.created = append(s.created, p)
	return p, nil
}

func (s *stubProductStore) Update(_ context.Context, p *models.Product) (*models.Product, error) {
	return p, nil
}

func (s *stubProductStore) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductStore) GetBySKU(_ context.Context, sku string) (*models.Product, error) {
	if p, ok := s.bySKU[sku]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductStore) GetByBarcode(_ context.Context, code string) (*models.Product, error) {
	if p, ok := s.byBarcode[code]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductStore) Search(_ context.Context, _ string, _ int) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProductStore) List(_ context.Context, _ pagination.Params) ([]models.Product, string, error) {
	return nil, "", nil
}

type stubCustomerStore struct{}

func (s *stubCustomerStore) Create(_ context.Context, c *models.Customer) (*models.Customer, error) {
	return c, nil
}

func (s *stubCustomerStore) Update(_ context.Context, c *models.Customer) (*models.Customer, error) {
	return c, nil
}

func (s *stubCustomerStore) GetByID(_ context.Context, _ uuid.UUID) (*models.Customer, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomerStore) Search(_ context.Context, _ string, _ int) ([]models.Customer, error) {
	return nil, nil
}

func (s *stubCustomerStore) List(_ context.Context, _ pagination.Params) ([]models.Customer, string, error) {
	return nil, "", nil
}

func newTestService(t *testing.T, products *stubProductStore) Service {
	t.Helper()
	svc, err := NewService(products, &stubCustomerStore{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestResolveBarcodePrefersBarcodeOverSKU(t *testing.T) {
	t.Parallel()

	byBarcode := &models.Product{ID: uuid.New(), SKU: "SODA-1"}
	bySKU := &models.Product{ID: uuid.New(), SKU: "4791234567890"}
	store := &stubProductStore{
		byBarcode: map[string]*models.Product{"4791234567890": byBarcode},
		bySKU:     map[string]*models.Product{"4791234567890": bySKU},
	}
	svc := newTestService(t, store)

	got, err := svc.ResolveBarcode(context.Background(), "4791234567890")
	if err != nil {
		t.Fatalf("ResolveBarcode: %v", err)
	}
	if got.ID != byBarcode.ID {
		t.Fatalf("expected barcode match to win, got product %s", got.SKU)
	}
}

func TestResolveBarcodeFallsBackToSKU(t *testing.T) {
	t.Parallel()

	product := &models.Product{ID: uuid.New(), SKU: "RICE-5KG"}
	store := &stubProductStore{
		byBarcode: map[string]*models.Product{},
		bySKU:     map[string]*models.Product{"RICE-5KG": product},
	}
	svc := newTestService(t, store)

	got, err := svc.ResolveBarcode(context.Background(), "RICE-5KG")
	if err != nil {
		t.Fatalf("ResolveBarcode: %v", err)
	}
	if got.ID != product.ID {
		t.Fatalf("expected SKU fallback match")
	}
}

func TestResolveBarcodeNotFound(t *testing.T) {
	t.Parallel()

	store := &stubProductStore{
		byBarcode: map[string]*models.Product{},
		bySKU:     map[string]*models.Product{},
	}
	svc := newTestService(t, store)

	_, err := svc.ResolveBarcode(context.Background(), "0000000")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestResolveBarcodeRejectsEmpty(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubProductStore{})

	_, err := svc.ResolveBarcode(context.Background(), "   ")
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubProductStore{})

	cases := []struct {
		name  string
		input ProductInput
	}{
		{"missing sku", ProductInput{NameEN: "Rice", Category: "grain", PriceRetail: decimal.NewFromInt(100)}},
		{"missing name", ProductInput{SKU: "R-1", Category: "grain", PriceRetail: decimal.NewFromInt(100)}},
		{"zero retail price", ProductInput{SKU: "R-1", NameEN: "Rice", Category: "grain"}},
		{"negative stock", ProductInput{SKU: "R-1", NameEN: "Rice", Category: "grain", PriceRetail: decimal.NewFromInt(10), Stock: decimal.NewFromInt(-1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreateProduct(context.Background(), tc.input)
			if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
				t.Fatalf("expected VALIDATION, got %v", err)
			}
		})
	}
}

func TestCreateProductDefaultsUnit(t *testing.T) {
	t.Parallel()

	store := &stubProductStore{}
	svc := newTestService(t, store)

	created, err := svc.CreateProduct(context.Background(), ProductInput{
		SKU:         "SODA-1",
		NameEN:      "Soda",
		Category:    "beverages",
		PriceRetail: decimal.NewFromInt(250),
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if created.Unit != "pcs" {
		t.Fatalf("expected default unit pcs, got %q", created.Unit)
	}
}
