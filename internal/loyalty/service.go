package loyalty

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/outbox"
	"github.com/lankapos/pos-backend/pkg/outbox/payloads"
)

var hundred = decimal.NewFromInt(100)

type settingsStore interface {
	GetSettings(ctx context.Context) (*models.LoyaltySettings, error)
	UpdateSettings(ctx context.Context, settings *models.LoyaltySettings) (*models.LoyaltySettings, error)
	InsertTransactionTx(tx *gorm.DB, row *models.LoyaltyTransaction) error
	ListTransactions(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LoyaltyTransaction, error)
}

type customerAccounts interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	LockForUpdateTx(tx *gorm.DB, id uuid.UUID) (*models.Customer, error)
	SetPointsTx(tx *gorm.DB, id uuid.UUID, points, lifetime decimal.Decimal) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the loyalty program: settings, balances, earn and redeem.
type Service interface {
	Settings(ctx context.Context) (*models.LoyaltySettings, error)
	UpdateSettings(ctx context.Context, settings *models.LoyaltySettings) (*models.LoyaltySettings, error)
	Balance(ctx context.Context, customerID uuid.UUID) (*BalanceView, error)
	History(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LoyaltyTransaction, error)
	QuoteRedemption(ctx context.Context, customerID uuid.UUID, points, cartTotal decimal.Decimal) (*RedemptionQuote, error)
	AwardForSaleTx(ctx context.Context, tx *gorm.DB, customerID, saleID uuid.UUID, saleTotal decimal.Decimal) (*models.LoyaltyTransaction, error)
	RedeemForSaleTx(ctx context.Context, tx *gorm.DB, customerID, saleID uuid.UUID, points decimal.Decimal) (*models.LoyaltyTransaction, error)
}

type service struct {
	repo      settingsStore
	customers customerAccounts
	events    eventEmitter
}

// NewService builds a loyalty service.
func NewService(repo settingsStore, customers customerAccounts, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, customers: customers, events: events}, nil
}

// BalanceView is the customer's current standing.
type BalanceView struct {
	CustomerID     uuid.UUID         `json:"customer_id"`
	Points         decimal.Decimal   `json:"points"`
	LifetimePoints decimal.Decimal   `json:"lifetime_points"`
	Tier           enums.LoyaltyTier `json:"tier"`
}

// RedemptionQuote is the discount a redemption would produce after clamping.
type RedemptionQuote struct {
	Points   decimal.Decimal `json:"points"`
	Discount decimal.Decimal `json:"discount"`
}

func defaultSettings() models.LoyaltySettings {
	return models.LoyaltySettings{
		Enabled:              true,
		PointsPerCurrency:    decimal.NewFromFloat(0.01),
		CurrencyPerPoint:     decimal.NewFromInt(1),
		MinPurchaseForPoints: decimal.Zero,
		MinPointsForRedeem:   decimal.NewFromInt(100),
		MaxRedemptionPercent: decimal.NewFromInt(50),
		SilverThreshold:      decimal.NewFromInt(1000),
		GoldThreshold:        decimal.NewFromInt(5000),
		PlatinumThreshold:    decimal.NewFromInt(10000),
		SilverMultiplier:     decimal.NewFromFloat(1.25),
		GoldMultiplier:       decimal.NewFromFloat(1.5),
		PlatinumMultiplier:   decimal.NewFromInt(2),
	}
}

func (s *service) Settings(ctx context.Context) (*models.LoyaltySettings, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading loyalty settings")
	}
	return settings, nil
}

func (s *service) UpdateSettings(ctx context.Context, settings *models.LoyaltySettings) (*models.LoyaltySettings, error) {
	if settings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settings payload required")
	}
	if settings.MaxRedemptionPercent.IsNegative() || settings.MaxRedemptionPercent.GreaterThan(hundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max redemption percent must be between 0 and 100")
	}
	updated, err := s.repo.UpdateSettings(ctx, settings)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "saving loyalty settings")
	}
	return updated, nil
}

func (s *service) Balance(ctx context.Context, customerID uuid.UUID) (*BalanceView, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading customer")
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading loyalty settings")
	}
	return &BalanceView{
		CustomerID:     customer.ID,
		Points:         customer.LoyaltyPoints,
		LifetimePoints: customer.LifetimePoints,
		Tier:           tierFor(customer.LifetimePoints, settings),
	}, nil
}

func (s *service) History(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LoyaltyTransaction, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	rows, err := s.repo.ListTransactions(ctx, customerID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading loyalty history")
	}
	return rows, nil
}

// QuoteRedemption validates a redemption request and returns the discount it
// would produce. The discount is clamped to the configured percentage of the
// cart total; the points figure in the quote reflects the clamp.
func (s *service) QuoteRedemption(ctx context.Context, customerID uuid.UUID, points, cartTotal decimal.Decimal) (*RedemptionQuote, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !points.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	if !cartTotal.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total must be positive to redeem")
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading loyalty settings")
	}
	if !settings.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "loyalty program is disabled")
	}
	if points.LessThan(settings.MinPointsForRedeem) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points below the redemption minimum")
	}

	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading customer")
	}
	if points.GreaterThan(customer.LoyaltyPoints) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient loyalty points")
	}

	discount := points.Mul(settings.CurrencyPerPoint)
	maxDiscount := cartTotal.Mul(settings.MaxRedemptionPercent).Div(hundred)
	if discount.GreaterThan(maxDiscount) {
		discount = maxDiscount
		if settings.CurrencyPerPoint.IsPositive() {
			points = discount.Div(settings.CurrencyPerPoint).Floor()
			discount = points.Mul(settings.CurrencyPerPoint)
		}
	}

	return &RedemptionQuote{
		Points:   points,
		Discount: discount.Round(2),
	}, nil
}

// AwardForSaleTx grants points for a completed sale inside the sale's
// transaction. Returns nil without error when no points apply.
func (s *service) AwardForSaleTx(ctx context.Context, tx *gorm.DB, customerID, saleID uuid.UUID, saleTotal decimal.Decimal) (*models.LoyaltyTransaction, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "loading loyalty settings")
	}
	if !settings.Enabled || saleTotal.LessThan(settings.MinPurchaseForPoints) {
		return nil, nil
	}

	customer, err := s.customers.LockForUpdateTx(tx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "locking customer")
	}

	multiplier := tierMultiplier(tierFor(customer.LifetimePoints, settings), settings)
	points := saleTotal.Mul(settings.PointsPerCurrency).Mul(multiplier).Round(2)
	if !points.IsPositive() {
		return nil, nil
	}

	newBalance := customer.LoyaltyPoints.Add(points)
	newLifetime := customer.LifetimePoints.Add(points)
	if err := s.customers.SetPointsTx(tx, customer.ID, newBalance, newLifetime); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating customer points")
	}

	ref := saleID.String()
	row := &models.LoyaltyTransaction{
		CustomerID:   customer.ID,
		TxType:       enums.LoyaltyTxEarn,
		Points:       points,
		BalanceAfter: newBalance,
		Reference:    &ref,
		Description:  "points earned on sale",
	}
	if err := s.repo.InsertTransactionTx(tx, row); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "writing loyalty transaction")
	}

	err = s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventLoyaltyAwarded,
		AggregateType: enums.AggregateCustomer,
		AggregateID:   customer.ID,
		Version:       1,
		Data: payloads.LoyaltyAwarded{
			CustomerID:   customer.ID,
			SaleID:       saleID,
			Points:       points,
			BalanceAfter: newBalance,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "queueing loyalty event")
	}
	return row, nil
}

// RedeemForSaleTx deducts redeemed points inside the sale's transaction.
func (s *service) RedeemForSaleTx(ctx context.Context, tx *gorm.DB, customerID, saleID uuid.UUID, points decimal.Decimal) (*models.LoyaltyTransaction, error) {
	if !points.IsPositive() {
		return nil, nil
	}

	customer, err := s.customers.LockForUpdateTx(tx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "locking customer")
	}
	if points.GreaterThan(customer.LoyaltyPoints) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient loyalty points")
	}

	newBalance := customer.LoyaltyPoints.Sub(points)
	if err := s.customers.SetPointsTx(tx, customer.ID, newBalance, customer.LifetimePoints); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "updating customer points")
	}

	ref := saleID.String()
	row := &models.LoyaltyTransaction{
		CustomerID:   customer.ID,
		TxType:       enums.LoyaltyTxRedeem,
		Points:       points.Neg(),
		BalanceAfter: newBalance,
		Reference:    &ref,
		Description:  "points redeemed on sale",
	}
	if err := s.repo.InsertTransactionTx(tx, row); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "writing loyalty transaction")
	}
	return row, nil
}

func tierFor(lifetime decimal.Decimal, settings *models.LoyaltySettings) enums.LoyaltyTier {
	switch {
	case lifetime.GreaterThanOrEqual(settings.PlatinumThreshold):
		return enums.LoyaltyTierPlatinum
	case lifetime.GreaterThanOrEqual(settings.GoldThreshold):
		return enums.LoyaltyTierGold
	case lifetime.GreaterThanOrEqual(settings.SilverThreshold):
		return enums.LoyaltyTierSilver
	default:
		return enums.LoyaltyTierBronze
	}
}

func tierMultiplier(tier enums.LoyaltyTier, settings *models.LoyaltySettings) decimal.Decimal {
	switch tier {
	case enums.LoyaltyTierSilver:
		return settings.SilverMultiplier
	case enums.LoyaltyTierGold:
		return settings.GoldMultiplier
	case enums.LoyaltyTierPlatinum:
		return settings.PlatinumMultiplier
	default:
		return decimal.NewFromInt(1)
	}
}
