package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/internal/heldbills"
	"github.com/lankapos/pos-backend/internal/loyalty"
	"github.com/lankapos/pos-backend/internal/payments"
	"github.com/lankapos/pos-backend/internal/pricing"
	"github.com/lankapos/pos-backend/internal/sales"
	"github.com/lankapos/pos-backend/pkg/config"
	"github.com/lankapos/pos-backend/pkg/db/models"
	"github.com/lankapos/pos-backend/pkg/enums"
	pkgerrors "github.com/lankapos/pos-backend/pkg/errors"
	"github.com/lankapos/pos-backend/pkg/logger"
	"github.com/lankapos/pos-backend/pkg/metrics"
	"github.com/lankapos/pos-backend/pkg/types"
)

type catalogLookup interface {
	ResolveBarcode(ctx context.Context, code string) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type ruleEvaluator interface {
	Evaluate(ctx context.Context, tier enums.PriceTier, items types.LineItems) (types.LineItems, error)
}

type redemptionQuoter interface {
	QuoteRedemption(ctx context.Context, customerID uuid.UUID, points, cartTotal decimal.Decimal) (*loyalty.RedemptionQuote, error)
}

type billBridge interface {
	Hold(ctx context.Context, input heldbills.HoldInput) (*models.HeldBill, error)
	Resume(ctx context.Context, id uuid.UUID) (*models.HeldBill, error)
}

type saleCreator interface {
	CreateSale(ctx context.Context, input sales.CreateSaleInput) (*models.Sale, error)
}

// Service is the checkout engine: it owns the live cart sessions and
// orchestrates pricing, discounts, holds and sale submission around them.
type Service interface {
	Snapshot(terminal string) View
	AddScanned(ctx context.Context, terminal, code string) (View, error)
	AddProduct(ctx context.Context, terminal string, productID uuid.UUID, quantity decimal.Decimal) (View, error)
	UpdateItem(ctx context.Context, terminal string, index int, input UpdateItemInput) (View, error)
	RemoveItem(ctx context.Context, terminal string, index int) (View, error)
	Clear(terminal string) View
	SetCustomer(ctx context.Context, terminal string, customerID *uuid.UUID) (View, error)
	SetTier(ctx context.Context, terminal string, tier enums.PriceTier) (View, error)
	SetPaymentMode(terminal string, mode enums.PaymentMode) (View, error)
	AddPayment(terminal string, payment types.Payment) (View, error)
	RemovePayment(terminal string, index int) (View, error)
	RedeemPoints(ctx context.Context, terminal string, points decimal.Decimal) (View, error)
	Hold(ctx context.Context, terminal, billName string, notes *string) (*models.HeldBill, error)
	Resume(ctx context.Context, terminal string, billID uuid.UUID) (View, error)
	Checkout(ctx context.Context, terminal string, input CheckoutInput) (*models.Sale, error)
}

type service struct {
	sessions *SessionManager
	catalog  catalogLookup
	rules    ruleEvaluator
	loyalty  redemptionQuoter
	bills    billBridge
	sales    saleCreator
	gateway  payments.Gateway
	metrics  *metrics.POSMetrics
	logg     *logger.Logger
	cfg      config.CheckoutConfig
	store    config.StoreConfig
}

// NewService builds the checkout engine. The card gateway may be nil when no
// card processor is configured; card payments then fail with a dependency
// error at checkout time.
func NewService(
	sessions *SessionManager,
	catalog catalogLookup,
	rules ruleEvaluator,
	loyaltySvc redemptionQuoter,
	bills billBridge,
	salesSvc saleCreator,
	gateway payments.Gateway,
	posMetrics *metrics.POSMetrics,
	logg *logger.Logger,
	cfg config.CheckoutConfig,
	store config.StoreConfig,
) (Service, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if rules == nil {
		return nil, fmt.Errorf("rule engine required")
	}
	if loyaltySvc == nil {
		return nil, fmt.Errorf("loyalty service required")
	}
	if bills == nil {
		return nil, fmt.Errorf("held bill service required")
	}
	if salesSvc == nil {
		return nil, fmt.Errorf("sales service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		sessions: sessions,
		catalog:  catalog,
		rules:    rules,
		loyalty:  loyaltySvc,
		bills:    bills,
		sales:    salesSvc,
		gateway:  gateway,
		metrics:  posMetrics,
		logg:     logg,
		cfg:      cfg,
		store:    store,
	}, nil
}

func (s *service) Snapshot(terminal string) View {
	return s.sessions.Get(terminal).Snapshot()
}

// AddScanned resolves the scanned code against the catalog and adds one unit
// of the matched product to the cart.
func (s *service) AddScanned(ctx context.Context, terminal, code string) (View, error) {
	product, err := s.catalog.ResolveBarcode(ctx, code)
	if err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound {
			s.metrics.IncScan("unmatched")
		} else {
			s.metrics.IncScan("error")
		}
		return View{}, err
	}
	s.metrics.IncScan("matched")
	return s.addProduct(ctx, terminal, product, decimal.NewFromInt(1))
}

// AddProduct adds the product to the cart. Quantity defaults to one unit, or
// one kilogram for weight-based products. Adding a product already in the
// cart increments its line instead of creating a second one.
func (s *service) AddProduct(ctx context.Context, terminal string, productID uuid.UUID, quantity decimal.Decimal) (View, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return View{}, err
	}
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	return s.addProduct(ctx, terminal, product, quantity)
}

func (s *service) addProduct(ctx context.Context, terminal string, product *models.Product, quantity decimal.Decimal) (View, error) {
	if !quantity.IsPositive() {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	sess := s.sessions.Get(terminal)
	_, err := sess.Mutate(func(state *State) (bool, error) {
		unitPrice := pricing.ResolveUnitPrice(product, *state.Tier)
		for i := range *state.Items {
			line := &(*state.Items)[i]
			if line.ProductID == product.ID {
				line.Quantity = line.Quantity.Add(quantity)
				if line.WeightBased {
					line.Weight = line.Quantity
				}
				line.Recalculate()
				return true, nil
			}
		}
		line := types.LineItem{
			ProductID:   product.ID,
			SKU:         product.SKU,
			Name:        product.NameEN,
			NameSI:      product.NameSI,
			NameTA:      product.NameTA,
			Category:    product.Category,
			Quantity:    quantity,
			WeightBased: product.WeightBased,
			UnitPrice:   unitPrice,
		}
		if line.WeightBased {
			line.Weight = quantity
		}
		line.Recalculate()
		*state.Items = append(*state.Items, line)
		return true, nil
	})
	if err != nil {
		return View{}, err
	}

	s.applyRules(ctx, sess)
	return sess.Snapshot(), nil
}

// UpdateItemInput carries the editable fields of a cart line. Nil fields are
// left untouched.
type UpdateItemInput struct {
	Quantity        *decimal.Decimal
	Weight          *decimal.Decimal
	DiscountPercent *decimal.Decimal
}

// UpdateItem edits one cart line by position. Setting a discount percent
// marks the line as manually discounted so rule passes leave it alone.
func (s *service) UpdateItem(ctx context.Context, terminal string, index int, input UpdateItemInput) (View, error) {
	sess := s.sessions.Get(terminal)
	quantityChanged := false

	_, err := sess.Mutate(func(state *State) (bool, error) {
		if index < 0 || index >= len(*state.Items) {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "no cart line at that position")
		}
		line := &(*state.Items)[index]

		if input.Quantity != nil {
			if !input.Quantity.IsPositive() {
				return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
			}
			line.Quantity = *input.Quantity
			if line.WeightBased {
				line.Weight = line.Quantity
			}
			quantityChanged = true
		}
		if input.Weight != nil {
			if !line.WeightBased {
				return false, pkgerrors.New(pkgerrors.CodeValidation, "weight applies to weight-based products only")
			}
			if !input.Weight.IsPositive() {
				return false, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
			}
			line.Weight = *input.Weight
			line.Quantity = *input.Weight
			quantityChanged = true
		}
		if input.DiscountPercent != nil {
			pct := *input.DiscountPercent
			if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
				return false, pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
			}
			line.DiscountPercent = pct
			line.ManualDiscount = pct.IsPositive()
			line.AppliedRule = ""
			line.DiscountAmount = line.Quantity.Mul(line.UnitPrice).Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
		}

		line.Recalculate()
		return true, nil
	})
	if err != nil {
		return View{}, err
	}

	if quantityChanged {
		s.applyRules(ctx, sess)
	}
	return sess.Snapshot(), nil
}

// RemoveItem drops one cart line. Rules are not re-evaluated; remaining lines
// keep whatever discount they already carry.
func (s *service) RemoveItem(_ context.Context, terminal string, index int) (View, error) {
	sess := s.sessions.Get(terminal)
	return sess.Mutate(func(state *State) (bool, error) {
		if index < 0 || index >= len(*state.Items) {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "no cart line at that position")
		}
		*state.Items = append((*state.Items)[:index], (*state.Items)[index+1:]...)
		return true, nil
	})
}

// Clear resets the cart to an empty retail session.
func (s *service) Clear(terminal string) View {
	sess := s.sessions.Get(terminal)
	view, _ := sess.Mutate(func(state *State) (bool, error) {
		*state.Items = nil
		*state.Tier = enums.PriceTierRetail
		*state.Customer = nil
		*state.PaymentMode = enums.PaymentModeSingle
		*state.Payments = nil
		*state.LoyaltyRedeem = decimal.Zero
		*state.RedeemPoints = decimal.Zero
		return true, nil
	})
	return view
}

// SetCustomer attaches a customer to the cart, switching the tier to the
// customer's default and repricing every line. A nil id detaches the customer
// and returns the cart to retail pricing.
func (s *service) SetCustomer(ctx context.Context, terminal string, customerID *uuid.UUID) (View, error) {
	var customer *models.Customer
	if customerID != nil {
		var err error
		customer, err = s.catalog.GetCustomer(ctx, *customerID)
		if err != nil {
			return View{}, err
		}
	}

	tier := pricing.TierForCustomer(customer)
	prices, err := s.pricesForTier(ctx, s.sessions.Get(terminal), tier)
	if err != nil {
		return View{}, err
	}

	sess := s.sessions.Get(terminal)
	_, err = sess.Mutate(func(state *State) (bool, error) {
		if customer == nil {
			*state.Customer = nil
		} else {
			*state.Customer = &SelectedCustomer{
				ID:            customer.ID,
				Name:          customer.Name,
				Tier:          customer.DefaultTier,
				LoyaltyPoints: customer.LoyaltyPoints,
			}
		}
		*state.Tier = tier
		*state.LoyaltyRedeem = decimal.Zero
		*state.RedeemPoints = decimal.Zero
		repriceLocked(state.Items, prices)
		return true, nil
	})
	if err != nil {
		return View{}, err
	}

	s.applyRules(ctx, sess)
	return sess.Snapshot(), nil
}

// SetTier overrides the cart's price tier and reprices every line.
func (s *service) SetTier(ctx context.Context, terminal string, tier enums.PriceTier) (View, error) {
	if !tier.Valid() {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown price tier")
	}

	sess := s.sessions.Get(terminal)
	prices, err := s.pricesForTier(ctx, sess, tier)
	if err != nil {
		return View{}, err
	}

	_, err = sess.Mutate(func(state *State) (bool, error) {
		*state.Tier = tier
		repriceLocked(state.Items, prices)
		return true, nil
	})
	if err != nil {
		return View{}, err
	}

	s.applyRules(ctx, sess)
	return sess.Snapshot(), nil
}

// pricesForTier refetches every cart product and resolves its unit price for
// the target tier, outside the session lock.
func (s *service) pricesForTier(ctx context.Context, sess *Session, tier enums.PriceTier) (map[uuid.UUID]decimal.Decimal, error) {
	items, _, _ := sess.RuleSnapshot()
	prices := make(map[uuid.UUID]decimal.Decimal, len(items))
	for _, line := range items {
		if _, ok := prices[line.ProductID]; ok {
			continue
		}
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		prices[line.ProductID] = pricing.ResolveUnitPrice(product, tier)
	}
	return prices, nil
}

func repriceLocked(items *types.LineItems, prices map[uuid.UUID]decimal.Decimal) {
	for i := range *items {
		line := &(*items)[i]
		if price, ok := prices[line.ProductID]; ok {
			line.UnitPrice = price
		}
		if !line.ManualDiscount {
			line.DiscountPercent = decimal.Zero
			line.DiscountAmount = decimal.Zero
			line.AppliedRule = ""
		} else {
			line.DiscountAmount = line.Quantity.Mul(line.UnitPrice).Mul(line.DiscountPercent).Div(decimal.NewFromInt(100)).Round(2)
		}
		line.Recalculate()
	}
}

// SetPaymentMode switches between single and split tender. Switching modes
// clears any payments already entered.
func (s *service) SetPaymentMode(terminal string, mode enums.PaymentMode) (View, error) {
	if !mode.Valid() {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment mode")
	}
	sess := s.sessions.Get(terminal)
	return sess.Mutate(func(state *State) (bool, error) {
		if *state.PaymentMode == mode {
			return false, nil
		}
		*state.PaymentMode = mode
		*state.Payments = nil
		return true, nil
	})
}

// AddPayment records one tender. Single mode holds at most one payment. Cash
// may exceed the remaining balance (change is due back); card and qr may not.
func (s *service) AddPayment(terminal string, payment types.Payment) (View, error) {
	if !payment.Method.Valid() {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if !payment.Amount.IsPositive() {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	sess := s.sessions.Get(terminal)
	return sess.Mutate(func(state *State) (bool, error) {
		if len(*state.Items) == 0 {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "cannot take payment on an empty cart")
		}
		if *state.PaymentMode == enums.PaymentModeSingle && len(*state.Payments) > 0 {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "single mode holds one payment; remove it first")
		}
		if payment.Method != enums.PaymentMethodCash {
			totals := CalculateTotals(*state.Items)
			remaining := totals.Total.Sub(*state.LoyaltyRedeem).Sub(state.Payments.Sum())
			if payment.Amount.GreaterThan(remaining) {
				return false, pkgerrors.New(pkgerrors.CodeValidation, "non-cash payment cannot exceed the remaining balance")
			}
		}
		*state.Payments = append(*state.Payments, payment)
		return true, nil
	})
}

// RemovePayment deletes one tender by position.
func (s *service) RemovePayment(terminal string, index int) (View, error) {
	sess := s.sessions.Get(terminal)
	return sess.Mutate(func(state *State) (bool, error) {
		if index < 0 || index >= len(*state.Payments) {
			return false, pkgerrors.New(pkgerrors.CodeValidation, "no payment at that position")
		}
		*state.Payments = append((*state.Payments)[:index], (*state.Payments)[index+1:]...)
		return true, nil
	})
}

// RedeemPoints applies a loyalty redemption to the cart. The loyalty service
// quotes the discount, clamping it to the configured share of the cart total.
// Zero points removes an existing redemption.
func (s *service) RedeemPoints(ctx context.Context, terminal string, points decimal.Decimal) (View, error) {
	sess := s.sessions.Get(terminal)

	if points.IsZero() {
		return sess.Mutate(func(state *State) (bool, error) {
			*state.LoyaltyRedeem = decimal.Zero
			*state.RedeemPoints = decimal.Zero
			return true, nil
		})
	}

	view := sess.Snapshot()
	if view.Customer == nil {
		return View{}, pkgerrors.New(pkgerrors.CodeValidation, "loyalty redemption requires a customer")
	}

	quote, err := s.loyalty.QuoteRedemption(ctx, view.Customer.ID, points, view.Totals.Total)
	if err != nil {
		return View{}, err
	}

	return sess.Mutate(func(state *State) (bool, error) {
		*state.LoyaltyRedeem = quote.Discount
		*state.RedeemPoints = quote.Points
		return true, nil
	})
}

// Hold parks the cart as a held bill and clears the session.
func (s *service) Hold(ctx context.Context, terminal, billName string, notes *string) (*models.HeldBill, error) {
	sess := s.sessions.Get(terminal)
	view := sess.Snapshot()

	input := heldbills.HoldInput{
		BillName:      billName,
		Tier:          view.Tier,
		Items:         view.Items,
		Subtotal:      view.Totals.Subtotal,
		TotalDiscount: view.Totals.TotalDiscount,
		Total:         view.Totals.Total,
		Terminal:      view.Terminal,
		Cashier:       view.Cashier,
		Notes:         notes,
	}
	if view.Customer != nil {
		id := view.Customer.ID
		input.CustomerID = &id
		input.CustomerName = view.Customer.Name
	}

	bill, err := s.bills.Hold(ctx, input)
	if err != nil {
		return nil, err
	}

	s.Clear(terminal)
	logCtx := s.logg.WithTerminal(ctx, terminal)
	s.logg.Info(logCtx, "cart held")
	return bill, nil
}

// Resume restores a held bill into the terminal's session, replacing whatever
// the cart held before. The bill is consumed; it cannot be resumed twice.
func (s *service) Resume(ctx context.Context, terminal string, billID uuid.UUID) (View, error) {
	bill, err := s.bills.Resume(ctx, billID)
	if err != nil {
		return View{}, err
	}

	var customer *SelectedCustomer
	if bill.CustomerID != nil {
		row, err := s.catalog.GetCustomer(ctx, *bill.CustomerID)
		if err == nil {
			customer = &SelectedCustomer{
				ID:            row.ID,
				Name:          row.Name,
				Tier:          row.DefaultTier,
				LoyaltyPoints: row.LoyaltyPoints,
			}
		} else {
			logCtx := s.logg.WithTerminal(ctx, terminal)
			s.logg.Warn(logCtx, "resumed bill customer no longer available")
		}
	}

	sess := s.sessions.Get(terminal)
	return sess.Mutate(func(state *State) (bool, error) {
		*state.Items = bill.Items.Clone()
		*state.Tier = bill.PriceTier
		*state.Customer = customer
		*state.PaymentMode = enums.PaymentModeSingle
		*state.Payments = nil
		*state.LoyaltyRedeem = decimal.Zero
		*state.RedeemPoints = decimal.Zero
		return true, nil
	})
}

// CheckoutInput finishes the sale.
type CheckoutInput struct {
	AmountTendered decimal.Decimal
	Notes          *string
}

// Checkout settles any card tenders through the gateway and submits the sale.
// A gateway failure leaves the session untouched so the cashier can retry or
// switch tender. The session is cleared only after the sale is recorded.
func (s *service) Checkout(ctx context.Context, terminal string, input CheckoutInput) (*models.Sale, error) {
	sess := s.sessions.Get(terminal)
	view := sess.Snapshot()

	if len(view.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if view.Remaining.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payments do not cover the total")
	}

	tendered := view.Payments.Clone()
	grand := view.Totals.Total.Sub(view.LoyaltyRedeem)
	for i := range tendered {
		p := &tendered[i]
		if p.Method != enums.PaymentMethodCard {
			continue
		}
		if s.gateway == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "card gateway not configured")
		}
		intent, err := s.gateway.CreateIntent(ctx, p.Amount, s.store.Currency, terminal)
		if err != nil {
			return nil, err
		}
		confirmed, err := s.gateway.Confirm(ctx, intent.ID)
		if err != nil {
			return nil, err
		}
		p.Reference = confirmed.ID
	}

	changeDue := tendered.Sum().Sub(grand)
	if changeDue.IsNegative() {
		changeDue = decimal.Zero
	}
	tenderedAmount := input.AmountTendered
	if tenderedAmount.IsZero() {
		tenderedAmount = tendered.Sum()
	}

	saleInput := sales.CreateSaleInput{
		Tier:           view.Tier,
		Items:          view.Items,
		Subtotal:       view.Totals.Subtotal,
		TotalDiscount:  view.Totals.TotalDiscount,
		LoyaltyRedeem:  view.LoyaltyRedeem,
		RedeemPoints:   view.RedeemPoints,
		Total:          grand,
		Payments:       tendered,
		PaymentMode:    view.PaymentMode,
		AmountTendered: tenderedAmount,
		ChangeDue:      changeDue,
		Terminal:       view.Terminal,
		Cashier:        view.Cashier,
		Notes:          input.Notes,
	}
	if view.Customer != nil {
		id := view.Customer.ID
		saleInput.CustomerID = &id
		saleInput.CustomerName = view.Customer.Name
	}

	sale, err := s.sales.CreateSale(ctx, saleInput)
	if err != nil {
		return nil, err
	}

	s.Clear(terminal)
	return sale, nil
}

// applyRules runs one discount evaluation round trip against the session.
// Failures are swallowed; the cart keeps its current discounts and the
// failure is counted. A response arriving after the cart changed again is
// discarded.
func (s *service) applyRules(ctx context.Context, sess *Session) {
	items, tier, revision := sess.RuleSnapshot()
	if len(items) == 0 {
		return
	}

	evalCtx := ctx
	if s.cfg.DiscountApplyTimeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, s.cfg.DiscountApplyTimeout)
		defer cancel()
	}

	result, err := s.rules.Evaluate(evalCtx, tier, items)
	if err != nil {
		s.metrics.IncDiscountFailure()
		logCtx := s.logg.WithTerminal(ctx, sess.Snapshot().Terminal)
		s.logg.Warn(logCtx, "discount evaluation failed; keeping cart as-is")
		return
	}

	if !sess.ApplyRuleResult(revision, result) {
		s.metrics.IncStaleDiscard()
	}
}
