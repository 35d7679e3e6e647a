package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/enums"
	"github.com/lankapos/pos-backend/pkg/types"
)

// SelectedCustomer is the customer attached to a checkout session.
type SelectedCustomer struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Tier          enums.PriceTier `json:"tier"`
	LoyaltyPoints decimal.Decimal `json:"loyalty_points"`
}

// Session is the per-terminal checkout state. All access goes through the
// methods below; the revision counter increments on every mutation so stale
// rule-engine responses can be detected and discarded.
type Session struct {
	mu sync.Mutex

	terminal      string
	cashier       string
	items         types.LineItems
	tier          enums.PriceTier
	customer      *SelectedCustomer
	paymentMode   enums.PaymentMode
	payments      types.Payments
	loyaltyRedeem decimal.Decimal
	redeemPoints  decimal.Decimal
	revision      uint64
	touchedAt     time.Time
}

// NewSession creates an empty session for the terminal.
func NewSession(terminal, cashier string) *Session {
	return &Session{
		terminal:    terminal,
		cashier:     cashier,
		tier:        enums.PriceTierRetail,
		paymentMode: enums.PaymentModeSingle,
		touchedAt:   time.Now(),
	}
}

// View is an immutable snapshot of the session handed to callers.
type View struct {
	Terminal      string            `json:"terminal"`
	Cashier       string            `json:"cashier"`
	Items         types.LineItems   `json:"items"`
	Tier          enums.PriceTier   `json:"tier"`
	Customer      *SelectedCustomer `json:"customer,omitempty"`
	PaymentMode   enums.PaymentMode `json:"payment_mode"`
	Payments      types.Payments    `json:"payments"`
	LoyaltyRedeem decimal.Decimal   `json:"loyalty_redeem"`
	RedeemPoints  decimal.Decimal   `json:"redeem_points"`
	Totals        Totals            `json:"totals"`
	Remaining     decimal.Decimal   `json:"remaining"`
	Revision      uint64            `json:"revision"`
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	totals := CalculateTotals(s.items)
	grand := totals.Total.Sub(s.loyaltyRedeem)
	return View{
		Terminal:      s.terminal,
		Cashier:       s.cashier,
		Items:         s.items.Clone(),
		Tier:          s.tier,
		Customer:      s.customer,
		PaymentMode:   s.paymentMode,
		Payments:      append(types.Payments(nil), s.payments...),
		LoyaltyRedeem: s.loyaltyRedeem,
		RedeemPoints:  s.redeemPoints,
		Totals:        totals,
		Remaining:     grand.Sub(s.payments.Sum()),
		Revision:      s.revision,
	}
}

func (s *Session) touchLocked() {
	s.revision++
	s.touchedAt = time.Now()
}

// TouchedAt reports the last mutation time, for idle sweeping.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// Mutate runs fn under the session lock and bumps the revision when fn
// reports a change.
func (s *Session) Mutate(fn func(state *State) (bool, error)) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &State{
		Items:         &s.items,
		Tier:          &s.tier,
		Customer:      &s.customer,
		PaymentMode:   &s.paymentMode,
		Payments:      &s.payments,
		LoyaltyRedeem: &s.loyaltyRedeem,
		RedeemPoints:  &s.redeemPoints,
	}
	changed, err := fn(state)
	if err != nil {
		return View{}, err
	}
	if changed {
		s.touchLocked()
	}
	return s.viewLocked(), nil
}

// State exposes the mutable fields of a session to Mutate callbacks.
type State struct {
	Items         *types.LineItems
	Tier          *enums.PriceTier
	Customer      **SelectedCustomer
	PaymentMode   *enums.PaymentMode
	Payments      *types.Payments
	LoyaltyRedeem *decimal.Decimal
	RedeemPoints  *decimal.Decimal
}

// RuleSnapshot returns the inputs for a discount evaluation round trip
// together with the revision tag at send time.
func (s *Session) RuleSnapshot() (types.LineItems, enums.PriceTier, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Clone(), s.tier, s.revision
}

// ApplyRuleResult installs engine output only if the session has not moved
// past the tagged revision. Returns false when the response is stale.
func (s *Session) ApplyRuleResult(revision uint64, items types.LineItems) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revision != revision {
		return false
	}
	s.items = items
	// rule application does not bump the revision; it IS that revision's state
	return true
}
