package checkout

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lankapos/pos-backend/pkg/enums"
	"github.com/lankapos/pos-backend/pkg/types"
)

func cartLine(price int64, qty int64) types.LineItem {
	line := types.LineItem{
		ProductID: uuid.New(),
		SKU:       "SKU-1",
		Name:      "Item",
		Quantity:  decimal.NewFromInt(qty),
		UnitPrice: decimal.NewFromInt(price),
	}
	line.Recalculate()
	return line
}

func TestMutateBumpsRevisionOnChange(t *testing.T) {
	t.Parallel()

	sess := NewSession("counter-1", "cashier")
	before := sess.Snapshot().Revision

	view, err := sess.Mutate(func(state *State) (bool, error) {
		*state.Items = append(*state.Items, cartLine(100, 1))
		return true, nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if view.Revision != before+1 {
		t.Fatalf("expected revision %d, got %d", before+1, view.Revision)
	}
}

func TestMutateKeepsRevisionWhenUnchanged(t *testing.T) {
	t.Parallel()

	sess := NewSession("counter-1", "cashier")
	before := sess.Snapshot().Revision

	view, err := sess.Mutate(func(state *State) (bool, error) {
		return false, nil
	})
	if err != nil {
		t.Fatalf("Mutate: %v", err)
	}
	if view.Revision != before {
		t.Fatalf("expected revision unchanged at %d, got %d", before, view.Revision)
	}
}

func TestApplyRuleResultInstallsMatchingRevision(t *testing.T) {
	t.Parallel()

	sess := NewSession("counter-1", "cashier")
	if _, err := sess.Mutate(func(state *State) (bool, error) {
		*state.Items = append(*state.Items, cartLine(100, 2))
		return true, nil
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	items, _, revision := sess.RuleSnapshot()
	items[0].DiscountAmount = decimal.NewFromInt(20)
	items[0].Recalculate()

	if !sess.ApplyRuleResult(revision, items) {
		t.Fatal("expected result to install")
	}
	view := sess.Snapshot()
	if !view.Items[0].DiscountAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected discount 20, got %s", view.Items[0].DiscountAmount)
	}
	if view.Revision != revision {
		t.Fatal("rule application must not bump the revision")
	}
}

func TestApplyRuleResultDiscardsStaleRevision(t *testing.T) {
	t.Parallel()

	sess := NewSession("counter-1", "cashier")
	if _, err := sess.Mutate(func(state *State) (bool, error) {
		*state.Items = append(*state.Items, cartLine(100, 2))
		return true, nil
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	items, _, revision := sess.RuleSnapshot()

	// cart moves on while the engine is thinking
	if _, err := sess.Mutate(func(state *State) (bool, error) {
		(*state.Items)[0].Quantity = decimal.NewFromInt(5)
		(*state.Items)[0].Recalculate()
		return true, nil
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	items[0].DiscountAmount = decimal.NewFromInt(20)
	if sess.ApplyRuleResult(revision, items) {
		t.Fatal("expected stale result to be discarded")
	}
	view := sess.Snapshot()
	if !view.Items[0].DiscountAmount.IsZero() {
		t.Fatal("stale result must not overwrite the cart")
	}
	if !view.Items[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Fatal("newer quantity must survive")
	}
}

func TestRemainingAccountsForLoyaltyAndPayments(t *testing.T) {
	t.Parallel()

	sess := NewSession("counter-1", "cashier")
	if _, err := sess.Mutate(func(state *State) (bool, error) {
		*state.Items = append(*state.Items, cartLine(500, 2))
		*state.LoyaltyRedeem = decimal.NewFromInt(100)
		*state.Payments = append(*state.Payments, types.Payment{
			Method: enums.PaymentMethodCash,
			Amount: decimal.NewFromInt(400),
		})
		return true, nil
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	view := sess.Snapshot()
	// 1000 - 100 redeem - 400 paid
	if !view.Remaining.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected remaining 500, got %s", view.Remaining)
	}
}

func TestSnapshotItemsDoNotAliasSession(t *testing.T) {
	t.Parallel()

	sess := NewSession("counter-1", "cashier")
	if _, err := sess.Mutate(func(state *State) (bool, error) {
		*state.Items = append(*state.Items, cartLine(100, 1))
		return true, nil
	}); err != nil {
		t.Fatalf("Mutate: %v", err)
	}

	view := sess.Snapshot()
	view.Items[0].Quantity = decimal.NewFromInt(99)

	if !sess.Snapshot().Items[0].Quantity.Equal(decimal.NewFromInt(1)) {
		t.Fatal("mutating a snapshot must not touch the session")
	}
}

func TestManagerSweepsIdleSessions(t *testing.T) {
	t.Parallel()

	m := NewSessionManager("cashier")
	m.Get("counter-1")

	if removed := m.SweepIdle(0); removed != 0 {
		t.Fatalf("zero ttl must not sweep, removed %d", removed)
	}
	time.Sleep(5 * time.Millisecond)
	if removed := m.SweepIdle(time.Millisecond); removed != 1 {
		t.Fatalf("expected 1 swept session, got %d", removed)
	}
}
