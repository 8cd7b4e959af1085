package player

import (
	"math"
	"testing"

	"github.com/talgya/freightline/internal/notify"
)

func countKind(queue *notify.Queue, kind notify.Kind) int {
	n := 0
	for _, note := range queue.Drain() {
		if note.Kind == kind {
			n++
		}
	}
	return n
}

func TestBankruptcyRaisedExactlyOnce(t *testing.T) {
	queue := notify.NewQueue(0)
	l := New(50000, queue)

	l.AdjustBalance(-120000, "catastrophe", 0)
	if !l.Bankrupt() {
		t.Fatal("bankruptcy not raised at -70000")
	}
	// Further losses must not re-raise.
	l.AdjustBalance(-10000, "more losses", 1)
	l.AdjustBalance(5000, "small win", 2)

	if got := countKind(queue, notify.Bankruptcy); got != 1 {
		t.Fatalf("bankruptcy notifications = %d, want 1", got)
	}
	// Raised flag is sticky even if the balance recovers.
	l.AdjustBalance(200000, "bailout", 3)
	if !l.Bankrupt() {
		t.Fatal("bankruptcy flag cleared on recovery")
	}
}

func TestBalanceAtThresholdIsNotBankrupt(t *testing.T) {
	l := New(0, nil)
	l.AdjustBalance(-50000, "exactly at threshold", 0)
	if l.Bankrupt() {
		t.Fatal("bankrupt at exactly -50000; threshold is strictly below")
	}
}

func TestReputationBleedsToGlobal(t *testing.T) {
	l := New(0, nil)

	l.AdjustReputation(10, ScopeCustomer, 0)
	if got := l.Reputation(ScopeCustomer); got != 60 {
		t.Fatalf("customer rep = %v, want 60", got)
	}
	if got := l.Reputation(ScopeGlobal); got != 52 {
		t.Fatalf("global rep = %v, want 52 (20%% bleed)", got)
	}

	// Global adjustments do not bleed into themselves twice.
	l.AdjustReputation(10, ScopeGlobal, 0)
	if got := l.Reputation(ScopeGlobal); got != 62 {
		t.Fatalf("global rep = %v, want 62", got)
	}
}

func TestReputationClamps(t *testing.T) {
	l := New(0, nil)
	l.AdjustReputation(500, ScopeCarrier, 0)
	if got := l.Reputation(ScopeCarrier); got != 100 {
		t.Fatalf("rep = %v, want clamp at 100", got)
	}
	l.AdjustReputation(-500, ScopeCarrier, 0)
	if got := l.Reputation(ScopeCarrier); got != 0 {
		t.Fatalf("rep = %v, want clamp at 0", got)
	}
}

func TestXPCurveAndMultiLevelJump(t *testing.T) {
	l := New(0, nil)

	l.AwardXP(999)
	if l.Level() != 1 {
		t.Fatalf("level = %d, want 1", l.Level())
	}
	l.AwardXP(1)
	if l.Level() != 2 {
		t.Fatalf("level = %d, want 2 at 1000 XP", l.Level())
	}
	if !l.HasFeature("lane_upgrades") {
		t.Fatal("level 2 feature not unlocked")
	}

	// Level 2→3 needs 1500, 3→4 needs 2250. One big award jumps both.
	l.AwardXP(1500 + 2250)
	if l.Level() != 4 {
		t.Fatalf("level = %d, want 4 after multi-level award", l.Level())
	}
	if !l.HasFeature("negotiation") || !l.HasFeature("premium_customers") {
		t.Fatal("intermediate level features skipped")
	}
}

func TestLoanLifecycle(t *testing.T) {
	l := New(0, nil)

	loan := l.TakeLoan(10000, 0.2, 10, 0)
	if loan == nil {
		t.Fatal("loan rejected")
	}
	if l.Balance() != 10000 {
		t.Fatalf("balance = %v, want principal credited", l.Balance())
	}
	if math.Abs(loan.DailyPayment-1200) > 1e-9 {
		t.Fatalf("daily payment = %v, want 1200", loan.DailyPayment)
	}

	for day := 1; day <= 10; day++ {
		l.ProcessDailyUpdate(float64(day) * 600)
	}
	if len(l.Loans()) != 0 {
		t.Fatalf("loan not retired after term: %+v", l.Loans()[0])
	}
	if math.Abs(l.Balance()-(-2000)) > 1e-6 {
		t.Fatalf("balance = %v, want -2000 (interest paid)", l.Balance())
	}
}

func TestNetWorthIncludesAssetsAndDebt(t *testing.T) {
	l := New(30000, nil)
	l.Assets = func() float64 { return 70000 }
	l.TakeLoan(10000, 0.0, 10, 0)

	// 30000 cash + 10000 principal + 70000 assets - 10000 remaining debt.
	if got := l.NetWorth(); math.Abs(got-100000) > 1e-9 {
		t.Fatalf("net worth = %v, want 100000", got)
	}
}

func TestTransactionRingCaps(t *testing.T) {
	l := New(0, nil)
	for i := 0; i < 600; i++ {
		l.AdjustBalance(1, "drip", float64(i))
	}
	if got := len(l.Transactions()); got != 500 {
		t.Fatalf("transaction count = %d, want cap 500", got)
	}
}

func TestSnapshotRestoresLevelFeatures(t *testing.T) {
	l := New(1000, nil)
	l.AwardXP(1000 + 1500) // level 3
	l.TakeLoan(5000, 0.1, 5, 0)

	restored := New(0, nil)
	restored.FromSnapshot(l.ToSnapshot())

	if restored.Level() != 3 {
		t.Fatalf("restored level = %d, want 3", restored.Level())
	}
	if !restored.HasFeature("negotiation") || !restored.HasFeature("lane_upgrades") {
		t.Fatal("features not re-derived from restored level")
	}
	if restored.Balance() != l.Balance() {
		t.Fatalf("restored balance = %v, want %v", restored.Balance(), l.Balance())
	}
	if len(restored.Loans()) != 1 {
		t.Fatal("loan not restored")
	}
}
