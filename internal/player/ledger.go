// Package player tracks the freight company's finances, reputation,
// experience, and loans.
package player

import (
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/talgya/freightline/internal/notify"
)

// BankruptcyThreshold is the balance below which the company folds.
const BankruptcyThreshold = -50000.0

// Transaction is an immutable balance-change record.
type Transaction struct {
	ID      string  `json:"id"`
	Time    float64 `json:"time"`
	Amount  float64 `json:"amount"`
	Reason  string  `json:"reason"`
	Balance float64 `json:"balance"` // balance after applying
}

// Loan is an amortized daily-payment debt.
type Loan struct {
	ID           string  `json:"id"`
	Principal    float64 `json:"principal"`
	Rate         float64 `json:"rate"`
	TermDays     int     `json:"term_days"`
	DaysLeft     int     `json:"days_left"`
	Remaining    float64 `json:"remaining"`
	DailyPayment float64 `json:"daily_payment"`
}

// Reputation scopes.
const (
	ScopeGlobal   = "global"
	ScopeCustomer = "customer"
	ScopeCarrier  = "carrier"
	ScopeLegal    = "legal"
)

// levelFeatures maps each level threshold to the feature flags it unlocks.
var levelFeatures = map[int][]string{
	2: {"lane_upgrades"},
	3: {"negotiation", "second_loan"},
	4: {"premium_customers"},
	5: {"regional_expansion"},
	6: {"bulk_contracts"},
	8: {"trusted_carrier_network"},
}

// maxTransactions caps the in-memory transaction ring.
const maxTransactions = 500

// Ledger is the player's financial and progression state.
type Ledger struct {
	balance      float64
	transactions []Transaction
	reputation   map[string]float64 // scope → [0,100]
	xp           float64
	level        int
	features     map[string]bool
	loans        []*Loan
	bankrupt     bool

	// Assets reports non-cash asset value (discounted lanes + expected
	// contract profit); installed by the simulation.
	Assets func() float64

	queue *notify.Queue
}

// New creates a ledger with a starting balance.
func New(startingBalance float64, queue *notify.Queue) *Ledger {
	return &Ledger{
		balance: startingBalance,
		reputation: map[string]float64{
			ScopeGlobal:   50,
			ScopeCustomer: 50,
			ScopeCarrier:  50,
			ScopeLegal:    50,
		},
		level:    1,
		features: make(map[string]bool),
		queue:    queue,
	}
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 { return l.balance }

// Bankrupt reports whether the bankruptcy condition has been raised.
func (l *Ledger) Bankrupt() bool { return l.bankrupt }

// Level returns the current player level.
func (l *Ledger) Level() int { return l.level }

// XP returns accumulated experience.
func (l *Ledger) XP() float64 { return l.xp }

// HasFeature reports whether a level-unlocked feature is available.
func (l *Ledger) HasFeature(name string) bool { return l.features[name] }

// Reputation returns the clamped reputation for a scope.
func (l *Ledger) Reputation(scope string) float64 { return l.reputation[scope] }

// Transactions returns the recent transaction records, oldest first.
func (l *Ledger) Transactions() []Transaction { return l.transactions }

// Loans returns outstanding loans.
func (l *Ledger) Loans() []*Loan { return l.loans }

// CanAfford reports whether the balance covers a cost.
func (l *Ledger) CanAfford(amount float64) bool { return l.balance >= amount }

// AdjustBalance applies a delta, records the transaction, and raises the
// bankruptcy condition exactly once when the balance crosses the threshold.
func (l *Ledger) AdjustBalance(amount float64, reason string, now float64) {
	l.balance += amount
	l.transactions = append(l.transactions, Transaction{
		ID:      uuid.NewString(),
		Time:    now,
		Amount:  amount,
		Reason:  reason,
		Balance: l.balance,
	})
	if len(l.transactions) > maxTransactions {
		l.transactions = l.transactions[len(l.transactions)-maxTransactions:]
	}

	if l.queue != nil {
		l.queue.Emit(notify.Notification{
			Kind: notify.BalanceChanged,
			Time: now,
			Data: map[string]any{"amount": amount, "balance": l.balance, "reason": reason},
		})
	}

	if !l.bankrupt && l.balance < BankruptcyThreshold {
		l.bankrupt = true
		slog.Warn("bankruptcy condition raised", "balance", l.balance)
		if l.queue != nil {
			l.queue.Emit(notify.Notification{
				Kind:    notify.Bankruptcy,
				Time:    now,
				Message: "company is bankrupt",
				Data:    map[string]any{"balance": l.balance},
			})
		}
	}
}

// NetWorth is balance plus asset value minus outstanding debt.
func (l *Ledger) NetWorth() float64 {
	worth := l.balance
	if l.Assets != nil {
		worth += l.Assets()
	}
	for _, loan := range l.loans {
		worth -= loan.Remaining
	}
	return worth
}

// AdjustReputation applies a clamped per-scope update. Non-global scopes
// bleed 20% of the delta into global reputation.
func (l *Ledger) AdjustReputation(amount float64, scope string, now float64) {
	if scope == "" {
		scope = ScopeGlobal
	}
	l.reputation[scope] = clampRep(l.reputation[scope] + amount)
	if scope != ScopeGlobal {
		l.reputation[ScopeGlobal] = clampRep(l.reputation[ScopeGlobal] + amount*0.2)
	}
	if l.queue != nil {
		l.queue.Emit(notify.Notification{
			Kind: notify.ReputationChanged,
			Time: now,
			Data: map[string]any{"scope": scope, "value": l.reputation[scope]},
		})
	}
}

// xpForLevel is the XP required to advance from the given level.
func xpForLevel(level int) float64 {
	return 1000 * math.Pow(1.5, float64(level-1))
}

// AwardXP accumulates experience, supporting multi-level jumps in one award.
func (l *Ledger) AwardXP(amount float64) {
	if amount <= 0 {
		return
	}
	l.xp += amount
	for l.xp >= xpForLevel(l.level) {
		l.xp -= xpForLevel(l.level)
		l.level++
		for _, f := range levelFeatures[l.level] {
			l.features[f] = true
		}
		slog.Info("level up", "level", l.level)
	}
}

// TakeLoan adds a fixed daily amortized loan and credits the principal.
// Payment = principal × (1+rate) / term.
func (l *Ledger) TakeLoan(principal, rate float64, termDays int, now float64) *Loan {
	if principal <= 0 || termDays <= 0 {
		return nil
	}
	total := principal * (1 + rate)
	loan := &Loan{
		ID:           uuid.NewString(),
		Principal:    principal,
		Rate:         rate,
		TermDays:     termDays,
		DaysLeft:     termDays,
		Remaining:    total,
		DailyPayment: total / float64(termDays),
	}
	l.loans = append(l.loans, loan)
	l.AdjustBalance(principal, "loan received", now)
	return loan
}

// ProcessDailyUpdate deducts loan payments and retires finished loans.
func (l *Ledger) ProcessDailyUpdate(now float64) {
	remaining := l.loans[:0]
	for _, loan := range l.loans {
		payment := math.Min(loan.DailyPayment, loan.Remaining)
		if payment > 0 {
			l.AdjustBalance(-payment, "loan payment", now)
			loan.Remaining -= payment
		}
		loan.DaysLeft--
		if loan.Remaining > 1e-9 && loan.DaysLeft > 0 {
			remaining = append(remaining, loan)
		} else {
			slog.Info("loan retired", "loan", loan.ID, "principal", loan.Principal)
		}
	}
	l.loans = remaining
}

func clampRep(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
