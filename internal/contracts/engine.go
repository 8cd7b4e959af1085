package contracts

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/freightline/internal/economy"
	"github.com/talgya/freightline/internal/notify"
	"github.com/talgya/freightline/internal/player"
	"github.com/talgya/freightline/internal/rng"
)

// Status is a contract's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Contract is a customer freight contract.
type Contract struct {
	ID          string  `json:"id"`
	CustomerID  string  `json:"customer_id"`
	CargoType   string  `json:"cargo_type"`
	Amount      float64 `json:"amount"`
	Value       float64 `json:"value"`
	UpfrontCost float64 `json:"upfront_cost"`
	Penalty     float64 `json:"penalty"`
	StartTime   float64 `json:"start_time"`
	Deadline    float64 `json:"deadline"`
	// ExpirationTime is the last moment a pending contract may be accepted.
	ExpirationTime float64 `json:"expiration_time"`
	Status         Status  `json:"status"`
	Difficulty     float64 `json:"difficulty"`
}

// Scheduler and value constants.
const (
	checkInterval      = 5.0   // seconds between scheduler checks
	genIntervalMin     = 30.0  // inter-arrival lower bound
	genIntervalMax     = 120.0 // inter-arrival upper bound
	acceptWindow       = 60.0  // seconds a pending contract stays acceptable
	maxActivePerCust   = 3
	valueMarkup        = 1.5
	upfrontRate        = 0.10
	penaltyRate        = 0.20
	expiryTrustPenalty = 2.0
	custCooldown       = 30.0 // seconds before a customer is schedulable again
)

// Result is a command outcome.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func ok() Result                { return Result{OK: true} }
func fail(reason string) Result { return Result{Reason: reason} }

// Engine manages customers and contracts.
type Engine struct {
	customers map[string]*Customer
	contracts map[string]*Contract

	// PenaltyOnFailure debits the contract penalty from the ledger when a
	// contract fails.
	PenaltyOnFailure bool

	prices *economy.Engine
	ledger *player.Ledger
	rand   *rng.Source
	queue  *notify.Queue

	nextCheckAt float64
	nextGenAt   float64
}

// New creates a contract engine with injected collaborators.
func New(prices *economy.Engine, ledger *player.Ledger, rand *rng.Source, queue *notify.Queue) *Engine {
	return &Engine{
		customers:        make(map[string]*Customer),
		contracts:        make(map[string]*Contract),
		PenaltyOnFailure: true,
		prices:           prices,
		ledger:           ledger,
		rand:             rand,
		queue:            queue,
	}
}

// AddCustomer registers a customer.
func (e *Engine) AddCustomer(c *Customer) {
	if c.Needs == nil {
		c.Needs = make(map[string]float64)
	}
	c.Blacklisted = c.Trust <= blacklistTrust
	e.customers[c.ID] = c
}

// Customer returns a customer by id, or nil.
func (e *Engine) Customer(id string) *Customer { return e.customers[id] }

// Contract returns a contract by id, or nil.
func (e *Engine) Contract(id string) *Contract { return e.contracts[id] }

// Contracts returns all known contracts.
func (e *Engine) Contracts() []*Contract {
	out := make([]*Contract, 0, len(e.contracts))
	for _, c := range e.contracts {
		out = append(out, c)
	}
	return out
}

// Customers returns all customers.
func (e *Engine) Customers() []*Customer {
	out := make([]*Customer, 0, len(e.customers))
	for _, c := range e.customers {
		out = append(out, c)
	}
	return out
}

// GenerateContract creates a pending contract for a customer. Rejects
// blacklisted customers, customers at the concurrent-contract cap, and
// customers with no positive needs.
func (e *Engine) GenerateContract(customerID string, now float64) (*Contract, Result) {
	cust, found := e.customers[customerID]
	if !found {
		return nil, fail("customer not found")
	}
	if cust.Blacklisted {
		return nil, fail("customer blacklisted")
	}
	if len(cust.ActiveContracts) >= maxActivePerCust {
		return nil, fail("customer at contract cap")
	}

	cargo, picked := e.pickCargo(cust)
	if !picked {
		return nil, fail("customer has no positive needs")
	}

	tier := cust.TierLevel()
	amount := float64(10 + e.rand.Intn(41)) // 10–50 units
	base := e.prices.Price(cargo, now, "")
	value := base * amount * valueMarkup * tier.Multiplier()

	contract := &Contract{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		CargoType:      cargo,
		Amount:         amount,
		Value:          value,
		UpfrontCost:    value * upfrontRate,
		Penalty:        value * penaltyRate,
		StartTime:      now,
		Deadline:       now + 300 + 60*float64(3-int(tier)),
		ExpirationTime: now + acceptWindow,
		Status:         StatusPending,
		Difficulty:     tier.Difficulty(),
	}
	e.contracts[contract.ID] = contract
	cust.Offered++
	cust.CooldownUntil = now + custCooldown

	e.emit(notify.ContractOffered, now, fmt.Sprintf("%s requests %0.f units of %s", cust.Name, amount, cargo), contract)
	slog.Debug("contract generated", "contract", contract.ID, "customer", cust.Name, "cargo", cargo, "value", value)
	return contract, ok()
}

// pickCargo selects a cargo type by weighted-random draw over needs.
func (e *Engine) pickCargo(cust *Customer) (string, bool) {
	ids := make([]string, 0, len(cust.Needs))
	weights := make([]float64, 0, len(cust.Needs))
	for id, w := range cust.Needs {
		if w > 0 {
			ids = append(ids, id)
			weights = append(weights, w)
		}
	}
	idx := e.rand.WeightedIndex(weights)
	if idx < 0 {
		return "", false
	}
	return ids[idx], true
}

// Accept moves a pending contract to active, debiting the upfront cost.
// Rejects if the contract is past its acceptance expiration (the contract is
// then expired in place, with the usual trust penalty).
func (e *Engine) Accept(contractID string, now float64) Result {
	contract, found := e.contracts[contractID]
	if !found {
		return fail("contract not found")
	}
	if contract.Status != StatusPending {
		return fail("contract not pending")
	}
	if now > contract.ExpirationTime {
		e.expireContract(contract, now)
		return fail("contract expired")
	}
	cust := e.customers[contract.CustomerID]
	if cust == nil {
		return fail("customer not found")
	}
	if len(cust.ActiveContracts) >= maxActivePerCust {
		return fail("customer at contract cap")
	}
	if !e.ledger.CanAfford(contract.UpfrontCost) {
		return fail("insufficient funds")
	}

	e.ledger.AdjustBalance(-contract.UpfrontCost, "contract upfront cost", now)
	contract.Status = StatusActive
	cust.ActiveContracts = append(cust.ActiveContracts, contract.ID)
	e.emit(notify.ContractAccepted, now, "", contract)
	return ok()
}

// Complete resolves an active contract. Success raises customer trust by
// 5×difficulty, pays out the contract value, and awards experience; failure
// lowers trust by 10×difficulty and, if configured, debits the penalty.
func (e *Engine) Complete(contractID string, success bool, profit float64, now float64) Result {
	contract, found := e.contracts[contractID]
	if !found {
		return fail("contract not found")
	}
	if contract.Status != StatusActive {
		return fail("contract not active")
	}
	cust := e.customers[contract.CustomerID]
	if cust == nil {
		return fail("customer not found")
	}

	cust.removeActive(contract.ID)
	if success {
		contract.Status = StatusCompleted
		cust.Succeeded++
		cust.adjustTrust(5 * contract.Difficulty)
		e.ledger.AdjustBalance(contract.Value, "contract payout", now)
		e.ledger.AwardXP(50 + profit*0.01)
		e.emit(notify.ContractCompleted, now, "", contract)
	} else {
		contract.Status = StatusFailed
		cust.Failed++
		cust.adjustTrust(-10 * contract.Difficulty)
		if e.PenaltyOnFailure {
			e.ledger.AdjustBalance(-contract.Penalty, "contract penalty", now)
		}
		e.emit(notify.ContractFailed, now, "", contract)
	}
	return ok()
}

// Sweep expires pending contracts past their acceptance window. Runs every
// tick, before the periodic scheduler checks.
func (e *Engine) Sweep(now float64) {
	for _, contract := range e.contracts {
		if contract.Status == StatusPending && now > contract.ExpirationTime {
			e.expireContract(contract, now)
		}
	}
}

// Update runs the periodic generation check.
func (e *Engine) Update(now float64) {
	if now < e.nextCheckAt {
		return
	}
	e.nextCheckAt = now + checkInterval

	if now < e.nextGenAt {
		return
	}
	if cust := e.pickEligibleCustomer(now); cust != nil {
		e.GenerateContract(cust.ID, now)
	}
	e.nextGenAt = now + e.rand.Range(genIntervalMin, genIntervalMax)
}

// pickEligibleCustomer draws a random customer that is not blacklisted,
// under the contract cap, and not in cooldown.
func (e *Engine) pickEligibleCustomer(now float64) *Customer {
	var eligible []*Customer
	for _, c := range e.customers {
		if c.Blacklisted || len(c.ActiveContracts) >= maxActivePerCust || now < c.CooldownUntil {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}
	return eligible[e.rand.Intn(len(eligible))]
}

// expireContract removes a pending contract and applies the trust penalty.
func (e *Engine) expireContract(contract *Contract, now float64) {
	delete(e.contracts, contract.ID)
	if cust := e.customers[contract.CustomerID]; cust != nil {
		cust.adjustTrust(-expiryTrustPenalty)
	}
	e.emit(notify.ContractExpired, now, "", contract)
}

// SetTrust sets a customer's trust to an absolute value, recomputing the
// blacklist flag. Returns false if the customer is unknown.
func (e *Engine) SetTrust(customerID string, trust float64) bool {
	cust, found := e.customers[customerID]
	if !found {
		return false
	}
	cust.Trust = 0
	cust.adjustTrust(trust)
	return true
}

// ExpectedProfit sums expected profit over active contracts, for net worth.
func (e *Engine) ExpectedProfit() float64 {
	total := 0.0
	for _, c := range e.contracts {
		if c.Status == StatusActive {
			total += c.Value - c.UpfrontCost
		}
	}
	return total
}

// ProcessDailyUpdate logs a daily contract summary.
func (e *Engine) ProcessDailyUpdate(now float64) {
	pending, active := 0, 0
	for _, c := range e.contracts {
		switch c.Status {
		case StatusPending:
			pending++
		case StatusActive:
			active++
		}
	}
	slog.Debug("contract daily update", "customers", len(e.customers), "pending", pending, "active", active)
}

func (e *Engine) emit(kind notify.Kind, now float64, msg string, contract *Contract) {
	if e.queue == nil {
		return
	}
	e.queue.Emit(notify.Notification{
		Kind:    kind,
		Time:    now,
		Message: msg,
		Data: map[string]any{
			"contract": contract.ID,
			"customer": contract.CustomerID,
			"cargo":    contract.CargoType,
			"value":    contract.Value,
		},
	})
}
