package carriers

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/talgya/freightline/internal/economy"
	"github.com/talgya/freightline/internal/notify"
	"github.com/talgya/freightline/internal/player"
	"github.com/talgya/freightline/internal/rng"
	"github.com/talgya/freightline/internal/worldmap"
)

// Offer is an ephemeral carrier quote. Consumed by accept/reject/negotiate;
// never persisted.
type Offer struct {
	ID            string  `json:"id"`
	CarrierID     string  `json:"carrier_id"`
	LaneID        string  `json:"lane_id"`
	CargoType     string  `json:"cargo_type"`
	Amount        float64 `json:"amount"`
	Price         float64 `json:"price"`
	EstimatedTime float64 `json:"estimated_time"`
	Deadline      float64 `json:"deadline"`
	Expiration    float64 `json:"expiration"`
}

// ContractStatus is a carrier contract's lifecycle state.
type ContractStatus string

const (
	ContractActive    ContractStatus = "active"
	ContractCompleted ContractStatus = "completed"
	ContractFailed    ContractStatus = "failed"
)

// Contract is an accepted carrier job. Terminal on completion or failure.
type Contract struct {
	ID                 string         `json:"id"`
	CarrierID          string         `json:"carrier_id"`
	LaneID             string         `json:"lane_id"`
	CargoType          string         `json:"cargo_type"`
	Amount             float64        `json:"amount"`
	Price              float64        `json:"price"`
	StartTime          float64        `json:"start_time"`
	ExpectedCompletion float64        `json:"expected_completion"`
	Deadline           float64        `json:"deadline"`
	Status             ContractStatus `json:"status"`
	Quality            float64        `json:"quality"` // [0,1]
	OnTime             bool           `json:"on_time"`
	// CustomerContractID links the delivery back to the customer contract it
	// fulfills, if any.
	CustomerContractID string `json:"customer_contract_id,omitempty"`
}

// Engine tuning constants.
const (
	offerProbability  = 0.3 // Bernoulli inclusion for non-specialists
	offerWindow       = 60.0
	updateInterval    = 5.0
	preferredDiscount = 0.9
	failureRepPenalty = 5.0
)

// Result is a command outcome.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func ok() Result                { return Result{OK: true} }
func fail(reason string) Result { return Result{Reason: reason} }

// Engine manages the carrier roster and delivery lifecycle.
type Engine struct {
	carriers  map[string]*Carrier
	contracts map[string]*Contract
	offers    map[string]*Offer // ephemeral, pruned on expiry

	// OnResolved is called when a delivery resolves, before carrier history
	// updates are visible to the caller. Installed by the simulation.
	OnResolved func(c *Contract, success, onTime bool)

	prices *economy.Engine
	world  *worldmap.Map
	ledger *player.Ledger
	rand   *rng.Source
	queue  *notify.Queue

	nextUpdateAt float64
}

// New creates a carrier engine with injected collaborators.
func New(prices *economy.Engine, world *worldmap.Map, ledger *player.Ledger, rand *rng.Source, queue *notify.Queue) *Engine {
	return &Engine{
		carriers:  make(map[string]*Carrier),
		contracts: make(map[string]*Contract),
		offers:    make(map[string]*Offer),
		prices:    prices,
		world:     world,
		ledger:    ledger,
		rand:      rand,
		queue:     queue,
	}
}

// NewCarrier creates a carrier with a weighted-random negotiation style and
// the deterministic credential check applied.
func (e *Engine) NewCarrier(id, name string, fleetSize int, speedFactor, pricingFactor, riskTolerance float64) *Carrier {
	c := &Carrier{
		ID:             id,
		Name:           name,
		Reputation:     50,
		FleetSize:      fleetSize,
		Reliability:    0.7,
		SpeedFactor:    speedFactor,
		PreferredCargo: make(map[string]bool),
		RiskTolerance:  riskTolerance,
		PricingFactor:  pricingFactor,
		Style:          styles[e.rand.WeightedIndex(styleWeights)],
		Blacklisted:    hasFakeCredentials(id),
	}
	c.recompute()
	e.carriers[id] = c
	if c.Blacklisted {
		slog.Info("carrier failed credential check", "carrier", name)
	}
	return c
}

// AddCarrier registers an externally-constructed carrier.
func (e *Engine) AddCarrier(c *Carrier) {
	if c.PreferredCargo == nil {
		c.PreferredCargo = make(map[string]bool)
	}
	c.recompute()
	e.carriers[c.ID] = c
}

// Carrier returns a carrier by id, or nil.
func (e *Engine) Carrier(id string) *Carrier { return e.carriers[id] }

// Carriers returns the full roster.
func (e *Engine) Carriers() []*Carrier {
	out := make([]*Carrier, 0, len(e.carriers))
	for _, c := range e.carriers {
		out = append(out, c)
	}
	return out
}

// Contract returns a carrier contract by id, or nil.
func (e *Engine) Contract(id string) *Contract { return e.contracts[id] }

// Contracts returns all carrier contracts.
func (e *Engine) Contracts() []*Contract {
	out := make([]*Contract, 0, len(e.contracts))
	for _, c := range e.contracts {
		out = append(out, c)
	}
	return out
}

// Offer returns a live offer by id, or nil.
func (e *Engine) Offer(id string) *Offer { return e.offers[id] }

// Offers returns all open offers, sorted by id.
func (e *Engine) Offers() []*Offer {
	out := make([]*Offer, 0, len(e.offers))
	for _, o := range e.offers {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GenerateOffer quotes a carrier for hauling cargo over a lane. Carriers
// specializing in the cargo are always eligible; others join by Bernoulli
// draw. One eligible carrier is picked uniformly at random.
func (e *Engine) GenerateOffer(laneID, cargoType string, amount float64, deadline, now float64) (*Offer, Result) {
	lane := e.world.Lane(laneID)
	if lane == nil {
		return nil, fail("lane not found")
	}
	if lane.Restrictions[cargoType] {
		return nil, fail("cargo restricted on lane")
	}

	var eligible []*Carrier
	for _, c := range e.carriers {
		if c.Blacklisted || c.BusyUntil > now || len(c.ActiveContracts) >= c.FleetSize {
			continue
		}
		if c.PreferredCargo[cargoType] || e.rand.Chance(offerProbability) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, fail("no carriers available")
	}
	carrier := eligible[e.rand.Intn(len(eligible))]

	laneFactor := 1 + lane.Distance/1000
	price := e.prices.Price(cargoType, now, "") * amount * laneFactor * carrier.PricingFactor
	if carrier.PreferredCargo[cargoType] {
		price *= preferredDiscount
	}

	offer := &Offer{
		ID:            uuid.NewString(),
		CarrierID:     carrier.ID,
		LaneID:        laneID,
		CargoType:     cargoType,
		Amount:        amount,
		Price:         price,
		EstimatedTime: e.world.DeliveryTime(laneID, carrier.SpeedFactor),
		Deadline:      deadline,
		Expiration:    now + offerWindow,
	}
	e.offers[offer.ID] = offer

	if e.queue != nil {
		e.queue.Emit(notify.Notification{
			Kind:    notify.CarrierOfferMade,
			Time:    now,
			Message: fmt.Sprintf("%s offers to haul %s for %.0f", carrier.Name, cargoType, price),
			Data:    map[string]any{"offer": offer.ID, "carrier": carrier.ID, "price": price},
		})
	}
	return offer, ok()
}

// AcceptOffer converts an offer into an active carrier contract, debits the
// price, and marks the carrier busy until expected completion.
func (e *Engine) AcceptOffer(offerID string, customerContractID string, now float64) (*Contract, Result) {
	offer, found := e.offers[offerID]
	if !found {
		return nil, fail("offer not found")
	}
	if now > offer.Expiration {
		delete(e.offers, offerID)
		return nil, fail("offer expired")
	}
	carrier := e.carriers[offer.CarrierID]
	if carrier == nil {
		return nil, fail("carrier not found")
	}
	if len(carrier.ActiveContracts) >= carrier.FleetSize {
		return nil, fail("carrier over capacity")
	}
	if !e.ledger.CanAfford(offer.Price) {
		return nil, fail("insufficient funds")
	}

	delete(e.offers, offerID)
	e.ledger.AdjustBalance(-offer.Price, "carrier hire", now)

	contract := &Contract{
		ID:                 uuid.NewString(),
		CarrierID:          offer.CarrierID,
		LaneID:             offer.LaneID,
		CargoType:          offer.CargoType,
		Amount:             offer.Amount,
		Price:              offer.Price,
		StartTime:          now,
		ExpectedCompletion: now + offer.EstimatedTime,
		Deadline:           offer.Deadline,
		Status:             ContractActive,
		CustomerContractID: customerContractID,
	}
	e.contracts[contract.ID] = contract
	carrier.ActiveContracts = append(carrier.ActiveContracts, contract.ID)
	carrier.BusyUntil = contract.ExpectedCompletion

	if e.queue != nil {
		e.queue.Emit(notify.Notification{
			Kind: notify.CarrierOfferAccepted,
			Time: now,
			Data: map[string]any{"contract": contract.ID, "carrier": carrier.ID},
		})
	}
	return contract, ok()
}

// RejectOffer discards an offer.
func (e *Engine) RejectOffer(offerID string) Result {
	if _, found := e.offers[offerID]; !found {
		return fail("offer not found")
	}
	delete(e.offers, offerID)
	return ok()
}

// SetReputation sets a carrier's reputation to an absolute value and
// re-derives the dependent flags. Returns false if the carrier is unknown.
func (e *Engine) SetReputation(carrierID string, reputation float64) bool {
	carrier, found := e.carriers[carrierID]
	if !found {
		return false
	}
	carrier.Reputation = 0
	carrier.adjustReputation(reputation)
	return true
}

// NotifyDisruption informs a carrier that its lane assignment was broken
// (e.g. the lane was blocked). The carrier is freed; no reputation change.
func (e *Engine) NotifyDisruption(carrierID string, now float64) {
	carrier := e.carriers[carrierID]
	if carrier == nil {
		return
	}
	carrier.BusyUntil = now
	slog.Debug("carrier disrupted", "carrier", carrier.Name)
}

// Update runs every tick; delivery resolution runs on its own cadence.
func (e *Engine) Update(now float64) {
	for id, offer := range e.offers {
		if now > offer.Expiration {
			delete(e.offers, id)
		}
	}

	if now < e.nextUpdateAt {
		return
	}
	e.nextUpdateAt = now + updateInterval
	e.resolveDeliveries(now)
}

// resolveDeliveries resolves contracts whose expected completion has passed.
func (e *Engine) resolveDeliveries(now float64) {
	for _, contract := range e.contracts {
		if contract.Status != ContractActive || contract.ExpectedCompletion > now {
			continue
		}
		carrier := e.carriers[contract.CarrierID]
		if carrier == nil {
			contract.Status = ContractFailed
			continue
		}

		success := !e.rand.Chance(carrier.FailureChance)
		onTime := now <= contract.Deadline
		quality := 0.0
		if success {
			quality = e.rand.Range(0.7, 1.0) * carrier.Reliability
			contract.Status = ContractCompleted
		} else {
			contract.Status = ContractFailed
		}
		contract.Quality = quality
		contract.OnTime = onTime

		carrier.removeActive(contract.ID)
		if carrier.BusyUntil <= contract.ExpectedCompletion {
			carrier.BusyUntil = now
		}
		carrier.History.record(RecentJob{
			ContractID: contract.ID,
			Success:    success,
			OnTime:     onTime,
			Quality:    quality,
		})
		if !success {
			carrier.adjustReputation(-failureRepPenalty)
		}
		carrier.recompute()

		if e.OnResolved != nil {
			e.OnResolved(contract, success, onTime)
		}

		kind := notify.CarrierCompleted
		if !success {
			kind = notify.CarrierFailed
		}
		if e.queue != nil {
			e.queue.Emit(notify.Notification{
				Kind: kind,
				Time: now,
				Data: map[string]any{
					"contract": contract.ID,
					"carrier":  carrier.ID,
					"on_time":  onTime,
					"quality":  quality,
				},
			})
		}
		slog.Debug("delivery resolved",
			"contract", contract.ID,
			"carrier", carrier.Name,
			"success", success,
			"on_time", onTime,
		)
	}
}

// ProcessDailyUpdate logs a daily roster summary.
func (e *Engine) ProcessDailyUpdate(now float64) {
	busy := 0
	for _, c := range e.carriers {
		if c.BusyUntil > now {
			busy++
		}
	}
	slog.Debug("carrier daily update", "carriers", len(e.carriers), "busy", busy)
}
