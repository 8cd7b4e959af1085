// Package economy provides the commodity pricing engine: commodities, groups,
// regional actors, and a BASE/TOTAL modifier stack with time drift and daily
// demand/supply random walks.
package economy

import (
	"log/slog"

	"github.com/talgya/freightline/internal/notify"
	"github.com/talgya/freightline/internal/rng"
)

// Commodity is a tradeable good. Immutable once created except BasePrice.
type Commodity struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	BasePrice float64 `json:"base_price"`
}

// ModifierKind selects how a modifier's magnitude composes.
type ModifierKind int

const (
	KindMultiplicative ModifierKind = iota
	KindAdditive
)

// Stacking selects when a modifier applies relative to the BASE aggregate.
type Stacking int

const (
	// StackBase modifiers combine with each other before TOTAL modifiers run.
	StackBase Stacking = iota
	// StackTotal modifiers apply on the BASE-aggregated result.
	StackTotal
)

// Modifier is a named price adjustment. Target is a commodity id, a group id,
// or empty for global. Scope is a region id or empty for global.
type Modifier struct {
	ID        string       `json:"id"`
	Target    string       `json:"target"`
	Magnitude float64      `json:"magnitude"`
	Kind      ModifierKind `json:"kind"`
	Stacking  Stacking     `json:"stacking"`
	Active    bool         `json:"active"`
	Scope     string       `json:"scope"`
}

// Actor represents a regional market participant. A region actor may inherit
// from a parent (e.g. "global_market") with a damping influence factor.
type Actor struct {
	ID        string  `json:"id"`
	Parent    string  `json:"parent"`
	Influence float64 `json:"influence"`
}

// DriftKind selects the shape of a drift component.
type DriftKind int

const (
	DriftSine DriftKind = iota
	DriftLinear
)

// DriftComponent is one term of the time-based price drift curve.
type DriftComponent struct {
	Kind      DriftKind
	Amplitude float64
	Period    float64
}

// Factors are the per-commodity daily-walked market pressures.
type Factors struct {
	Trend  float64 `json:"trend"`  // [-0.2, 0.2]
	Demand float64 `json:"demand"` // [0.5, 1.5]
	Supply float64 `json:"supply"` // [0.5, 1.5]
}

// PricePoint is one entry of a commodity's daily price history.
type PricePoint struct {
	Day   int     `json:"day"`
	Price float64 `json:"price"`
}

// historyLen caps each commodity's price history ring.
const historyLen = 30

// Engine owns commodities and the modifier stack, and answers price queries.
type Engine struct {
	commodities map[string]*Commodity
	groups      map[string][]string // group id → member commodity ids
	actors      map[string]*Actor
	modifiers   map[string]*Modifier
	order       []string // modifier ids in add order
	drift       []DriftComponent
	factors     map[string]*Factors
	history     map[string][]PricePoint

	rand  *rng.Source
	queue *notify.Queue
}

// New creates an empty pricing engine. The drift curve starts neutral;
// call InstallDefaultDrift to add the standard market cycles.
func New(rand *rng.Source, queue *notify.Queue) *Engine {
	return &Engine{
		commodities: make(map[string]*Commodity),
		groups:      make(map[string][]string),
		actors:      make(map[string]*Actor),
		modifiers:   make(map[string]*Modifier),
		factors:     make(map[string]*Factors),
		history:     make(map[string][]PricePoint),
		rand:        rand,
		queue:       queue,
	}
}

// InstallDefaultDrift installs the standard seasonal and long-cycle drift
// components. Derived state: regenerated on restore, never persisted.
func (e *Engine) InstallDefaultDrift() {
	e.drift = []DriftComponent{
		{Kind: DriftSine, Amplitude: 0.05, Period: 30 * 600},   // monthly cycle
		{Kind: DriftSine, Amplitude: 0.02, Period: 7 * 600},    // weekly chop
		{Kind: DriftLinear, Amplitude: 0.01, Period: 90 * 600}, // slow growth
	}
}

// AddItem registers a commodity. Re-adding an id overwrites it.
func (e *Engine) AddItem(id, name, category string, basePrice float64) {
	e.commodities[id] = &Commodity{ID: id, Name: name, Category: category, BasePrice: basePrice}
	if _, ok := e.factors[id]; !ok {
		e.factors[id] = &Factors{Demand: 1.0, Supply: 1.0}
	}
}

// SetBasePrice changes a commodity's base price. Rare; no-op if unknown.
func (e *Engine) SetBasePrice(id string, basePrice float64) {
	if c, ok := e.commodities[id]; ok {
		c.BasePrice = basePrice
	}
}

// Item returns a commodity by id, or nil.
func (e *Engine) Item(id string) *Commodity { return e.commodities[id] }

// Items returns all commodity ids.
func (e *Engine) Items() []string {
	out := make([]string, 0, len(e.commodities))
	for id := range e.commodities {
		out = append(out, id)
	}
	return out
}

// AddGroup registers a commodity group.
func (e *Engine) AddGroup(id string) {
	if _, ok := e.groups[id]; !ok {
		e.groups[id] = nil
	}
}

// AddItemToGroup adds a commodity to a group, creating the group if needed.
func (e *Engine) AddItemToGroup(itemID, groupID string) {
	for _, m := range e.groups[groupID] {
		if m == itemID {
			return
		}
	}
	e.groups[groupID] = append(e.groups[groupID], itemID)
}

// AddActor registers a region actor. Parent may be empty; influence is the
// weight of the region-specific price when blending with the parent
// (clamped to [0,1], default 1 = no parent blending).
func (e *Engine) AddActor(id, parent string, influence float64) {
	if influence <= 0 || influence > 1 {
		influence = 1.0
	}
	e.actors[id] = &Actor{ID: id, Parent: parent, Influence: influence}
}

// AddModifier registers a modifier, inactive until activated. Re-adding an
// existing id replaces the old modifier.
func (e *Engine) AddModifier(id, target string, magnitude float64, kind ModifierKind, stacking Stacking) {
	if _, ok := e.modifiers[id]; ok {
		e.RemoveModifier(id)
	}
	e.modifiers[id] = &Modifier{
		ID:        id,
		Target:    target,
		Magnitude: magnitude,
		Kind:      kind,
		Stacking:  stacking,
	}
	e.order = append(e.order, id)
}

// ActivateModifier activates a modifier for a scope (region id, or empty for
// global). No-op if the id is unknown.
func (e *Engine) ActivateModifier(id, scope string) {
	if m, ok := e.modifiers[id]; ok {
		m.Active = true
		m.Scope = scope
	}
}

// DeactivateModifier deactivates a modifier. No-op if unknown.
func (e *Engine) DeactivateModifier(id string) {
	if m, ok := e.modifiers[id]; ok {
		m.Active = false
	}
}

// RemoveModifier deletes a modifier. Silently no-ops if absent.
func (e *Engine) RemoveModifier(id string) {
	if _, ok := e.modifiers[id]; !ok {
		return
	}
	delete(e.modifiers, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// HasModifier reports whether a modifier id is registered.
func (e *Engine) HasModifier(id string) bool {
	_, ok := e.modifiers[id]
	return ok
}

// History returns the price history ring for a commodity (oldest first).
func (e *Engine) History(id string) []PricePoint { return e.history[id] }

// ProcessDailyUpdate walks each commodity's trend/demand/supply factors,
// re-derives the corresponding modifiers, and appends to price history.
func (e *Engine) ProcessDailyUpdate(day int, now float64) {
	for id, f := range e.factors {
		f.Trend = e.rand.Walk(f.Trend, 0.05, -0.2, 0.2)
		f.Demand = e.rand.Walk(f.Demand, 0.1, 0.5, 1.5)
		f.Supply = e.rand.Walk(f.Supply, 0.1, 0.5, 1.5)
		e.deriveFactorModifiers(id, f)
	}
	for id := range e.commodities {
		ring := append(e.history[id], PricePoint{Day: day, Price: e.Price(id, now, "")})
		if len(ring) > historyLen {
			ring = ring[len(ring)-historyLen:]
		}
		e.history[id] = ring
	}
	if e.queue != nil {
		e.queue.Emit(notify.Notification{
			Kind: notify.MarketUpdated,
			Time: now,
			Data: map[string]any{"day": day},
		})
	}
	slog.Debug("market daily update", "day", day, "commodities", len(e.commodities))
}

// deriveFactorModifiers rebuilds the demand/supply/trend modifiers for one
// commodity. Demand raises price directly; supply lowers it via inverse.
func (e *Engine) deriveFactorModifiers(id string, f *Factors) {
	e.AddModifier("demand::"+id, id, f.Demand, KindMultiplicative, StackBase)
	e.ActivateModifier("demand::"+id, "")
	e.AddModifier("supply::"+id, id, 1.0/f.Supply, KindMultiplicative, StackBase)
	e.ActivateModifier("supply::"+id, "")
	e.AddModifier("trend::"+id, id, 1.0+f.Trend, KindMultiplicative, StackBase)
	e.ActivateModifier("trend::"+id, "")
}
