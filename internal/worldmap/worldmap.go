// Package worldmap holds the trade map: regions, cities, and lanes with
// status, congestion, risk, and temporary-effect decay.
package worldmap

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/freightline/internal/notify"
	"github.com/talgya/freightline/internal/rng"
)

// RiskLevel is an ordinal lane/city risk classification.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskExtreme
)

// String returns a human-readable risk name.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// clampRisk bounds a risk step change to the ordinal range.
func clampRisk(r RiskLevel) RiskLevel {
	if r < RiskLow {
		return RiskLow
	}
	if r > RiskExtreme {
		return RiskExtreme
	}
	return r
}

// LaneStatus is the lane ownership/assignment state.
type LaneStatus int

const (
	LaneAvailable LaneStatus = iota
	LaneOwned
	LaneAssigned
	LaneBlocked
)

// String returns a human-readable status name.
func (s LaneStatus) String() string {
	switch s {
	case LaneAvailable:
		return "available"
	case LaneOwned:
		return "owned"
	case LaneAssigned:
		return "assigned"
	case LaneBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string name, the form API clients
// and snapshots see.
func (s LaneStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status from its string name.
func (s *LaneStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "available":
		*s = LaneAvailable
	case "owned":
		*s = LaneOwned
	case "assigned":
		*s = LaneAssigned
	case "blocked":
		*s = LaneBlocked
	default:
		return fmt.Errorf("unknown lane status %q", name)
	}
	return nil
}

// Region groups cities with shared economic and weather character.
type Region struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	RiskFactor            float64  `json:"risk_factor"`
	EconomyStrength       float64  `json:"economy_strength"`
	WeatherSusceptibility float64  `json:"weather_susceptibility"`
	Cities                []string `json:"cities"`
}

// City is a map node. Position is opaque to the simulation.
type City struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	RegionID       string    `json:"region_id"`
	X              float64   `json:"x"`
	Y              float64   `json:"y"`
	Population     int       `json:"population"`
	Infrastructure float64   `json:"infrastructure"` // [0,1]
	Industries     []string  `json:"industries"`
	Congestion     float64   `json:"congestion"` // [0,1], daily random walk
	Risk           RiskLevel `json:"risk"`
}

// TempEffect is a temporary congestion delta on a lane, one at a time.
type TempEffect struct {
	Delta    float64 `json:"delta"`
	DaysLeft int     `json:"days_left"`
}

// RiskEffect is a temporary risk-step modifier on a lane, one at a time.
type RiskEffect struct {
	Steps    int `json:"steps"`
	DaysLeft int `json:"days_left"`
}

// Lane connects two cities. Undirected for pathing, stored as start/end.
type Lane struct {
	ID               string             `json:"id"`
	StartCity        string             `json:"start_city"`
	EndCity          string             `json:"end_city"`
	Distance         float64            `json:"distance"`
	BaseCost         float64            `json:"base_cost"`
	MaintenanceCost  float64            `json:"maintenance_cost"`
	Status           LaneStatus         `json:"status"`
	AssignedCarrier  string             `json:"assigned_carrier"`
	Congestion       float64            `json:"congestion"` // [0,1]
	Risk             RiskLevel          `json:"risk"`
	Restrictions     map[string]bool    `json:"restrictions"` // excluded cargo types
	CongestionFX     *TempEffect        `json:"congestion_fx,omitempty"`
	RiskFX           *RiskEffect        `json:"risk_fx,omitempty"`
	BlockedDaysLeft  int                `json:"blocked_days_left"`
	OwnedWhenBlocked bool               `json:"owned_when_blocked"` // status to restore on unblock
	Upgrades         map[string]float64 `json:"upgrades"`           // upgrade type → effect
}

// LaneCostFromDistance derives purchase cost from distance.
func LaneCostFromDistance(distance float64) float64 {
	return distance / 100 * 10000
}

// LaneMaintenanceFromDistance derives daily maintenance from distance.
func LaneMaintenanceFromDistance(distance float64) float64 {
	return distance / 100 * 500
}

// pairKey is an unordered city pair for the path cache.
type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Map is the authoritative map state.
type Map struct {
	regions map[string]*Region
	cities  map[string]*City
	lanes   map[string]*Lane

	// pathCache memoizes direct-lane lookups by unordered city pair.
	// Derived state: cleared on restore.
	pathCache map[pairKey]string

	rand  *rng.Source
	queue *notify.Queue
}

// New creates an empty map.
func New(rand *rng.Source, queue *notify.Queue) *Map {
	return &Map{
		regions:   make(map[string]*Region),
		cities:    make(map[string]*City),
		lanes:     make(map[string]*Lane),
		pathCache: make(map[pairKey]string),
		rand:      rand,
		queue:     queue,
	}
}

// AddRegion registers a region.
func (m *Map) AddRegion(r *Region) { m.regions[r.ID] = r }

// AddCity registers a city and links it to its region.
func (m *Map) AddCity(c *City) {
	m.cities[c.ID] = c
	if r, ok := m.regions[c.RegionID]; ok {
		r.Cities = append(r.Cities, c.ID)
	}
}

// AddLane registers a lane, deriving costs from distance.
func (m *Map) AddLane(id, startCity, endCity string, distance float64) *Lane {
	lane := &Lane{
		ID:              id,
		StartCity:       startCity,
		EndCity:         endCity,
		Distance:        distance,
		BaseCost:        LaneCostFromDistance(distance),
		MaintenanceCost: LaneMaintenanceFromDistance(distance),
		Status:          LaneAvailable,
		Risk:            RiskLow,
		Restrictions:    make(map[string]bool),
		Upgrades:        make(map[string]float64),
	}
	m.lanes[id] = lane
	m.pathCache = make(map[pairKey]string) // topology changed
	return lane
}

// Region returns a region by id, or nil.
func (m *Map) Region(id string) *Region { return m.regions[id] }

// City returns a city by id, or nil.
func (m *Map) City(id string) *City { return m.cities[id] }

// Lane returns a lane by id, or nil.
func (m *Map) Lane(id string) *Lane { return m.lanes[id] }

// Lanes returns all lanes.
func (m *Map) Lanes() []*Lane {
	out := make([]*Lane, 0, len(m.lanes))
	for _, l := range m.lanes {
		out = append(out, l)
	}
	return out
}

// Regions returns all regions.
func (m *Map) Regions() []*Region {
	out := make([]*Region, 0, len(m.regions))
	for _, r := range m.regions {
		out = append(out, r)
	}
	return out
}

// Result is the outcome of a map command: success or a reason for rejection.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func ok() Result                { return Result{OK: true} }
func fail(reason string) Result { return Result{Reason: reason} }

// PurchaseLane transitions AVAILABLE → OWNED. Funds are the caller's concern.
func (m *Map) PurchaseLane(id string) Result {
	lane, found := m.lanes[id]
	if !found {
		return fail("lane not found")
	}
	if lane.Status != LaneAvailable {
		return fail("lane not available")
	}
	lane.Status = LaneOwned
	m.emitStatus(lane)
	return ok()
}

// SellLane transitions an owned lane back to AVAILABLE. Rejects if a carrier
// is assigned or the lane is blocked.
func (m *Map) SellLane(id string) Result {
	lane, found := m.lanes[id]
	if !found {
		return fail("lane not found")
	}
	switch lane.Status {
	case LaneAssigned:
		return fail("carrier assigned")
	case LaneBlocked:
		return fail("lane blocked")
	case LaneAvailable:
		return fail("lane not owned")
	}
	lane.Status = LaneAvailable
	m.emitStatus(lane)
	return ok()
}

// AssignCarrier marks an owned lane as assigned to a carrier.
func (m *Map) AssignCarrier(laneID, carrierID string) Result {
	lane, found := m.lanes[laneID]
	if !found {
		return fail("lane not found")
	}
	switch lane.Status {
	case LaneBlocked:
		return fail("lane blocked")
	case LaneAssigned:
		return fail("already assigned")
	case LaneAvailable:
		return fail("lane not owned")
	}
	lane.Status = LaneAssigned
	lane.AssignedCarrier = carrierID
	m.emitStatus(lane)
	return ok()
}

// UnassignCarrier clears a lane's carrier assignment.
func (m *Map) UnassignCarrier(laneID string) Result {
	lane, found := m.lanes[laneID]
	if !found {
		return fail("lane not found")
	}
	if lane.Status != LaneAssigned {
		return fail("no carrier assigned")
	}
	lane.Status = LaneOwned
	lane.AssignedCarrier = ""
	m.emitStatus(lane)
	return ok()
}

// BlockLanes blocks every lane touching the given regions for durationDays.
// Assigned lanes are force-unassigned first, in the same call, so a BLOCKED
// lane never reports an active assignment. Returns the ids of carriers that
// were disrupted so the caller can notify them.
func (m *Map) BlockLanes(regionIDs []string, durationDays int) []string {
	inRegion := make(map[string]bool)
	for _, rid := range regionIDs {
		if r, ok := m.regions[rid]; ok {
			for _, cid := range r.Cities {
				inRegion[cid] = true
			}
		}
	}

	var disrupted []string
	for _, lane := range m.lanes {
		if !inRegion[lane.StartCity] && !inRegion[lane.EndCity] {
			continue
		}
		if lane.Status == LaneBlocked {
			if durationDays > lane.BlockedDaysLeft {
				lane.BlockedDaysLeft = durationDays
			}
			continue
		}
		if lane.Status == LaneAssigned {
			disrupted = append(disrupted, lane.AssignedCarrier)
			lane.AssignedCarrier = ""
		}
		lane.OwnedWhenBlocked = lane.Status != LaneAvailable
		lane.Status = LaneBlocked
		lane.BlockedDaysLeft = durationDays
		m.emitStatus(lane)
	}
	return disrupted
}

// BlockLane blocks a single lane for durationDays, force-unassigning first.
// Returns the disrupted carrier id, if any.
func (m *Map) BlockLane(laneID string, durationDays int) (string, Result) {
	lane, found := m.lanes[laneID]
	if !found {
		return "", fail("lane not found")
	}
	if lane.Status == LaneBlocked {
		if durationDays > lane.BlockedDaysLeft {
			lane.BlockedDaysLeft = durationDays
		}
		return "", ok()
	}
	carrier := ""
	if lane.Status == LaneAssigned {
		carrier = lane.AssignedCarrier
		lane.AssignedCarrier = ""
	}
	lane.OwnedWhenBlocked = lane.Status != LaneAvailable
	lane.Status = LaneBlocked
	lane.BlockedDaysLeft = durationDays
	m.emitStatus(lane)
	return carrier, ok()
}

// UpgradeCostFactor maps upgrade type to its cost as a fraction of base cost.
// Effect values are applied once when purchased.
var upgradeEffects = map[string]struct {
	CostFactor float64
	Congestion float64 // permanent congestion delta
	RiskSteps  int     // permanent risk steps
}{
	"paving":   {CostFactor: 0.30, Congestion: -0.15},
	"security": {CostFactor: 0.25, RiskSteps: -1},
	"signage":  {CostFactor: 0.10, Congestion: -0.05},
}

// UpgradeCost returns the cost of an upgrade for a lane, or a failure if the
// lane or upgrade type is unknown.
func (m *Map) UpgradeCost(laneID, upgradeType string) (float64, Result) {
	lane, found := m.lanes[laneID]
	if !found {
		return 0, fail("lane not found")
	}
	eff, known := upgradeEffects[upgradeType]
	if !known {
		return 0, fail(fmt.Sprintf("unknown upgrade %q", upgradeType))
	}
	return lane.BaseCost * eff.CostFactor, ok()
}

// ApplyLaneUpgrade applies a one-time upgrade effect. Rejects duplicates.
func (m *Map) ApplyLaneUpgrade(laneID, upgradeType string) Result {
	lane, found := m.lanes[laneID]
	if !found {
		return fail("lane not found")
	}
	if lane.Status == LaneAvailable {
		return fail("lane not owned")
	}
	eff, known := upgradeEffects[upgradeType]
	if !known {
		return fail(fmt.Sprintf("unknown upgrade %q", upgradeType))
	}
	if _, dup := lane.Upgrades[upgradeType]; dup {
		return fail("upgrade already applied")
	}
	lane.Congestion = clamp01(lane.Congestion + eff.Congestion)
	lane.Risk = clampRisk(lane.Risk + RiskLevel(eff.RiskSteps))
	lane.Upgrades[upgradeType] = eff.Congestion + float64(eff.RiskSteps)
	m.emitCondition(lane)
	return ok()
}

// ApplyCongestionEffect sets a temporary congestion delta on a lane. A new
// effect replaces any existing one (the old delta is reverted first).
func (m *Map) ApplyCongestionEffect(laneID string, delta float64, durationDays int) Result {
	lane, found := m.lanes[laneID]
	if !found {
		return fail("lane not found")
	}
	if lane.CongestionFX != nil {
		lane.Congestion = clamp01(lane.Congestion - lane.CongestionFX.Delta)
	}
	lane.CongestionFX = &TempEffect{Delta: delta, DaysLeft: durationDays}
	lane.Congestion = clamp01(lane.Congestion + delta)
	m.emitCondition(lane)
	return ok()
}

// ApplyRiskEffect sets a temporary risk-step modifier on a lane, replacing
// any existing one.
func (m *Map) ApplyRiskEffect(laneID string, steps, durationDays int) Result {
	lane, found := m.lanes[laneID]
	if !found {
		return fail("lane not found")
	}
	if lane.RiskFX != nil {
		lane.Risk = clampRisk(lane.Risk - RiskLevel(lane.RiskFX.Steps))
	}
	lane.RiskFX = &RiskEffect{Steps: steps, DaysLeft: durationDays}
	lane.Risk = clampRisk(lane.Risk + RiskLevel(steps))
	m.emitCondition(lane)
	return ok()
}

// SetLaneCongestion sets a lane's congestion to an absolute value.
func (m *Map) SetLaneCongestion(laneID string, v float64) Result {
	lane, found := m.lanes[laneID]
	if !found {
		return fail("lane not found")
	}
	lane.Congestion = clamp01(v)
	m.emitCondition(lane)
	return ok()
}

// SetLaneRisk sets a lane's risk to an absolute level.
func (m *Map) SetLaneRisk(laneID string, r RiskLevel) Result {
	lane, found := m.lanes[laneID]
	if !found {
		return fail("lane not found")
	}
	lane.Risk = clampRisk(r)
	m.emitCondition(lane)
	return ok()
}

// SetRestriction adds or removes a cargo-type restriction on a lane.
func (m *Map) SetRestriction(laneID, cargoType string, restricted bool) Result {
	lane, found := m.lanes[laneID]
	if !found {
		return fail("lane not found")
	}
	if restricted {
		lane.Restrictions[cargoType] = true
	} else {
		delete(lane.Restrictions, cargoType)
	}
	return ok()
}

// PathBetween returns the direct lane connecting two cities, or empty if no
// direct lane exists. Memoized by unordered city pair. There is no multi-hop
// routing.
func (m *Map) PathBetween(cityA, cityB string) string {
	key := newPairKey(cityA, cityB)
	if laneID, hit := m.pathCache[key]; hit {
		return laneID
	}
	found := ""
	for id, lane := range m.lanes {
		if (lane.StartCity == cityA && lane.EndCity == cityB) ||
			(lane.StartCity == cityB && lane.EndCity == cityA) {
			found = id
			break
		}
	}
	m.pathCache[key] = found
	return found
}

// DeliveryTime estimates transit time over a lane for a carrier speed factor.
func (m *Map) DeliveryTime(laneID string, speedFactor float64) float64 {
	lane, found := m.lanes[laneID]
	if !found || speedFactor <= 0 {
		return 0
	}
	return (lane.Distance / 60) * (1 + lane.Congestion) / speedFactor
}

// OwnedLaneValue sums the base cost of all player-owned lanes, discounted.
// Used by the ledger's net-worth calculation.
func (m *Map) OwnedLaneValue() float64 {
	total := 0.0
	for _, lane := range m.lanes {
		if lane.Status == LaneOwned || lane.Status == LaneAssigned {
			total += lane.BaseCost * 0.7
		}
	}
	return total
}

// MaintenanceDue sums daily maintenance for all player-owned lanes.
func (m *Map) MaintenanceDue() float64 {
	total := 0.0
	for _, lane := range m.lanes {
		if lane.Status != LaneAvailable {
			total += lane.MaintenanceCost
		}
	}
	return total
}

func (m *Map) emitStatus(lane *Lane) {
	if m.queue == nil {
		return
	}
	m.queue.Emit(notify.Notification{
		Kind:    notify.LaneStatusChanged,
		Message: fmt.Sprintf("lane %s is now %s", lane.ID, lane.Status),
		Data:    map[string]any{"lane": lane.ID, "status": lane.Status.String()},
	})
}

func (m *Map) emitCondition(lane *Lane) {
	if m.queue == nil {
		return
	}
	m.queue.Emit(notify.Notification{
		Kind: notify.LaneConditionChanged,
		Data: map[string]any{
			"lane":       lane.ID,
			"congestion": lane.Congestion,
			"risk":       lane.Risk.String(),
		},
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
