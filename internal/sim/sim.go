// Package sim ties the engines together and runs them in a fixed order each
// tick. See the daily cascade in step().
package sim

import (
	"fmt"
	"log/slog"

	"github.com/talgya/freightline/internal/carriers"
	"github.com/talgya/freightline/internal/clock"
	"github.com/talgya/freightline/internal/contracts"
	"github.com/talgya/freightline/internal/economy"
	"github.com/talgya/freightline/internal/events"
	"github.com/talgya/freightline/internal/notify"
	"github.com/talgya/freightline/internal/player"
	"github.com/talgya/freightline/internal/rng"
	"github.com/talgya/freightline/internal/worldmap"
)

// Simulation holds the complete game state and wires engines together via
// constructor injection; no globals.
type Simulation struct {
	Clock     *clock.Clock
	Prices    *economy.Engine
	World     *worldmap.Map
	Contracts *contracts.Engine
	Carriers  *carriers.Engine
	Events    *events.Engine
	Ledger    *player.Ledger
	Queue     *notify.Queue
	Rand      *rng.Source

	DebugMode bool

	// Statistics refreshed on each daily cascade.
	Stats Stats
}

// Stats tracks aggregate simulation statistics per day.
type Stats struct {
	Day             int     `json:"day"`
	Balance         float64 `json:"balance"`
	NetWorth        float64 `json:"net_worth"`
	OwnedLanes      int     `json:"owned_lanes"`
	ActiveContracts int     `json:"active_contracts"`
	ActiveEvents    int     `json:"active_events"`
}

// Config is the subset of tunables the simulation needs at construction.
type Config struct {
	Seed            int64
	TimeScale       float64
	StartingBalance float64
}

// New constructs a simulation with all engines wired.
func New(cfg Config) *Simulation {
	if cfg.TimeScale <= 0 {
		cfg.TimeScale = 1.0
	}
	if cfg.StartingBalance == 0 {
		cfg.StartingBalance = 50000
	}

	queue := notify.NewQueue(0)
	rand := rng.New(cfg.Seed)
	prices := economy.New(rand, queue)
	prices.InstallDefaultDrift()
	world := worldmap.New(rand, queue)
	ledger := player.New(cfg.StartingBalance, queue)
	contractEng := contracts.New(prices, ledger, rand, queue)
	carrierEng := carriers.New(prices, world, ledger, rand, queue)
	eventEng := events.New(prices, world, carrierEng, contractEng, ledger, rand, queue)

	s := &Simulation{
		Clock:     clock.New(cfg.TimeScale),
		Prices:    prices,
		World:     world,
		Contracts: contractEng,
		Carriers:  carrierEng,
		Events:    eventEng,
		Ledger:    ledger,
		Queue:     queue,
		Rand:      rand,
	}

	// Net worth sees discounted lane assets and expected contract profit.
	ledger.Assets = func() float64 {
		return world.OwnedLaneValue() + contractEng.ExpectedProfit()
	}

	// Delivery resolution feeds back into lanes and customer contracts.
	carrierEng.OnResolved = s.onDeliveryResolved
	return s
}

// Step advances the simulation by delta wall-seconds. Per-tick order:
// clock → expiration sweeps → periodic scheduler checks → daily cascade for
// each crossed day.
func (s *Simulation) Step(delta float64) {
	crossed := s.Clock.Advance(delta)
	now := s.Clock.Now()

	s.Events.Sweep(now)
	s.Contracts.Sweep(now)

	s.Contracts.Update(now)
	s.Carriers.Update(now)
	s.Events.Update(now)

	for _, day := range crossed {
		s.dailyCascade(day, now)
	}
}

// dailyCascade runs the fixed-order daily pass. A failing sub-step never
// aborts the rest of the day; errors are aggregated and surfaced.
func (s *Simulation) dailyCascade(day int, now float64) {
	steps := []struct {
		name string
		run  func()
	}{
		{"prices", func() { s.Prices.ProcessDailyUpdate(day, now) }},
		{"map", func() { s.World.ProcessDailyUpdate() }},
		{"contracts", func() { s.Contracts.ProcessDailyUpdate(now) }},
		{"carriers", func() { s.Carriers.ProcessDailyUpdate(now) }},
		{"player", func() { s.playerDaily(now) }},
	}

	var errs []error
	for _, step := range steps {
		if err := runStep(step.run); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	for _, err := range errs {
		slog.Error("daily cascade sub-step failed", "day", day, "error", err)
	}

	s.updateStats(day)
	s.Queue.Emit(notify.Notification{
		Kind: notify.DayChanged,
		Time: now,
		Data: map[string]any{"day": day},
	})
	slog.Info("daily report",
		"day", day,
		"balance", fmt.Sprintf("%.0f", s.Stats.Balance),
		"net_worth", fmt.Sprintf("%.0f", s.Stats.NetWorth),
		"owned_lanes", s.Stats.OwnedLanes,
		"active_contracts", s.Stats.ActiveContracts,
		"active_events", s.Stats.ActiveEvents,
	)
}

// runStep shields the cascade from a panicking sub-step.
func runStep(run func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	run()
	return nil
}

// playerDaily deducts lane maintenance (seeing the day's final lane state)
// and processes loans.
func (s *Simulation) playerDaily(now float64) {
	if due := s.World.MaintenanceDue(); due > 0 {
		s.Ledger.AdjustBalance(-due, "lane maintenance", now)
	}
	s.Ledger.ProcessDailyUpdate(now)
}

func (s *Simulation) updateStats(day int) {
	owned := 0
	for _, lane := range s.World.Lanes() {
		if lane.Status != worldmap.LaneAvailable {
			owned++
		}
	}
	active := 0
	for _, c := range s.Contracts.Contracts() {
		if c.Status == contracts.StatusActive {
			active++
		}
	}
	activeEvents := 0
	for _, ev := range s.Events.Events() {
		if ev.IsActive {
			activeEvents++
		}
	}
	s.Stats = Stats{
		Day:             day,
		Balance:         s.Ledger.Balance(),
		NetWorth:        s.Ledger.NetWorth(),
		OwnedLanes:      owned,
		ActiveContracts: active,
		ActiveEvents:    activeEvents,
	}
}

// onDeliveryResolved propagates a carrier contract outcome: free the lane
// and settle the linked customer contract, all within the same tick.
func (s *Simulation) onDeliveryResolved(c *carriers.Contract, success, onTime bool) {
	now := s.Clock.Now()

	if lane := s.World.Lane(c.LaneID); lane != nil &&
		lane.Status == worldmap.LaneAssigned && lane.AssignedCarrier == c.CarrierID {
		s.World.UnassignCarrier(c.LaneID)
	}

	if c.CustomerContractID == "" {
		return
	}
	cc := s.Contracts.Contract(c.CustomerContractID)
	if cc == nil || cc.Status != contracts.StatusActive {
		return
	}
	delivered := success && now <= cc.Deadline
	profit := cc.Value - c.Price - cc.UpfrontCost
	s.Contracts.Complete(cc.ID, delivered, profit, now)
}
