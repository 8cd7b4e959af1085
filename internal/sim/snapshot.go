package sim

import (
	"github.com/talgya/freightline/internal/carriers"
	"github.com/talgya/freightline/internal/clock"
	"github.com/talgya/freightline/internal/contracts"
	"github.com/talgya/freightline/internal/economy"
	"github.com/talgya/freightline/internal/events"
	"github.com/talgya/freightline/internal/player"
	"github.com/talgya/freightline/internal/worldmap"
)

// WorldSnapshot is the full persistable simulation state, one record per
// engine.
type WorldSnapshot struct {
	Seed      int64                    `json:"seed"`
	Clock     clock.Snapshot           `json:"clock"`
	Prices    economy.EngineSnapshot   `json:"prices"`
	World     worldmap.MapSnapshot     `json:"world"`
	Contracts contracts.EngineSnapshot `json:"contracts"`
	Carriers  carriers.EngineSnapshot  `json:"carriers"`
	Events    events.EngineSnapshot    `json:"events"`
	Ledger    player.LedgerSnapshot    `json:"ledger"`
}

// ToSnapshot captures every engine's state.
func (s *Simulation) ToSnapshot() WorldSnapshot {
	return WorldSnapshot{
		Seed:      s.Rand.Seed(),
		Clock:     s.Clock.ToSnapshot(),
		Prices:    s.Prices.ToSnapshot(),
		World:     s.World.ToSnapshot(),
		Contracts: s.Contracts.ToSnapshot(),
		Carriers:  s.Carriers.ToSnapshot(),
		Events:    s.Events.ToSnapshot(),
		Ledger:    s.Ledger.ToSnapshot(),
	}
}

// FromSnapshot restores every engine. Each engine resets its derived and
// cached state before repopulating.
func (s *Simulation) FromSnapshot(ws WorldSnapshot) {
	s.Clock.FromSnapshot(ws.Clock)
	s.Prices.FromSnapshot(ws.Prices)
	s.World.FromSnapshot(ws.World)
	s.Contracts.FromSnapshot(ws.Contracts)
	s.Carriers.FromSnapshot(ws.Carriers)
	s.Events.FromSnapshot(ws.Events)
	s.Ledger.FromSnapshot(ws.Ledger)
	s.updateStats(s.Clock.Day())
}
