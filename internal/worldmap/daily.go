package worldmap

import "log/slog"

// ProcessDailyUpdate decays temporary effects and applies bounded random
// drift to lane and city conditions. Blocked lanes are excluded from random
// drift; their block timers still count down.
func (m *Map) ProcessDailyUpdate() {
	for _, lane := range m.lanes {
		m.decayLaneEffects(lane)

		if lane.Status == LaneBlocked {
			continue
		}

		// Small daily random walk on congestion.
		lane.Congestion = m.rand.Walk(lane.Congestion, 0.1, 0, 1)

		// Occasional risk step change.
		if m.rand.Chance(0.05) {
			if m.rand.Chance(0.5) {
				lane.Risk = clampRisk(lane.Risk + 1)
			} else {
				lane.Risk = clampRisk(lane.Risk - 1)
			}
			m.emitCondition(lane)
		}
	}

	for _, city := range m.cities {
		city.Congestion = m.rand.Walk(city.Congestion, 0.05, 0, 1)
		if m.rand.Chance(0.03) {
			if m.rand.Chance(0.5) {
				city.Risk = clampRisk(city.Risk + 1)
			} else {
				city.Risk = clampRisk(city.Risk - 1)
			}
		}
	}

	slog.Debug("map daily update", "lanes", len(m.lanes), "cities", len(m.cities))
}

// decayLaneEffects decrements effect durations, reverting deltas at zero.
func (m *Map) decayLaneEffects(lane *Lane) {
	if fx := lane.CongestionFX; fx != nil {
		fx.DaysLeft--
		if fx.DaysLeft <= 0 {
			lane.Congestion = clamp01(lane.Congestion - fx.Delta)
			lane.CongestionFX = nil
			m.emitCondition(lane)
		}
	}
	if fx := lane.RiskFX; fx != nil {
		fx.DaysLeft--
		if fx.DaysLeft <= 0 {
			lane.Risk = clampRisk(lane.Risk - RiskLevel(fx.Steps))
			lane.RiskFX = nil
			m.emitCondition(lane)
		}
	}
	if lane.Status == LaneBlocked {
		lane.BlockedDaysLeft--
		if lane.BlockedDaysLeft <= 0 {
			if lane.OwnedWhenBlocked {
				lane.Status = LaneOwned
			} else {
				lane.Status = LaneAvailable
			}
			lane.BlockedDaysLeft = 0
			lane.OwnedWhenBlocked = false
			m.emitStatus(lane)
		}
	}
}
