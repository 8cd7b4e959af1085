package events

import (
	"log/slog"

	"github.com/talgya/freightline/internal/economy"
	"github.com/talgya/freightline/internal/worldmap"
)

// applyEffects mutates collaborator state per event type, recording an
// original-value snapshot per change so cleanup can restore exactly.
func (e *Engine) applyEffects(ev *Event, now float64) {
	switch ev.Type {
	case TypeEconomic:
		e.applyEconomic(ev, now)
	case TypeWeather:
		e.applyWeather(ev)
	case TypeCarrier:
		e.applyCarrier(ev)
	case TypeRegulatory:
		e.applyRegulatory(ev)
	case TypeCustomer:
		e.applyCustomer(ev)
	case TypeCriminal:
		e.applyCriminal(ev, now)
	}
}

// applyEconomic installs a price-spike modifier on a random commodity.
func (e *Engine) applyEconomic(ev *Event, now float64) {
	items := e.prices.Items()
	if len(items) == 0 {
		return
	}
	commodity := items[e.rand.Intn(len(items))]
	modID := "event::" + ev.ID
	e.prices.AddModifier(modID, commodity, 1+ev.Severity, economy.KindMultiplicative, economy.StackTotal)
	e.prices.ActivateModifier(modID, "")

	ref := EntityRef{Kind: KindCommodity, ID: commodity}
	ev.Affected = append(ev.Affected, ref)
	ev.Effects = append(ev.Effects, AppliedEffect{
		Ref:        ref,
		Kind:       EffectModifier,
		ModifierID: modID,
		Applied:    1 + ev.Severity,
	})
}

// applyWeather raises congestion and risk on every lane touching a random
// region.
func (e *Engine) applyWeather(ev *Event) {
	regions := e.world.Regions()
	if len(regions) == 0 {
		return
	}
	region := regions[e.rand.Intn(len(regions))]
	ev.Affected = append(ev.Affected, EntityRef{Kind: KindRegion, ID: region.ID})

	inRegion := make(map[string]bool, len(region.Cities))
	for _, cid := range region.Cities {
		inRegion[cid] = true
	}

	riskSteps := 1
	if ev.Severity > 0.7 {
		riskSteps = 2
	}
	congestionDelta := ev.Severity * region.WeatherSusceptibility * 0.5

	for _, lane := range e.world.Lanes() {
		if !inRegion[lane.StartCity] && !inRegion[lane.EndCity] {
			continue
		}
		ref := EntityRef{Kind: KindLane, ID: lane.ID}
		ev.Affected = append(ev.Affected, ref)

		ev.Effects = append(ev.Effects, AppliedEffect{
			Ref:      ref,
			Kind:     EffectCongestion,
			Original: lane.Congestion,
			Applied:  congestionDelta,
		})
		e.world.SetLaneCongestion(lane.ID, lane.Congestion+congestionDelta)

		ev.Effects = append(ev.Effects, AppliedEffect{
			Ref:      ref,
			Kind:     EffectRisk,
			Original: float64(lane.Risk),
			Applied:  float64(riskSteps),
		})
		e.world.SetLaneRisk(lane.ID, lane.Risk+worldmap.RiskLevel(riskSteps))
	}
}

// applyCarrier drops a random carrier's reputation.
func (e *Engine) applyCarrier(ev *Event) {
	roster := e.carriers.Carriers()
	if len(roster) == 0 {
		return
	}
	carrier := roster[e.rand.Intn(len(roster))]
	ref := EntityRef{Kind: KindCarrier, ID: carrier.ID}
	ev.Affected = append(ev.Affected, ref)
	ev.Effects = append(ev.Effects, AppliedEffect{
		Ref:      ref,
		Kind:     EffectReputation,
		Original: carrier.Reputation,
		Applied:  -ev.Severity * 15,
	})
	e.carriers.SetReputation(carrier.ID, carrier.Reputation-ev.Severity*15)
}

// applyRegulatory restricts a random cargo type on a random lane.
func (e *Engine) applyRegulatory(ev *Event) {
	lanes := e.world.Lanes()
	items := e.prices.Items()
	if len(lanes) == 0 || len(items) == 0 {
		return
	}
	lane := lanes[e.rand.Intn(len(lanes))]
	cargo := items[e.rand.Intn(len(items))]
	if lane.Restrictions[cargo] {
		return // already restricted; nothing to record
	}
	ref := EntityRef{Kind: KindLane, ID: lane.ID}
	ev.Affected = append(ev.Affected, ref)
	ev.Effects = append(ev.Effects, AppliedEffect{
		Ref:   ref,
		Kind:  EffectRestriction,
		Cargo: cargo,
	})
	e.world.SetRestriction(lane.ID, cargo, true)
}

// applyCustomer drops a random customer's trust.
func (e *Engine) applyCustomer(ev *Event) {
	custs := e.contracts.Customers()
	if len(custs) == 0 {
		return
	}
	cust := custs[e.rand.Intn(len(custs))]
	ref := EntityRef{Kind: KindCustomer, ID: cust.ID}
	ev.Affected = append(ev.Affected, ref)
	ev.Effects = append(ev.Effects, AppliedEffect{
		Ref:      ref,
		Kind:     EffectTrust,
		Original: cust.Trust,
		Applied:  -ev.Severity * 20,
	})
	e.contracts.SetTrust(cust.ID, cust.Trust-ev.Severity*20)
}

// applyCriminal debits the player for stolen cargo. Reversal refunds the
// recovered goods.
func (e *Engine) applyCriminal(ev *Event, now float64) {
	amount := ev.Severity * 5000
	ref := EntityRef{Kind: KindPlayer, ID: "player"}
	ev.Affected = append(ev.Affected, ref)
	ev.Effects = append(ev.Effects, AppliedEffect{
		Ref:     ref,
		Kind:    EffectBalance,
		Applied: -amount,
	})
	e.ledger.AdjustBalance(-amount, "cargo theft", now)
}

// revertEffects restores every recorded effect from its original-value
// snapshot, exactly once per event (callers guard via IsActive).
func (e *Engine) revertEffects(ev *Event, now float64) {
	for _, fx := range ev.Effects {
		switch fx.Kind {
		case EffectModifier:
			e.prices.RemoveModifier(fx.ModifierID)
		case EffectCongestion:
			e.world.SetLaneCongestion(fx.Ref.ID, fx.Original)
		case EffectRisk:
			e.world.SetLaneRisk(fx.Ref.ID, worldmap.RiskLevel(int(fx.Original)))
		case EffectRestriction:
			e.world.SetRestriction(fx.Ref.ID, fx.Cargo, false)
		case EffectTrust:
			e.contracts.SetTrust(fx.Ref.ID, fx.Original)
		case EffectReputation:
			e.carriers.SetReputation(fx.Ref.ID, fx.Original)
		case EffectBalance:
			e.ledger.AdjustBalance(-fx.Applied, "stolen cargo recovered", now)
		default:
			slog.Warn("unknown effect kind during cleanup", "kind", fx.Kind)
		}
	}
}
