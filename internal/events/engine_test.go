package events

import (
	"math"
	"testing"

	"github.com/talgya/freightline/internal/carriers"
	"github.com/talgya/freightline/internal/contracts"
	"github.com/talgya/freightline/internal/economy"
	"github.com/talgya/freightline/internal/notify"
	"github.com/talgya/freightline/internal/player"
	"github.com/talgya/freightline/internal/rng"
	"github.com/talgya/freightline/internal/worldmap"
)

// fixture wires a minimal world: one commodity, one region with one lane,
// one carrier, one customer. Single-entity pools make the engine's random
// target picks deterministic.
type fixture struct {
	eng       *Engine
	prices    *economy.Engine
	world     *worldmap.Map
	carriers  *carriers.Engine
	contracts *contracts.Engine
	ledger    *player.Ledger
}

func newFixture(balance float64) *fixture {
	rand := rng.New(7)
	queue := notify.NewQueue(0)
	prices := economy.New(rand, queue)
	prices.AddItem("STEEL", "Steel", "industrial", 1000)

	world := worldmap.New(rand, queue)
	world.AddRegion(&worldmap.Region{ID: "north", WeatherSusceptibility: 1.0})
	world.AddCity(&worldmap.City{ID: "a", RegionID: "north"})
	world.AddCity(&worldmap.City{ID: "b", RegionID: "north"})
	world.AddLane("ab", "a", "b", 1000)
	world.SetLaneCongestion("ab", 0.2)

	ledger := player.New(balance, queue)
	carrierEng := carriers.New(prices, world, ledger, rand, queue)
	carrierEng.AddCarrier(&carriers.Carrier{ID: "carrier_1", Name: "Ironline", Reputation: 60, FleetSize: 2, Reliability: 0.7})
	contractEng := contracts.New(prices, ledger, rand, queue)
	contractEng.AddCustomer(&contracts.Customer{ID: "cust_1", Name: "Northern Mills", Trust: 60, Needs: map[string]float64{"STEEL": 1}})

	return &fixture{
		eng:       New(prices, world, carrierEng, contractEng, ledger, rand, queue),
		prices:    prices,
		world:     world,
		carriers:  carrierEng,
		contracts: contractEng,
		ledger:    ledger,
	}
}

func TestEconomicEventSpikesAndRevertsPrice(t *testing.T) {
	f := newFixture(0)

	ev, res := f.eng.CreateEvent(TypeEconomic, 0.5, 0)
	if !res.OK {
		t.Fatalf("create failed: %s", res.Reason)
	}
	if got := f.prices.Price("STEEL", 0, ""); math.Abs(got-1500) > 1e-9 {
		t.Fatalf("spiked price = %v, want 1500", got)
	}

	outcome, res := f.eng.Resolve(ev.ID, "hedge", 10)
	if !res.OK || outcome != OutcomeMitigated {
		t.Fatalf("resolve = %v (%v), want mitigated", outcome, res)
	}
	if ev.IsActive {
		t.Fatal("event still active after resolution")
	}
	if got := f.prices.Price("STEEL", 10, ""); math.Abs(got-1000) > 1e-9 {
		t.Fatalf("price after revert = %v, want 1000", got)
	}
}

func TestEconomicNegativeOutcomeKeepsModifier(t *testing.T) {
	f := newFixture(0)
	ev, _ := f.eng.CreateEvent(TypeEconomic, 0.5, 0)

	outcome, _ := f.eng.Resolve(ev.ID, "wait", 10)
	if outcome != OutcomeResolvedNegatively {
		t.Fatalf("outcome = %v", outcome)
	}
	if got := f.prices.Price("STEEL", 10, ""); math.Abs(got-1500) > 1e-9 {
		t.Fatalf("price = %v, want spike to persist", got)
	}
}

func TestWeatherEventRaisesAndRestoresLane(t *testing.T) {
	f := newFixture(0)
	lane := f.world.Lane("ab")

	ev, _ := f.eng.CreateEvent(TypeWeather, 0.8, 0)

	// severity 0.8 × susceptibility 1.0 × 0.5 on top of the 0.2 baseline,
	// and two risk steps above severity 0.7.
	if math.Abs(lane.Congestion-0.6) > 1e-9 {
		t.Fatalf("congestion = %v, want 0.6", lane.Congestion)
	}
	if lane.Risk != worldmap.RiskLevel(2) {
		t.Fatalf("risk = %v, want 2", lane.Risk)
	}

	if outcome, _ := f.eng.Resolve(ev.ID, "reroute", 10); outcome != OutcomeMitigated {
		t.Fatalf("outcome = %v", outcome)
	}
	if math.Abs(lane.Congestion-0.2) > 1e-9 {
		t.Fatalf("congestion after revert = %v, want 0.2", lane.Congestion)
	}
	if lane.Risk != worldmap.RiskLow {
		t.Fatalf("risk after revert = %v, want low", lane.Risk)
	}
}

func TestRegulatoryRestrictionOutcomes(t *testing.T) {
	f := newFixture(0)
	lane := f.world.Lane("ab")

	ev, _ := f.eng.CreateEvent(TypeRegulatory, 0.5, 0)
	if !lane.Restrictions["STEEL"] {
		t.Fatal("restriction not applied")
	}

	// comply → enforced, the restriction becomes permanent
	if outcome, _ := f.eng.Resolve(ev.ID, "comply", 10); outcome != OutcomeEnforced {
		t.Fatalf("outcome = %v", outcome)
	}
	if !lane.Restrictions["STEEL"] {
		t.Fatal("enforced restriction was lifted")
	}

	ev2, _ := f.eng.CreateEvent(TypeRegulatory, 0.5, 20)
	// already restricted → nothing recorded, appeal still resolves cleanly
	if outcome, _ := f.eng.Resolve(ev2.ID, "appeal", 30); outcome != OutcomeResolved {
		t.Fatalf("outcome = %v", outcome)
	}
}

func TestCustomerDisputeTrustRestored(t *testing.T) {
	f := newFixture(0)
	cust := f.contracts.Customer("cust_1")

	ev, _ := f.eng.CreateEvent(TypeCustomer, 0.5, 0)
	if math.Abs(cust.Trust-50) > 1e-9 {
		t.Fatalf("trust during dispute = %v, want 50", cust.Trust)
	}

	if outcome, _ := f.eng.Resolve(ev.ID, "compensate", 10); outcome != OutcomeResolved {
		t.Fatalf("outcome = %v", outcome)
	}
	if math.Abs(cust.Trust-60) > 1e-9 {
		t.Fatalf("trust after revert = %v, want 60", cust.Trust)
	}
}

func TestCriminalTheftDebitsAndRefunds(t *testing.T) {
	f := newFixture(10000)

	ev, _ := f.eng.CreateEvent(TypeCriminal, 0.4, 0)
	if got := f.ledger.Balance(); math.Abs(got-8000) > 1e-9 {
		t.Fatalf("balance after theft = %v, want 8000", got)
	}

	if outcome, _ := f.eng.Resolve(ev.ID, "investigate", 10); outcome != OutcomeResolved {
		t.Fatalf("outcome = %v", outcome)
	}
	if got := f.ledger.Balance(); math.Abs(got-10000) > 1e-9 {
		t.Fatalf("balance after recovery = %v, want 10000", got)
	}
}

func TestUnknownResponseLeavesEventOngoing(t *testing.T) {
	f := newFixture(0)
	ev, _ := f.eng.CreateEvent(TypeEconomic, 0.5, 0)

	outcome, res := f.eng.Resolve(ev.ID, "panic", 10)
	if !res.OK || outcome != OutcomeOngoing {
		t.Fatalf("unknown response: outcome = %v (%v)", outcome, res)
	}
	if !ev.IsActive {
		t.Fatal("event closed by unknown response")
	}
	if ev.PlayerResponse != "" {
		t.Fatal("unknown response recorded")
	}
}

func TestResolveTwiceRejected(t *testing.T) {
	f := newFixture(0)
	ev, _ := f.eng.CreateEvent(TypeEconomic, 0.5, 0)
	f.eng.Resolve(ev.ID, "hedge", 10)

	outcome, res := f.eng.Resolve(ev.ID, "subsidize", 20)
	if res.OK {
		t.Fatal("second resolve accepted")
	}
	if outcome != OutcomeMitigated {
		t.Fatalf("second resolve reported %v, want first outcome", outcome)
	}
}

func TestSweepAppliesDefaultOutcome(t *testing.T) {
	f := newFixture(0)
	cust := f.contracts.Customer("cust_1")
	ev, _ := f.eng.CreateEvent(TypeCustomer, 0.5, 0)

	f.eng.Sweep(ev.EndTime - 1)
	if !ev.IsActive {
		t.Fatal("swept before end time")
	}

	f.eng.Sweep(ev.EndTime)
	if ev.IsActive {
		t.Fatal("not swept at end time")
	}
	if ev.Outcome != OutcomeDissatisfied {
		t.Fatalf("outcome = %v, want default customer_dissatisfied", ev.Outcome)
	}
	// negative default: trust damage sticks
	if math.Abs(cust.Trust-50) > 1e-9 {
		t.Fatalf("trust = %v, want 50", cust.Trust)
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	f := newFixture(10000)
	ev, _ := f.eng.CreateEvent(TypeCriminal, 0.4, 0)

	if res := f.eng.Cleanup(ev.ID, 10); !res.OK {
		t.Fatalf("cleanup failed: %s", res.Reason)
	}
	if got := f.ledger.Balance(); math.Abs(got-10000) > 1e-9 {
		t.Fatalf("balance = %v, want full refund", got)
	}
	if res := f.eng.Cleanup(ev.ID, 20); !res.OK {
		t.Fatal("second cleanup rejected")
	}
	if got := f.ledger.Balance(); math.Abs(got-10000) > 1e-9 {
		t.Fatalf("balance = %v, refund applied twice", got)
	}
}

func TestCreateEventDurationSpread(t *testing.T) {
	f := newFixture(0)
	for i := 0; i < 20; i++ {
		ev, _ := f.eng.CreateEvent(TypeWeather, 0.5, 0)
		d := ev.EndTime - ev.StartTime
		if d < 1200*0.7 || d > 1200*1.3 {
			t.Fatalf("duration %v outside the 30%% spread of 1200", d)
		}
		f.eng.Resolve(ev.ID, "reroute", 1)
	}
}

func TestCreateEventUnknownType(t *testing.T) {
	f := newFixture(0)
	if _, res := f.eng.CreateEvent(Type("volcanic"), 0.5, 0); res.OK {
		t.Fatal("created event with no template")
	}
}

func TestUpdateSchedulesGeneration(t *testing.T) {
	f := newFixture(1e9)

	f.eng.Update(0) // arms the scheduler only
	if len(f.eng.Events()) != 0 {
		t.Fatal("event created on first tick")
	}
	f.eng.Update(300) // past any possible interval draw
	if len(f.eng.Events()) != 1 {
		t.Fatalf("events = %d, want exactly 1", len(f.eng.Events()))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	f := newFixture(0)
	ev, _ := f.eng.CreateEvent(TypeEconomic, 0.5, 0)

	restored := New(f.prices, f.world, f.carriers, f.contracts, f.ledger, rng.New(99), notify.NewQueue(0))
	restored.FromSnapshot(f.eng.ToSnapshot())

	rev := restored.Event(ev.ID)
	if rev == nil || !rev.IsActive || len(rev.Effects) != 1 {
		t.Fatalf("event not restored with effects: %+v", rev)
	}

	// response tables are regenerated, and the restored effect record still
	// reverts the shared economy state
	if outcome, res := restored.Resolve(ev.ID, "subsidize", 10); !res.OK || outcome != OutcomeResolved {
		t.Fatalf("resolve after restore = %v (%v)", outcome, res)
	}
	if got := f.prices.Price("STEEL", 10, ""); math.Abs(got-1000) > 1e-9 {
		t.Fatalf("price after restored revert = %v, want 1000", got)
	}
}
