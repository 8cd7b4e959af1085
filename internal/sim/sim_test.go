package sim

import (
	"math"
	"testing"

	"github.com/talgya/freightline/internal/carriers"
	"github.com/talgya/freightline/internal/contracts"
	"github.com/talgya/freightline/internal/notify"
	"github.com/talgya/freightline/internal/worldmap"
)

// newTestSim builds a simulation with a minimal seeded world: one commodity,
// one region with a single short lane (cost 10000, maintenance 500/day), one
// specialist carrier, one customer.
func newTestSim(balance float64) *Simulation {
	s := New(Config{Seed: 11, TimeScale: 1, StartingBalance: balance})
	s.Prices.AddItem("STEEL", "Steel", "industrial", 1000)
	s.World.AddRegion(&worldmap.Region{ID: "north"})
	s.World.AddCity(&worldmap.City{ID: "a", RegionID: "north"})
	s.World.AddCity(&worldmap.City{ID: "b", RegionID: "north"})
	s.World.AddLane("ab", "a", "b", 100)
	s.Carriers.AddCarrier(&carriers.Carrier{
		ID:             "carrier_1",
		Name:           "Ironline Haulage",
		Reputation:     50,
		FleetSize:      2,
		Reliability:    0.7,
		SpeedFactor:    1.0,
		PricingFactor:  1.0,
		Style:          carriers.StyleFlexible,
		PreferredCargo: map[string]bool{"STEEL": true},
	})
	s.Contracts.AddCustomer(&contracts.Customer{
		ID:    "cust_1",
		Name:  "Northern Mills",
		Trust: 60,
		Needs: map[string]float64{"STEEL": 1},
	})
	return s
}

func TestPurchaseAndSellLane(t *testing.T) {
	s := newTestSim(50000)

	if res := s.PurchaseLane("ab"); !res.OK {
		t.Fatalf("purchase failed: %s", res.Reason)
	}
	if got := s.Ledger.Balance(); math.Abs(got-40000) > 1e-9 {
		t.Fatalf("balance = %v, want 40000", got)
	}
	if s.World.Lane("ab").Status != worldmap.LaneOwned {
		t.Fatal("lane not owned after purchase")
	}

	if res := s.SellLane("ab"); !res.OK {
		t.Fatalf("sell failed: %s", res.Reason)
	}
	// 30% haircut on the 10000 base cost
	if got := s.Ledger.Balance(); math.Abs(got-47000) > 1e-9 {
		t.Fatalf("balance = %v, want 47000", got)
	}
	if s.World.Lane("ab").Status != worldmap.LaneAvailable {
		t.Fatal("lane not released after sale")
	}
}

func TestPurchaseLaneInsufficientFunds(t *testing.T) {
	s := newTestSim(5000)
	if res := s.PurchaseLane("ab"); res.OK {
		t.Fatal("bought a 10000 lane on a 5000 balance")
	}
	if s.World.Lane("ab").Status != worldmap.LaneAvailable {
		t.Fatal("failed purchase changed lane state")
	}
}

func TestUpgradeLaneDebitsCost(t *testing.T) {
	s := newTestSim(50000)
	s.PurchaseLane("ab")

	if res := s.UpgradeLane("ab", "paving"); !res.OK {
		t.Fatalf("upgrade failed: %s", res.Reason)
	}
	// paving costs 30% of the 10000 base cost
	if got := s.Ledger.Balance(); math.Abs(got-37000) > 1e-9 {
		t.Fatalf("balance = %v, want 37000", got)
	}
}

func TestDeliveryPipeline(t *testing.T) {
	s := newTestSim(1e9)

	cc, genRes := s.Contracts.GenerateContract("cust_1", 0)
	if !genRes.OK {
		t.Fatalf("generate contract: %s", genRes.Reason)
	}
	if res := s.AcceptContract(cc.ID); !res.OK {
		t.Fatalf("accept contract: %s", res.Reason)
	}
	if res := s.PurchaseLane("ab"); !res.OK {
		t.Fatalf("purchase lane: %s", res.Reason)
	}

	offer, offerRes := s.RequestOffer("ab", cc.ID)
	if !offerRes.OK {
		t.Fatalf("request offer: %s", offerRes.Reason)
	}
	hauled, hireRes := s.AcceptOffer(offer.ID, cc.ID)
	if !hireRes.OK {
		t.Fatalf("accept offer: %s", hireRes.Reason)
	}
	if s.World.Lane("ab").Status != worldmap.LaneAssigned {
		t.Fatal("lane not assigned after hiring")
	}

	s.Step(hauled.ExpectedCompletion - s.Clock.Now() + 10)

	if hauled.Status == carriers.ContractActive {
		t.Fatal("delivery not resolved")
	}
	if s.World.Lane("ab").Status != worldmap.LaneOwned {
		t.Fatal("lane not freed after delivery")
	}
	if cc.Status == contracts.StatusActive {
		t.Fatal("customer contract not settled with the delivery")
	}
	if hauled.Status == carriers.ContractCompleted && cc.Status != contracts.StatusCompleted {
		t.Fatalf("successful delivery left customer contract %s", cc.Status)
	}
	if hauled.Status == carriers.ContractFailed && cc.Status != contracts.StatusFailed {
		t.Fatalf("failed delivery left customer contract %s", cc.Status)
	}
}

func TestAcceptOfferRollsBackAssignment(t *testing.T) {
	s := newTestSim(10000)
	s.PurchaseLane("ab") // balance now 0

	if _, res := s.RequestOffer("ab", "nope"); res.OK {
		t.Fatal("offer for unknown contract")
	}

	o, r := s.Carriers.GenerateOffer("ab", "STEEL", 20, 500, 0)
	if !r.OK {
		t.Fatalf("generate offer: %s", r.Reason)
	}
	if _, res := s.AcceptOffer(o.ID, ""); res.OK {
		t.Fatal("hired carrier with empty balance")
	}
	if s.World.Lane("ab").Status != worldmap.LaneOwned {
		t.Fatal("failed hire left lane assigned")
	}
}

func TestDailyCascade(t *testing.T) {
	s := newTestSim(100000)
	s.PurchaseLane("ab") // maintenance 500/day
	s.Ledger.TakeLoan(10000, 0.2, 10, 0)

	s.Step(600)

	if s.Clock.Day() != 1 {
		t.Fatalf("day = %d, want 1", s.Clock.Day())
	}
	// 100000 - 10000 purchase + 10000 loan - 500 maintenance - 1200 payment
	if got := s.Ledger.Balance(); math.Abs(got-98300) > 1e-9 {
		t.Fatalf("balance = %v, want 98300", got)
	}
	if s.Stats.Day != 1 || s.Stats.OwnedLanes != 1 {
		t.Fatalf("stats not refreshed: %+v", s.Stats)
	}
}

func TestDailyCascadeNotificationOrder(t *testing.T) {
	s := newTestSim(100000)
	s.PurchaseLane("ab")
	s.Queue.Drain()

	s.Step(600)

	batch := s.Queue.Drain()
	market, maintenance, day := -1, -1, -1
	for i, n := range batch {
		switch {
		case n.Kind == notify.MarketUpdated && market < 0:
			market = i
		case n.Kind == notify.BalanceChanged && n.Data["reason"] == "lane maintenance":
			maintenance = i
		case n.Kind == notify.DayChanged:
			day = i
		}
	}
	if market < 0 || maintenance < 0 || day < 0 {
		t.Fatalf("missing cascade notifications: market=%d maintenance=%d day=%d", market, maintenance, day)
	}
	if !(market < maintenance && maintenance < day) {
		t.Fatalf("cascade order broken: market=%d maintenance=%d day=%d", market, maintenance, day)
	}
	if batch[len(batch)-1].Kind != notify.DayChanged {
		t.Fatalf("last notification = %s, want day_changed", batch[len(batch)-1].Kind)
	}
}

func TestBlockRegionLanesDisruptsCarriers(t *testing.T) {
	s := newTestSim(50000)
	s.PurchaseLane("ab")
	s.World.AssignCarrier("ab", "carrier_1")
	s.Carriers.Carrier("carrier_1").BusyUntil = 500

	if res := s.BlockRegionLanes([]string{"north"}, 2); !res.OK {
		t.Fatal("block rejected")
	}
	if s.World.Lane("ab").Status != worldmap.LaneBlocked {
		t.Fatal("lane not blocked")
	}
	if got := s.Carriers.Carrier("carrier_1").BusyUntil; got != s.Clock.Now() {
		t.Fatalf("carrier busy until %v, want freed at %v", got, s.Clock.Now())
	}
}

func TestSetSpeedRejectsNonPositive(t *testing.T) {
	s := newTestSim(0)
	if res := s.SetSpeed(0); res.OK {
		t.Fatal("accepted zero scale")
	}
	if res := s.SetSpeed(4); !res.OK || s.Clock.Scale() != 4 {
		t.Fatal("valid scale rejected")
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestSim(50000)
	s.PurchaseLane("ab")
	s.Contracts.GenerateContract("cust_1", 0)
	s.Step(100)

	restored := New(Config{Seed: 11, TimeScale: 1, StartingBalance: 1})
	restored.FromSnapshot(s.ToSnapshot())

	if restored.Clock.Now() != s.Clock.Now() {
		t.Fatalf("clock = %v, want %v", restored.Clock.Now(), s.Clock.Now())
	}
	if restored.Ledger.Balance() != s.Ledger.Balance() {
		t.Fatalf("balance = %v, want %v", restored.Ledger.Balance(), s.Ledger.Balance())
	}
	lane := restored.World.Lane("ab")
	if lane == nil || lane.Status != worldmap.LaneOwned {
		t.Fatal("lane ownership lost in restore")
	}
	now := s.Clock.Now()
	if got, want := restored.Prices.Price("STEEL", now, ""), s.Prices.Price("STEEL", now, ""); got != want {
		t.Fatalf("price = %v, want %v", got, want)
	}
	if len(restored.Contracts.Contracts()) != len(s.Contracts.Contracts()) {
		t.Fatal("contracts lost in restore")
	}
	if restored.Stats.Day != s.Clock.Day() {
		t.Fatalf("stats day = %d, want %d", restored.Stats.Day, s.Clock.Day())
	}
}
