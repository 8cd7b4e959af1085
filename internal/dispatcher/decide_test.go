package dispatcher

import "testing"

func baseSnapshot() *Snapshot {
	return &Snapshot{
		Status: Status{Balance: 60000},
		Lanes: []Lane{
			{ID: "lane_cheap", Status: "available", BaseCost: 10000},
			{ID: "lane_dear", Status: "available", BaseCost: 40000},
		},
	}
}

func actions(cmds []Command) map[string]int {
	out := make(map[string]int)
	for _, c := range cmds {
		out[c.Action]++
	}
	return out
}

func TestDecideBuysCheapestLaneFirst(t *testing.T) {
	cmds := Decide(baseSnapshot())
	if len(cmds) != 1 || cmds[0].Action != "purchase_lane" {
		t.Fatalf("cmds = %+v, want single purchase", cmds)
	}
	if cmds[0].LaneID != "lane_cheap" {
		t.Fatalf("bought %s, want the cheapest lane", cmds[0].LaneID)
	}
}

func TestDecideRespectsCashReserve(t *testing.T) {
	snap := baseSnapshot()
	snap.Status.Balance = 15000 // budget 5000, cheapest lane costs 10000
	if cmds := Decide(snap); len(cmds) != 0 {
		t.Fatalf("cmds = %+v, want none below reserve", cmds)
	}
}

func TestDecideResolvesEventsEvenWithoutLanes(t *testing.T) {
	snap := baseSnapshot()
	snap.Status.Balance = 0
	snap.Events = []Event{
		{ID: "ev_1", Type: "weather", IsActive: true},
		{ID: "ev_2", Type: "unknown_type", IsActive: true},
	}
	cmds := Decide(snap)
	if len(cmds) != 1 || cmds[0].Action != "resolve_event" {
		t.Fatalf("cmds = %+v, want one resolve_event", cmds)
	}
	if cmds[0].EventID != "ev_1" || cmds[0].Response != "reroute" {
		t.Fatalf("resolve = %+v, want reroute on ev_1", cmds[0])
	}
}

func TestDecideAcceptsAffordablePendingContracts(t *testing.T) {
	snap := baseSnapshot()
	snap.Lanes[0].Status = "owned"
	snap.Contracts.Customer = []CustomerContract{
		{ID: "cc_1", Status: "pending", UpfrontCost: 5000},
		{ID: "cc_2", Status: "pending", UpfrontCost: 500000},
	}
	cmds := Decide(snap)
	if got := actions(cmds)["accept_contract"]; got != 1 {
		t.Fatalf("accept_contract count = %d, want 1: %+v", got, cmds)
	}
	if cmds[0].ContractID != "cc_1" {
		t.Fatalf("accepted %s, want the affordable contract", cmds[0].ContractID)
	}
}

func TestDecideRequestsOfferForUncoveredContract(t *testing.T) {
	snap := baseSnapshot()
	snap.Lanes[0].Status = "owned"
	snap.Contracts.Customer = []CustomerContract{
		{ID: "cc_1", Status: "active", CargoType: "STEEL"},
	}
	cmds := Decide(snap)
	if len(cmds) != 1 || cmds[0].Action != "request_offer" {
		t.Fatalf("cmds = %+v, want one request_offer", cmds)
	}
	if cmds[0].LaneID != "lane_cheap" || cmds[0].ContractID != "cc_1" {
		t.Fatalf("request = %+v", cmds[0])
	}
}

func TestDecideSkipsCoveredAndRestrictedContracts(t *testing.T) {
	snap := baseSnapshot()
	snap.Lanes[0].Status = "owned"
	snap.Lanes[0].Restrictions = map[string]bool{"FUEL": true}
	snap.Contracts.Customer = []CustomerContract{
		{ID: "cc_covered", Status: "active", CargoType: "STEEL"},
		{ID: "cc_fuel", Status: "active", CargoType: "FUEL"},
	}
	snap.Contracts.Carrier = []CarrierContract{
		{ID: "hire_1", Status: "active", CustomerContractID: "cc_covered"},
	}
	if cmds := Decide(snap); len(cmds) != 0 {
		t.Fatalf("cmds = %+v, want none", cmds)
	}
}

func TestDecideAcceptsMatchingOffer(t *testing.T) {
	snap := baseSnapshot()
	snap.Lanes[0].Status = "assigned" // no idle lane, so no new request
	snap.Contracts.Customer = []CustomerContract{
		{ID: "cc_1", Status: "active", CargoType: "STEEL"},
	}
	snap.Offers = []Offer{
		{ID: "offer_1", CargoType: "STEEL", Price: 20000},
	}
	cmds := Decide(snap)
	if len(cmds) != 1 || cmds[0].Action != "accept_offer" {
		t.Fatalf("cmds = %+v, want one accept_offer", cmds)
	}
	if cmds[0].OfferID != "offer_1" || cmds[0].ContractID != "cc_1" {
		t.Fatalf("accept = %+v", cmds[0])
	}
}

func TestDecideSkipsUnmatchedOrUnaffordableOffers(t *testing.T) {
	snap := baseSnapshot()
	snap.Lanes[0].Status = "assigned"
	snap.Contracts.Customer = []CustomerContract{
		{ID: "cc_1", Status: "active", CargoType: "STEEL"},
	}
	snap.Offers = []Offer{
		{ID: "offer_fuel", CargoType: "FUEL", Price: 100},
		{ID: "offer_dear", CargoType: "STEEL", Price: 1e9},
	}
	if cmds := Decide(snap); len(cmds) != 0 {
		t.Fatalf("cmds = %+v, want none", cmds)
	}
}
