package dispatcher

import "log/slog"

// Command is one action to send to POST /api/v1/command.
type Command struct {
	Action     string  `json:"action"`
	LaneID     string  `json:"lane_id,omitempty"`
	ContractID string  `json:"contract_id,omitempty"`
	OfferID    string  `json:"offer_id,omitempty"`
	EventID    string  `json:"event_id,omitempty"`
	Response   string  `json:"response,omitempty"`
	Price      float64 `json:"price,omitempty"`
}

// eventResponses maps each event type to the autopilot's preferred response.
var eventResponses = map[string]string{
	"economic":   "hedge",
	"weather":    "reroute",
	"carrier":    "negotiate",
	"regulatory": "comply",
	"customer":   "apologize",
	"criminal":   "hire_security",
}

// cashReserve is kept on hand before discretionary spending.
const cashReserve = 10000

// Decide inspects a snapshot and returns the actions to take this cycle.
func Decide(snap *Snapshot) []Command {
	var cmds []Command
	budget := snap.Status.Balance - cashReserve

	// Respond to every active event.
	for _, ev := range snap.Events {
		resp, ok := eventResponses[ev.Type]
		if !ok {
			continue
		}
		cmds = append(cmds, Command{Action: "resolve_event", EventID: ev.ID, Response: resp})
	}

	// Own at least one lane before anything else.
	owned := ownedLanes(snap.Lanes)
	if len(owned) == 0 {
		if lane := cheapestAvailable(snap.Lanes); lane != nil && lane.BaseCost <= budget {
			cmds = append(cmds, Command{Action: "purchase_lane", LaneID: lane.ID})
			budget -= lane.BaseCost
		}
		return cmds
	}

	// Accept pending customer contracts we can afford.
	covered := coveredContracts(snap.Contracts.Carrier)
	for _, cc := range snap.Contracts.Customer {
		switch cc.Status {
		case "pending":
			if cc.UpfrontCost <= budget {
				cmds = append(cmds, Command{Action: "accept_contract", ContractID: cc.ID})
				budget -= cc.UpfrontCost
			}
		case "active":
			if covered[cc.ID] {
				continue
			}
			// Find an idle owned lane that permits the cargo.
			lane := idleLaneFor(owned, cc.CargoType)
			if lane == nil {
				continue
			}
			cmds = append(cmds, Command{Action: "request_offer", LaneID: lane.ID, ContractID: cc.ID})
		}
	}

	// Accept open offers for uncovered contracts if affordable. A missing
	// customer_contract_id means the offer was not requested by us; skip.
	for _, offer := range snap.Offers {
		ccID := offerContractID(snap, offer)
		if ccID == "" || offer.Price > budget {
			continue
		}
		cmds = append(cmds, Command{Action: "accept_offer", OfferID: offer.ID, ContractID: ccID})
		budget -= offer.Price
	}

	if len(cmds) > 0 {
		slog.Info("decided actions", "count", len(cmds), "budget_left", budget)
	}
	return cmds
}

func ownedLanes(lanes []Lane) []Lane {
	var out []Lane
	for _, l := range lanes {
		if l.Status == "owned" || l.Status == "assigned" {
			out = append(out, l)
		}
	}
	return out
}

func cheapestAvailable(lanes []Lane) *Lane {
	var best *Lane
	for i := range lanes {
		l := &lanes[i]
		if l.Status != "available" {
			continue
		}
		if best == nil || l.BaseCost < best.BaseCost {
			best = l
		}
	}
	return best
}

// coveredContracts returns customer contract ids that already have an active
// carrier hire.
func coveredContracts(hires []CarrierContract) map[string]bool {
	out := make(map[string]bool)
	for _, h := range hires {
		if h.Status == "active" && h.CustomerContractID != "" {
			out[h.CustomerContractID] = true
		}
	}
	return out
}

func idleLaneFor(owned []Lane, cargo string) *Lane {
	for i := range owned {
		l := &owned[i]
		if l.Status != "owned" || l.BlockedDaysLeft > 0 {
			continue
		}
		if l.Restrictions[cargo] {
			continue
		}
		return l
	}
	return nil
}

// offerContractID finds the active customer contract an offer's cargo serves.
func offerContractID(snap *Snapshot, offer Offer) string {
	covered := coveredContracts(snap.Contracts.Carrier)
	for _, cc := range snap.Contracts.Customer {
		if cc.Status == "active" && cc.CargoType == offer.CargoType && !covered[cc.ID] {
			return cc.ID
		}
	}
	return ""
}
