package sim

import (
	"github.com/talgya/freightline/internal/carriers"
	"github.com/talgya/freightline/internal/contracts"
	"github.com/talgya/freightline/internal/worldmap"
)

// CommandResult is the outcome of a collaborator command. Expected-failure
// paths (insufficient funds, bad preconditions) return a reason, never panic.
type CommandResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func cmdOK() CommandResult                { return CommandResult{OK: true} }
func cmdFail(reason string) CommandResult { return CommandResult{Reason: reason} }

func fromMap(r worldmap.Result) CommandResult {
	return CommandResult{OK: r.OK, Reason: r.Reason}
}

// PurchaseLane buys a lane if the balance covers its base cost.
func (s *Simulation) PurchaseLane(laneID string) CommandResult {
	lane := s.World.Lane(laneID)
	if lane == nil {
		return cmdFail("lane not found")
	}
	if !s.Ledger.CanAfford(lane.BaseCost) {
		return cmdFail("insufficient funds")
	}
	if r := s.World.PurchaseLane(laneID); !r.OK {
		return fromMap(r)
	}
	s.Ledger.AdjustBalance(-lane.BaseCost, "lane purchase", s.Clock.Now())
	return cmdOK()
}

// SellLane sells an owned, unassigned lane at a 30% discount.
func (s *Simulation) SellLane(laneID string) CommandResult {
	lane := s.World.Lane(laneID)
	if lane == nil {
		return cmdFail("lane not found")
	}
	if r := s.World.SellLane(laneID); !r.OK {
		return fromMap(r)
	}
	s.Ledger.AdjustBalance(lane.BaseCost*0.7, "lane sale", s.Clock.Now())
	return cmdOK()
}

// UpgradeLane applies a one-time lane upgrade, debiting its cost.
func (s *Simulation) UpgradeLane(laneID, upgradeType string) CommandResult {
	cost, r := s.World.UpgradeCost(laneID, upgradeType)
	if !r.OK {
		return fromMap(r)
	}
	if !s.Ledger.CanAfford(cost) {
		return cmdFail("insufficient funds")
	}
	if r := s.World.ApplyLaneUpgrade(laneID, upgradeType); !r.OK {
		return fromMap(r)
	}
	s.Ledger.AdjustBalance(-cost, "lane upgrade: "+upgradeType, s.Clock.Now())
	return cmdOK()
}

// AcceptContract accepts a pending customer contract.
func (s *Simulation) AcceptContract(contractID string) CommandResult {
	r := s.Contracts.Accept(contractID, s.Clock.Now())
	return CommandResult{OK: r.OK, Reason: r.Reason}
}

// RequestOffer asks the carrier market for a quote to fulfill a customer
// contract over a lane.
func (s *Simulation) RequestOffer(laneID, contractID string) (*carriers.Offer, CommandResult) {
	cc := s.Contracts.Contract(contractID)
	if cc == nil {
		return nil, cmdFail("contract not found")
	}
	if cc.Status != contracts.StatusActive {
		return nil, cmdFail("contract not active")
	}
	offer, r := s.Carriers.GenerateOffer(laneID, cc.CargoType, cc.Amount, cc.Deadline, s.Clock.Now())
	return offer, CommandResult{OK: r.OK, Reason: r.Reason}
}

// AcceptOffer hires the carrier: assigns it to the lane and opens the
// carrier contract. Lane assignment and hire succeed or fail together.
func (s *Simulation) AcceptOffer(offerID, customerContractID string) (*carriers.Contract, CommandResult) {
	offer := s.Carriers.Offer(offerID)
	if offer == nil {
		return nil, cmdFail("offer not found")
	}
	if r := s.World.AssignCarrier(offer.LaneID, offer.CarrierID); !r.OK {
		return nil, fromMap(r)
	}
	contract, r := s.Carriers.AcceptOffer(offerID, customerContractID, s.Clock.Now())
	if !r.OK {
		s.World.UnassignCarrier(offer.LaneID)
		return nil, CommandResult{OK: false, Reason: r.Reason}
	}
	return contract, cmdOK()
}

// RejectOffer discards a carrier offer.
func (s *Simulation) RejectOffer(offerID string) CommandResult {
	r := s.Carriers.RejectOffer(offerID)
	return CommandResult{OK: r.OK, Reason: r.Reason}
}

// NegotiateOffer sends a counter-price to the offering carrier.
func (s *Simulation) NegotiateOffer(offerID string, counterPrice float64) (carriers.NegotiationOutcome, CommandResult) {
	outcome, r := s.Carriers.NegotiateOffer(offerID, counterPrice, s.Clock.Now())
	return outcome, CommandResult{OK: r.OK, Reason: r.Reason}
}

// ResolveEvent responds to an active world event.
func (s *Simulation) ResolveEvent(eventID, response string) CommandResult {
	_, r := s.Events.Resolve(eventID, response, s.Clock.Now())
	return CommandResult{OK: r.OK, Reason: r.Reason}
}

// BlockRegionLanes blocks all lanes in the given regions, notifying any
// disrupted carriers in the same call.
func (s *Simulation) BlockRegionLanes(regionIDs []string, durationDays int) CommandResult {
	disrupted := s.World.BlockLanes(regionIDs, durationDays)
	now := s.Clock.Now()
	for _, carrierID := range disrupted {
		s.Carriers.NotifyDisruption(carrierID, now)
	}
	return cmdOK()
}

// SetSpeed adjusts the time scale.
func (s *Simulation) SetSpeed(scale float64) CommandResult {
	if scale <= 0 {
		return cmdFail("scale must be positive")
	}
	s.Clock.SetScale(scale)
	return cmdOK()
}

// SetDebugMode toggles debug mode.
func (s *Simulation) SetDebugMode(on bool) CommandResult {
	s.DebugMode = on
	return cmdOK()
}
