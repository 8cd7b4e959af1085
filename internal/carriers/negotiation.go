package carriers

// NegotiationOutcome is the carrier's reply to a counter-offer.
type NegotiationOutcome struct {
	Accepted bool `json:"accepted"`
	Rejected bool `json:"rejected"`
	// Price is the agreed price when accepted, or the carrier's counter
	// proposal when neither accepted nor rejected.
	Price  float64 `json:"price"`
	Reason string  `json:"reason,omitempty"`
}

// negotiation thresholds: base 0.85, adjusted per style.
const (
	thresholdFirm       = 0.95
	thresholdFlexible   = 0.80
	thresholdAggressive = 0.98
	thresholdFair       = 0.85
	maxRepConcession    = 0.10
	neutralReputation   = 50.0
)

// styleThreshold returns the accept threshold for a style.
func styleThreshold(style Style) float64 {
	switch style {
	case StyleFirm:
		return thresholdFirm
	case StyleFlexible:
		return thresholdFlexible
	case StyleAggressive:
		return thresholdAggressive
	default:
		return thresholdFair
	}
}

// NegotiateOffer runs one round of the counter-offer protocol. The carrier
// accepts any counter at or above original×threshold, where the threshold is
// reduced by up to 0.10 for high player reputation. Below threshold the
// response depends on style: firm rejects, flexible proposes the midpoint,
// aggressive counters 5% above the original, fair proposes 95% of the
// original but at least 10% over the counter.
func (e *Engine) NegotiateOffer(offerID string, counterPrice, now float64) (NegotiationOutcome, Result) {
	offer, found := e.offers[offerID]
	if !found {
		return NegotiationOutcome{}, fail("offer not found")
	}
	if now > offer.Expiration {
		delete(e.offers, offerID)
		return NegotiationOutcome{}, fail("offer expired")
	}
	carrier := e.carriers[offer.CarrierID]
	if carrier == nil {
		return NegotiationOutcome{}, fail("carrier not found")
	}

	threshold := styleThreshold(carrier.Style)
	// Reputation above the neutral 50 earns a concession, up to 0.10 at 100.
	if rep := e.ledger.Reputation("global"); rep > neutralReputation {
		threshold -= (rep - neutralReputation) / (100 - neutralReputation) * maxRepConcession
	}

	if counterPrice >= offer.Price*threshold {
		offer.Price = counterPrice
		return NegotiationOutcome{Accepted: true, Price: counterPrice}, ok()
	}

	switch carrier.Style {
	case StyleFirm:
		delete(e.offers, offerID)
		return NegotiationOutcome{Rejected: true, Reason: "carrier will not move on price"}, ok()
	case StyleFlexible:
		counter := (offer.Price + counterPrice) / 2
		offer.Price = counter
		return NegotiationOutcome{Price: counter}, ok()
	case StyleAggressive:
		counter := offer.Price * 1.05
		offer.Price = counter
		return NegotiationOutcome{Price: counter}, ok()
	default: // fair
		counter := offer.Price * 0.95
		if floor := counterPrice * 1.10; counter < floor {
			counter = floor
		}
		offer.Price = counter
		return NegotiationOutcome{Price: counter}, ok()
	}
}
