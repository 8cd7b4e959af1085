// Package contracts manages customers and customer contract lifecycles:
// generation, acceptance, fulfillment, expiration, and trust feedback.
package contracts

// Tier is a customer trust bracket.
type Tier int

const (
	TierBasic Tier = iota
	TierStandard
	TierPreferred
	TierPremium
)

// Trust thresholds for tier brackets.
const (
	standardTrust  = 40
	preferredTrust = 70
	premiumTrust   = 90
	blacklistTrust = 10
)

// TierForTrust maps a trust value to its tier.
func TierForTrust(trust float64) Tier {
	switch {
	case trust >= premiumTrust:
		return TierPremium
	case trust >= preferredTrust:
		return TierPreferred
	case trust >= standardTrust:
		return TierStandard
	default:
		return TierBasic
	}
}

// Multiplier returns the contract value multiplier for a tier.
func (t Tier) Multiplier() float64 {
	switch t {
	case TierPremium:
		return 1.5
	case TierPreferred:
		return 1.2
	case TierStandard:
		return 1.0
	default:
		return 0.8
	}
}

// Difficulty returns the contract difficulty for a tier, in [0.33, 1.0].
func (t Tier) Difficulty() float64 {
	switch t {
	case TierPremium:
		return 1.0
	case TierPreferred:
		return 0.78
	case TierStandard:
		return 0.55
	default:
		return 0.33
	}
}

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierPremium:
		return "premium"
	case TierPreferred:
		return "preferred"
	case TierStandard:
		return "standard"
	default:
		return "basic"
	}
}

// Customer is a freight customer. Blacklisting is recomputed live from trust
// after every mutation, never sticky.
type Customer struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Trust           float64            `json:"trust"` // [0,100]
	Needs           map[string]float64 `json:"needs"` // commodity → demand weight
	ActiveContracts []string           `json:"active_contracts"`
	Blacklisted     bool               `json:"blacklisted"`
	CooldownUntil   float64            `json:"cooldown_until"`
	Offered         int                `json:"offered"`
	Succeeded       int                `json:"succeeded"`
	Failed          int                `json:"failed"`
}

// TierLevel returns the customer's current tier.
func (c *Customer) TierLevel() Tier { return TierForTrust(c.Trust) }

// adjustTrust applies a clamped trust delta and recomputes the blacklist flag.
func (c *Customer) adjustTrust(delta float64) {
	c.Trust += delta
	if c.Trust < 0 {
		c.Trust = 0
	}
	if c.Trust > 100 {
		c.Trust = 100
	}
	c.Blacklisted = c.Trust <= blacklistTrust
}

// removeActive drops a contract id from the customer's active list.
func (c *Customer) removeActive(contractID string) {
	for i, id := range c.ActiveContracts {
		if id == contractID {
			c.ActiveContracts = append(c.ActiveContracts[:i], c.ActiveContracts[i+1:]...)
			return
		}
	}
}
