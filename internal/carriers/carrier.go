// Package carriers manages the carrier roster, offer generation, the
// negotiation protocol, and delivery outcome resolution.
package carriers

import (
	"github.com/talgya/freightline/internal/rng"
)

// Style is a carrier's fixed negotiation policy, assigned at creation.
type Style string

const (
	StyleFirm       Style = "firm"
	StyleFlexible   Style = "flexible"
	StyleAggressive Style = "aggressive"
	StyleFair       Style = "fair"
)

// styleWeights is the creation-time draw distribution.
var (
	styles       = []Style{StyleFirm, StyleFlexible, StyleAggressive, StyleFair}
	styleWeights = []float64{0.25, 0.25, 0.2, 0.3}
)

// trustedReputation is the reputation floor for the trusted flag.
const trustedReputation = 80.0

// RecentJob is one entry of a carrier's last-10 ring buffer.
type RecentJob struct {
	ContractID string  `json:"contract_id"`
	Success    bool    `json:"success"`
	OnTime     bool    `json:"on_time"`
	Quality    float64 `json:"quality"`
}

// History is a carrier's accumulated performance record.
type History struct {
	Completed  int         `json:"completed"`
	Failed     int         `json:"failed"`
	OnTime     int         `json:"on_time"`
	Late       int         `json:"late"`
	AvgQuality float64     `json:"avg_quality"` // rolling average over successes
	Recent     []RecentJob `json:"recent"`      // last 10 jobs
}

// record appends a job outcome, maintaining the ring and rolling average.
func (h *History) record(job RecentJob) {
	if job.Success {
		h.Completed++
		if job.OnTime {
			h.OnTime++
		} else {
			h.Late++
		}
		// Incremental rolling average over completed jobs.
		h.AvgQuality += (job.Quality - h.AvgQuality) / float64(h.Completed)
	} else {
		h.Failed++
	}
	h.Recent = append(h.Recent, job)
	if len(h.Recent) > 10 {
		h.Recent = h.Recent[len(h.Recent)-10:]
	}
}

// Carrier is a freight carrier available for lane assignments.
type Carrier struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Reputation      float64         `json:"reputation"` // [0,100]
	FleetSize       int             `json:"fleet_size"` // concurrent-job cap
	Reliability     float64         `json:"reliability"`
	SpeedFactor     float64         `json:"speed_factor"`
	BusyUntil       float64         `json:"busy_until"`
	Blacklisted     bool            `json:"blacklisted"`
	Trusted         bool            `json:"trusted"`
	PreferredCargo  map[string]bool `json:"preferred_cargo"`
	RiskTolerance   float64         `json:"risk_tolerance"`
	PricingFactor   float64         `json:"pricing_factor"`
	Style           Style           `json:"style"`
	FailureChance   float64         `json:"failure_chance"`
	ActiveContracts []string        `json:"active_contracts"`
	History         History         `json:"history"`
}

// recompute re-derives reliability, failure chance, and the trusted flag
// from accumulated history. Called after every status update.
func (c *Carrier) recompute() {
	total := c.History.Completed + c.History.Failed
	if total > 0 {
		successRate := float64(c.History.Completed) / float64(total)
		onTimeRate := 1.0
		if done := c.History.OnTime + c.History.Late; done > 0 {
			onTimeRate = float64(c.History.OnTime) / float64(done)
		}
		c.Reliability = 0.6*successRate + 0.4*onTimeRate
	}
	c.FailureChance = 0.3 - c.Reliability*0.25
	if c.FailureChance < 0.01 {
		c.FailureChance = 0.01
	}
	c.Trusted = c.Reputation >= trustedReputation
}

// adjustReputation applies a clamped reputation delta and re-derives flags.
func (c *Carrier) adjustReputation(delta float64) {
	c.Reputation += delta
	if c.Reputation < 0 {
		c.Reputation = 0
	}
	if c.Reputation > 100 {
		c.Reputation = 100
	}
	c.recompute()
}

func (c *Carrier) removeActive(contractID string) {
	for i, id := range c.ActiveContracts {
		if id == contractID {
			c.ActiveContracts = append(c.ActiveContracts[:i], c.ActiveContracts[i+1:]...)
			return
		}
	}
}

// hasFakeCredentials runs the deterministic credential check for a carrier
// id. Uses a locally-scoped generator so the shared simulation PRNG is never
// touched.
func hasFakeCredentials(id string) bool {
	return rng.Scoped("credentials:"+id).Float64() < 0.02
}
