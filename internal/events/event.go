// Package events generates scheduled and random world events, applies their
// effects with original-value snapshots, and reverses them on cleanup.
package events

// Type classifies a world event.
type Type string

const (
	TypeEconomic   Type = "economic"
	TypeWeather    Type = "weather"
	TypeCarrier    Type = "carrier"
	TypeRegulatory Type = "regulatory"
	TypeCustomer   Type = "customer"
	TypeCriminal   Type = "criminal"
)

// EntityKind tags what an entity reference points at.
type EntityKind string

const (
	KindCommodity EntityKind = "commodity"
	KindLane      EntityKind = "lane"
	KindCarrier   EntityKind = "carrier"
	KindCustomer  EntityKind = "customer"
	KindRegion    EntityKind = "region"
	KindPlayer    EntityKind = "player"
)

// EntityRef is a typed entity reference (kind + id), replacing string-prefix
// tagging.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// Outcome is a terminal event classification.
type Outcome string

const (
	OutcomeNone               Outcome = ""
	OutcomeOngoing            Outcome = "ongoing"
	OutcomeResolved           Outcome = "resolved"
	OutcomeMitigated          Outcome = "mitigated"
	OutcomeExpired            Outcome = "expired"
	OutcomeResolvedNegatively Outcome = "resolved_negatively"
	OutcomeEnforced           Outcome = "enforced"
	OutcomeDissatisfied       Outcome = "customer_dissatisfied"
	OutcomeSuccessfulCrime    Outcome = "successful_crime"
)

// reversible reports whether an outcome triggers effect cleanup. Negative
// terminal outcomes leave effects in place permanently.
func (o Outcome) reversible() bool {
	switch o {
	case OutcomeResolved, OutcomeMitigated, OutcomeExpired:
		return true
	default:
		return false
	}
}

// EffectKind identifies which field an applied effect changed, so cleanup
// knows how to restore it.
type EffectKind string

const (
	EffectModifier    EffectKind = "modifier"    // economy modifier installed
	EffectCongestion  EffectKind = "congestion"  // lane congestion set
	EffectRisk        EffectKind = "risk"        // lane risk set
	EffectRestriction EffectKind = "restriction" // lane cargo restriction added
	EffectTrust       EffectKind = "trust"       // customer trust set
	EffectReputation  EffectKind = "reputation"  // carrier reputation set
	EffectBalance     EffectKind = "balance"     // player balance debited
)

// AppliedEffect records one applied change with the original-value snapshot
// needed for bit-for-bit reversal.
type AppliedEffect struct {
	Ref        EntityRef  `json:"ref"`
	Kind       EffectKind `json:"kind"`
	ModifierID string     `json:"modifier_id,omitempty"`
	Cargo      string     `json:"cargo,omitempty"`
	Original   float64    `json:"original"`
	Applied    float64    `json:"applied"`
}

// Event is a world event with reversible effects.
type Event struct {
	ID             string          `json:"id"`
	Type           Type            `json:"type"`
	Name           string          `json:"name"`
	StartTime      float64         `json:"start_time"`
	EndTime        float64         `json:"end_time"`
	Severity       float64         `json:"severity"` // [0,1]
	Affected       []EntityRef     `json:"affected"`
	IsActive       bool            `json:"is_active"`
	PlayerResponse string          `json:"player_response,omitempty"`
	Outcome        Outcome         `json:"outcome,omitempty"`
	Effects        []AppliedEffect `json:"effects"`
}

// Template defines one event archetype with its response table.
type Template struct {
	Type           Type
	Name           string
	BaseDuration   float64 // seconds; actual duration varies ±30%
	Weight         float64 // type draw weight
	Responses      map[string]Outcome
	DefaultOutcome Outcome // applied when the event expires unresolved
}

// templates is the finite event template set, one per type. Regenerated at
// construction and on restore, never persisted.
func templates() []Template {
	return []Template{
		{
			Type:         TypeEconomic,
			Name:         "market shock",
			BaseDuration: 3 * 600,
			Weight:       0.25,
			Responses: map[string]Outcome{
				"subsidize": OutcomeResolved,
				"hedge":     OutcomeMitigated,
				"wait":      OutcomeResolvedNegatively,
			},
			DefaultOutcome: OutcomeExpired,
		},
		{
			Type:         TypeWeather,
			Name:         "severe storm",
			BaseDuration: 2 * 600,
			Weight:       0.25,
			Responses: map[string]Outcome{
				"reroute":  OutcomeMitigated,
				"wait_out": OutcomeExpired,
			},
			DefaultOutcome: OutcomeExpired,
		},
		{
			Type:         TypeCarrier,
			Name:         "carrier strike",
			BaseDuration: 2 * 600,
			Weight:       0.15,
			Responses: map[string]Outcome{
				"negotiate": OutcomeResolved,
				"replace":   OutcomeMitigated,
				"ignore":    OutcomeResolvedNegatively,
			},
			DefaultOutcome: OutcomeExpired,
		},
		{
			Type:         TypeRegulatory,
			Name:         "cargo inspection order",
			BaseDuration: 4 * 600,
			Weight:       0.10,
			Responses: map[string]Outcome{
				"appeal": OutcomeResolved,
				"lobby":  OutcomeMitigated,
				"comply": OutcomeEnforced,
			},
			DefaultOutcome: OutcomeEnforced,
		},
		{
			Type:         TypeCustomer,
			Name:         "customer dispute",
			BaseDuration: 600,
			Weight:       0.15,
			Responses: map[string]Outcome{
				"compensate": OutcomeResolved,
				"apologize":  OutcomeMitigated,
				"ignore":     OutcomeDissatisfied,
			},
			DefaultOutcome: OutcomeDissatisfied,
		},
		{
			Type:         TypeCriminal,
			Name:         "cargo theft ring",
			BaseDuration: 2 * 600,
			Weight:       0.10,
			Responses: map[string]Outcome{
				"investigate":   OutcomeResolved,
				"hire_security": OutcomeMitigated,
				"ignore":        OutcomeSuccessfulCrime,
			},
			DefaultOutcome: OutcomeSuccessfulCrime,
		},
	}
}
