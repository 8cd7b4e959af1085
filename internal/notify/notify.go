// Package notify carries one-directional data events from the core engines to
// UI/audio collaborators. Engines emit; collaborators drain once per tick.
// The core never blocks on a consumer.
package notify

// Kind identifies what happened.
type Kind string

const (
	LaneStatusChanged    Kind = "lane_status_changed"
	LaneConditionChanged Kind = "lane_condition_changed"
	ContractOffered      Kind = "contract_offered"
	ContractAccepted     Kind = "contract_accepted"
	ContractCompleted    Kind = "contract_completed"
	ContractFailed       Kind = "contract_failed"
	ContractExpired      Kind = "contract_expired"
	CarrierOfferMade     Kind = "carrier_offer_made"
	CarrierOfferAccepted Kind = "carrier_offer_accepted"
	CarrierCompleted     Kind = "carrier_completed"
	CarrierFailed        Kind = "carrier_failed"
	EventTriggered       Kind = "event_triggered"
	EventResolved        Kind = "event_resolved"
	EventExpired         Kind = "event_expired"
	MarketUpdated        Kind = "market_updated"
	BalanceChanged       Kind = "balance_changed"
	ReputationChanged    Kind = "reputation_changed"
	Bankruptcy           Kind = "bankruptcy"
	DayChanged           Kind = "day_changed"
)

// Notification is a pure data event.
type Notification struct {
	Kind    Kind           `json:"kind"`
	Time    float64        `json:"time"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Queue buffers notifications until a collaborator drains them. Bounded so an
// idle collaborator never causes unbounded growth.
type Queue struct {
	pending []Notification
	max     int
}

// NewQueue creates a queue keeping at most max pending notifications
// (oldest dropped first). max <= 0 means 1000.
func NewQueue(max int) *Queue {
	if max <= 0 {
		max = 1000
	}
	return &Queue{max: max}
}

// Emit appends a notification.
func (q *Queue) Emit(n Notification) {
	q.pending = append(q.pending, n)
	if len(q.pending) > q.max {
		q.pending = q.pending[len(q.pending)-q.max:]
	}
}

// Drain returns all pending notifications and clears the queue.
func (q *Queue) Drain() []Notification {
	out := q.pending
	q.pending = nil
	return out
}

// Pending returns the number of undrained notifications.
func (q *Queue) Pending() int { return len(q.pending) }
