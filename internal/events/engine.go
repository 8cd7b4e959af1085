package events

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/talgya/freightline/internal/carriers"
	"github.com/talgya/freightline/internal/contracts"
	"github.com/talgya/freightline/internal/economy"
	"github.com/talgya/freightline/internal/notify"
	"github.com/talgya/freightline/internal/player"
	"github.com/talgya/freightline/internal/rng"
	"github.com/talgya/freightline/internal/worldmap"
)

// Scheduler constants.
const (
	eventIntervalMin = 60.0
	eventIntervalMax = 300.0
	severityMin      = 0.2
	severityMax      = 1.0
	durationSpread   = 0.3
)

// Result is a command outcome.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func ok() Result                { return Result{OK: true} }
func fail(reason string) Result { return Result{Reason: reason} }

// Engine creates, resolves, and expires world events.
type Engine struct {
	events    map[string]*Event
	templates []Template

	prices    *economy.Engine
	world     *worldmap.Map
	carriers  *carriers.Engine
	contracts *contracts.Engine
	ledger    *player.Ledger
	rand      *rng.Source
	queue     *notify.Queue

	nextEventAt float64
}

// New creates an event engine with injected collaborators.
func New(prices *economy.Engine, world *worldmap.Map, carrierEng *carriers.Engine, contractEng *contracts.Engine, ledger *player.Ledger, rand *rng.Source, queue *notify.Queue) *Engine {
	return &Engine{
		events:    make(map[string]*Event),
		templates: templates(),
		prices:    prices,
		world:     world,
		carriers:  carrierEng,
		contracts: contractEng,
		ledger:    ledger,
		rand:      rand,
		queue:     queue,
	}
}

// Event returns an event by id, or nil.
func (e *Engine) Event(id string) *Event { return e.events[id] }

// Events returns all known events.
func (e *Engine) Events() []*Event {
	out := make([]*Event, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev)
	}
	return out
}

// Sweep applies the default outcome to events past their end time, exactly
// once each (guarded by IsActive). Runs every tick, before scheduler checks.
func (e *Engine) Sweep(now float64) {
	for _, ev := range e.events {
		if !ev.IsActive || now < ev.EndTime {
			continue
		}
		outcome := OutcomeExpired
		for i := range e.templates {
			if e.templates[i].Type == ev.Type {
				outcome = e.templates[i].DefaultOutcome
				break
			}
		}
		e.finish(ev, outcome, now, notify.EventExpired)
	}
}

// Update runs the periodic generation check.
func (e *Engine) Update(now float64) {
	if e.nextEventAt == 0 {
		e.nextEventAt = now + e.rand.Range(eventIntervalMin, eventIntervalMax)
		return
	}
	if now < e.nextEventAt {
		return
	}
	e.nextEventAt = now + e.rand.Range(eventIntervalMin, eventIntervalMax)

	tmpl := e.pickTemplate()
	severity := e.rand.Range(severityMin, severityMax)
	e.CreateEvent(tmpl.Type, severity, now)
}

// pickTemplate draws a template by weight.
func (e *Engine) pickTemplate() Template {
	weights := make([]float64, len(e.templates))
	for i, t := range e.templates {
		weights[i] = t.Weight
	}
	idx := e.rand.WeightedIndex(weights)
	if idx < 0 {
		idx = 0
	}
	return e.templates[idx]
}

// CreateEvent instantiates an event of the given type and applies its
// effects immediately, snapshotting original values for later reversal.
func (e *Engine) CreateEvent(eventType Type, severity, now float64) (*Event, Result) {
	var tmpl *Template
	for i := range e.templates {
		if e.templates[i].Type == eventType {
			tmpl = &e.templates[i]
			break
		}
	}
	if tmpl == nil {
		return nil, fail(fmt.Sprintf("no template for event type %q", eventType))
	}

	duration := tmpl.BaseDuration * (1 + e.rand.Range(-durationSpread, durationSpread))
	ev := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Name:      tmpl.Name,
		StartTime: now,
		EndTime:   now + duration,
		Severity:  severity,
		IsActive:  true,
	}

	e.applyEffects(ev, now)
	e.events[ev.ID] = ev

	if e.queue != nil {
		e.queue.Emit(notify.Notification{
			Kind:    notify.EventTriggered,
			Time:    now,
			Message: fmt.Sprintf("%s (%s)", ev.Name, ev.Type),
			Data:    map[string]any{"event": ev.ID, "type": string(ev.Type), "severity": severity},
		})
	}
	slog.Info("event triggered", "event", ev.Name, "type", ev.Type, "severity", severity)
	return ev, ok()
}

// Resolve records the player's response and determines the outcome from the
// per-type response table. Unknown responses leave the event ongoing.
// Positive outcomes trigger cleanup; negative outcomes leave effects in
// place permanently.
func (e *Engine) Resolve(eventID, response string, now float64) (Outcome, Result) {
	ev, found := e.events[eventID]
	if !found {
		return OutcomeNone, fail("event not found")
	}
	if !ev.IsActive {
		return ev.Outcome, fail("event already resolved")
	}

	var tmpl *Template
	for i := range e.templates {
		if e.templates[i].Type == ev.Type {
			tmpl = &e.templates[i]
			break
		}
	}
	outcome, known := OutcomeOngoing, false
	if tmpl != nil {
		if o, hit := tmpl.Responses[response]; hit {
			outcome, known = o, true
		}
	}
	if !known {
		return OutcomeOngoing, ok()
	}

	ev.PlayerResponse = response
	e.finish(ev, outcome, now, notify.EventResolved)
	return outcome, ok()
}

// finish terminally classifies an event and runs cleanup when the outcome
// is reversible.
func (e *Engine) finish(ev *Event, outcome Outcome, now float64, kind notify.Kind) {
	ev.Outcome = outcome
	ev.IsActive = false
	if outcome.reversible() {
		e.revertEffects(ev, now)
	}
	if e.queue != nil {
		e.queue.Emit(notify.Notification{
			Kind:    kind,
			Time:    now,
			Message: fmt.Sprintf("%s: %s", ev.Name, outcome),
			Data:    map[string]any{"event": ev.ID, "outcome": string(outcome)},
		})
	}
	slog.Info("event finished", "event", ev.Name, "outcome", outcome)
}

// Cleanup reverses an event's effects if they have not been reversed yet.
// Calling it on an already-finished event is a no-op.
func (e *Engine) Cleanup(eventID string, now float64) Result {
	ev, found := e.events[eventID]
	if !found {
		return fail("event not found")
	}
	if !ev.IsActive {
		return ok() // already finished; second cleanup is a no-op
	}
	e.finish(ev, OutcomeExpired, now, notify.EventExpired)
	return ok()
}
