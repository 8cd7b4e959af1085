package events

// EngineSnapshot is the persistable event-engine state. Templates are
// derived state, regenerated on restore.
type EngineSnapshot struct {
	Events      []Event `json:"events"`
	NextEventAt float64 `json:"next_event_at"`
}

// ToSnapshot captures all events including their applied-effect records, so
// cleanup still works after a restore.
func (e *Engine) ToSnapshot() EngineSnapshot {
	s := EngineSnapshot{NextEventAt: e.nextEventAt}
	for _, ev := range e.events {
		ee := *ev
		ee.Affected = append([]EntityRef(nil), ev.Affected...)
		ee.Effects = append([]AppliedEffect(nil), ev.Effects...)
		s.Events = append(s.Events, ee)
	}
	return s
}

// FromSnapshot resets and repopulates the engine, regenerating the template
// set.
func (e *Engine) FromSnapshot(s EngineSnapshot) {
	e.events = make(map[string]*Event, len(s.Events))
	for _, ev := range s.Events {
		ee := ev
		e.events[ev.ID] = &ee
	}
	e.nextEventAt = s.NextEventAt
	e.templates = templates()
}
