package economy

// EngineSnapshot is the persistable pricing-engine state. Drift components
// are derived state and are regenerated on restore, not persisted.
type EngineSnapshot struct {
	Commodities []Commodity             `json:"commodities"`
	Groups      map[string][]string     `json:"groups"`
	Actors      []Actor                 `json:"actors"`
	Modifiers   []Modifier              `json:"modifiers"`
	Order       []string                `json:"order"`
	Factors     map[string]Factors      `json:"factors"`
	History     map[string][]PricePoint `json:"history"`
}

// ToSnapshot captures the full engine state.
func (e *Engine) ToSnapshot() EngineSnapshot {
	s := EngineSnapshot{
		Groups:  make(map[string][]string, len(e.groups)),
		Factors: make(map[string]Factors, len(e.factors)),
		History: make(map[string][]PricePoint, len(e.history)),
		Order:   append([]string(nil), e.order...),
	}
	for _, id := range e.order {
		if m := e.modifiers[id]; m != nil {
			s.Modifiers = append(s.Modifiers, *m)
		}
	}
	for _, c := range e.commodities {
		s.Commodities = append(s.Commodities, *c)
	}
	for _, a := range e.actors {
		s.Actors = append(s.Actors, *a)
	}
	for id, g := range e.groups {
		s.Groups[id] = append([]string(nil), g...)
	}
	for id, f := range e.factors {
		s.Factors[id] = *f
	}
	for id, h := range e.history {
		s.History[id] = append([]PricePoint(nil), h...)
	}
	return s
}

// FromSnapshot resets all engine state, repopulates from the snapshot, and
// re-runs derived-state setup (drift curve).
func (e *Engine) FromSnapshot(s EngineSnapshot) {
	e.commodities = make(map[string]*Commodity, len(s.Commodities))
	e.groups = make(map[string][]string, len(s.Groups))
	e.actors = make(map[string]*Actor, len(s.Actors))
	e.modifiers = make(map[string]*Modifier, len(s.Modifiers))
	e.order = nil
	e.factors = make(map[string]*Factors, len(s.Factors))
	e.history = make(map[string][]PricePoint, len(s.History))
	e.drift = nil

	for _, c := range s.Commodities {
		cc := c
		e.commodities[c.ID] = &cc
	}
	for id, g := range s.Groups {
		e.groups[id] = append([]string(nil), g...)
	}
	for _, a := range s.Actors {
		aa := a
		e.actors[a.ID] = &aa
	}
	for _, m := range s.Modifiers {
		mm := m
		e.modifiers[m.ID] = &mm
	}
	e.order = append([]string(nil), s.Order...)
	for id, f := range s.Factors {
		ff := f
		e.factors[id] = &ff
	}
	for id, h := range s.History {
		e.history[id] = append([]PricePoint(nil), h...)
	}
	for id := range e.commodities {
		if _, ok := e.factors[id]; !ok {
			e.factors[id] = &Factors{Demand: 1.0, Supply: 1.0}
		}
	}

	e.InstallDefaultDrift()
}
