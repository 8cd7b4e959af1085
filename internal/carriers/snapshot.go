package carriers

// EngineSnapshot is the persistable carrier-engine state. Offers are
// ephemeral and deliberately excluded.
type EngineSnapshot struct {
	Carriers     []Carrier  `json:"carriers"`
	Contracts    []Contract `json:"contracts"`
	NextUpdateAt float64    `json:"next_update_at"`
}

// ToSnapshot captures roster and contract state.
func (e *Engine) ToSnapshot() EngineSnapshot {
	s := EngineSnapshot{NextUpdateAt: e.nextUpdateAt}
	for _, c := range e.carriers {
		cc := *c
		cc.ActiveContracts = append([]string(nil), c.ActiveContracts...)
		cc.PreferredCargo = make(map[string]bool, len(c.PreferredCargo))
		for k, v := range c.PreferredCargo {
			cc.PreferredCargo[k] = v
		}
		cc.History.Recent = append([]RecentJob(nil), c.History.Recent...)
		s.Carriers = append(s.Carriers, cc)
	}
	for _, c := range e.contracts {
		s.Contracts = append(s.Contracts, *c)
	}
	return s
}

// FromSnapshot resets and repopulates the engine. Derived carrier fields
// (reliability, failure chance, trusted) are recomputed from history; live
// offers do not survive a restore.
func (e *Engine) FromSnapshot(s EngineSnapshot) {
	e.carriers = make(map[string]*Carrier, len(s.Carriers))
	e.contracts = make(map[string]*Contract, len(s.Contracts))
	e.offers = make(map[string]*Offer)
	for _, c := range s.Carriers {
		cc := c
		if cc.PreferredCargo == nil {
			cc.PreferredCargo = make(map[string]bool)
		}
		cc.recompute()
		e.carriers[c.ID] = &cc
	}
	for _, c := range s.Contracts {
		cc := c
		e.contracts[c.ID] = &cc
	}
	e.nextUpdateAt = s.NextUpdateAt
}
