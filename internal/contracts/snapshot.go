package contracts

// EngineSnapshot is the persistable contract-engine state.
type EngineSnapshot struct {
	Customers   []Customer `json:"customers"`
	Contracts   []Contract `json:"contracts"`
	NextCheckAt float64    `json:"next_check_at"`
	NextGenAt   float64    `json:"next_gen_at"`
}

// ToSnapshot captures the full engine state.
func (e *Engine) ToSnapshot() EngineSnapshot {
	s := EngineSnapshot{NextCheckAt: e.nextCheckAt, NextGenAt: e.nextGenAt}
	for _, c := range e.customers {
		cc := *c
		cc.ActiveContracts = append([]string(nil), c.ActiveContracts...)
		cc.Needs = make(map[string]float64, len(c.Needs))
		for k, v := range c.Needs {
			cc.Needs[k] = v
		}
		s.Customers = append(s.Customers, cc)
	}
	for _, c := range e.contracts {
		s.Contracts = append(s.Contracts, *c)
	}
	return s
}

// FromSnapshot resets and repopulates the engine. Blacklist flags are
// recomputed from trust rather than trusted from the stored record.
func (e *Engine) FromSnapshot(s EngineSnapshot) {
	e.customers = make(map[string]*Customer, len(s.Customers))
	e.contracts = make(map[string]*Contract, len(s.Contracts))
	for _, c := range s.Customers {
		cc := c
		if cc.Needs == nil {
			cc.Needs = make(map[string]float64)
		}
		cc.Blacklisted = cc.Trust <= blacklistTrust
		e.customers[c.ID] = &cc
	}
	for _, c := range s.Contracts {
		cc := c
		e.contracts[c.ID] = &cc
	}
	e.nextCheckAt = s.NextCheckAt
	e.nextGenAt = s.NextGenAt
}
