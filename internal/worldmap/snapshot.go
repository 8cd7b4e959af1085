package worldmap

// MapSnapshot is the persistable map state. The path cache is derived and
// rebuilt lazily after restore.
type MapSnapshot struct {
	Regions []Region `json:"regions"`
	Cities  []City   `json:"cities"`
	Lanes   []Lane   `json:"lanes"`
}

// ToSnapshot captures the full map state.
func (m *Map) ToSnapshot() MapSnapshot {
	var s MapSnapshot
	for _, r := range m.regions {
		rr := *r
		rr.Cities = append([]string(nil), r.Cities...)
		s.Regions = append(s.Regions, rr)
	}
	for _, c := range m.cities {
		cc := *c
		cc.Industries = append([]string(nil), c.Industries...)
		s.Cities = append(s.Cities, cc)
	}
	for _, l := range m.lanes {
		ll := *l
		ll.Restrictions = make(map[string]bool, len(l.Restrictions))
		for k, v := range l.Restrictions {
			ll.Restrictions[k] = v
		}
		ll.Upgrades = make(map[string]float64, len(l.Upgrades))
		for k, v := range l.Upgrades {
			ll.Upgrades[k] = v
		}
		if l.CongestionFX != nil {
			fx := *l.CongestionFX
			ll.CongestionFX = &fx
		}
		if l.RiskFX != nil {
			fx := *l.RiskFX
			ll.RiskFX = &fx
		}
		s.Lanes = append(s.Lanes, ll)
	}
	return s
}

// FromSnapshot resets all map state (including the path cache) and
// repopulates from the snapshot.
func (m *Map) FromSnapshot(s MapSnapshot) {
	m.regions = make(map[string]*Region, len(s.Regions))
	m.cities = make(map[string]*City, len(s.Cities))
	m.lanes = make(map[string]*Lane, len(s.Lanes))
	m.pathCache = make(map[pairKey]string)

	for _, r := range s.Regions {
		rr := r
		m.regions[r.ID] = &rr
	}
	for _, c := range s.Cities {
		cc := c
		m.cities[c.ID] = &cc
	}
	for _, l := range s.Lanes {
		ll := l
		if ll.Restrictions == nil {
			ll.Restrictions = make(map[string]bool)
		}
		if ll.Upgrades == nil {
			ll.Upgrades = make(map[string]float64)
		}
		m.lanes[l.ID] = &ll
	}
}
