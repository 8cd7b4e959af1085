package player

// LedgerSnapshot is the persistable player state.
type LedgerSnapshot struct {
	Balance      float64            `json:"balance"`
	Transactions []Transaction      `json:"transactions"`
	Reputation   map[string]float64 `json:"reputation"`
	XP           float64            `json:"xp"`
	Level        int                `json:"level"`
	Features     []string           `json:"features"`
	Loans        []Loan             `json:"loans"`
	Bankrupt     bool               `json:"bankrupt"`
}

// ToSnapshot captures the full ledger state.
func (l *Ledger) ToSnapshot() LedgerSnapshot {
	s := LedgerSnapshot{
		Balance:      l.balance,
		Transactions: append([]Transaction(nil), l.transactions...),
		Reputation:   make(map[string]float64, len(l.reputation)),
		XP:           l.xp,
		Level:        l.level,
		Bankrupt:     l.bankrupt,
	}
	for scope, v := range l.reputation {
		s.Reputation[scope] = v
	}
	for f := range l.features {
		s.Features = append(s.Features, f)
	}
	for _, loan := range l.loans {
		s.Loans = append(s.Loans, *loan)
	}
	return s
}

// FromSnapshot resets and repopulates the ledger. Feature flags below the
// restored level are re-derived from the level table, so flags added in
// newer builds are honored after load.
func (l *Ledger) FromSnapshot(s LedgerSnapshot) {
	l.balance = s.Balance
	l.transactions = append([]Transaction(nil), s.Transactions...)
	l.reputation = make(map[string]float64, len(s.Reputation))
	for scope, v := range s.Reputation {
		l.reputation[scope] = v
	}
	l.xp = s.XP
	l.level = s.Level
	if l.level < 1 {
		l.level = 1
	}
	l.bankrupt = s.Bankrupt
	l.features = make(map[string]bool)
	for _, f := range s.Features {
		l.features[f] = true
	}
	for lvl, feats := range levelFeatures {
		if lvl <= l.level {
			for _, f := range feats {
				l.features[f] = true
			}
		}
	}
	l.loans = nil
	for _, loan := range s.Loans {
		ll := loan
		l.loans = append(l.loans, &ll)
	}
}
