package sessions

import "sort"

// MaxTerminalRecords bounds how many stopped or crashed records the
// registry keeps.
const MaxTerminalRecords = 50

// Purge evicts the oldest terminal records until at most limit remain and
// returns the evicted ids. Records are ordered by stop time, else crash
// time; records with neither sort after all dated ones. Active records
// are never evicted.
func Purge(reg Registry, limit int) []string {
	if limit < 0 {
		limit = 0
	}

	var terminal []*Record
	for id, rec := range reg {
		if rec == nil || !rec.IsTerminal() {
			continue
		}
		rec.SessionID = id
		terminal = append(terminal, rec)
	}
	if len(terminal) <= limit {
		return nil
	}

	sort.SliceStable(terminal, func(i, j int) bool {
		ti, iok := terminal[i].TerminatedAt()
		tj, jok := terminal[j].TerminatedAt()
		switch {
		case iok && jok && !ti.Equal(tj):
			return ti.Before(tj)
		case iok != jok:
			return iok
		}
		return terminal[i].SessionID < terminal[j].SessionID
	})

	excess := len(terminal) - limit
	evicted := make([]string, 0, excess)
	for _, rec := range terminal[:excess] {
		delete(reg, rec.SessionID)
		evicted = append(evicted, rec.SessionID)
	}
	return evicted
}
