package taxtable

import "sort"

// Table is the sorted bracket list of one year.
type Table struct {
	Year    int
	Entries []Entry
}

func NewTable(year int, entries []Entry) Table {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SalaryMin < sorted[j].SalaryMin })
	return Table{Year: year, Entries: sorted}
}

func ClampDependents(dependents int) int {
	if dependents < MinDependents {
		return MinDependents
	}
	if dependents > MaxDependents {
		return MaxDependents
	}
	return dependents
}

// Lookup returns the monthly income tax for gross pay. Gross below the first bracket owes nothing;
// gross at or beyond the last bracket's upper bound takes the last bracket's value.
func (t Table) Lookup(gross int64, dependents int) int64 {
	if len(t.Entries) == 0 || gross < t.Entries[0].SalaryMin {
		return 0
	}
	col := ClampDependents(dependents) - 1

	// first bracket whose upper bound is beyond gross
	idx := sort.Search(len(t.Entries), func(i int) bool { return t.Entries[i].SalaryMax > gross })
	if idx == len(t.Entries) {
		return t.Entries[len(t.Entries)-1].Taxes[col]
	}
	entry := t.Entries[idx]
	if gross < entry.SalaryMin {
		// gap between brackets: fall back to the bracket below
		if idx == 0 {
			return 0
		}
		return t.Entries[idx-1].Taxes[col]
	}
	return entry.Taxes[col]
}

func (t Table) Bracket(gross int64) (Entry, bool) {
	for _, entry := range t.Entries {
		if gross >= entry.SalaryMin && gross < entry.SalaryMax {
			return entry, true
		}
	}
	return Entry{}, false
}
