package dataset

import "sort"

// Store is the immutable set of records loaded at startup. It is safe for
// concurrent readers.
type Store struct {
	records []Record
	states  []string
	cocs    map[string][]string // state -> sorted CoC numbers
	allCoCs []string
	present map[string]bool // measures present in the data
}

// NewStore indexes records. The slice is copied.
func NewStore(records []Record) *Store {
	s := &Store{
		records: make([]Record, len(records)),
		cocs:    make(map[string][]string),
		present: make(map[string]bool),
	}
	copy(s.records, records)

	stateSet := make(map[string]bool)
	cocSet := make(map[string]map[string]bool)
	allSet := make(map[string]bool)
	for _, r := range s.records {
		s.present[r.Measure] = true
		if r.State != "" {
			stateSet[r.State] = true
		}
		if r.CoCNumber == "" {
			continue
		}
		allSet[r.CoCNumber] = true
		if cocSet[r.State] == nil {
			cocSet[r.State] = make(map[string]bool)
		}
		cocSet[r.State][r.CoCNumber] = true
	}

	s.states = sortedKeys(stateSet)
	s.allCoCs = sortedKeys(allSet)
	for state, set := range cocSet {
		s.cocs[state] = sortedKeys(set)
	}
	return s
}

// Records returns the records in load order. Callers must not modify the
// returned slice.
func (s *Store) Records() []Record {
	return s.records
}

// Len reports the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// States returns the distinct non-empty states, sorted.
func (s *Store) States() []string {
	return append([]string(nil), s.states...)
}

// CoCNumbers returns the distinct CoC numbers, sorted. When states are given
// only CoCs belonging to one of them are returned.
func (s *Store) CoCNumbers(states ...string) []string {
	if len(states) == 0 {
		return append([]string(nil), s.allCoCs...)
	}
	set := make(map[string]bool)
	for _, st := range states {
		for _, c := range s.cocs[st] {
			set[c] = true
		}
	}
	return sortedKeys(set)
}

// CoCNumbersByState returns the CoC numbers of every state.
func (s *Store) CoCNumbersByState() map[string][]string {
	out := make(map[string][]string, len(s.cocs))
	for st, cs := range s.cocs {
		if st == "" {
			continue
		}
		out[st] = append([]string(nil), cs...)
	}
	return out
}

// Measures returns the measures present in the data in canonical order.
// Measures not in the canonical list are appended sorted.
func (s *Store) Measures() []string {
	var out []string
	known := make(map[string]bool, len(measures))
	for _, m := range measures {
		known[m] = true
		if s.present[m] {
			out = append(out, m)
		}
	}
	var extra []string
	for m := range s.present {
		if !known[m] {
			extra = append(extra, m)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
