package view

import "github.com/zalepa/cocstats/dataset"

// seqIDs hands out 1000, 1001, ... so aggregate ids are predictable.
func seqIDs() IDSource {
	next := int64(1000)
	return func() int64 {
		id := next
		next++
		return id
	}
}

func rec(id int64, state, coc, measure string, vals ...float64) dataset.Record {
	r := dataset.Record{ID: id, State: state, CoCNumber: coc, Name: coc + " CoC", CoCCategory: "Other", Measure: measure}
	copy(r.Values[:], vals)
	return r
}

func sampleRecords() []dataset.Record {
	return []dataset.Record{
		rec(20, "CA", "CA-500", "PSH", 100, 110),
		rec(21, "CA", "CA-500", "RRH", 5, 6),
		rec(30, "CA", "CA-501", "PSH", 40, 41),
		rec(40, "NY", "NY-600", "PSH", 300, 310),
	}
}

func newSession(records []dataset.Record) *Session {
	return NewSession(records, Options{IDs: seqIDs()})
}
