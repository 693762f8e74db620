package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func rec(id int64, state, coc, measure string) Record {
	return Record{ID: id, State: state, CoCNumber: coc, Measure: measure}
}

func TestStoreOptions(t *testing.T) {
	s := NewStore([]Record{
		rec(20, "CA", "CA-501", "PSH"),
		rec(21, "CA", "CA-500", "RRH"),
		rec(30, "NY", "NY-600", "PSH"),
		rec(31, "", "", "Custom"),
	})

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []string{"CA", "NY"}, s.States())
	assert.Equal(t, []string{"CA-500", "CA-501", "NY-600"}, s.CoCNumbers())
	assert.Equal(t, []string{"CA-500", "CA-501"}, s.CoCNumbers("CA"))
	assert.Empty(t, s.CoCNumbers("TX"))
	assert.Equal(t, []string{"RRH", "PSH", "Custom"}, s.Measures())

	want := map[string][]string{
		"CA": {"CA-500", "CA-501"},
		"NY": {"NY-600"},
	}
	if diff := cmp.Diff(want, s.CoCNumbersByState()); diff != "" {
		t.Errorf("CoCNumbersByState mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreCopiesInput(t *testing.T) {
	in := []Record{rec(20, "CA", "CA-500", "PSH")}
	s := NewStore(in)
	in[0].State = "XX"
	assert.Equal(t, "CA", s.Records()[0].State)
}
