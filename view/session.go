package view

import "github.com/zalepa/cocstats/dataset"

// Mode is the accumulation state of a session.
type Mode int

const (
	// Fresh: no filter applied since the session started or was reset. The
	// next ApplyFilter replaces the view.
	Fresh Mode = iota
	// Comparison: each ApplyFilter appends a new aggregate row.
	Comparison
)

func (m Mode) String() string {
	if m == Comparison {
		return "comparison"
	}
	return "fresh"
}

// Outcome describes what ApplyFilter did to the view.
type Outcome int

const (
	Replaced  Outcome = iota // first filter: the view now holds only the new row (or nothing)
	Appended                 // the new aggregate was added
	Duplicate                // an equal (state, CoC, measure) row exists; nothing added
	NoMatch                  // nothing matched; nothing added
)

func (o Outcome) String() string {
	switch o {
	case Replaced:
		return "replaced"
	case Appended:
		return "appended"
	case Duplicate:
		return "duplicate"
	case NoMatch:
		return "no-match"
	}
	return "unknown"
}

const (
	DefaultPageSize      = 10
	DefaultAutoSelectMax = 10
)

// Options tunes a Session. Zero fields take defaults.
type Options struct {
	PageSize int
	// AutoSelectMax: after a filter is applied, every row is selected when
	// the view holds at most this many rows.
	AutoSelectMax int
	IDs           IDSource
}

// WithDefaults fills zero fields with the package defaults.
func (o Options) WithDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.AutoSelectMax <= 0 {
		o.AutoSelectMax = DefaultAutoSelectMax
	}
	if o.IDs == nil {
		o.IDs = ClockIDs()
	}
	return o
}

// Session is one user's view over the record store: the accumulated rows,
// the selection and the current page. It is not safe for concurrent use.
type Session struct {
	records  []dataset.Record
	opts     Options
	mode     Mode
	rows     []Row
	selected map[int64]struct{}
	page     int
}

// NewSession starts a Fresh session listing every record as a pass-through row.
func NewSession(records []dataset.Record, opts Options) *Session {
	s := &Session{
		records:  records,
		opts:     opts.WithDefaults(),
		selected: make(map[int64]struct{}),
		page:     1,
	}
	s.rows = make([]Row, len(records))
	for i, r := range records {
		s.rows[i] = FromRecord(r)
	}
	return s
}

// Mode reports the accumulation mode.
func (s *Session) Mode() Mode { return s.mode }

// PageSize reports the rows per page.
func (s *Session) PageSize() int { return s.opts.PageSize }

// Rows returns the view rows in order. Callers must not modify the slice.
func (s *Session) Rows() []Row { return s.rows }

// Len reports the number of view rows.
func (s *Session) Len() int { return len(s.rows) }

// ApplyFilter matches sel against the store and aggregates the result. The
// first application replaces the view; later ones append unless a row with
// the same state, CoC number and measure already exists.
func (s *Session) ApplyFilter(sel Selection) (Outcome, Row) {
	row, ok := Aggregate(Match(s.records, sel), s.opts.IDs)

	first := s.mode == Fresh
	var outcome Outcome
	switch {
	case first:
		s.rows = s.rows[:0:0]
		s.selected = make(map[int64]struct{})
		if ok {
			s.rows = append(s.rows, row)
		}
		s.mode = Comparison
		s.page = 1
		outcome = Replaced
	case !ok:
		outcome = NoMatch
	case s.hasTriple(row):
		outcome = Duplicate
	default:
		s.rows = append(s.rows, row)
		outcome = Appended
	}

	if first || len(s.rows) <= s.opts.AutoSelectMax {
		for _, r := range s.rows {
			s.selected[r.ID] = struct{}{}
		}
	}
	s.page = ClampPage(s.page, len(s.rows), s.opts.PageSize)
	return outcome, row
}

func (s *Session) hasTriple(row Row) bool {
	k := row.triple()
	for _, r := range s.rows {
		if r.triple() == k {
			return true
		}
	}
	return false
}

// Reset empties the view, clears the selection and returns to Fresh mode.
// Unlike a new session it does not list the records again; the next filter
// replaces the empty view.
func (s *Session) Reset() {
	s.rows = nil
	s.selected = make(map[int64]struct{})
	s.mode = Fresh
	s.page = 1
}

// DeleteRows removes the rows with the given ids and drops them from the
// selection. The current page is clamped to the remaining pages.
func (s *Session) DeleteRows(ids ...int64) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := s.rows[:0]
	removed := 0
	for _, r := range s.rows {
		if _, ok := drop[r.ID]; ok {
			delete(s.selected, r.ID)
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.rows = kept
	s.page = ClampPage(s.page, len(s.rows), s.opts.PageSize)
	return removed
}

// DeleteSelected removes every selected row.
func (s *Session) DeleteSelected() int {
	return s.DeleteRows(s.SelectedIDs()...)
}

// Page reports the current 1-based page.
func (s *Session) Page() int { return s.page }

// TotalPages reports the page count for the current view.
func (s *Session) TotalPages() int { return TotalPages(len(s.rows), s.opts.PageSize) }

// SetPage moves to page, clamped to the valid range, and returns the result.
func (s *Session) SetPage(page int) int {
	s.page = ClampPage(page, len(s.rows), s.opts.PageSize)
	return s.page
}

// PageRows returns the rows of the current page.
func (s *Session) PageRows() []Row {
	return Paginate(s.rows, s.page, s.opts.PageSize)
}

// Toggle flips the selection of the row with id. Ids not in the view are
// ignored. It reports whether the row is now selected.
func (s *Session) Toggle(id int64) bool {
	if !s.contains(id) {
		return false
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

// SelectAllOnPage selects every row of the current page.
func (s *Session) SelectAllOnPage() {
	for _, r := range s.PageRows() {
		s.selected[r.ID] = struct{}{}
	}
}

// DeselectAllOnPage clears the selection of every row of the current page.
func (s *Session) DeselectAllOnPage() {
	for _, r := range s.PageRows() {
		delete(s.selected, r.ID)
	}
}

// IsSelected reports whether id is selected.
func (s *Session) IsSelected(id int64) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectedIDs returns the selected ids in view order.
func (s *Session) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(s.selected))
	for _, r := range s.rows {
		if _, ok := s.selected[r.ID]; ok {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Selected returns the selected rows in view order.
func (s *Session) Selected() []Row {
	out := make([]Row, 0, len(s.selected))
	for _, r := range s.rows {
		if _, ok := s.selected[r.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// ExportRows returns the selected rows, or the whole view when nothing is
// selected.
func (s *Session) ExportRows() []Row {
	if sel := s.Selected(); len(sel) > 0 {
		return sel
	}
	return s.rows
}

func (s *Session) contains(id int64) bool {
	for _, r := range s.rows {
		if r.ID == id {
			return true
		}
	}
	return false
}
