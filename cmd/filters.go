package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zalepa/cocstats/dataset"
	"github.com/zalepa/cocstats/view"
)

// filterKeys maps accepted --filter keys to selection fields.
var filterKeys = map[string]view.Field{
	"state":     view.FieldState,
	"coc":       view.FieldCoCNumber,
	"cocnumber": view.FieldCoCNumber,
	"measure":   view.FieldMeasure,
}

// parseFilter reads one filter application of the form
// "measure=PSH,RRH;coc=CA-500;state=CA". An empty expr selects everything.
func parseFilter(expr string) (view.Selection, error) {
	sel := make(view.Selection)
	for _, part := range strings.Split(expr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, values, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("filter %q: want key=value[,value]", part)
		}
		field, ok := filterKeys[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			return nil, fmt.Errorf("filter %q: unknown key %q (want state, coc or measure)", part, key)
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				sel.Add(field, v)
			}
		}
	}
	return sel, nil
}

// filterFlags holds the filter flags shared by view and export.
type filterFlags struct {
	filters  []string
	states   []string
	cocs     []string
	measures []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.filters, "filter", "f", nil,
		`filter application, repeatable: "measure=PSH,RRH;coc=CA-500;state=CA"`)
	fs.StringSliceVar(&f.states, "state", nil, "states for a single filter application")
	fs.StringSliceVar(&f.cocs, "coc", nil, "CoC numbers for a single filter application")
	fs.StringSliceVar(&f.measures, "measure", nil, "measures for a single filter application")
}

// selections returns the filter applications in order. The plain
// --state/--coc/--measure flags form one application after any --filter.
func (f *filterFlags) selections() ([]view.Selection, error) {
	var out []view.Selection
	for _, expr := range f.filters {
		sel, err := parseFilter(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	if len(f.states)+len(f.cocs)+len(f.measures) > 0 {
		out = append(out, view.NewSelection(map[view.Field][]string{
			view.FieldState:     f.states,
			view.FieldCoCNumber: f.cocs,
			view.FieldMeasure:   f.measures,
		}))
	}
	return out, nil
}

// unknownValues lists selected values absent from the store, for warnings.
func unknownValues(store *dataset.Store, sel view.Selection) []string {
	known := map[view.Field][]string{
		view.FieldState:     store.States(),
		view.FieldCoCNumber: store.CoCNumbers(),
		view.FieldMeasure:   store.Measures(),
	}
	var out []string
	for _, field := range view.Fields {
		have := make(map[string]bool, len(known[field]))
		for _, v := range known[field] {
			have[v] = true
		}
		for _, v := range sel.Values(field) {
			if !have[v] {
				out = append(out, fmt.Sprintf("%s=%s", field, v))
			}
		}
	}
	return out
}

// buildSession applies each selection in turn to a fresh session over store
// and logs what every application did.
func (a *app) buildSession(cmd *cobra.Command, store *dataset.Store, sels []view.Selection, pageSize int) *view.Session {
	logger := a.logger
	s := view.NewSession(store.Records(), view.Options{
		PageSize:      pageSize,
		AutoSelectMax: a.cfg.View.AutoSelectMax,
	})
	for i, sel := range sels {
		if unknown := unknownValues(store, sel); len(unknown) > 0 {
			logger.Warn().Strs("values", unknown).Int("filter", i+1).Msg("filter values not in data")
		}
		outcome, row := s.ApplyFilter(sel)
		logger.Debug().Int("filter", i+1).Str("outcome", outcome.String()).Int("matched", row.Count).Msg("filter applied")
		if outcome == view.Duplicate || outcome == view.NoMatch {
			fmt.Fprintf(cmd.ErrOrStderr(), "filter %d: %s\n", i+1, outcome)
		}
	}
	return s
}
