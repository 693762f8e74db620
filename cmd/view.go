package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/zalepa/cocstats/dataset"
	"github.com/zalepa/cocstats/report"
	"github.com/zalepa/cocstats/view"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4F46E5")).Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	numberStyle   = cellStyle.Align(lipgloss.Right)
	aggregateCell = cellStyle.Bold(true)
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C7D2FE"))
)

type viewOptions struct {
	filterFlags
	page     int
	pageSize int
	all      bool
	years    bool
}

func newViewCmd(a *app) *cobra.Command {
	var opts viewOptions
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the filtered statistics table",
		Long: `Print the statistics table after applying the given filters in order.

The first filter replaces the full listing; each later one appends an
aggregated comparison row unless the same combination is already shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sels, err := opts.selections()
			if err != nil {
				return err
			}
			store, err := a.loadStore(cmd.Context())
			if err != nil {
				return err
			}
			s := a.buildSession(cmd, store, sels, a.cfg.View.PageSize)
			return printView(cmd.OutOrStdout(), s, opts)
		},
	}
	opts.register(cmd)
	fs := cmd.Flags()
	fs.IntVarP(&opts.page, "page", "p", 1, "page to print")
	fs.Int("page-size", 0, "rows per page (default 10)")
	fs.BoolVar(&opts.all, "all", false, "print every row instead of one page")
	fs.BoolVar(&opts.years, "years", false, "print one column per year instead of the trend")
	return cmd
}

func printView(w io.Writer, s *view.Session, opts viewOptions) error {
	if s.Len() == 0 {
		_, err := fmt.Fprintln(w, "No rows.")
		return err
	}

	rows := s.Rows()
	from, to := 1, s.Len()
	if !opts.all {
		s.SetPage(opts.page)
		rows = s.PageRows()
		from, to = view.PageRange(s.Page(), s.PageSize(), s.Len())
	}

	headers, cells := tableCells(s, rows, opts.years)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col >= 5:
				return numberStyle
			case rows[row].Aggregate:
				return aggregateCell
			default:
				return cellStyle
			}
		})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	footer := fmt.Sprintf("Showing %d to %d of %d", from, to, s.Len())
	if !opts.all && s.TotalPages() > 1 {
		footer += fmt.Sprintf(" (page %d of %d)", s.Page(), s.TotalPages())
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}

// tableCells renders rows as text cells. The first five columns are the
// selection mark and the identifying fields; the rest are numeric.
func tableCells(s *view.Session, rows []view.Row, years bool) ([]string, [][]string) {
	headers := []string{"", "State", "CoC Number", "Name", "Measure"}
	if years {
		for _, y := range dataset.Years() {
			headers = append(headers, strconv.Itoa(y))
		}
	} else {
		headers = append(headers, strconv.Itoa(dataset.LastYear), "Trend")
	}
	headers = append(headers, "Total")

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		mark := ""
		if s.IsSelected(r.ID) {
			mark = "*"
		}
		line := []string{mark, r.State, r.CoCNumber, r.Name, r.Measure}
		if years {
			for _, v := range r.Values {
				line = append(line, report.FormatNumber(v))
			}
		} else {
			line = append(line,
				report.FormatNumber(r.Values.Year(dataset.LastYear)),
				report.Sparkline(r.Values[:]))
		}
		cells = append(cells, append(line, report.FormatNumber(r.Values.Total())))
	}
	return headers, cells
}
