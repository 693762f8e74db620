package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zalepa/cocstats/report"
)

type exportOptions struct {
	filterFlags
	out      string
	title    string
	chart    bool
	logScale bool
}

func newExportCmd(a *app) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered statistics table to PDF",
		Long: `Export the rows produced by the given filters to an A4 landscape PDF.

Rows that were auto-selected by the filters are exported with their chart;
when nothing is selected the whole table is exported.`,
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
			rows := s.ExportRows()
			if len(rows) == 0 {
				a.logger.Warn().Msg("view is empty, exporting header only")
			}

			pdfOpts := report.PDFOptions{Title: opts.title, LogScale: opts.logScale}
			if opts.chart && len(s.Selected()) > 0 {
				pdfOpts.Chart = report.Renderer{}
			}

			f, err := os.Create(opts.out)
			if err != nil {
				return err
			}
			pages, err := report.WritePDF(cmd.Context(), f, rows, pdfOpts)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", opts.out, err)
			}

			if err := verifyPDF(opts.out, pages); err != nil {
				return err
			}
			a.logger.Info().Str("file", opts.out).Int("rows", len(rows)).Int("pages", pages).Msg("exported pdf")
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows, %d pages)\n", opts.out, len(rows), pages)
			return nil
		},
	}
	opts.register(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&opts.out, "out", "o", report.Filename, "output PDF path")
	fs.StringVar(&opts.title, "title", report.DefaultTitle, "title printed on every page")
	fs.BoolVar(&opts.chart, "chart", true, "include the chart of the selected rows")
	fs.BoolVar(&opts.logScale, "log", false, "draw the chart on a logarithmic scale")
	return cmd
}

// verifyPDF re-reads the written file and checks it has the expected pages
// and no blank ones.
func verifyPDF(path string, want int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := report.Inspect(f)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if info.Pages != want {
		return fmt.Errorf("verify %s: %d pages, want %d", path, info.Pages, want)
	}
	if len(info.EmptyPages) > 0 {
		return fmt.Errorf("verify %s: empty pages %v", path, info.EmptyPages)
	}
	return nil
}
