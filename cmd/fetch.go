package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zalepa/cocstats/dataset"
)

func newFetchCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the source grid to a local CSV file",
		Long: `Download the raw source grid, header rows included, and write it as CSV.

The written file can be used as --source for offline runs. Series that
appear on more than one source row are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			grid, err := a.fetchGrid(cmd.Context())
			if err != nil {
				return err
			}
			if err := writeCSV(out, grid); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			records := dataset.Transform(grid)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows, %d records)\n", out, len(grid), len(records))
			reportDuplicates(cmd.ErrOrStderr(), dataset.FindDuplicates(records))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "cocstats.csv", "output CSV path")
	return cmd
}

func writeCSV(path string, grid [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(grid); err != nil {
		return err
	}
	return f.Close()
}

func reportDuplicates(w io.Writer, dups []dataset.Duplicate) {
	if len(dups) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d duplicate series:\n", len(dups))
	for _, d := range dups {
		fmt.Fprintf(w, "  %s\n", d)
	}
}
