package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// CSVFetcher reads a local CSV export of the sheet.
type CSVFetcher struct {
	Path string
}

func (f *CSVFetcher) Fetch(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV parses a possibly ragged CSV grid.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	grid, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return grid, nil
}
