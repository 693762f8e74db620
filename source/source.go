// Package source fetches the raw statistics grid from wherever it is
// published: Google Sheets, S3, an HTTP URL or a local XLSX or CSV file.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/zalepa/cocstats/config"
	"github.com/zalepa/cocstats/dataset"
)

// ErrUnsupportedLocation is returned by New for locations no fetcher handles.
var ErrUnsupportedLocation = errors.New("unsupported source location")

// Fetcher returns the raw cell grid, header rows included.
type Fetcher interface {
	Fetch(ctx context.Context) ([][]string, error)
}

// New picks a Fetcher for cfg.Location.
func New(cfg config.SourceConfig) (Fetcher, error) {
	loc := strings.TrimSpace(cfg.Location)
	if loc == "" {
		return nil, fmt.Errorf("%w: empty location", ErrUnsupportedLocation)
	}

	u, err := url.Parse(loc)
	if err == nil {
		switch u.Scheme {
		case "sheets":
			id := u.Host + strings.TrimSuffix(u.Path, "/")
			if id == "" {
				return nil, fmt.Errorf("%w: %s: missing spreadsheet id", ErrUnsupportedLocation, loc)
			}
			return &SheetsFetcher{SpreadsheetID: id, Range: cfg.Range, Credentials: cfg.Credentials}, nil
		case "s3":
			key := strings.TrimPrefix(u.Path, "/")
			if u.Host == "" || key == "" {
				return nil, fmt.Errorf("%w: %s: want s3://bucket/key", ErrUnsupportedLocation, loc)
			}
			return &S3Fetcher{Bucket: u.Host, Key: key, Region: cfg.Region, Sheet: cfg.Range}, nil
		case "http", "https":
			return &HTTPFetcher{URL: loc, Sheet: cfg.Range}, nil
		case "":
		default:
			// Single letters are Windows drive letters, not schemes.
			if len(u.Scheme) > 1 {
				return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocation, loc)
			}
		}
	}

	switch strings.ToLower(path.Ext(loc)) {
	case ".xlsx":
		return &XLSXFetcher{Path: loc, Sheet: cfg.Range}, nil
	case ".csv":
		return &CSVFetcher{Path: loc}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocation, loc)
}

// Load fetches the grid with a timeout and converts it to records. Series
// that appear more than once are logged as warnings.
func Load(ctx context.Context, f Fetcher, timeout time.Duration) ([]dataset.Record, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger := zerolog.Ctx(ctx)
	start := time.Now()
	grid, err := f.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch grid: %w", err)
	}
	records := dataset.Transform(grid)
	logger.Info().
		Int("rows", len(grid)).
		Int("records", len(records)).
		Dur("took", time.Since(start)).
		Msg("loaded source grid")

	for _, d := range dataset.FindDuplicates(records) {
		logger.Warn().Str("series", d.String()).Msg("duplicate series in source")
	}
	return records, nil
}

// decode reads a CSV or XLSX payload, choosing by content type first and
// then by file name.
func decode(r io.Reader, name, contentType, sheet string) ([][]string, error) {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "spreadsheetml"), strings.Contains(ct, "ms-excel"):
		return ReadXLSX(r, sheet)
	case strings.Contains(ct, "csv"):
		return ReadCSV(r)
	}
	if strings.EqualFold(path.Ext(name), ".xlsx") {
		return ReadXLSX(r, sheet)
	}
	return ReadCSV(r)
}
