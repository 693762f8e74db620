package source

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultSheetsRange is read when no range is configured.
const DefaultSheetsRange = "Sheet1"

// SheetsFetcher reads a range through the Google Sheets API with a
// read-only service account.
type SheetsFetcher struct {
	SpreadsheetID string
	Range         string
	// Credentials is the base64-encoded service-account JSON key. Empty
	// falls back to application default credentials.
	Credentials string

	// opts replaces the credential options, for tests against a fake endpoint.
	opts []option.ClientOption
}

func (f *SheetsFetcher) clientOptions() ([]option.ClientOption, error) {
	if f.opts != nil {
		return f.opts, nil
	}
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsReadonlyScope)}
	if f.Credentials == "" {
		return opts, nil
	}
	key, err := base64.StdEncoding.DecodeString(f.Credentials)
	if err != nil {
		return nil, fmt.Errorf("decode service account credentials: %w", err)
	}
	return append(opts, option.WithCredentialsJSON(key)), nil
}

func (f *SheetsFetcher) Fetch(ctx context.Context) ([][]string, error) {
	opts, err := f.clientOptions()
	if err != nil {
		return nil, err
	}
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	rng := f.Range
	if rng == "" {
		rng = DefaultSheetsRange
	}
	resp, err := srv.Spreadsheets.Values.Get(f.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s!%s: %w", f.SpreadsheetID, rng, err)
	}
	return stringGrid(resp.Values), nil
}

// stringGrid converts API cell values to their text form.
func stringGrid(values [][]interface{}) [][]string {
	grid := make([][]string, len(values))
	for i, row := range values {
		grid[i] = make([]string, len(row))
		for j, v := range row {
			grid[i][j] = cellString(v)
		}
	}
	return grid
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
