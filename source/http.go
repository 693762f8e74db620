package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// HTTPFetcher downloads a published CSV or XLSX export.
type HTTPFetcher struct {
	URL   string
	Sheet string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

func (f *HTTPFetcher) Fetch(ctx context.Context) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d fetching %s", resp.StatusCode, f.URL)
	}

	name := f.URL
	if u, err := url.Parse(f.URL); err == nil {
		name = u.Path
	}
	return decode(resp.Body, name, resp.Header.Get("Content-Type"), f.Sheet)
}
