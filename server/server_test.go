package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/cocstats/dataset"
	"github.com/zalepa/cocstats/view"
)

func testStore() *dataset.Store {
	mk := func(id int64, state, coc, measure string, v2007, v2008 float64) dataset.Record {
		r := dataset.Record{ID: id, State: state, CoCNumber: coc, Name: coc + " CoC", CoCCategory: "Other", Measure: measure}
		r.Values[0], r.Values[1] = v2007, v2008
		return r
	}
	return dataset.NewStore([]dataset.Record{
		mk(20, "CA", "CA-500", "PSH", 100, 0),
		mk(21, "CA", "CA-500", "RRH", 5, 6),
		mk(30, "CA", "CA-501", "PSH", 40, 41),
		mk(40, "NY", "NY-600", "PSH", 300, 310),
	})
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestServer(t *testing.T, store *dataset.Store) *client {
	t.Helper()
	router := ConfigureRouter(Config{
		SessionTTL: time.Hour,
		View:       view.Options{PageSize: 2},
		Dependencies: Dependencies{
			Store:  store,
			Logger: zerolog.New(zerolog.NewTestWriter(t)),
		},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	require.NoError(c.t, err)
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (c *client) view(method, path string, body any) viewResponse {
	c.t.Helper()
	resp := c.do(method, path, body)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	var v viewResponse
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestSessionFlow(t *testing.T) {
	c := newTestServer(t, testStore())

	v := c.view(http.MethodGet, "/api/view", nil)
	assert.Equal(t, "fresh", v.Mode)
	assert.Equal(t, 4, v.Total)
	assert.Equal(t, 2, v.TotalPages)
	assert.Len(t, v.Rows, 2)
	assert.Equal(t, 1, v.From)
	assert.Equal(t, 2, v.To)

	dupBefore := testutil.ToFloat64(filterOutcomesTotal.WithLabelValues("duplicate"))

	v = c.view(http.MethodPost, "/api/filter", filterRequest{Measure: []string{"PSH"}, CoCNumber: []string{"CA-500"}})
	assert.Equal(t, "replaced", v.Outcome)
	assert.Equal(t, "comparison", v.Mode)
	require.Len(t, v.Rows, 1)
	assert.True(t, v.Rows[0].Aggregate)
	assert.Equal(t, "CA-500 - PSH", v.Rows[0].Description)
	require.NotNil(t, v.Rows[0].Values[0])
	assert.Equal(t, 100.0, *v.Rows[0].Values[0])
	assert.Equal(t, 0.0, *v.Rows[0].Values[1])
	assert.Len(t, v.Selected, 1)

	v = c.view(http.MethodPost, "/api/filter", filterRequest{Measure: []string{"PSH"}, CoCNumber: []string{"CA-500"}})
	assert.Equal(t, "duplicate", v.Outcome)
	assert.Equal(t, 1, v.Total)
	assert.Equal(t, dupBefore+1, testutil.ToFloat64(filterOutcomesTotal.WithLabelValues("duplicate")))

	v = c.view(http.MethodPost, "/api/filter", filterRequest{State: []string{"NY"}})
	assert.Equal(t, "appended", v.Outcome)
	assert.Equal(t, 2, v.Total)
	assert.Len(t, v.Selected, 2)

	// Unselect the NY row; the chart follows the selection.
	v = c.view(http.MethodPost, "/api/selection/toggle", map[string]int64{"id": v.Rows[1].ID})
	assert.Len(t, v.Selected, 1)

	resp := c.do(http.MethodGet, "/api/chart?log=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var chart view.Chart
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&chart))
	assert.True(t, chart.LogScale)
	require.Len(t, chart.Series, 1)
	assert.Equal(t, "CA-500 - PSH", chart.Series[0].Name)

	resp = c.do(http.MethodGet, "/api/chart.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp = c.do(http.MethodGet, "/api/export.pdf?chart=0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "thd-data_export.pdf")
	pdf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	v = c.view(http.MethodPost, "/api/rows/delete", map[string][]int64{"ids": {}})
	assert.Equal(t, 1, v.Total)
	assert.Empty(t, v.Selected)
	assert.Equal(t, "NY", v.Rows[0].State)

	v = c.view(http.MethodPost, "/api/reset", nil)
	assert.Equal(t, "fresh", v.Mode)
	assert.Equal(t, 0, v.Total)
	assert.Equal(t, 1, v.TotalPages)

	// An empty view still exports a header-only table.
	resp = c.do(http.MethodGet, "/api/export.pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pdf, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

// The dashboard reads ids as JavaScript numbers, so aggregate ids must come
// back unchanged after passing through a float64.
func TestToggleWithFloatIDs(t *testing.T) {
	c := newTestServer(t, testStore())
	c.view(http.MethodPost, "/api/filter", filterRequest{Measure: []string{"PSH"}})

	resp := c.do(http.MethodGet, "/api/view", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var raw struct {
		Rows []struct {
			ID float64 `json:"id"`
		} `json:"rows"`
		Selected []float64 `json:"selected"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.Len(t, raw.Rows, 1)
	require.Len(t, raw.Selected, 1)
	id := raw.Rows[0].ID

	v := c.view(http.MethodPost, "/api/selection/toggle", map[string]float64{"id": id})
	assert.Empty(t, v.Selected)
	assert.Equal(t, id, float64(v.Rows[0].ID))

	v = c.view(http.MethodPost, "/api/selection/toggle", map[string]float64{"id": id})
	assert.Equal(t, []int64{v.Rows[0].ID}, v.Selected)

	v = c.view(http.MethodPost, "/api/rows/delete", map[string][]float64{"ids": {id}})
	assert.Equal(t, 0, v.Total)
}

func TestPaging(t *testing.T) {
	c := newTestServer(t, testStore())

	v := c.view(http.MethodPost, "/api/page", map[string]int{"page": 2})
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, 3, v.From)
	assert.Equal(t, 4, v.To)

	v = c.view(http.MethodPost, "/api/page", map[string]int{"page": 9})
	assert.Equal(t, 2, v.Page)

	v = c.view(http.MethodPost, "/api/selection/page", map[string]bool{"selected": true})
	assert.Equal(t, []int64{30, 40}, v.Selected)
	v = c.view(http.MethodPost, "/api/selection/page", map[string]bool{"selected": false})
	assert.Empty(t, v.Selected)
}

func TestSessionsAreIsolated(t *testing.T) {
	c := newTestServer(t, testStore())
	c.view(http.MethodPost, "/api/filter", filterRequest{Measure: []string{"RRH"}})

	other := &client{t: t, base: c.base, http: &http.Client{}}
	v := other.view(http.MethodGet, "/api/view", nil)
	assert.Equal(t, "fresh", v.Mode)
	assert.Equal(t, 4, v.Total)

	v = c.view(http.MethodGet, "/api/view", nil)
	assert.Equal(t, "comparison", v.Mode)
	assert.Equal(t, 1, v.Total)
}

func TestBadRequests(t *testing.T) {
	c := newTestServer(t, testStore())
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"malformed filter", http.MethodPost, "/api/filter", `{"measure": "PSH"`},
		{"unknown field", http.MethodPost, "/api/filter", `{"county": ["x"]}`},
		{"missing id", http.MethodPost, "/api/selection/toggle", `{}`},
		{"bad page", http.MethodPost, "/api/page", `{"page": "two"}`},
		{"bad log flag", http.MethodGet, "/api/chart?log=maybe", ``},
		{"bad chart flag", http.MethodGet, "/api/export.pdf?chart=maybe", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, c.base+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := c.http.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMetadataAndHealth(t *testing.T) {
	c := newTestServer(t, testStore())

	resp := c.do(http.MethodGet, "/api/metadata", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var meta metadataResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&meta))
	assert.Equal(t, []string{"CA", "NY"}, meta.States)
	assert.Equal(t, []string{"CA-500", "CA-501"}, meta.CoCNumbersByState["CA"])
	assert.Equal(t, []string{"RRH", "PSH"}, meta.Measures)
	assert.Len(t, meta.Years, dataset.NumYears)
	assert.Equal(t, 2, meta.PageSize)
	assert.Equal(t, 4, meta.Records)

	resp = c.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp = c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cocstats_store_records")
}

func TestEmptyStore(t *testing.T) {
	c := newTestServer(t, nil)
	v := c.view(http.MethodGet, "/api/view", nil)
	assert.True(t, v.NoData)
	assert.Equal(t, 0, v.Total)
	assert.Equal(t, 0.0, testutil.ToFloat64(storeRecords))
}

func TestSessionEviction(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	table := newSessionTable(time.Minute, func() *view.Session { return view.NewSession(nil, view.Options{}) })
	table.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	s := table.acquire(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	s.mu.Unlock()
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)

	// Same cookie, same session.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	again := table.acquire(httptest.NewRecorder(), req)
	again.mu.Unlock()
	assert.Same(t, s, again)
	assert.Equal(t, 1, table.len())

	// Another client arriving after the TTL evicts the idle session.
	now = now.Add(2 * time.Minute)
	other := table.acquire(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	other.mu.Unlock()
	assert.Equal(t, 1, table.len())
	assert.NotSame(t, s, other)
}
