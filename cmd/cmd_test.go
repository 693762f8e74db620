package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/cocstats/dataset"
)

// sourceRow builds one grid row whose Overall Homeless block is filled with
// base, base+1, ... and whose other blocks are left blank.
func sourceRow(state, coc, name string, base int) []string {
	row := []string{"", state, coc, name, "Major City", ""}
	for y := 0; y < dataset.NumYears; y++ {
		row = append(row, strconv.Itoa(base+y))
	}
	return row
}

func writeSource(t *testing.T, rows ...[]string) string {
	t.Helper()
	grid := append([][]string{
		{"CoC statistics"},
		{"", "State", "CoC Number", "CoC Name", "CoC Category", ""},
	}, rows...)
	path := filepath.Join(t.TempDir(), "source.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, csv.NewWriter(f).WriteAll(grid))
	require.NoError(t, f.Close())
	return path
}

func defaultSource(t *testing.T) string {
	return writeSource(t,
		sourceRow("CA", "CA-500", "San Jose CoC", 100),
		sourceRow("CA", "CA-501", "San Francisco CoC", 1000),
		sourceRow("NY", "NY-600", "New York City CoC", 5000),
	)
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append(args, "--log-format", "json"))
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestViewCmd_Unfiltered(t *testing.T) {
	src := defaultSource(t)

	out, _, err := run(t, "view", "--source", src)
	require.NoError(t, err)

	// Three rows, one record per measure block each.
	assert.Contains(t, out, "Showing 1 to 10 of 24 (page 1 of 3)")
	assert.Contains(t, out, "CA-500")
	assert.Contains(t, out, "San Jose CoC")
}

func TestViewCmd_PageAndAll(t *testing.T) {
	src := defaultSource(t)

	out, _, err := run(t, "view", "--source", src, "--page", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 21 to 24 of 24 (page 3 of 3)")

	out, _, err = run(t, "view", "--source", src, "--page", "9", "--page-size", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 21 to 24 of 24 (page 5 of 5)")

	out, _, err = run(t, "view", "--source", src, "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Showing 1 to 24 of 24")
}

func TestViewCmd_FiltersAggregate(t *testing.T) {
	src := defaultSource(t)

	out, _, err := run(t, "view", "--source", src,
		"--filter", "state=CA;measure=Overall Homeless",
		"--coc", "NY-600", "--measure", "Overall Homeless",
		"--years")
	require.NoError(t, err)

	assert.Contains(t, out, "Aggregated Data")
	assert.Contains(t, out, "CA-500, CA-501")
	assert.Contains(t, out, "NY-600")
	// 2007 for the CA aggregate is 100 + 1000.
	assert.Contains(t, out, "1,100")
	assert.Contains(t, out, "Showing 1 to 2 of 2")
}

func TestViewCmd_DuplicateAndNoMatch(t *testing.T) {
	src := defaultSource(t)

	_, errOut, err := run(t, "view", "--source", src,
		"--filter", "coc=CA-500",
		"--filter", "cocNumber=CA-500",
		"--filter", "coc=ZZ-999")
	require.NoError(t, err)
	assert.Contains(t, errOut, "filter 2: duplicate")
	assert.Contains(t, errOut, "filter 3: no-match")
	assert.Contains(t, errOut, "filter values not in data")
}

func TestViewCmd_EmptyFirstFilter(t *testing.T) {
	src := defaultSource(t)

	out, _, err := run(t, "view", "--source", src, "--filter", "state=TX")
	require.NoError(t, err)
	assert.Contains(t, out, "No rows.")
}

func TestViewCmd_Errors(t *testing.T) {
	src := defaultSource(t)

	_, _, err := run(t, "view", "--source", src, "--filter", "county=X")
	assert.ErrorContains(t, err, `unknown key "county"`)

	_, _, err = run(t, "view", "--source", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, _, err = run(t, "view", "--source", "ftp://example.com/data.csv")
	assert.Error(t, err)
}

func TestExportCmd(t *testing.T) {
	src := defaultSource(t)
	out := filepath.Join(t.TempDir(), "export.pdf")

	stdout, _, err := run(t, "export", "--source", src, "--out", out,
		"--filter", "state=CA;measure=Overall Homeless",
		"--filter", "state=NY;measure=Overall Homeless")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out+" (2 rows, 1 pages)")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportCmd_WholeTableWithoutChart(t *testing.T) {
	src := defaultSource(t)
	out := filepath.Join(t.TempDir(), "export.pdf")

	stdout, _, err := run(t, "export", "--source", src, "--out", out, "--chart=false", "--log")
	require.NoError(t, err)
	assert.Contains(t, stdout, "(24 rows, 1 pages)")
}

func TestExportCmd_EmptyView(t *testing.T) {
	src := defaultSource(t)
	out := filepath.Join(t.TempDir(), "export.pdf")

	stdout, errOut, err := run(t, "export", "--source", src, "--out", out, "--state", "TX")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out+" (0 rows, 1 pages)")
	assert.Contains(t, errOut, "exporting header only")
	assert.FileExists(t, out)
}

func TestFetchCmd(t *testing.T) {
	src := writeSource(t,
		sourceRow("CA", "CA-500", "San Jose CoC", 100),
		sourceRow("CA", "CA-500", "San Jose CoC (old)", 100),
	)
	out := filepath.Join(t.TempDir(), "copy.csv")

	stdout, errOut, err := run(t, "fetch", "--source", src, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out+" (4 rows, 16 records)")
	assert.Contains(t, errOut, "8 duplicate series")
	assert.Contains(t, errOut, "CA/CA-500/Overall Homeless (ids 20, 30)")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	grid, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, grid, 4)
	assert.Equal(t, "San Jose CoC (old)", grid[3][3])
}
