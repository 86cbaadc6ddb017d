package pipeline

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gdp-etl/internal/chrono"
	"gdp-etl/internal/config"
	"gdp-etl/internal/gdp"
	"gdp-etl/internal/progress"
	"gdp-etl/internal/telemetry"
	"gdp-etl/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type testRun struct {
	cfg   config.Config
	tel   *telemetry.Recorder
	clock *chrono.SteppedTime
	out   *bytes.Buffer
}

func newTestRun(t *testing.T, url string) testRun {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Defaults()
	cfg.Source.URL = url
	cfg.Source.TimeoutSeconds = 5
	cfg.Output.CSV = filepath.Join(dir, config.DefaultCSV)
	cfg.Output.Log = filepath.Join(dir, config.DefaultLog)
	cfg.Database.File = filepath.Join(dir, config.DefaultDBFile)

	return testRun{
		cfg: cfg,
		tel: &telemetry.Recorder{},
		clock: &chrono.SteppedTime{
			Start: time.Date(2023, time.September, 2, 18, 53, 26, 0, time.UTC),
			Step:  time.Second,
		},
		out: &bytes.Buffer{},
	}
}

func (r testRun) pipeline(t *testing.T) Pipeline {
	t.Helper()
	p, err := New(Options{
		Config:    r.cfg,
		Telemetry: r.tel,
		Time:      r.clock,
		Out:       r.out,
	})
	require.NoError(t, err)
	require.Len(t, p.RunID, 8)
	return p
}

func readLog(t *testing.T, path string) []string {
	t.Helper()
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(contents), "\n"), "\n")
}

func dumpTable(t *testing.T, path, table string) [][]any {
	t.Helper()
	db := testutil.OpenSqlite(t, path)
	rows, err := db.Query("SELECT * FROM " + table)
	require.NoError(t, err)
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var country string
		var billions float64
		require.NoError(t, rows.Scan(&country, &billions))
		out = append(out, []any{country, billions})
	}
	require.NoError(t, rows.Err())
	return out
}

func TestRun(t *testing.T) {
	server := testutil.ServePage(t, testutil.GDPPage)
	run := newTestRun(t, server.URL)

	result, err := run.pipeline(t).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateDone, result.State)

	expected := []gdp.Record{
		{Country: "United States", GDPBillions: 26854.6},
		{Country: "Country X", GDPBillions: 1.2},
	}
	if diff := cmp.Diff(expected, result.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	queried, err := result.Query.Records()
	require.NoError(t, err)
	require.Equal(t, expected[:1], queried)

	csv, err := os.ReadFile(run.cfg.Output.CSV)
	require.NoError(t, err)
	require.Equal(t,
		",Country,GDP_USD_billions\n0,United States,26854.6\n1,Country X,1.2\n",
		string(csv),
	)

	require.Equal(t, []string{
		"2023-Sep-02-18:53:26 : " + MsgPreliminaries,
		"2023-Sep-02-18:53:27 : " + MsgExtracted,
		"2023-Sep-02-18:53:28 : " + MsgTransformed,
		"2023-Sep-02-18:53:29 : " + MsgCSVSaved,
		"2023-Sep-02-18:53:30 : " + MsgDBConnected,
		"2023-Sep-02-18:53:31 : " + MsgDBLoaded,
		"2023-Sep-02-18:53:32 : " + MsgComplete,
	}, readLog(t, run.cfg.Output.Log))

	printed := run.out.String()
	require.True(t, strings.HasPrefix(
		printed,
		"SELECT * from Countries_by_GDP WHERE GDP_USD_billions >= 100\n",
	))
	require.Contains(t, printed, "United States")
	require.NotContains(t, printed, "Country X")

	require.Empty(t, run.tel.Reports("broken"))
	require.NotEmpty(t, run.tel.Reports("count"))
}

func TestRunTwice(t *testing.T) {
	server := testutil.ServePage(t, testutil.GDPPage)
	run := newTestRun(t, server.URL)

	_, err := run.pipeline(t).Run(context.Background())
	require.NoError(t, err)
	firstCSV, err := os.ReadFile(run.cfg.Output.CSV)
	require.NoError(t, err)
	firstLog := readLog(t, run.cfg.Output.Log)
	firstTable := dumpTable(t, run.cfg.Database.File, run.cfg.Database.Table)
	require.Equal(t, [][]any{
		{"United States", 26854.6},
		{"Country X", 1.2},
	}, firstTable)

	second, err := run.pipeline(t).Run(context.Background())
	require.NoError(t, err)
	secondCSV, err := os.ReadFile(run.cfg.Output.CSV)
	require.NoError(t, err)
	require.Equal(t, firstCSV, secondCSV)

	lines := readLog(t, run.cfg.Output.Log)
	require.Len(t, lines, 14)
	require.Equal(t, firstLog, lines[:7])
	for i := 1; i < len(lines); i++ {
		prev, err := time.Parse(progress.TimestampLayout, strings.SplitN(lines[i-1], " : ", 2)[0])
		require.NoError(t, err)
		next, err := time.Parse(progress.TimestampLayout, strings.SplitN(lines[i], " : ", 2)[0])
		require.NoError(t, err)
		require.True(t, next.After(prev), lines[i])
	}

	require.Equal(t, firstTable, dumpTable(t, run.cfg.Database.File, run.cfg.Database.Table))

	queried, err := second.Query.Records()
	require.NoError(t, err)
	require.Len(t, queried, 1)
}

func TestRunSorted(t *testing.T) {
	page := strings.Replace(testutil.GDPPage, "1,200", "99,999,999", 1)
	server := testutil.ServePage(t, page)
	run := newTestRun(t, server.URL)
	run.cfg.SortByGDP = true

	result, err := run.pipeline(t).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Country X", result.Records[0].Country)
	require.Equal(t, "Country X", result.Query.Rows[0][0])
}

func TestRunNetworkFailure(t *testing.T) {
	server := testutil.ServeStatus(t, http.StatusServiceUnavailable)
	run := newTestRun(t, server.URL)

	result, err := run.pipeline(t).Run(context.Background())
	require.ErrorIs(t, err, gdp.ErrNetwork)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	require.Equal(t, StateInit, stageErr.State)
	require.Equal(t, StateInit, result.State)

	require.Equal(t, []string{
		"2023-Sep-02-18:53:26 : " + MsgPreliminaries,
	}, readLog(t, run.cfg.Output.Log))
	require.NoFileExists(t, run.cfg.Output.CSV)
}

func TestRunParseFailure(t *testing.T) {
	page := strings.Replace(testutil.GDPPage, "1,200", "1.2.0", 1)
	server := testutil.ServePage(t, page)
	run := newTestRun(t, server.URL)

	_, err := run.pipeline(t).Run(context.Background())
	require.ErrorIs(t, err, gdp.ErrParse)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	require.Equal(t, StateExtracted, stageErr.State)
}

func TestRunStorageFailure(t *testing.T) {
	server := testutil.ServePage(t, testutil.GDPPage)
	run := newTestRun(t, server.URL)
	run.cfg.Database.Table = "Countries by GDP"

	_, err := run.pipeline(t).Run(context.Background())
	require.ErrorIs(t, err, gdp.ErrStorage)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	require.Equal(t, StateCSVSaved, stageErr.State)
	require.Len(t, readLog(t, run.cfg.Output.Log), 4)
}

func TestQuery(t *testing.T) {
	server := testutil.ServePage(t, testutil.GDPPage)
	run := newTestRun(t, server.URL)

	_, err := run.pipeline(t).Run(context.Background())
	require.NoError(t, err)

	run.cfg.Query.MinGDPBillions = 1
	run.out.Reset()
	result, err := run.pipeline(t).Query(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.True(t, strings.HasPrefix(
		run.out.String(),
		"SELECT * from Countries_by_GDP WHERE GDP_USD_billions >= 1\n",
	))
}

func TestRecords(t *testing.T) {
	server := testutil.ServePage(t, testutil.GDPPage)
	run := newTestRun(t, server.URL)
	run.cfg.SortByGDP = true

	records, err := run.pipeline(t).Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NoFileExists(t, run.cfg.Output.CSV)
	require.NoFileExists(t, run.cfg.Output.Log)

	PrintRecords(run.out, records)
	require.Contains(t, run.out.String(), "26854.6")
}
