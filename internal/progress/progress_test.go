package progress

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gdp-etl/internal/chrono"
	"gdp-etl/internal/gdp"

	"github.com/stretchr/testify/require"
)

func TestFormatLine(t *testing.T) {
	ts := time.Date(2023, time.September, 2, 18, 53, 6, 0, time.UTC)
	require.Equal(t, "2023-Sep-02-18:53:06 : Process Complete.", FormatLine(ts, "Process Complete."))

	ts = time.Date(2024, time.January, 9, 7, 4, 5, 0, time.UTC)
	require.Equal(t, "2024-Jan-09-07:04:05 : x", FormatLine(ts, "x"))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(contents), "\n"), "\n")
}

func TestLoggerAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "etl_project_log.txt")
	clock := &chrono.SteppedTime{
		Start: time.Date(2023, time.September, 2, 18, 0, 0, 0, time.UTC),
		Step:  time.Second,
	}

	first := NewLogger(FileSink{Path: path}, clock)
	require.NoError(t, first.Log("Preliminaries complete. Initiating ETL process"))
	require.NoError(t, first.Log("Process Complete."))

	firstRun := readLines(t, path)
	require.Len(t, firstRun, 2)

	second := NewLogger(FileSink{Path: path}, clock)
	require.NoError(t, second.Log("Preliminaries complete. Initiating ETL process"))
	require.NoError(t, second.Log("Process Complete."))

	lines := readLines(t, path)
	require.Len(t, lines, 4)
	require.Equal(t, firstRun, lines[:2])

	var prev time.Time
	for i, line := range lines {
		stamp, _, ok := strings.Cut(line, " : ")
		require.True(t, ok, "line %d has no separator: %q", i, line)
		ts, err := time.Parse(TimestampLayout, stamp)
		require.NoError(t, err)
		if i > 0 {
			require.True(t, ts.After(prev), "line %d is not after line %d", i, i-1)
		}
		prev = ts
	}
}

func TestFileSinkUnwritable(t *testing.T) {
	dir := t.TempDir()
	sink := FileSink{Path: dir}
	err := sink.AppendLine("nope")
	require.ErrorIs(t, err, gdp.ErrStorage)
}
