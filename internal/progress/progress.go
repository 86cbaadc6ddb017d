// Package progress writes the milestone log: one timestamped line per
// pipeline milestone, appended to a file that is never truncated or rotated.
package progress

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gdp-etl/internal/chrono"
	"gdp-etl/internal/gdp"
)

// TimestampLayout renders as YYYY-Mon-DD-HH:MM:SS, ex. 2023-Sep-02-18:53:26
const TimestampLayout = "2006-Jan-02-15:04:05"

// Sink is anything that can durably append a single line.
type Sink interface {
	AppendLine(line string) error
}

// FileSink appends lines to the file at Path, creating it if it does not exist.
type FileSink struct {
	Path string
}

func (s FileSink) AppendLine(line string) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: create log dir: %w", gdp.ErrStorage, err)
		}
	}

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: open log %q: %w", gdp.ErrStorage, s.Path, err)
	}
	_, err = f.WriteString(line + "\n")
	if err != nil {
		f.Close()
		return fmt.Errorf("%w: write log %q: %w", gdp.ErrStorage, s.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close log %q: %w", gdp.ErrStorage, s.Path, err)
	}
	return nil
}

// Logger stamps milestone messages with the current time and hands them to a Sink.
type Logger struct {
	sink Sink
	time chrono.TimeAPI
}

func NewLogger(sink Sink, time chrono.TimeAPI) Logger {
	return Logger{sink: sink, time: time}
}

// FormatLine renders a log line without the trailing newline.
func FormatLine(t time.Time, message string) string {
	return t.Format(TimestampLayout) + " : " + message
}

// Log appends "<timestamp> : <message>" to the sink.
func (l Logger) Log(message string) error {
	return l.sink.AppendLine(FormatLine(l.time.Now(), message))
}
