package hal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/w1mrk/cwkeyer/keyer"
)

// DecodeLogger appends decoded characters to a daily-rolling log file,
// grounded on the teacher's src/log.go rolling log file naming (which uses
// the same strftime library to turn a pattern like "%Y/%m/%d.log" into a
// concrete path once per day).
type DecodeLogger struct {
	dir     string
	pattern *strftime.Strftime

	openDay string
	f       *os.File
}

// NewDecodeLogger returns a logger that writes under dir, one file per
// calendar day named by layout (an strftime pattern, e.g. "cw-%Y%m%d.log").
func NewDecodeLogger(dir, layout string) (*DecodeLogger, error) {
	pattern, err := strftime.New(layout)
	if err != nil {
		return nil, fmt.Errorf("hal: decode log pattern: %w", err)
	}
	return &DecodeLogger{dir: dir, pattern: pattern}, nil
}

// WriteDecoded appends one decoded character to today's log file, opening
// (or rolling to) a new file if the calendar day has changed.
func (l *DecodeLogger) WriteDecoded(c keyer.DecodedChar) error {
	now := time.Now()
	name := l.pattern.FormatString(now)
	if name != l.openDay {
		if err := l.roll(name); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(l.f, "%d\t%c\n", c.TimestampUs, c.Char)
	return err
}

func (l *DecodeLogger) roll(name string) error {
	if l.f != nil {
		l.f.Close()
	}
	path := filepath.Join(l.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("hal: decode log mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("hal: decode log open: %w", err)
	}
	l.f = f
	l.openDay = name
	return nil
}

// Close flushes and closes the currently open log file, if any.
func (l *DecodeLogger) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}
