package pricelog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Logger appends price observations to a flat file, one "{price},{timestamp}"
// line per observation. The file is cleared when the logger is created and
// only ever appended to after that. These files feed model retraining, so the
// line format is stable.
type Logger struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
}

// New creates a logger writing to path, truncating any previous contents.
// Timestamps are rendered in the process-local zone.
func New(path string) (*Logger, error) {
	return NewInLocation(path, time.Local)
}

// NewInLocation is New with an explicit timestamp zone.
func NewInLocation(path string, loc *time.Location) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	l := &Logger{path: path, loc: loc}
	if err := l.Clear(); err != nil {
		return nil, err
	}
	return l, nil
}

// Append writes one price line. ts is the time the price corresponds to, not
// the time of writing.
func (l *Logger) Append(price decimal.Decimal, ts time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s,%s\n", price.StringFixed(2), ts.In(l.loc).Format(time.RFC3339Nano))
	return err
}

// Clear wipes the log file.
func (l *Logger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return os.WriteFile(l.path, nil, 0o644)
}

// Path returns the file the logger writes to.
func (l *Logger) Path() string {
	return l.path
}
