// Package report formats and appends batch result lines.
package report

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/exapt/pkg/exapt/score"
)

// NoMatch replaces the best match and everything after it when nothing
// cleared the match threshold.
const NoMatch = "No Match"

// Line is one processed application.
type Line struct {
	SourceFile string
	App        string
	Observed   string
	Best       string
	Matched    bool
	Distance   float64
	Top        []score.Match
}

// String renders the line as
// sourceFile;app;observed;best;distance;top10 or sourceFile;app;observed;No Match.
func (l Line) String() string {
	if !l.Matched {
		return strings.Join([]string{l.SourceFile, l.App, l.Observed, NoMatch}, ";")
	}
	return strings.Join([]string{
		l.SourceFile,
		l.App,
		l.Observed,
		l.Best,
		FormatFloat(l.Distance),
		FormatMatches(l.Top),
	}, ";")
}

// FormatMatches renders matches as a dict literal, e.g. {'Music': 0.75}.
func FormatMatches(matches []score.Match) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, m := range matches {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(m.Name))
		b.WriteString(": ")
		b.WriteString(FormatFloat(m.Score))
	}
	b.WriteByte('}')
	return b.String()
}

// FormatFloat prints the shortest representation of f, always with a
// fractional part: 4 → "4.0", 0.5 → "0.5".
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", `\'`) + "'"
}

// Writer appends result lines.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// NewWriter wraps w. Close does not close w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// OpenAppend opens path for appending, creating it when missing.
func OpenAppend(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	return &Writer{w: f, c: f}, nil
}

// Write appends one line.
func (w *Writer) Write(l Line) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.w, l.String()+"\n"); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Close closes the underlying file, if any.
func (w *Writer) Close() error {
	if w.c == nil {
		return nil
	}
	return w.c.Close()
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewRunID returns a sortable identifier for a batch run.
func NewRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Summary counts the outcome of a batch run.
type Summary struct {
	RunID       string
	Started     time.Time
	Finished    time.Time
	Processed   int
	Failed      int
	NoMatch     int
	Exaptations int
}

// NewSummary starts a summary with a fresh run id.
func NewSummary() Summary {
	return Summary{RunID: NewRunID(), Started: time.Now()}
}

func (s Summary) String() string {
	return fmt.Sprintf("run %s: %d processed, %d failed, %d without match, %d possible exaptations in %s",
		s.RunID, s.Processed, s.Failed, s.NoMatch, s.Exaptations, s.Finished.Sub(s.Started).Round(time.Millisecond))
}
