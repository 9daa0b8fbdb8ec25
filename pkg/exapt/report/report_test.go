package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/exapt/pkg/exapt/score"
)

func TestLineString(t *testing.T) {
	tests := []struct {
		name string
		line Line
		want string
	}{
		{
			name: "match",
			line: Line{
				SourceFile: "spotify.txt",
				App:        "Spotify",
				Observed:   "Arts",
				Best:       "Music",
				Matched:    true,
				Distance:   0.5,
				Top:        []score.Match{{Name: "Music", Score: 0.75}, {Name: "Jazz", Score: 0.0125}},
			},
			want: "spotify.txt;Spotify;Arts;Music;0.5;{'Music': 0.75, 'Jazz': 0.0125}",
		},
		{
			name: "whole distance",
			line: Line{SourceFile: "f", App: "a", Observed: "Sports", Best: "Music", Matched: true, Distance: 4, Top: []score.Match{{Name: "Music", Score: 1}}},
			want: "f;a;Sports;Music;4.0;{'Music': 1.0}",
		},
		{
			name: "no match",
			line: Line{SourceFile: "f", App: "a", Observed: "Sports", Best: "ignored", Distance: 3},
			want: "f;a;Sports;No Match",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.line.String(); got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestFormatMatches(t *testing.T) {
	if got := FormatMatches(nil); got != "{}" {
		t.Errorf("empty: %q", got)
	}
	got := FormatMatches([]score.Match{{Name: "Kids' Games", Score: 0.2}, {Name: `It's "fun"`, Score: 0.1}})
	want := `{"Kids' Games": 0.2, 'It\'s "fun"': 0.1}`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestFormatFloat(t *testing.T) {
	for in, want := range map[float64]string{0: "0.0", 4: "4.0", 0.5: "0.5", 5.875: "5.875", 0.0001: "0.0001"} {
		if got := FormatFloat(in); got != want {
			t.Errorf("FormatFloat(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.txt")
	if err := os.WriteFile(path, []byte("existing\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := OpenAppend(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(Line{SourceFile: "f", App: "a", Observed: "Arts"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "existing\nf;a;Arts;No Match\n" {
		t.Errorf("unexpected file content %q", data)
	}

	var buf bytes.Buffer
	bw := NewWriter(&buf)
	bw.Write(Line{SourceFile: "g", App: "b", Observed: "Sports"})
	if err := bw.Close(); err != nil || !strings.HasPrefix(buf.String(), "g;b;Sports") {
		t.Errorf("buffer writer: %q, %v", buf.String(), err)
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Fatal("run ids must be unique")
	}
	if a >= b {
		t.Errorf("run ids should sort by creation: %s >= %s", a, b)
	}
	if _, err := ulid.Parse(a); err != nil {
		t.Errorf("invalid ulid %s: %v", a, err)
	}
}

func TestSummaryString(t *testing.T) {
	s := NewSummary()
	s.Processed, s.Failed, s.NoMatch, s.Exaptations = 5, 1, 2, 1
	s.Finished = s.Started.Add(1500 * time.Millisecond)
	got := s.String()
	if !strings.Contains(got, "5 processed, 1 failed, 2 without match, 1 possible exaptations in 1.5s") {
		t.Errorf("unexpected summary %q", got)
	}
}
