package exapt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cognicore/exapt/pkg/exapt/acquire"
	"github.com/cognicore/exapt/pkg/exapt/distance"
	"github.com/cognicore/exapt/pkg/exapt/internalerr"
	"github.com/cognicore/exapt/pkg/exapt/keywords"
	"github.com/cognicore/exapt/pkg/exapt/report"
	"github.com/cognicore/exapt/pkg/exapt/taxonomy"
)

const testTable = `id;parent;name;t1;t2;t3;t4
1;;Arts;Arts;;;
2;1;Music;Arts;Music;;
3;2;Jazz;Arts;Music;Jazz;
4;;Sports;Sports;;;
5;4;Football;Sports;Football;;
`

const testKeywords = `{
  "Arts": {"art": 2, "paint": 1, "song": 1},
  "Music": {"song": 3, "band": 1},
  "Jazz": {"swing": 2, "song": 1},
  "Sports": {"team": 1, "ball": 1},
  "Football": {"ball": 3, "goal": 1}
}`

func newTestEngine(t *testing.T, mode distance.Mode) *Engine {
	t.Helper()
	rows, err := taxonomy.ReadTable(strings.NewReader(testTable))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := taxonomy.Build(rows)
	if err != nil {
		t.Fatal(err)
	}
	dict, err := keywords.ReadDictionary(strings.NewReader(testKeywords))
	if err != nil {
		t.Fatal(err)
	}
	if err := dict.Apply(tree); err != nil {
		t.Fatal(err)
	}

	e, err := New(Options{
		Tree: tree,
		Apps: acquire.MapSource{
			"Goal Tracker": "Follow every goal and ball of the football team.",
		},
		Descriptions: acquire.MapSource{
			"user.txt":    "I love listening to songs and every song of my favourite band.",
			"ledger.txt":  "Spreadsheet invoices accounting",
			"missing.txt": "",
		},
		Metric: distance.Metric{Mode: mode},
	})
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNewRequiresTree(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewDefaults(t *testing.T) {
	e := newTestEngine(t, distance.Symmetric)
	th := e.Thresholds()
	if th.Match != 0.01 || th.Application != 0.008 || th.K != 10 {
		t.Errorf("unexpected thresholds %+v", th)
	}
	if !e.IsExaptation(4) || e.IsExaptation(3.99) {
		t.Error("exaptation distance should default to 4")
	}
}

func TestObservedCategory(t *testing.T) {
	e := newTestEngine(t, distance.Symmetric)

	top, ok, err := e.ObservedCategory(taxonomy.Profile{"ball": 2, "goal": 1})
	if err != nil {
		t.Fatal(err)
	}
	if !ok || top.Name != "Sports" {
		t.Errorf("expected Sports, got %+v (ok=%v)", top, ok)
	}

	_, ok, err = e.ObservedCategory(taxonomy.Profile{"spreadsheet": 1})
	if err != nil || ok {
		t.Errorf("expected no category, got ok=%v err=%v", ok, err)
	}
}

func TestMatchAndTop(t *testing.T) {
	e := newTestEngine(t, distance.Symmetric)

	best, ok, err := e.Match(taxonomy.Profile{"song": 2})
	if err != nil || !ok || best.Name != "Music" || best.Score != 0.75 {
		t.Errorf("expected Music at 0.75, got %+v ok=%v err=%v", best, ok, err)
	}

	top, err := e.Top(taxonomy.Profile{"song": 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 3 || top[0].Name != "Music" || top[1].Name != "Jazz" || top[2].Name != "Arts" {
		t.Errorf("unexpected top matches %v", top)
	}

	if _, _, err := e.Match(taxonomy.Profile{}); !errors.Is(err, internalerr.ErrDivisionUndefined) {
		t.Errorf("expected ErrDivisionUndefined, got %v", err)
	}
}

func TestDistanceByName(t *testing.T) {
	sym := newTestEngine(t, distance.Symmetric)
	legacy := newTestEngine(t, distance.LegacyCompat)

	tests := []struct {
		a, b      string
		symmetric float64
		legacy    float64
	}{
		{"Arts", "Music", 0.5, 1.25},
		{"Arts", "Sports", 4, 5.75},
		{"Music", "Music", 0, 0},
	}
	for _, tc := range tests {
		if d, err := sym.DistanceByName(tc.a, tc.b); err != nil || d != tc.symmetric {
			t.Errorf("symmetric %s/%s = %v, %v", tc.a, tc.b, d, err)
		}
		if d, err := legacy.DistanceByName(tc.a, tc.b); err != nil || d != tc.legacy {
			t.Errorf("legacy %s/%s = %v, %v", tc.a, tc.b, d, err)
		}
	}

	if _, err := sym.DistanceByName("Arts", "Opera"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := sym.DistanceByName(taxonomy.RootName, "Arts"); !errors.Is(err, internalerr.ErrInvalidStructureID) {
		t.Errorf("root has no valid structure id, got %v", err)
	}
}

func TestMeasure(t *testing.T) {
	e := newTestEngine(t, distance.Symmetric)
	ctx := context.Background()

	m, err := e.Measure(ctx, MeasureRequest{DescriptionFile: "user.txt", App: "Goal Tracker"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Observed.Name != "Sports" || !m.Matched || m.Best.Name != "Music" {
		t.Fatalf("unexpected measurement %+v", m)
	}
	if m.Distance != 4.5 || !m.Exaptation {
		t.Errorf("expected exaptation at 4.5, got %v (%v)", m.Distance, m.Exaptation)
	}
	if line := m.Line().String(); !strings.HasPrefix(line, "user.txt;Goal Tracker;Sports;Music;4.5;{'Music': ") {
		t.Errorf("unexpected line %q", line)
	}

	m, err = e.Measure(ctx, MeasureRequest{DescriptionFile: "ledger.txt", App: "Goal Tracker"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Matched {
		t.Errorf("expected no match, got %+v", m.Best)
	}
	if line := m.Line().String(); line != "ledger.txt;Goal Tracker;Sports;No Match" {
		t.Errorf("unexpected line %q", line)
	}

	if _, err := e.Measure(ctx, MeasureRequest{DescriptionFile: "user.txt", App: "Unknown"}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown app, got %v", err)
	}
}

func TestReadBatchList(t *testing.T) {
	items, err := ReadBatchList(strings.NewReader("\ufeffa.txt;App One\n\nb.txt; App Two \n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].DescriptionFile != "a.txt" || items[1].App != "App Two" {
		t.Errorf("unexpected items %+v", items)
	}

	if _, err := ReadBatchList(strings.NewReader("only-a-file.txt\n")); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestBatch(t *testing.T) {
	e := newTestEngine(t, distance.Symmetric)

	var buf bytes.Buffer
	items := []BatchItem{
		{DescriptionFile: "user.txt", App: "Goal Tracker"},
		{DescriptionFile: "user.txt", App: "Unknown"},
		{DescriptionFile: "ledger.txt", App: "Goal Tracker"},
	}
	summary, err := e.Batch(context.Background(), items, report.NewWriter(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 2 || summary.Failed != 1 || summary.NoMatch != 1 || summary.Exaptations != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.RunID == "" {
		t.Error("summary should carry a run id")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 result lines, got %q", buf.String())
	}
	if lines[1] != "ledger.txt;Goal Tracker;Sports;No Match" {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestBatchCancelled(t *testing.T) {
	e := newTestEngine(t, distance.Symmetric)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := e.Batch(ctx, []BatchItem{{DescriptionFile: "user.txt", App: "Goal Tracker"}}, report.NewWriter(&buf))
	if !errors.Is(err, context.Canceled) || buf.Len() != 0 {
		t.Errorf("expected cancellation before any work, got %v and %q", err, buf.String())
	}
}

func TestClassifyApplications(t *testing.T) {
	e := newTestEngine(t, distance.Symmetric)

	var buf bytes.Buffer
	if err := e.ClassifyApplications(context.Background(), []string{"Goal Tracker", "Missing"}, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Goal Tracker: {") || !strings.Contains(out, "'Football': ") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "Missing") {
		t.Errorf("missing app should be skipped: %q", out)
	}
}
