package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testTable = `id;parent;name;t1;t2;t3;t4
1;;Arts;Arts;;;
2;1;Music;Arts;Music;;
3;;Sports;Sports;;;
4;3;Football;Sports;Football;;
`

const testKeywords = `{
  "Arts": {"art": 2, "paint": 1},
  "Music": {"song": 3, "band": 1},
  "Sports": {"team": 1, "ball": 1},
  "Football": {"ball": 3, "goal": 1}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testOptions(t *testing.T, mode string) *Options {
	t.Helper()
	dir := t.TempDir()
	return &Options{
		Mode:      mode,
		Taxonomy:  writeFile(t, dir, "categories.csv", testTable),
		Keywords:  writeFile(t, dir, "keywords.json", testKeywords),
		Results:   filepath.Join(dir, "results.txt"),
		SourceDir: dir,
	}
}

func newTestRunner(t *testing.T, opts *Options) (*Runner, *bytes.Buffer) {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	var buf bytes.Buffer
	r.out = &buf
	return r, &buf
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	desc := writeFile(t, dir, "user.txt", "songs")

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"no mode", Options{}, true},
		{"unknown mode", Options{Mode: "explode"}, true},
		{"categories", Options{Mode: "categories"}, false},
		{"distance needs two", Options{Mode: "distance", Categories: []string{"Arts"}}, true},
		{"distance", Options{Mode: "distance", Categories: []string{"Arts", "Music"}}, false},
		{"match without description", Options{Mode: "match"}, true},
		{"match missing file", Options{Mode: "match", Description: filepath.Join(dir, "nope.txt")}, true},
		{"match", Options{Mode: "match", Description: desc}, false},
		{"measure without app", Options{Mode: "measure", Description: desc}, true},
		{"measure", Options{Mode: "measure", Description: desc, App: "com.example"}, false},
		{"batch without list", Options{Mode: "batch"}, true},
		{"classify without apps", Options{Mode: "classify"}, true},
		{"classify", Options{Mode: "classify", Apps: []string{"a"}}, false},
		{"generate without descriptions", Options{Mode: "generate"}, true},
		{"verbose and silent", Options{Mode: "ids", Verbose: true, Silent: true}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "exapt.yaml", `
taxonomy: from-file.csv
keywords: from-file.json
distance_mode: legacy
acquisition:
  max_attempts: 5
`)
	opts := &Options{Mode: "match", Config: cfgPath, Taxonomy: "flag.csv", Retries: 2, Source: "http"}
	cfg, err := opts.LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "flag.csv", cfg.Taxonomy)
	require.Equal(t, "from-file.json", cfg.Keywords)
	require.Equal(t, "legacy", cfg.DistanceMode)
	require.Equal(t, 2, cfg.Acquisition.MaxAttempts)
	require.Equal(t, "http", cfg.Acquisition.Source)

	opts.Mode = "categories"
	cfg, err = opts.LoadConfig()
	require.NoError(t, err)
	require.Empty(t, cfg.Keywords, "categories mode runs without keywords")
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &Options{Mode: "ids", Config: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err := opts.LoadConfig()
	require.Error(t, err)
}

func TestRunCategories(t *testing.T) {
	opts := testOptions(t, "categories")
	opts.Keywords = filepath.Join(t.TempDir(), "absent.json")
	r, out := newTestRunner(t, opts)

	require.NoError(t, r.Run(context.Background()))
	require.Contains(t, out.String(), "Root category 'Category' (0) has no parent and the following children: Arts - Sports")
	require.Contains(t, out.String(), "'Football' (4) has the parent category 'Sports' (3) and no children.")
}

func TestRunIDs(t *testing.T) {
	r, out := newTestRunner(t, testOptions(t, "ids"))

	require.NoError(t, r.Run(context.Background()))
	require.Contains(t, out.String(), "'Football' (4) has the structure id: 02010000.")
}

func TestRunDistance(t *testing.T) {
	opts := testOptions(t, "distance")
	opts.Categories = []string{"Music", "Football"}
	r, out := newTestRunner(t, opts)

	require.NoError(t, r.Run(context.Background()))
	require.Equal(t, "The distance between 'Music' and 'Football' is: 5.0.\n", out.String())

	opts.Categories = []string{"Music", "Opera"}
	require.Error(t, r.Run(context.Background()))
}

func TestRunDistanceLegacy(t *testing.T) {
	opts := testOptions(t, "distance")
	opts.Categories = []string{"Arts", "Music"}
	opts.DistanceMode = "legacy"
	r, out := newTestRunner(t, opts)

	require.NoError(t, r.Run(context.Background()))
	require.Equal(t, "The distance between 'Arts' and 'Music' is: 1.25.\n", out.String())
}

func TestRunMeasureUnknownApp(t *testing.T) {
	opts := testOptions(t, "measure")
	opts.Description = writeFile(t, opts.SourceDir, "user.txt", "The band played every song.")
	opts.App = "com.example.missing"
	r, _ := newTestRunner(t, opts)

	require.Error(t, r.Run(context.Background()))
	_, err := os.Stat(opts.Results)
	require.True(t, os.IsNotExist(err), "failed measurement must not append a result")
}

func TestRunGenerate(t *testing.T) {
	opts := testOptions(t, "generate")
	opts.Descriptions = writeFile(t, opts.SourceDir, "descriptions.json",
		`{"Category": "root", "Arts": "Paintings and sculptures in the gallery.", "Music": "Songs and songs and albums."}`)
	opts.Output = filepath.Join(opts.SourceDir, "generated.json")
	r, _ := newTestRunner(t, opts)

	require.NoError(t, r.Run(context.Background()))
	data, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	require.Contains(t, string(data), `"Arts"`)
	require.Contains(t, string(data), `"Music"`)
	require.NotContains(t, string(data), `"Category"`)
}

func TestRunBatchMissingList(t *testing.T) {
	opts := testOptions(t, "batch")
	opts.List = filepath.Join(opts.SourceDir, "absent.csv")
	r, _ := newTestRunner(t, opts)

	require.Error(t, r.Run(context.Background()))
}

func TestRunClassifySkipsUnknown(t *testing.T) {
	opts := testOptions(t, "classify")
	opts.Apps = []string{"com.example.missing"}
	opts.Retries = 1
	r, out := newTestRunner(t, opts)

	require.NoError(t, r.Run(context.Background()))
	require.False(t, strings.Contains(out.String(), "com.example.missing"))
}
