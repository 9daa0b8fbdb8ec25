package exapt

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/projectdiscovery/gologger"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
	"github.com/cognicore/exapt/pkg/exapt/report"
	"github.com/cognicore/exapt/pkg/exapt/score"
)

// MeasureRequest names a user description and the application it is
// compared with.
type MeasureRequest struct {
	DescriptionFile string
	App             string
}

// Measurement is the outcome of comparing a description with an application.
type Measurement struct {
	DescriptionFile string
	App             string
	// Observed is the tier-1 category of the application's own description.
	Observed score.Match
	// Best is the best match of the user description; valid when Matched.
	Best       score.Match
	Matched    bool
	Top        []score.Match
	Distance   float64
	Exaptation bool
}

// Line converts the measurement into a result line.
func (m Measurement) Line() report.Line {
	return report.Line{
		SourceFile: m.DescriptionFile,
		App:        m.App,
		Observed:   m.Observed.Name,
		Best:       m.Best.Name,
		Matched:    m.Matched,
		Distance:   m.Distance,
		Top:        m.Top,
	}
}

// Measure profiles the user description, determines the application's
// observed category and measures the distance between the best match and
// that category.
func (e *Engine) Measure(ctx context.Context, req MeasureRequest) (Measurement, error) {
	m := Measurement{DescriptionFile: req.DescriptionFile, App: req.App}

	profile, err := e.DescriptionProfile(ctx, req.DescriptionFile)
	if err != nil {
		return m, err
	}

	observed, ok, err := e.CategoryProfile(ctx, req.App)
	if err != nil {
		return m, fmt.Errorf("categorize %q: %w", req.App, err)
	}
	if !ok {
		return m, fmt.Errorf("categorize %q: no category above %v: %w", req.App, e.thresholds.Application, internalerr.ErrNotFound)
	}
	m.Observed = observed

	best, ok, err := e.Match(profile)
	if err != nil {
		return m, err
	}
	if !ok {
		return m, nil
	}
	m.Best, m.Matched = best, true

	if m.Top, err = e.Top(profile); err != nil {
		return m, err
	}

	bestNode, err := e.tree.ByName(best.Name)
	if err != nil {
		return m, err
	}
	observedNode, err := e.tree.ByName(observed.Name)
	if err != nil {
		return m, err
	}
	if m.Distance, err = e.Distance(bestNode, observedNode); err != nil {
		return m, err
	}
	m.Exaptation = e.IsExaptation(m.Distance)
	return m, nil
}

// BatchItem is one line of a batch list.
type BatchItem = MeasureRequest

// ReadBatchList parses "descriptionFile;appName" lines.
func ReadBatchList(r io.Reader) ([]BatchItem, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var items []BatchItem
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read batch line %d: %w", line, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: batch line %d needs descriptionFile;appName", internalerr.ErrInvalidInput, line)
		}
		item := BatchItem{
			DescriptionFile: strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff")),
			App:             strings.TrimSpace(record[1]),
		}
		if item.DescriptionFile == "" || item.App == "" {
			return nil, fmt.Errorf("%w: batch line %d has an empty field", internalerr.ErrInvalidInput, line)
		}
		items = append(items, item)
	}
	return items, nil
}

// Batch measures every item and appends one result line per success.
// Failing items are logged and skipped; only cancellation or a failing
// writer stops the run.
func (e *Engine) Batch(ctx context.Context, items []BatchItem, w *report.Writer) (report.Summary, error) {
	summary := report.NewSummary()
	gologger.Info().Msgf("Batch run %s: %d applications", summary.RunID, len(items))

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			summary.Finished = time.Now()
			return summary, err
		}

		m, err := e.Measure(ctx, item)
		if err != nil {
			if ctx.Err() != nil {
				summary.Finished = time.Now()
				return summary, ctx.Err()
			}
			summary.Failed++
			gologger.Warning().Msgf("Skipping %s (%s): %s", item.App, item.DescriptionFile, err)
			continue
		}

		summary.Processed++
		switch {
		case !m.Matched:
			summary.NoMatch++
			gologger.Info().Msgf("%s: observed %s, no match for %s", m.App, m.Observed.Name, m.DescriptionFile)
		case m.Exaptation:
			summary.Exaptations++
			gologger.Info().Msgf("%s: observed %s, best match %s, distance %s: might be an exaptation",
				m.App, m.Observed.Name, m.Best.Name, report.FormatFloat(m.Distance))
		default:
			gologger.Verbose().Msgf("%s: observed %s, best match %s, distance %s",
				m.App, m.Observed.Name, m.Best.Name, report.FormatFloat(m.Distance))
		}

		if err := w.Write(m.Line()); err != nil {
			summary.Finished = time.Now()
			return summary, err
		}
	}

	summary.Finished = time.Now()
	return summary, nil
}

// ClassifyApplications writes the application top-K matches of every app as
// "app: {matches}". Apps that cannot be fetched or profiled are logged and
// skipped.
func (e *Engine) ClassifyApplications(ctx context.Context, apps []string, w io.Writer) error {
	for _, app := range apps {
		if err := ctx.Err(); err != nil {
			return err
		}
		profile, err := e.AppProfile(ctx, app)
		if err != nil {
			gologger.Warning().Msgf("Skipping %s: %s", app, err)
			continue
		}
		top, err := e.TopApplication(profile)
		if err != nil {
			gologger.Warning().Msgf("Skipping %s: %s", app, err)
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", app, report.FormatMatches(top)); err != nil {
			return err
		}
	}
	return nil
}
