package runner

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/projectdiscovery/gologger"

	"github.com/cognicore/exapt/pkg/exapt"
	"github.com/cognicore/exapt/pkg/exapt/config"
	"github.com/cognicore/exapt/pkg/exapt/keywords"
	"github.com/cognicore/exapt/pkg/exapt/report"
)

// Runner executes one command line invocation.
type Runner struct {
	options    *Options
	config     config.Config
	components *config.Components
	engine     *exapt.Engine
	out        io.Writer
}

// New loads the configured files and prepares the engine.
func New(options *Options) (*Runner, error) {
	cfg, err := options.LoadConfig()
	if err != nil {
		return nil, err
	}
	loader := config.Loader{Config: cfg}
	comp, err := loader.Load()
	if err != nil {
		return nil, err
	}
	engine, err := exapt.New(exapt.Options{
		Tree:               comp.Tree,
		Extractor:          comp.Extractor,
		Apps:               comp.Apps,
		Descriptions:       comp.Descriptions,
		Metric:             comp.Metric,
		Thresholds:         comp.Thresholds,
		ExaptationDistance: comp.ExaptationDistance,
	})
	if err != nil {
		return nil, err
	}
	gologger.Verbose().Msgf("Loaded %d categories from %s", comp.Tree.Len(), cfg.Taxonomy)
	return &Runner{
		options:    options,
		config:     cfg,
		components: comp,
		engine:     engine,
		out:        os.Stdout,
	}, nil
}

// Run dispatches on the selected mode.
func (r *Runner) Run(ctx context.Context) error {
	switch r.options.Mode {
	case "categories":
		return r.engine.Tree().Describe(r.out)
	case "ids":
		return r.engine.Tree().DescribeStructureIDs(r.out)
	case "distance":
		return r.distance()
	case "profile":
		return r.profile(ctx)
	case "match":
		return r.match(ctx)
	case "top":
		return r.top(ctx)
	case "measure":
		return r.measure(ctx)
	case "batch":
		return r.batch(ctx)
	case "classify":
		return r.classify(ctx)
	case "generate":
		return r.generate()
	}
	return fmt.Errorf("unknown mode %q", r.options.Mode)
}

func (r *Runner) distance() error {
	a, b := r.options.Categories[0], r.options.Categories[1]
	d, err := r.engine.DistanceByName(a, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "The distance between '%s' and '%s' is: %s.\n", a, b, report.FormatFloat(d))
	if r.engine.IsExaptation(d) {
		gologger.Info().Msgf("'%s' and '%s' lie in different main categories", a, b)
	}
	return nil
}

func (r *Runner) profile(ctx context.Context) error {
	profile, err := r.engine.DescriptionProfile(ctx, r.options.Description)
	if err != nil {
		return err
	}
	for _, token := range keywords.Ranked(profile) {
		fmt.Fprintf(r.out, "%s: %d\n", token, profile[token])
	}
	return nil
}

func (r *Runner) match(ctx context.Context) error {
	profile, err := r.engine.DescriptionProfile(ctx, r.options.Description)
	if err != nil {
		return err
	}
	best, ok, err := r.engine.Match(profile)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(r.out, report.NoMatch)
		return nil
	}
	fmt.Fprintf(r.out, "%s: %s\n", best.Name, report.FormatFloat(best.Score))
	return nil
}

func (r *Runner) top(ctx context.Context) error {
	profile, err := r.engine.DescriptionProfile(ctx, r.options.Description)
	if err != nil {
		return err
	}
	top, err := r.engine.Top(profile)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, report.FormatMatches(top))
	return nil
}

func (r *Runner) measure(ctx context.Context) error {
	m, err := r.engine.Measure(ctx, exapt.MeasureRequest{
		DescriptionFile: r.options.Description,
		App:             r.options.App,
	})
	if err != nil {
		return err
	}
	line := m.Line()
	fmt.Fprintln(r.out, line.String())
	if m.Exaptation {
		gologger.Info().Msgf("%s is used as %s but was described as %s: might be an exaptation",
			m.App, m.Best.Name, m.Observed.Name)
	}
	return r.appendResults(line)
}

func (r *Runner) appendResults(line report.Line) error {
	if r.config.Results == "" {
		return nil
	}
	w, err := report.OpenAppend(r.config.Results)
	if err != nil {
		return err
	}
	if err := w.Write(line); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (r *Runner) batch(ctx context.Context) error {
	f, err := os.Open(r.options.List)
	if err != nil {
		return err
	}
	items, err := exapt.ReadBatchList(f)
	f.Close()
	if err != nil {
		return err
	}

	var w *report.Writer
	if r.config.Results != "" {
		w, err = report.OpenAppend(r.config.Results)
		if err != nil {
			return err
		}
	} else {
		w = report.NewWriter(r.out)
	}
	defer w.Close()

	summary, err := r.engine.Batch(ctx, items, w)
	gologger.Info().Msgf("%s", summary)
	return err
}

func (r *Runner) classify(ctx context.Context) error {
	out, closer, err := r.output()
	if err != nil {
		return err
	}
	defer closer()
	return r.engine.ClassifyApplications(ctx, r.options.Apps, out)
}

func (r *Runner) generate() error {
	descriptions, err := keywords.LoadDescriptions(r.options.Descriptions)
	if err != nil {
		return err
	}
	dict, err := r.components.Extractor.Generate(descriptions)
	if err != nil {
		return err
	}
	target := r.options.Output
	if target == "" {
		target = r.options.Keywords
	}
	if target == "" {
		return dict.Write(r.out)
	}
	if err := dict.Save(target); err != nil {
		return err
	}
	gologger.Info().Msgf("Wrote keywords of %d categories to %s", len(dict), target)
	return nil
}

func (r *Runner) output() (io.Writer, func(), error) {
	if r.options.Output == "" {
		return r.out, func() {}, nil
	}
	f, err := os.OpenFile(r.options.Output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open output %s: %w", r.options.Output, err)
	}
	return f, func() { f.Close() }, nil
}
