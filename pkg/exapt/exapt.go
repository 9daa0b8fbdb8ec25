package exapt

import (
	"context"
	"fmt"

	"github.com/cognicore/exapt/pkg/exapt/acquire"
	"github.com/cognicore/exapt/pkg/exapt/distance"
	"github.com/cognicore/exapt/pkg/exapt/internalerr"
	"github.com/cognicore/exapt/pkg/exapt/keywords"
	"github.com/cognicore/exapt/pkg/exapt/score"
	"github.com/cognicore/exapt/pkg/exapt/taxonomy"
)

// DefaultExaptationDistance is the distance from which an observed category
// is treated as a possible exaptation: any two different tier-1 branches.
const DefaultExaptationDistance = 4

// Engine is the exaptation measurement facade
type Engine struct {
	tree         *taxonomy.Tree
	extractor    *keywords.Extractor
	apps         acquire.Source
	descriptions acquire.Source
	metric       distance.Metric
	thresholds   score.Thresholds
	exaptation   float64
}

// Options configures an Engine
type Options struct {
	Tree      *taxonomy.Tree
	Extractor *keywords.Extractor
	// Apps returns the store description of an application.
	Apps acquire.Source
	// Descriptions returns a user description by file name.
	Descriptions       acquire.Source
	Metric             distance.Metric
	Thresholds         score.Thresholds
	ExaptationDistance float64
}

// New creates an Engine. Only the tree is required; everything else falls
// back to defaults.
func New(opts Options) (*Engine, error) {
	if opts.Tree == nil {
		return nil, fmt.Errorf("%w: taxonomy tree is required", internalerr.ErrInvalidInput)
	}
	e := &Engine{
		tree:         opts.Tree,
		extractor:    opts.Extractor,
		apps:         opts.Apps,
		descriptions: opts.Descriptions,
		metric:       opts.Metric,
		thresholds:   opts.Thresholds,
		exaptation:   opts.ExaptationDistance,
	}
	if e.extractor == nil {
		x, err := keywords.NewExtractor(keywords.Language, nil)
		if err != nil {
			return nil, err
		}
		e.extractor = x
	}
	if e.descriptions == nil {
		e.descriptions = acquire.FileSource{}
	}
	if e.thresholds == (score.Thresholds{}) {
		e.thresholds = score.DefaultThresholds()
	}
	if e.exaptation <= 0 {
		e.exaptation = DefaultExaptationDistance
	}
	return e, nil
}

// Tree returns the taxonomy the engine scores against.
func (e *Engine) Tree() *taxonomy.Tree {
	return e.tree
}

// Thresholds returns the active score cut-offs.
func (e *Engine) Thresholds() score.Thresholds {
	return e.thresholds
}

// DescriptionProfile reads a user description and counts its keywords.
func (e *Engine) DescriptionProfile(ctx context.Context, file string) (taxonomy.Profile, error) {
	text, err := e.descriptions.Description(ctx, file)
	if err != nil {
		return nil, err
	}
	profile, err := e.extractor.Profile(text)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", file, err)
	}
	return profile, nil
}

// AppProfile fetches an application's store description and counts its
// keywords.
func (e *Engine) AppProfile(ctx context.Context, app string) (taxonomy.Profile, error) {
	if e.apps == nil {
		return nil, fmt.Errorf("%w: no application source configured", internalerr.ErrInvalidConfig)
	}
	text, err := e.apps.Description(ctx, app)
	if err != nil {
		return nil, err
	}
	profile, err := e.extractor.Profile(text)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", app, err)
	}
	return profile, nil
}

// CategoryProfile determines the tier-1 category an application belongs to:
// its description is matched with the application threshold, the matches are
// summed per tier-1 ancestor and the largest sum wins. The boolean is false
// when no category cleared the threshold.
func (e *Engine) CategoryProfile(ctx context.Context, app string) (score.Match, bool, error) {
	profile, err := e.AppProfile(ctx, app)
	if err != nil {
		return score.Match{}, false, err
	}
	return e.ObservedCategory(profile)
}

// ObservedCategory is CategoryProfile for an already extracted profile.
func (e *Engine) ObservedCategory(profile taxonomy.Profile) (score.Match, bool, error) {
	matches, err := score.Top(profile, e.tree.Nodes(), e.thresholds.K, e.thresholds.Application)
	if err != nil {
		return score.Match{}, false, err
	}
	if len(matches) == 0 {
		return score.Match{}, false, nil
	}
	sums, err := score.RollUp(e.tree, matches)
	if err != nil {
		return score.Match{}, false, err
	}
	top, ok := score.Highest(sums)
	return top, ok, nil
}

// Match returns the best matching category for profile.
func (e *Engine) Match(profile taxonomy.Profile) (score.Match, bool, error) {
	return score.Best(profile, e.tree.Nodes(), e.thresholds.Match)
}

// Top returns the general top-K matches for profile.
func (e *Engine) Top(profile taxonomy.Profile) ([]score.Match, error) {
	return score.Top(profile, e.tree.Nodes(), e.thresholds.K, e.thresholds.Top)
}

// TopApplication returns the top-K matches using the application threshold.
func (e *Engine) TopApplication(profile taxonomy.Profile) ([]score.Match, error) {
	return score.Top(profile, e.tree.Nodes(), e.thresholds.K, e.thresholds.Application)
}

// Distance measures between two nodes with the engine's metric.
func (e *Engine) Distance(a, b *taxonomy.Node) (float64, error) {
	d, err := e.metric.Distance(a.StructureID.String(), b.StructureID.String())
	if err != nil {
		return 0, fmt.Errorf("distance %q to %q: %w", a.Name, b.Name, err)
	}
	return d, nil
}

// DistanceByName measures between two categories given by name.
func (e *Engine) DistanceByName(a, b string) (float64, error) {
	na, err := e.tree.ByName(a)
	if err != nil {
		return 0, err
	}
	nb, err := e.tree.ByName(b)
	if err != nil {
		return 0, err
	}
	return e.Distance(na, nb)
}

// IsExaptation reports whether d reaches the exaptation distance.
func (e *Engine) IsExaptation(d float64) bool {
	return d >= e.exaptation
}
