package config

import (
	"fmt"
	"time"

	"github.com/cognicore/exapt/pkg/exapt/acquire"
	"github.com/cognicore/exapt/pkg/exapt/distance"
	"github.com/cognicore/exapt/pkg/exapt/keywords"
	"github.com/cognicore/exapt/pkg/exapt/score"
	"github.com/cognicore/exapt/pkg/exapt/taxonomy"
)

// Loader loads all configured files and constructs components
type Loader struct {
	Config Config
}

// Components holds everything a run needs
type Components struct {
	Tree               *taxonomy.Tree
	Extractor          *keywords.Extractor
	Apps               acquire.Source
	Descriptions       acquire.Source
	Metric             distance.Metric
	Thresholds         score.Thresholds
	ExaptationDistance float64
	Results            string
}

// Load validates the configuration and builds the components
func (l *Loader) Load() (*Components, error) {
	cfg := l.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	comp := &Components{
		ExaptationDistance: cfg.ExaptationDistance,
		Results:            cfg.Results,
		Thresholds: score.Thresholds{
			Match:       cfg.Thresholds.Match,
			Top:         cfg.Thresholds.Top,
			Application: cfg.Thresholds.Application,
			K:           cfg.Thresholds.K,
		},
	}

	tree, err := taxonomy.BuildFile(cfg.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	comp.Tree = tree

	if cfg.Keywords != "" {
		dict, err := keywords.LoadDictionary(cfg.Keywords)
		if err != nil {
			return nil, fmt.Errorf("load keywords: %w", err)
		}
		if err := dict.Apply(tree); err != nil {
			return nil, fmt.Errorf("load keywords: %w", err)
		}
	}

	var extra []string
	if cfg.Stopwords != "" {
		stoplist, err := LoadStoplist(cfg.Stopwords)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		extra = stoplist.Terms
	}
	extractor, err := keywords.NewExtractor(cfg.Language, extra)
	if err != nil {
		return nil, err
	}
	extractor.SetCategoryKeywords(cfg.MaxKeywords)
	if cfg.Lexicon != "" {
		lex, err := keywords.LoadLexicon(cfg.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		extractor.SetLemmatizer(lex)
	}
	comp.Extractor = extractor

	mode, err := distance.ParseMode(cfg.DistanceMode)
	if err != nil {
		return nil, err
	}
	comp.Metric = distance.Metric{Mode: mode}

	comp.Apps = newSource(cfg.Acquisition)
	comp.Descriptions = acquire.FileSource{Dir: cfg.Descriptions}
	return comp, nil
}

func newSource(a Acquisition) acquire.Source {
	var src acquire.Source
	switch a.Source {
	case SourceHTTP:
		src = acquire.NewHTTPSource(a.URLTemplate)
	default:
		src = acquire.FileSource{Dir: a.Dir}
	}

	r := acquire.Retrying{Source: src, MaxAttempts: a.MaxAttempts}
	if a.Backoff > 0 {
		step := a.Backoff
		r.Backoff = func(attempt int) time.Duration {
			return step * time.Duration(1<<uint(attempt))
		}
	}
	return r
}
