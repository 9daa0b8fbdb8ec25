package runner

import (
	"os"
	"strings"

	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	errorutil "github.com/projectdiscovery/utils/errors"
	fileutil "github.com/projectdiscovery/utils/file"

	"github.com/cognicore/exapt/pkg/exapt/config"
)

var version = "v0.3.0"

// Modes lists the supported commands.
var Modes = []string{
	"categories", "ids", "distance", "match", "top", "profile",
	"measure", "batch", "classify", "generate",
}

type Options struct {
	Mode         string
	Config       string
	Taxonomy     string
	Keywords     string
	Stopwords    string
	Lexicon      string
	Language     string
	Description  string              // user description file
	App          string              // application to compare with
	Apps         goflags.StringSlice // applications to classify
	Categories   goflags.StringSlice // two category names for distance
	List         string              // batch list: descriptionFile;appName
	Descriptions string              // category descriptions JSON for generate
	Source       string
	SourceDir    string
	URLTemplate  string
	Retries      int
	DistanceMode string
	Results      string
	Output       string
	Verbose      bool
	Silent       bool
}

func ParseFlags() *Options {
	opts := &Options{}
	flagSet := goflags.NewFlagSet()
	flagSet.SetDescription(`Measure how far an application's observed category is from the category a description matches.`)

	flagSet.CreateGroup("mode", "Mode",
		flagSet.StringVarP(&opts.Mode, "mode", "m", "", "command to run ("+strings.Join(Modes, ", ")+")"),
	)

	flagSet.CreateGroup("input", "Input",
		flagSet.StringVarP(&opts.Taxonomy, "taxonomy", "t", "", "taxonomy table (;-separated)"),
		flagSet.StringVarP(&opts.Keywords, "keywords", "kw", "", "keyword dictionary (json)"),
		flagSet.StringVarP(&opts.Stopwords, "stopwords", "sw", "", "additional stopwords (one per line or yaml terms)"),
		flagSet.StringVarP(&opts.Lexicon, "lexicon", "lx", "", "lemma lexicon (yaml)"),
		flagSet.StringVarP(&opts.Language, "language", "lang", "", "description language (only english)"),
		flagSet.StringVarP(&opts.Description, "description", "d", "", "user description file"),
		flagSet.StringVarP(&opts.App, "app", "a", "", "application to compare with"),
		flagSet.StringSliceVarP(&opts.Apps, "apps", "aa", nil, "applications to classify (comma-separated, file)", goflags.FileCommaSeparatedStringSliceOptions),
		flagSet.StringSliceVarP(&opts.Categories, "categories", "c", nil, "two category names to measure (comma-separated)", goflags.CommaSeparatedStringSliceOptions),
		flagSet.StringVarP(&opts.List, "list", "l", "", "batch list of descriptionFile;appName lines"),
		flagSet.StringVarP(&opts.Descriptions, "category-descriptions", "cd", "", "category descriptions (json) to generate keywords from"),
	)

	flagSet.CreateGroup("acquisition", "Acquisition",
		flagSet.StringVar(&opts.Source, "source", "", "application description source (file, http)"),
		flagSet.StringVar(&opts.SourceDir, "source-dir", "", "directory of application descriptions for the file source"),
		flagSet.StringVar(&opts.URLTemplate, "url-template", "", "store page url with {{app}} placeholder for the http source"),
		flagSet.IntVar(&opts.Retries, "retries", 0, "maximum fetch attempts per application"),
	)

	flagSet.CreateGroup("output", "Output",
		flagSet.StringVarP(&opts.Results, "results", "r", "", "file to append result lines to"),
		flagSet.StringVarP(&opts.Output, "output", "o", "", "output file (generate, classify)"),
		flagSet.BoolVarP(&opts.Verbose, "verbose", "v", false, "display verbose output"),
		flagSet.BoolVar(&opts.Silent, "silent", false, "display results only"),
		flagSet.CallbackVar(printVersion, "version", "display exapt version"),
	)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&opts.Config, "config", "", "exapt config file (yaml)"),
		flagSet.StringVarP(&opts.DistanceMode, "distance-mode", "dm", "", "distance formula (symmetric, legacy)"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("Could not read flags: %s\n", err)
	}

	if opts.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	} else if opts.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}

	if err := opts.Validate(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}
	return opts
}

func printVersion() {
	gologger.Info().Msgf("Current version: %s", version)
	os.Exit(0)
}

// Validate checks that the mode exists and has its inputs.
func (o *Options) Validate() error {
	switch o.Mode {
	case "":
		return errorutil.NewWithTag("exapt", "no mode given, use -mode (%s)", strings.Join(Modes, ", "))
	case "categories", "ids":
	case "distance":
		if len(o.Categories) != 2 {
			return errorutil.NewWithTag("exapt", "distance needs exactly two categories, got %d", len(o.Categories))
		}
	case "match", "top", "profile":
		if err := requireFile("description", o.Description); err != nil {
			return err
		}
	case "measure":
		if err := requireFile("description", o.Description); err != nil {
			return err
		}
		if strings.TrimSpace(o.App) == "" {
			return errorutil.NewWithTag("exapt", "measure needs -app")
		}
	case "batch":
		if err := requireFile("list", o.List); err != nil {
			return err
		}
	case "classify":
		if len(o.Apps) == 0 {
			return errorutil.NewWithTag("exapt", "classify needs -apps")
		}
	case "generate":
		if err := requireFile("category-descriptions", o.Descriptions); err != nil {
			return err
		}
	default:
		return errorutil.NewWithTag("exapt", "invalid mode: %s (must be one of %s)", o.Mode, strings.Join(Modes, ", "))
	}
	if o.Verbose && o.Silent {
		return errorutil.NewWithTag("exapt", "-verbose and -silent are mutually exclusive")
	}
	return nil
}

func requireFile(flag, path string) error {
	if path == "" {
		return errorutil.NewWithTag("exapt", "-%s is required", flag)
	}
	if !fileutil.FileExists(path) {
		return errorutil.NewWithTag("exapt", "%s file %s does not exist", flag, path)
	}
	return nil
}

// LoadConfig reads the config file, or the defaults, and applies the flags
// on top.
func (o *Options) LoadConfig() (config.Config, error) {
	cfg := config.Default()
	if o.Config != "" {
		loaded, err := config.Load(o.Config)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Taxonomy, o.Taxonomy)
	override(&cfg.Keywords, o.Keywords)
	override(&cfg.Stopwords, o.Stopwords)
	override(&cfg.Lexicon, o.Lexicon)
	override(&cfg.Language, o.Language)
	override(&cfg.Results, o.Results)
	override(&cfg.DistanceMode, o.DistanceMode)
	override(&cfg.Acquisition.Source, o.Source)
	override(&cfg.Acquisition.Dir, o.SourceDir)
	override(&cfg.Acquisition.URLTemplate, o.URLTemplate)
	if o.Retries > 0 {
		cfg.Acquisition.MaxAttempts = o.Retries
	}

	switch o.Mode {
	case "categories", "ids", "generate":
		// these modes run without (or produce) the keyword dictionary
		cfg.Keywords = ""
	}
	return cfg, nil
}
