package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	fileutil "github.com/projectdiscovery/utils/file"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/exapt/pkg/exapt/distance"
	"github.com/cognicore/exapt/pkg/exapt/internalerr"
	"github.com/cognicore/exapt/pkg/exapt/keywords"
)

// Acquisition sources
const (
	SourceFile = "file"
	SourceHTTP = "http"
)

// Config is the YAML configuration of a run
type Config struct {
	Taxonomy           string      `yaml:"taxonomy"`
	Keywords           string      `yaml:"keywords"`
	Stopwords          string      `yaml:"stopwords"`
	Lexicon            string      `yaml:"lexicon"`
	Language           string      `yaml:"language"`
	Results            string      `yaml:"results"`
	Descriptions       string      `yaml:"descriptions_dir"`
	DistanceMode       string      `yaml:"distance_mode"`
	ExaptationDistance float64     `yaml:"exaptation_distance"`
	MaxKeywords        int         `yaml:"max_keywords"`
	Thresholds         Thresholds  `yaml:"thresholds"`
	Acquisition        Acquisition `yaml:"acquisition"`
}

// Thresholds holds the score cut-offs
type Thresholds struct {
	Match       float64 `yaml:"match"`
	Top         float64 `yaml:"top"`
	Application float64 `yaml:"application"`
	K           int     `yaml:"k"`
}

// Acquisition configures where application descriptions come from
type Acquisition struct {
	Source      string        `yaml:"source"`
	Dir         string        `yaml:"dir"`
	URLTemplate string        `yaml:"url_template"`
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Taxonomy:           "files/categories.csv",
		Keywords:           "files/keywords_dictionaries.json",
		Language:           keywords.Language,
		Results:            "files/results.txt",
		DistanceMode:       distance.Symmetric.String(),
		ExaptationDistance: 4,
		MaxKeywords:        keywords.CategoryKeywords,
		Thresholds: Thresholds{
			Match:       0.01,
			Top:         0.01,
			Application: 0.008,
			K:           10,
		},
		Acquisition: Acquisition{
			Source:      SourceFile,
			MaxAttempts: 3,
		},
	}
}

// Load reads a YAML configuration on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	return &cfg, nil
}

// Validate checks values and referenced files.
func (c *Config) Validate() error {
	if !strings.EqualFold(c.Language, keywords.Language) {
		return fmt.Errorf("%w: language %q is not supported, only %q", internalerr.ErrInvalidConfig, c.Language, keywords.Language)
	}
	if c.Taxonomy == "" {
		return fmt.Errorf("%w: taxonomy table is required", internalerr.ErrInvalidConfig)
	}
	for name, path := range map[string]string{
		"taxonomy":  c.Taxonomy,
		"keywords":  c.Keywords,
		"stopwords": c.Stopwords,
		"lexicon":   c.Lexicon,
	} {
		if path != "" && !fileutil.FileExists(path) {
			return fmt.Errorf("%w: %s file %s does not exist", internalerr.ErrInvalidConfig, name, path)
		}
	}
	if _, err := distance.ParseMode(c.DistanceMode); err != nil {
		return err
	}
	if c.ExaptationDistance <= 0 {
		return fmt.Errorf("%w: exaptation_distance must be positive", internalerr.ErrInvalidConfig)
	}
	if c.MaxKeywords < 1 {
		return fmt.Errorf("%w: max_keywords must be at least 1", internalerr.ErrInvalidConfig)
	}

	t := c.Thresholds
	for name, v := range map[string]float64{"match": t.Match, "top": t.Top, "application": t.Application} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: threshold %s=%v outside [0,1]", internalerr.ErrInvalidConfig, name, v)
		}
	}
	if t.K < 1 {
		return fmt.Errorf("%w: thresholds.k must be at least 1", internalerr.ErrInvalidConfig)
	}

	a := c.Acquisition
	switch a.Source {
	case SourceFile, SourceHTTP:
	default:
		return fmt.Errorf("%w: unknown acquisition source %q", internalerr.ErrInvalidConfig, a.Source)
	}
	if a.MaxAttempts < 1 {
		return fmt.Errorf("%w: acquisition.max_attempts must be at least 1", internalerr.ErrInvalidConfig)
	}
	if a.Backoff < 0 {
		return fmt.Errorf("%w: acquisition.backoff must not be negative", internalerr.ErrInvalidConfig)
	}
	return nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads additional stopwords. The file is either YAML with a
// terms list or plain text with one word per line (commas also separate).
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err == nil && sl.Terms != nil {
		return &sl, nil
	}

	sl = Stoplist{Terms: []string{}}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, word := range strings.Split(line, ",") {
			if word = strings.TrimSpace(word); word != "" {
				sl.Terms = append(sl.Terms, strings.ToLower(word))
			}
		}
	}
	return &sl, nil
}
