package keywords

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// Lexicon maps inflected forms to a base form. It is the lemmatizer used by
// the extractor when one is configured.
//
// Expected YAML:
//
//	lemmas:
//	  - base: game
//	    forms: [games, gaming, gamer]
//	  - base: play
//	    forms: [plays, playing, played]
type Lexicon struct {
	// base -> all forms, base first
	forms map[string][]string
	// form -> base
	reverse map[string]string
}

// NewLexicon creates an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		forms:   make(map[string][]string),
		reverse: make(map[string]string),
	}
}

// LoadLexicon reads a lexicon from a YAML file.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	var doc struct {
		Lemmas []struct {
			Base  string   `yaml:"base"`
			Forms []string `yaml:"forms"`
		} `yaml:"lemmas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse lexicon %s: %v", internalerr.ErrInvalidInput, path, err)
	}

	lex := NewLexicon()
	for _, entry := range doc.Lemmas {
		if strings.TrimSpace(entry.Base) == "" {
			return nil, fmt.Errorf("%w: lexicon entry without base form", internalerr.ErrInvalidInput)
		}
		lex.Add(entry.Base, entry.Forms...)
	}
	return lex, nil
}

// Add registers forms under base. Re-adding a base replaces its forms.
func (l *Lexicon) Add(base string, forms ...string) {
	base = strings.ToLower(strings.TrimSpace(base))

	if old, ok := l.forms[base]; ok {
		for _, f := range old {
			delete(l.reverse, f)
		}
	}

	all := []string{base}
	seen := map[string]bool{base: true}
	for _, f := range forms {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		all = append(all, f)
	}

	l.forms[base] = all
	for _, f := range all {
		l.reverse[f] = base
	}
}

// Normalize returns the base form of token, or token itself when unknown.
func (l *Lexicon) Normalize(token string) string {
	token = strings.ToLower(token)
	if base, ok := l.reverse[token]; ok {
		return base
	}
	return token
}

// Forms lists every known form sharing token's base, base first.
func (l *Lexicon) Forms(token string) []string {
	base := l.Normalize(token)
	if forms, ok := l.forms[base]; ok {
		return forms
	}
	return []string{token}
}

// Len returns the number of base forms.
func (l *Lexicon) Len() int {
	return len(l.forms)
}

// Lemma implements Lemmatizer. The lexicon is not part-of-speech aware.
func (l *Lexicon) Lemma(token string, _ POS) string {
	return l.Normalize(token)
}
