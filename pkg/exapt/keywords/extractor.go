// Package keywords turns free text into keyword-frequency profiles.
//
// Text is cleaned, tokenized and part-of-speech tagged with prose; only
// nouns, verbs, adjectives and adverbs survive, stopwords are removed before
// and after optional lemmatization, and the remaining tokens are counted.
package keywords

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
	"github.com/cognicore/exapt/pkg/exapt/taxonomy"
)

// Language is the only description language supported.
const Language = "english"

// CategoryKeywords is how many keywords each category keeps.
const CategoryKeywords = 15

// POS is a coarse part of speech.
type POS byte

const (
	Noun      POS = 'n'
	Verb      POS = 'v'
	Adjective POS = 'a'
	Adverb    POS = 'r'
)

// posOf maps a Penn Treebank tag to the parts of speech worth keeping.
func posOf(tag string) (POS, bool) {
	switch tag {
	case "NN", "NNS", "NNP", "NNPS":
		return Noun, true
	case "VB", "VBD", "VBG", "VBN", "VBP", "VBZ":
		return Verb, true
	case "JJ", "JJR", "JJS":
		return Adjective, true
	case "RB", "RBR", "RBS":
		return Adverb, true
	default:
		return 0, false
	}
}

// Lemmatizer reduces a tagged token to its base form.
type Lemmatizer interface {
	Lemma(token string, pos POS) string
}

// Extractor produces keyword lists from descriptions.
type Extractor struct {
	base       map[string]struct{}
	stopwords  map[string]struct{}
	lemmatizer Lemmatizer
	keep       int
}

// NewExtractor creates an extractor for language with extra stopwords on top
// of the English list.
func NewExtractor(language string, extra []string) (*Extractor, error) {
	if !strings.EqualFold(strings.TrimSpace(language), Language) {
		return nil, fmt.Errorf("%w: unsupported language %q", internalerr.ErrInvalidConfig, language)
	}
	e := &Extractor{
		base:      make(map[string]struct{}, len(English)),
		stopwords: make(map[string]struct{}, len(English)+len(extra)),
		keep:      CategoryKeywords,
	}
	for _, w := range English {
		e.base[w] = struct{}{}
		e.stopwords[w] = struct{}{}
	}
	for _, w := range extra {
		e.AddStopword(w)
	}
	return e, nil
}

// SetLemmatizer installs a lemmatizer. nil disables lemmatization.
func (e *Extractor) SetLemmatizer(l Lemmatizer) {
	e.lemmatizer = l
}

// SetCategoryKeywords changes how many keywords CategoryProfile keeps.
// Values below 1 restore CategoryKeywords.
func (e *Extractor) SetCategoryKeywords(n int) {
	if n < 1 {
		n = CategoryKeywords
	}
	e.keep = n
}

// AddStopword adds a word to the additional stopwords.
func (e *Extractor) AddStopword(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word != "" {
		e.stopwords[word] = struct{}{}
	}
}

// IsStopword reports whether word is filtered out.
func (e *Extractor) IsStopword(word string) bool {
	_, ok := e.stopwords[strings.ToLower(word)]
	return ok
}

// Tokens returns the keyword tokens of text in order of appearance.
func (e *Extractor) Tokens(text string) ([]string, error) {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: description is empty", internalerr.ErrInvalidInput)
	}

	doc, err := prose.NewDocument(cleaned,
		prose.WithSegmentation(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("tag description: %w", err)
	}

	var out []string
	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if !hasLetter(word) {
			continue
		}
		if _, stop := e.base[word]; stop {
			continue
		}
		pos, ok := posOf(tok.Tag)
		if !ok {
			continue
		}
		if e.lemmatizer != nil {
			word = e.lemmatizer.Lemma(word, pos)
		}
		if _, stop := e.stopwords[word]; stop {
			continue
		}
		out = append(out, word)
	}
	return out, nil
}

// Profile counts every keyword of text.
func (e *Extractor) Profile(text string) (taxonomy.Profile, error) {
	tokens, err := e.Tokens(text)
	if err != nil {
		return nil, err
	}
	return Top(tokens, -1), nil
}

// CategoryProfile keeps the most frequent keywords of text, CategoryKeywords
// unless changed.
func (e *Extractor) CategoryProfile(text string) (taxonomy.Profile, error) {
	tokens, err := e.Tokens(text)
	if err != nil {
		return nil, err
	}
	return Top(tokens, e.keep), nil
}

type tokenCount struct {
	token string
	count int
}

// Top counts tokens and keeps the n most frequent ones. Equal counts keep
// the order in which tokens first appeared. A negative n keeps all tokens.
func Top(tokens []string, n int) taxonomy.Profile {
	counts := make(map[string]*tokenCount)
	var order []*tokenCount
	for _, tok := range tokens {
		tok = strings.ToLower(tok)
		if c, ok := counts[tok]; ok {
			c.count++
			continue
		}
		c := &tokenCount{token: tok, count: 1}
		counts[tok] = c
		order = append(order, c)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})
	if n >= 0 && len(order) > n {
		order = order[:n]
	}

	out := make(taxonomy.Profile, len(order))
	for _, c := range order {
		out[c.token] = c.count
	}
	return out
}

// Ranked returns the entries of p ordered by descending count, then token.
func Ranked(p taxonomy.Profile) []string {
	out := make([]string, 0, len(p))
	for tok := range p {
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool {
		if p[out[i]] != p[out[j]] {
			return p[out[i]] > p[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
