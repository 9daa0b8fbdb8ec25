// Package score ranks taxonomy nodes against a keyword profile.
//
// Both profiles are normalized to relative frequencies and compared with an
// unnormalized inner product over the query's tokens, rounded to four
// decimals. Results keep node order so that ties resolve first-seen.
package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
	"github.com/cognicore/exapt/pkg/exapt/taxonomy"
)

// Match pairs a category name with its score.
type Match struct {
	Name  string
	Score float64
}

// Tally pairs a category name with a number of hits.
type Tally struct {
	Name  string
	Count int
}

// Thresholds groups the cut-offs used when selecting matches
type Thresholds struct {
	Match       float64 // best match must reach this score
	Top         float64 // general top-K queries
	Application float64 // top-K when profiling an application
	K           int
}

// DefaultThresholds returns the cut-offs used by the command line tools.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Match:       0.01,
		Top:         0.01,
		Application: 0.008,
		K:           10,
	}
}

// Normalize divides each count by the profile total.
func Normalize(p taxonomy.Profile) (map[string]float64, error) {
	total := 0
	for _, c := range p {
		total += c
	}
	if total == 0 {
		return nil, internalerr.ErrDivisionUndefined
	}
	out := make(map[string]float64, len(p))
	for token, c := range p {
		out[token] = float64(c) / float64(total)
	}
	return out, nil
}

// Pair computes Σ query[t]·node[t] over the query tokens.
func Pair(node, query map[string]float64) float64 {
	sum := 0.0
	for token, qw := range query {
		sum += qw * node[token]
	}
	return round4(sum)
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

// All scores every node against query, in node order. Nodes without keywords
// score 0.
func All(query taxonomy.Profile, nodes []*taxonomy.Node) ([]Match, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes to score", internalerr.ErrInvalidInput)
	}
	q, err := Normalize(query)
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	matches := make([]Match, 0, len(nodes))
	for _, n := range nodes {
		m := Match{Name: n.Name}
		if len(n.Keywords) > 0 {
			kw, err := Normalize(n.Keywords)
			if err == nil {
				m.Score = Pair(kw, q)
			}
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// AsMap returns matches keyed by name.
func AsMap(matches []Match) map[string]float64 {
	out := make(map[string]float64, len(matches))
	for _, m := range matches {
		out[m.Name] = m.Score
	}
	return out
}

// Best returns the highest scoring node. The boolean is false when even the
// best score stays below threshold.
func Best(query taxonomy.Profile, nodes []*taxonomy.Node, threshold float64) (Match, bool, error) {
	matches, err := All(query, nodes)
	if err != nil {
		return Match{}, false, err
	}
	best, _ := Highest(matches)
	if best.Score < threshold {
		return Match{}, false, nil
	}
	return best, true, nil
}

// Top returns at most k matches at or above threshold, best first.
func Top(query taxonomy.Profile, nodes []*taxonomy.Node, k int, threshold float64) ([]Match, error) {
	matches, err := All(query, nodes)
	if err != nil {
		return nil, err
	}
	return TopOf(matches, k, threshold), nil
}

// TopOf sorts a copy of matches by descending score (stable), keeps the first
// k and then drops those below threshold.
func TopOf(matches []Match, k int, threshold float64) []Match {
	sorted := make([]Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	if k >= 0 && len(sorted) > k {
		sorted = sorted[:k]
	}

	out := sorted[:0]
	for _, m := range sorted {
		if m.Score >= threshold {
			out = append(out, m)
		}
	}
	return out
}

// Highest returns the first match holding the maximum score.
func Highest(matches []Match) (Match, bool) {
	if len(matches) == 0 {
		return Match{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Score > best.Score {
			best = m
		}
	}
	return best, true
}

// RollUp sums match scores per tier-1 ancestor. Results are ordered by the
// first match that reached each ancestor; the root is skipped.
func RollUp(tree *taxonomy.Tree, matches []Match) ([]Match, error) {
	var out []Match
	index := make(map[string]int)
	err := eachTopLevel(tree, matches, func(top string, m Match) {
		i, ok := index[top]
		if !ok {
			i = len(out)
			index[top] = i
			out = append(out, Match{Name: top})
		}
		out[i].Score += m.Score
	})
	return out, err
}

// RollUpCount counts matches per tier-1 ancestor.
func RollUpCount(tree *taxonomy.Tree, matches []Match) ([]Tally, error) {
	var out []Tally
	index := make(map[string]int)
	err := eachTopLevel(tree, matches, func(top string, _ Match) {
		i, ok := index[top]
		if !ok {
			i = len(out)
			index[top] = i
			out = append(out, Tally{Name: top})
		}
		out[i].Count++
	})
	return out, err
}

func eachTopLevel(tree *taxonomy.Tree, matches []Match, fn func(top string, m Match)) error {
	for _, m := range matches {
		n, err := tree.ByName(m.Name)
		if err != nil {
			return fmt.Errorf("roll up: %w", err)
		}
		if n.IsRoot() {
			continue
		}
		top := tree.TopLevel(n)
		if top == nil {
			return fmt.Errorf("%w: %q has no tier-1 ancestor", internalerr.ErrInvalidInput, n.Name)
		}
		fn(top.Name, m)
	}
	return nil
}
