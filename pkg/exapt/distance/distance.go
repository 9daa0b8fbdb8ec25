// Package distance measures how far apart two taxonomy positions are.
//
// Each tier carries a base weight that is a quarter of the tier above it
// (2, 0.5, 0.25, 0.125). From the first tier where two structure ids differ,
// every remaining tier contributes:
//
//	both segments real      → 2 × weight (both branches are traversed)
//	exactly one is "00"     → 1 × weight (comparison against an ancestor)
//	both are "00"           → nothing
//
// Legacy reproduces the historical formula, including its digit-wise checks
// and the operator grouping of its last tier, for result-file parity.
package distance

import (
	"fmt"
	"strings"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
	"github.com/cognicore/exapt/pkg/exapt/taxonomy"
)

// TierWeights holds the base weight of tiers 1 through 4.
var TierWeights = [taxonomy.MaxTier]float64{2, 0.5, 0.25, 0.125}

// Mode selects the distance formula.
type Mode int

const (
	// Symmetric applies the same rule on every tier.
	Symmetric Mode = iota
	// LegacyCompat reproduces the historical formula bit for bit.
	LegacyCompat
)

func (m Mode) String() string {
	switch m {
	case Symmetric:
		return "symmetric"
	case LegacyCompat:
		return "legacy"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a configuration value to a Mode. Empty means Symmetric.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "symmetric":
		return Symmetric, nil
	case "legacy", "compat", "legacy-compat":
		return LegacyCompat, nil
	default:
		return Symmetric, fmt.Errorf("%w: unknown distance mode %q", internalerr.ErrInvalidConfig, s)
	}
}

// Metric computes distances between eight-digit structure ids.
type Metric struct {
	Mode Mode
}

// Distance dispatches on the metric's mode.
func (m Metric) Distance(a, b string) (float64, error) {
	if m.Mode == LegacyCompat {
		return Legacy(a, b)
	}
	return Strings(a, b)
}

// Between returns the weighted distance between two structure ids.
func Between(a, b taxonomy.StructureID) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	if a == b {
		return 0, nil
	}

	d := 0.0
	diverged := false
	for tier := 1; tier <= taxonomy.MaxTier; tier++ {
		sa, sb := a.Segment(tier), b.Segment(tier)
		if !diverged && sa == sb {
			continue
		}
		// Once ancestors differ, deeper segments are never comparable.
		diverged = true
		w := TierWeights[tier-1]
		switch {
		case sa == 0 && sb == 0:
		case sa == 0 || sb == 0:
			d += w
		default:
			d += 2 * w
		}
	}
	return d, nil
}

// Strings parses both ids and returns Between.
func Strings(a, b string) (float64, error) {
	ida, err := taxonomy.ParseStructureID(a)
	if err != nil {
		return 0, err
	}
	idb, err := taxonomy.ParseStructureID(b)
	if err != nil {
		return 0, err
	}
	return Between(ida, idb)
}
