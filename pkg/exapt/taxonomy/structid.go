package taxonomy

import (
	"fmt"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// MaxTier is the deepest tier a taxonomy node can sit on.
const MaxTier = 4

// MaxRank is the largest sibling rank a two-digit segment can hold.
const MaxRank = 99

// StructureID encodes a node's position as four sibling ranks, one per tier.
// A zero segment means the branch terminated above that tier.
// The external form is eight decimal digits, e.g. "01020000".
type StructureID [MaxTier]uint8

// Segment returns the rank stored for tier (1..4). Out-of-range tiers return 0.
func (s StructureID) Segment(tier int) int {
	if tier < 1 || tier > MaxTier {
		return 0
	}
	return int(s[tier-1])
}

// Depth returns the number of leading non-zero segments.
func (s StructureID) Depth() int {
	d := 0
	for _, seg := range s {
		if seg == 0 {
			break
		}
		d++
	}
	return d
}

// IsZero reports whether the id was never assigned.
func (s StructureID) IsZero() bool {
	return s == StructureID{}
}

// Validate rejects ids outside any tier-1 branch and ids with an orphan
// segment (a real rank placed below a "00" tier).
func (s StructureID) Validate() error {
	if s[0] == 0 {
		return fmt.Errorf("%w: %s has no tier-1 segment", internalerr.ErrInvalidStructureID, s)
	}
	for i := 0; i < MaxTier-1; i++ {
		if s[i] == 0 && s[i+1] != 0 {
			return fmt.Errorf("%w: %s has an orphan segment at tier %d", internalerr.ErrInvalidStructureID, s, i+2)
		}
	}
	for i, seg := range s {
		if seg > MaxRank {
			return fmt.Errorf("%w: %s segment %d out of range", internalerr.ErrInvalidStructureID, s, i+1)
		}
	}
	return nil
}

// Valid is Validate without the reason.
func (s StructureID) Valid() bool {
	return s.Validate() == nil
}

// String renders the eight-digit form.
func (s StructureID) String() string {
	return fmt.Sprintf("%02d%02d%02d%02d", s[0], s[1], s[2], s[3])
}

// ParseStructureID parses the eight-digit form. It checks the format only;
// call Validate for the hierarchy rules.
func ParseStructureID(raw string) (StructureID, error) {
	var id StructureID
	if len(raw) != 2*MaxTier {
		return id, fmt.Errorf("%w: %q must have %d digits", internalerr.ErrInvalidStructureID, raw, 2*MaxTier)
	}
	for i := 0; i < MaxTier; i++ {
		hi, lo := raw[2*i], raw[2*i+1]
		if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
			return id, fmt.Errorf("%w: %q contains a non-digit", internalerr.ErrInvalidStructureID, raw)
		}
		id[i] = (hi-'0')*10 + (lo - '0')
	}
	return id, nil
}

// MustParseStructureID is ParseStructureID for literals in tests and tables.
func MustParseStructureID(raw string) StructureID {
	id, err := ParseStructureID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// newStructureID builds an id from the ranks along a root-to-node path.
func newStructureID(ranks []int) (StructureID, error) {
	var id StructureID
	if len(ranks) == 0 || len(ranks) > MaxTier {
		return id, fmt.Errorf("%w: path of %d ranks", internalerr.ErrInvalidInput, len(ranks))
	}
	for i, r := range ranks {
		if r < 1 || r > MaxRank {
			return id, fmt.Errorf("%w: rank %d at tier %d outside 1..%d", internalerr.ErrInvalidInput, r, i+1, MaxRank)
		}
		id[i] = uint8(r)
	}
	return id, nil
}
