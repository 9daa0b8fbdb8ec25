package distance

import (
	"fmt"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// Legacy is the compatibility mode. It validates and compares ids digit by
// digit exactly as the historical implementation did; in particular a tier
// where both ids are "00" still counts double once an ancestor differs, and
// the last tier's condition is grouped as
// (... and s1[0] != s2[0]) or s1[1] != s2[1].
func Legacy(a, b string) (float64, error) {
	if err := legacyCheck(a); err != nil {
		return 0, err
	}
	if err := legacyCheck(b); err != nil {
		return 0, err
	}
	if a == b {
		return 0, nil
	}

	same := func(i int) bool { return a[i] == b[i] && a[i+1] == b[i+1] }
	diff := func(i int) bool { return a[i] != b[i] || a[i+1] != b[i+1] }
	zero := func(s string, i int) bool { return s[i] == '0' && s[i+1] == '0' }
	oneSided := func(i int) bool {
		return (zero(a, i) && !zero(b, i)) || (zero(b, i) && !zero(a, i))
	}
	add := func(i int, weight float64) float64 {
		if oneSided(i) {
			return weight
		}
		return weight * 2
	}

	d := 0.0
	if diff(0) {
		d += add(0, 2)
	}
	if diff(2) || (same(2) && diff(0)) {
		d += add(2, 0.5)
	}
	if diff(4) || (same(4) && diff(2)) || (same(4) && same(2) && diff(0)) {
		d += add(4, 0.25)
	}
	if diff(6) ||
		(same(6) && diff(4)) ||
		(same(6) && same(4) && diff(2)) ||
		(same(6) && same(4) && (a[2] == b[2] || a[3] == b[3]) && a[0] != b[0]) ||
		a[1] != b[1] {
		d += add(6, 0.125)
	}
	return d, nil
}

func legacyCheck(s string) error {
	if len(s) != 8 {
		return fmt.Errorf("%w: %q must have 8 digits", internalerr.ErrInvalidStructureID, s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return fmt.Errorf("%w: %q contains a non-digit", internalerr.ErrInvalidStructureID, s)
		}
	}
	half := func(i int) bool {
		return (s[i] == '0' && s[i+1] != '0') || (s[i] != '0' && s[i+1] == '0')
	}
	if s[0] == '0' && s[1] == '0' {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidStructureID, s)
	}
	if s[2] == '0' && s[3] == '0' && (half(4) || half(6)) {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidStructureID, s)
	}
	if s[4] == '0' && s[5] == '0' && half(6) {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidStructureID, s)
	}
	return nil
}
