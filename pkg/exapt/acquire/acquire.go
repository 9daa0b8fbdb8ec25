// Package acquire fetches application descriptions.
//
// Sources return raw description text; keyword extraction happens later.
// Retrying wraps any source with a bounded retry policy.
package acquire

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// Source returns the description of an application.
type Source interface {
	Description(ctx context.Context, app string) (string, error)
}

// MapSource serves descriptions from memory. Useful for cached profiles and
// tests.
type MapSource map[string]string

// Description implements Source.
func (m MapSource) Description(ctx context.Context, app string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, ok := m[app]
	if !ok {
		return "", fmt.Errorf("description of %q: %w", app, internalerr.ErrNotFound)
	}
	return text, nil
}

func checkApp(app string) error {
	if strings.TrimSpace(app) == "" {
		return fmt.Errorf("%w: empty application name", internalerr.ErrInvalidInput)
	}
	return nil
}
