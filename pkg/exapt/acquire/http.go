package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/projectdiscovery/fasttemplate"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// DefaultURLTemplate points at the Play Store details page. {{app}} is
// replaced with the query-escaped application id.
const DefaultURLTemplate = "https://play.google.com/store/apps/details?id={{app}}&hl=en"

const maxPageBytes = 4 << 20

// HTTPSource fetches store pages and extracts their description.
type HTTPSource struct {
	Client      *http.Client
	URLTemplate string
	UserAgent   string
}

// NewHTTPSource returns a source with a timeout-bound client.
func NewHTTPSource(urlTemplate string) *HTTPSource {
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	return &HTTPSource{
		Client:      &http.Client{Timeout: 30 * time.Second},
		URLTemplate: urlTemplate,
		UserAgent:   "exapt/1.0",
	}
}

// URL renders the page address for app.
func (s *HTTPSource) URL(app string) string {
	return fasttemplate.ExecuteStringStd(s.URLTemplate, "{{", "}}", map[string]interface{}{
		"app": url.QueryEscape(app),
	})
}

// Description implements Source. A 404 reports ErrNotFound; other failures
// report ErrUnavailable and may be retried.
func (s *HTTPSource) Description(ctx context.Context, app string) (string, error) {
	if err := checkApp(app); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(app), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", internalerr.ErrInvalidInput, err)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: fetch %q: %v", internalerr.ErrUnavailable, app, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("application %q: %w", app, internalerr.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: fetch %q: HTTP %d", internalerr.ErrUnavailable, app, resp.StatusCode)
	}

	text, err := Description(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: %v", internalerr.ErrUnavailable, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("application %q has no description: %w", app, internalerr.ErrNotFound)
	}
	return text, nil
}
