package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// FileSource reads descriptions from disk. The application argument is a
// path, absolute or relative to Dir; when it has no extension, .txt and then
// .html are tried. HTML files are reduced to their text.
type FileSource struct {
	Dir string
}

var fileExtensions = []string{".txt", ".html", ".htm"}

// Description implements Source.
func (s FileSource) Description(ctx context.Context, app string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkApp(app); err != nil {
		return "", err
	}

	path, err := s.resolve(app)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open description: %w", err)
	}
	defer f.Close()

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		text, err = Description(f)
		if err != nil {
			return "", err
		}
	default:
		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("read description: %w", err)
		}
		text = strings.TrimPrefix(string(data), "\ufeff")
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: description %s is empty", internalerr.ErrInvalidInput, path)
	}
	return text, nil
}

func (s FileSource) resolve(app string) (string, error) {
	base := app
	if !filepath.IsAbs(base) && s.Dir != "" {
		base = filepath.Join(s.Dir, base)
	}

	candidates := []string{base}
	if filepath.Ext(base) == "" {
		for _, ext := range fileExtensions {
			candidates = append(candidates, base+ext)
		}
	}
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err == nil && !info.IsDir() {
			return c, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat description: %w", err)
		}
	}
	return "", fmt.Errorf("description file %q: %w", app, internalerr.ErrNotFound)
}
