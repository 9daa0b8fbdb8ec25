package keywords

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
	"github.com/cognicore/exapt/pkg/exapt/taxonomy"
)

// Dictionary maps a category name to its keyword profile.
type Dictionary map[string]taxonomy.Profile

// LoadDictionary reads a JSON keyword dictionary from disk.
func LoadDictionary(path string) (Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyword dictionary: %w", err)
	}
	defer f.Close()
	return ReadDictionary(f)
}

// ReadDictionary decodes one JSON object of name → token → count.
func ReadDictionary(r io.Reader) (Dictionary, error) {
	var dict Dictionary
	if err := json.NewDecoder(r).Decode(&dict); err != nil {
		return nil, fmt.Errorf("%w: keyword dictionary is not valid JSON: %v", internalerr.ErrInvalidInput, err)
	}
	if dict == nil {
		return nil, fmt.Errorf("%w: keyword dictionary is empty", internalerr.ErrInvalidInput)
	}
	return dict, nil
}

// Save writes the dictionary as JSON.
func (d Dictionary) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create keyword dictionary: %w", err)
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write encodes the dictionary to w.
func (d Dictionary) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode keyword dictionary: %w", err)
	}
	return nil
}

// Apply sets the keywords of every tree category from the dictionary. A
// category without an entry aborts the load.
func (d Dictionary) Apply(tree *taxonomy.Tree) error {
	for _, n := range tree.Nodes() {
		kw, ok := d[n.Name]
		if !ok {
			return fmt.Errorf("keywords for %q: %w", n.Name, internalerr.ErrNotFound)
		}
		if err := tree.SetKeywords(n.Name, kw); err != nil {
			return err
		}
	}
	return nil
}

// LoadDescriptions reads a JSON object of category name → description text.
func LoadDescriptions(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptions: %w", err)
	}
	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: descriptions are not valid JSON: %v", internalerr.ErrInvalidInput, err)
	}
	return out, nil
}

// Generate builds a dictionary from category descriptions with
// CategoryProfile. The root entry is skipped.
func (e *Extractor) Generate(descriptions map[string]string) (Dictionary, error) {
	dict := make(Dictionary, len(descriptions))
	for name, text := range descriptions {
		if name == taxonomy.RootName {
			continue
		}
		kw, err := e.CategoryProfile(text)
		if err != nil {
			return nil, fmt.Errorf("keywords for %q: %w", name, err)
		}
		dict[name] = kw
	}
	return dict, nil
}
