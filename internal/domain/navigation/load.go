package navigation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Default returns the catalog shipped with the product.
func Default() (Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open navigation catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a catalog. Unknown YAML fields are rejected.
func Load(r io.Reader) (Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return Catalog{}, errors.New("navigation catalog is empty")
		}
		return Catalog{}, fmt.Errorf("decode navigation catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// Validate checks structural invariants: ids are present and unique per level,
// paths are absolute, and every entry has at least one non-blank role.
func (c Catalog) Validate() error {
	var errs []error
	seenCat := map[string]bool{}
	seenPath := map[string]string{}
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.ID) == "" {
			errs = append(errs, fmt.Errorf("category %d: id is required", i))
		} else if seenCat[cat.ID] {
			errs = append(errs, fmt.Errorf("category %q: duplicate id", cat.ID))
		}
		seenCat[cat.ID] = true

		seenEntry := map[string]bool{}
		for j, e := range cat.Entries {
			where := fmt.Sprintf("category %q entry %d", cat.ID, j)
			if strings.TrimSpace(e.ID) == "" {
				errs = append(errs, fmt.Errorf("%s: id is required", where))
			} else if seenEntry[e.ID] {
				errs = append(errs, fmt.Errorf("%s: duplicate id %q", where, e.ID))
			}
			seenEntry[e.ID] = true

			if !strings.HasPrefix(e.Path, "/") {
				errs = append(errs, fmt.Errorf("%s: path %q must start with /", where, e.Path))
			} else if prev, dup := seenPath[e.Path]; dup {
				errs = append(errs, fmt.Errorf("%s: path %q already used by %q", where, e.Path, prev))
			}
			seenPath[e.Path] = e.ID

			if len(e.Roles) == 0 {
				errs = append(errs, fmt.Errorf("%s: at least one role is required", where))
			}
			for _, r := range e.Roles {
				if !r.Valid() {
					errs = append(errs, fmt.Errorf("%s: blank role label", where))
				}
			}
		}
	}
	return errors.Join(errs...)
}
