package achievements

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// ErrInvalidCatalog is wrapped by every catalog validation failure.
var ErrInvalidCatalog = errors.New("invalid achievement catalog")

// CatalogError reports a problem with one catalog entry.
type CatalogError struct {
	ID     string // empty when the entry has no id
	Reason string
}

func (e *CatalogError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("achievement catalog: %s", e.Reason)
	}
	return fmt.Sprintf("achievement %q: %s", e.ID, e.Reason)
}

func (e *CatalogError) Unwrap() error { return ErrInvalidCatalog }

//go:embed catalog.schema.json
var catalogSchema []byte

//go:embed default_catalog.yaml
var defaultCatalog []byte

const catalogSchemaURL = "schema://achievement-catalog.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(catalogSchema))
		if err != nil {
			compileErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(catalogSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(catalogSchemaURL)
	})
	return compiled, compileErr
}

// Catalog is a validated, read-only set of achievement definitions.
type Catalog struct {
	defs []Definition
	byID map[string]int
}

type catalogFile struct {
	Version      int          `yaml:"version"`
	Achievements []Definition `yaml:"achievements"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalogFile reads a YAML catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog validates YAML catalog data against the schema and the
// semantic rules, then builds a Catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	if err := ValidateCatalog(data); err != nil {
		return nil, err
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewCatalog(file.Achievements)
}

// ValidateCatalog checks YAML catalog data against the embedded JSON Schema.
func ValidateCatalog(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse yaml: %v", ErrInvalidCatalog, err)
	}

	// The validator wants JSON values; round-trip through JSON to turn
	// YAML scalars into json.Number and maps into map[string]any.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("%w: schema validation failed: %w", ErrInvalidCatalog, err)
	}
	return nil
}

// NewCatalog checks definitions for semantic problems and builds a Catalog.
// All problems are reported together.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(defs))}

	var errs []error
	for _, d := range defs {
		d.ID = strings.TrimSpace(d.ID)
		d.Value = strings.TrimSpace(d.Value)

		if err := checkDefinition(d); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.byID[d.ID]; dup {
			errs = append(errs, &CatalogError{ID: d.ID, Reason: "duplicate id"})
			continue
		}
		c.byID[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func checkDefinition(d Definition) error {
	fail := func(format string, args ...any) error {
		return &CatalogError{ID: d.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if d.ID == "" {
		return fail("missing id")
	}
	if strings.TrimSpace(d.Category) == "" {
		return fail("missing category")
	}
	if !d.Rarity.Valid() {
		return fail("unknown rarity %q", d.Rarity)
	}
	if d.Points < 0 {
		return fail("negative points %d", d.Points)
	}

	switch d.Type {
	case FirstCorrect:
	case Streak, DnaSpecialist:
		if _, err := d.Threshold(); err != nil {
			return fail("%s needs a positive numeric requirement value, got %q", d.Type, d.Value)
		}
	case GenusAccuracy, ModuleComplete:
		if d.Value == "" {
			return fail("%s needs a requirement value", d.Type)
		}
	case TimeBased:
		if d.Value != TagNightOwl && d.Value != TagEarlyBird {
			return fail("unknown time tag %q", d.Value)
		}
	default:
		return fail("unknown requirement type %q", d.Type)
	}
	return nil
}

// List returns definitions in catalog order. A non-empty category filters
// to that category.
func (c *Catalog) List(category string) []Definition {
	if category == "" {
		return slices.Clone(c.defs)
	}
	var out []Definition
	for _, d := range c.defs {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// Get returns the definition with the given id.
func (c *Catalog) Get(id string) (Definition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	var out []string
	for _, d := range c.defs {
		if !slices.Contains(out, d.Category) {
			out = append(out, d.Category)
		}
	}
	return out
}
