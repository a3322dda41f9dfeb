package artifact

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog lists the types that may be created for each kind.
type Catalog struct {
	Personas  []string          `yaml:"personas"`
	Patterns  []PatternCategory `yaml:"patterns"`
	Workflows []string          `yaml:"workflows"`
}

// PatternCategory is a pattern category and its allowed types. An empty
// Types list accepts any type.
type PatternCategory struct {
	Category string   `yaml:"category"`
	Types    []string `yaml:"types,omitempty"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("artifact: built-in catalog: %v", err))
	}
	return c
}

// DefaultCatalogYAML returns the built-in catalog source, for projects that
// want to start their own catalog.yaml from it.
func DefaultCatalogYAML() []byte {
	return slices.Clone(defaultCatalog)
}

// ParseCatalog parses catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// LoadCatalog reads a project catalog, falling back to the built-in one when
// path does not exist.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCatalog(), nil
		}
		return nil, err
	}
	return ParseCatalog(data)
}

// Categories returns the pattern category names in catalog order.
func (c *Catalog) Categories() []string {
	names := make([]string, len(c.Patterns))
	for i, p := range c.Patterns {
		names[i] = p.Category
	}
	return names
}

// Types returns the allowed types for a kind. For patterns, category selects
// the list; a nil result with a known category means any type is accepted.
func (c *Catalog) Types(kind Kind, category string) []string {
	switch kind {
	case KindPersona:
		return c.Personas
	case KindWorkflow:
		return c.Workflows
	case KindPattern:
		for _, p := range c.Patterns {
			if p.Category == category {
				return p.Types
			}
		}
	}
	return nil
}

// Check reports whether key may be created for kind.
func (c *Catalog) Check(kind Kind, key Key) error {
	if kind == KindPattern {
		if !slices.Contains(c.Categories(), key.Category) {
			return &ValidationError{
				Kind:   kind,
				Key:    key.String(),
				Err:    ErrUnknownSubtype,
				Reason: "available categories: " + strings.Join(c.Categories(), ", "),
			}
		}
	}

	allowed := c.Types(kind, key.Category)
	if kind == KindPattern && len(allowed) == 0 {
		return nil
	}
	if !slices.Contains(allowed, key.Type) {
		return &ValidationError{
			Kind:   kind,
			Key:    key.String(),
			Err:    ErrUnknownSubtype,
			Reason: "available types: " + strings.Join(allowed, ", "),
		}
	}
	return nil
}
