// Package seed holds the default course catalog.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coursehub/coursehub-api/internal/core/domain"
)

//go:embed courses.yaml
var defaultCatalog []byte

type catalogFile struct {
	Courses []domain.Course `yaml:"courses"`
}

// DefaultCourses returns the built-in catalog.
func DefaultCourses() ([]domain.Course, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads a catalog from path, in the same format as the built-in one.
func LoadFile(path string) ([]domain.Course, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog. Unknown keys are rejected.
func Parse(raw []byte) ([]domain.Course, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Courses) == 0 {
		return nil, errors.New("parse catalog: no courses")
	}

	seen := make(map[string]struct{}, len(f.Courses))
	for i := range f.Courses {
		c := &f.Courses[i]
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("course %d (%q): %w", i, c.Title, err)
		}
		if _, dup := seen[c.Title]; dup {
			return nil, fmt.Errorf("course %d: duplicate title %q", i, c.Title)
		}
		seen[c.Title] = struct{}{}
	}
	return f.Courses, nil
}
