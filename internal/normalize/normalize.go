// Package normalize detects the dialect of an OpenAPI/Swagger document and
// upgrades it into the canonical OpenAPI 3.1 shape the store works with.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/miorlan/openapi-store/internal/domain"
	"github.com/miorlan/openapi-store/internal/infrastructure/parser"
	"github.com/miorlan/openapi-store/internal/yamlutil"
	"gopkg.in/yaml.v3"
)

// TargetVersion is the OpenAPI version every normalized document carries.
const TargetVersion = "3.1.1"

const (
	reasonNoVersion   = "failed to find a specification version"
	reasonUnsupported = "unsupported specification version"
)

// Upgrader extends the built-in Swagger 2.0 upgrade. legacy is an untouched copy of
// the input document and doc the upgraded document, which Upgrade may modify.
type Upgrader interface {
	Upgrade(legacy, doc *yaml.Node) error
}

// UpgraderFunc adapts a function to the Upgrader interface
type UpgraderFunc func(legacy, doc *yaml.Node) error

// Upgrade calls f(legacy, doc)
func (f UpgraderFunc) Upgrade(legacy, doc *yaml.Node) error {
	return f(legacy, doc)
}

// Option configures normalization
type Option func(*config)

type config struct {
	upgraders []Upgrader
}

// WithUpgrader registers an additional Swagger 2.0 upgrade step
func WithUpgrader(u Upgrader) Option {
	return func(c *config) {
		c.upgraders = append(c.upgraders, u)
	}
}

// Parse turns input into a yaml.Node without any dialect handling.
// Accepted input: []byte or string (JSON or YAML text), *yaml.Node, or any value
// yaml.v3 can encode. The returned tree never shares nodes with input.
func Parse(input interface{}) (*yaml.Node, error) {
	switch v := input.(type) {
	case nil:
		return nil, parser.ErrEmptyDocument
	case []byte:
		return parser.NewParser().Parse(v)
	case string:
		return parser.NewParser().Parse([]byte(v))
	case *yaml.Node:
		if yamlutil.Content(v) == nil {
			return nil, parser.ErrEmptyDocument
		}
		return yamlutil.Clone(yamlutil.Content(v)), nil
	}

	node, err := yamlutil.ToNode(input)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Normalize parses input and returns the canonical document.
//
// Documents declaring `swagger: 2.x` are upgraded, `openapi: 3.x` documents keep
// their shape and only get the version rewritten to TargetVersion. A document
// without either field fails with *domain.InvalidDocumentError.
func Normalize(input interface{}, opts ...Option) (*yaml.Node, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	doc, err := Parse(input)
	if err != nil {
		if errors.Is(err, parser.ErrEmptyDocument) {
			return nil, &domain.InvalidDocumentError{Reason: reasonNoVersion}
		}
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	if doc.Kind != yaml.MappingNode {
		return nil, &domain.InvalidDocumentError{Reason: reasonNoVersion}
	}

	switch dialect, version := Detect(doc); dialect {
	case DialectOpenAPI3:
		yamlutil.SetMapValue(doc, "openapi", yamlutil.String(TargetVersion))
	case DialectSwagger2:
		legacy := yamlutil.Clone(doc)
		doc = upgradeSwagger(doc)
		for _, u := range cfg.upgraders {
			if err := u.Upgrade(legacy, doc); err != nil {
				return nil, fmt.Errorf("failed to upgrade document: %w", err)
			}
		}
	case DialectUnsupported:
		return nil, &domain.InvalidDocumentError{Reason: reasonUnsupported, Version: version}
	default:
		return nil, &domain.InvalidDocumentError{Reason: reasonNoVersion}
	}

	ensureCanonical(doc)
	return doc, nil
}

// Dialect identifies the specification family of a document
type Dialect int

const (
	DialectUnknown Dialect = iota
	DialectOpenAPI3
	DialectSwagger2
	DialectUnsupported
)

// Detect reports the dialect and the declared version string of doc.
// `openapi` wins over `swagger` when a document carries both.
func Detect(doc *yaml.Node) (Dialect, string) {
	if v := yamlutil.MapValue(doc, "openapi"); v != nil && v.Kind == yaml.ScalarNode && v.Value != "" {
		if strings.HasPrefix(v.Value, "3.") || v.Value == "3" {
			return DialectOpenAPI3, v.Value
		}
		return DialectUnsupported, v.Value
	}
	if v := yamlutil.MapValue(doc, "swagger"); v != nil && v.Kind == yaml.ScalarNode && v.Value != "" {
		if strings.HasPrefix(v.Value, "2.") || v.Value == "2" {
			return DialectSwagger2, v.Value
		}
		return DialectUnsupported, v.Value
	}
	return DialectUnknown, ""
}

// ensureCanonical adds the containers every canonical document has
func ensureCanonical(doc *yaml.Node) {
	if yamlutil.MapValue(doc, "info") == nil {
		yamlutil.SetMapValue(doc, "info", yamlutil.Mapping())
	}
	if yamlutil.MapValue(doc, "paths") == nil {
		yamlutil.SetMapValue(doc, "paths", yamlutil.Mapping())
	}
	components := yamlutil.MapValue(doc, "components")
	if components == nil {
		components = yamlutil.Mapping()
		yamlutil.SetMapValue(doc, "components", components)
	}
	if components.Kind == yaml.MappingNode && yamlutil.MapValue(components, "schemas") == nil {
		yamlutil.SetMapValue(components, "schemas", yamlutil.Mapping())
	}
}
