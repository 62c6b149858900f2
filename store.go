// Package store keeps an OpenAPI document as a live, mutable model.
//
// Create normalizes the input (Swagger 2.0 is upgraded to OpenAPI 3.1.1) and
// resolves in-document $ref values into shared nodes: a reference and its
// target are the same storage, so writes through either path are visible
// through both. Overlays rewrite the document in place, and Export produces a
// plain snapshot in which circular references stay {"$ref": "..."}.
//
// Example:
//
//	s, err := store.Create(data)
//	if err != nil {
//		return err
//	}
//	s.Merge(map[string]any{"info": map[string]any{"title": "Renamed"}})
//	doc := s.Export()
package store

import (
	"fmt"
	"log/slog"

	"github.com/miorlan/openapi-store/internal/domain"
	"github.com/miorlan/openapi-store/internal/graph"
	"github.com/miorlan/openapi-store/internal/infrastructure/parser"
	"github.com/miorlan/openapi-store/internal/normalize"
	"github.com/miorlan/openapi-store/internal/overlay"
	"gopkg.in/yaml.v3"
)

type (
	// Node is a live handle into the document
	Node = graph.Node
	// Kind tags a Node
	Kind = graph.Kind
	// ExportOption configures Export
	ExportOption = graph.ExportOption
	// Overlay is an OpenAPI Overlay document
	Overlay = overlay.Overlay
	// OverlayAction is one overlay action
	OverlayAction = overlay.Action
	// OverlayInfo describes an overlay
	OverlayInfo = overlay.Info
	// OverlayValidationError is a structural problem found by ValidateOverlay
	OverlayValidationError = overlay.ValidationError
	// ApplyResult summarizes an Apply call
	ApplyResult = overlay.Result
	// InvalidDocumentError is returned by Create for input without a usable version
	InvalidDocumentError = domain.InvalidDocumentError
	// Upgrader extends the Swagger 2.0 upgrade
	Upgrader = normalize.Upgrader
	// FileFormat selects the Marshal output
	FileFormat = domain.FileFormat
)

const (
	KindScalar    = graph.KindScalar
	KindSequence  = graph.KindSequence
	KindMapping   = graph.KindMapping
	KindReference = graph.KindReference

	FormatJSON = domain.FormatJSON
	FormatYAML = domain.FormatYAML
)

var (
	// PreserveRefs keeps in-document references as {$ref} wrappers on export
	PreserveRefs = graph.PreserveRefs
	// KeepPrivate keeps underscore-prefixed session fields on export
	KeepPrivate = graph.KeepPrivate
	// ParseOverlays reads one overlay or an array of overlays from YAML or JSON
	ParseOverlays = overlay.ParseOverlays
	// ValidateOverlay reports structural problems of an overlay
	ValidateOverlay = overlay.Validate
)

// Option represents a configuration option for the store
type Option func(*Config)

// Config holds the configuration for the store
type Config struct {
	Logger    *slog.Logger
	Upgraders []Upgrader
}

// WithLogger sets the logger used for overlay warnings and lifecycle events
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithUpgrader adds a Swagger 2.0 upgrade step that runs after the built-in one
func WithUpgrader(u Upgrader) Option {
	return func(c *Config) {
		c.Upgraders = append(c.Upgraders, u)
	}
}

// WithOperationUpgrade also translates Swagger 2.0 operations (body
// parameters, response schemas) into their OpenAPI 3 shape
func WithOperationUpgrade() Option {
	return WithUpgrader(normalize.OperationUpgrader{})
}

// defaultConfig returns the default configuration
func defaultConfig() *Config {
	return &Config{
		Logger: slog.Default(),
	}
}

// Store owns one document. It is not safe for concurrent mutation.
type Store struct {
	graph   *graph.Graph
	config  *Config
	applier *overlay.Applier
}

// Create normalizes content and builds a store from it. content may be JSON or
// YAML text ([]byte or string), a *yaml.Node, or any value yaml.v3 can encode.
// Input without an `openapi` or `swagger` version fails with *InvalidDocumentError.
func Create(content interface{}, opts ...Option) (*Store, error) {
	config := defaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	doc, err := normalize.Normalize(content, config.normalizeOptions()...)
	if err != nil {
		return nil, err
	}

	s := &Store{
		graph:   graph.FromYAML(doc),
		config:  config,
		applier: overlay.NewApplier(config.Logger),
	}
	config.Logger.Debug("document store created", "openapi", s.graph.Root().Field("openapi").String())
	return s, nil
}

func (c *Config) normalizeOptions() []normalize.Option {
	opts := make([]normalize.Option, 0, len(c.Upgraders))
	for _, u := range c.Upgraders {
		opts = append(opts, normalize.WithUpgrader(u))
	}
	return opts
}

// Document returns the live document root
func (s *Store) Document() Node {
	return s.graph.Root()
}

// Read returns the live node at a JSON pointer such as "#/components/schemas/Pet".
// References on the way are followed, so the result is the target itself.
func (s *Store) Read(pointer string) (Node, error) {
	return s.graph.Read(pointer)
}

// Write stores value at pointer. Passing a Node of this store links the slot
// to that node instead of copying it.
func (s *Store) Write(pointer string, value interface{}) error {
	return s.graph.Write(pointer, value)
}

// Delete removes the value at pointer
func (s *Store) Delete(pointer string) error {
	return s.graph.Delete(pointer)
}

// Merge deep-merges partial into the document. Mappings merge key by key,
// everything else is replaced; keys partial does not mention are untouched.
func (s *Store) Merge(partial interface{}) error {
	if err := s.graph.Root().Merge(partial); err != nil {
		return fmt.Errorf("failed to merge document: %w", err)
	}
	return nil
}

// Update merges a new revision of the document. A partial that declares a
// version is normalized first, so a Swagger 2.0 revision lands in canonical
// form; untouched keys of the current document are kept.
func (s *Store) Update(partial interface{}) error {
	node, err := normalize.Parse(partial)
	if err != nil {
		return fmt.Errorf("failed to parse update: %w", err)
	}
	if dialect, _ := normalize.Detect(node); dialect != normalize.DialectUnknown {
		node, err = normalize.Normalize(node, s.config.normalizeOptions()...)
		if err != nil {
			return err
		}
	}
	if err := s.graph.Root().Merge(node); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

// Apply applies overlays in order. Actions that fail or match nothing are
// reported in the result and never abort the remaining actions.
func (s *Store) Apply(overlays ...*Overlay) *ApplyResult {
	return s.applier.Apply(s.graph, overlays...)
}

// Export returns a plain snapshot of the document. Session fields (keys
// starting with "_") are dropped and circular references are written as
// {"$ref": pointer}.
func (s *Store) Export(opts ...ExportOption) map[string]interface{} {
	return s.graph.Plain(opts...)
}

// ExportNode is Export as an ordered yaml.Node
func (s *Store) ExportNode(opts ...ExportOption) *yaml.Node {
	return s.graph.Export(opts...)
}

// Marshal serializes the exported document as JSON or YAML, keeping key order
func (s *Store) Marshal(format FileFormat, opts ...ExportOption) ([]byte, error) {
	p := parser.NewParser()
	p.SetOutputFormat(format)
	data, err := p.MarshalNode(s.ExportNode(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}
