package overlay

import (
	"errors"
	"fmt"

	"github.com/miorlan/openapi-store/internal/yamlutil"
	"gopkg.in/yaml.v3"
)

// ErrEmptyOverlay is returned for empty overlay input
var ErrEmptyOverlay = errors.New("overlay: empty document")

// ParseOverlay reads a single overlay from YAML or JSON
func ParseOverlay(data []byte) (*Overlay, error) {
	overlays, err := ParseOverlays(data)
	if err != nil {
		return nil, err
	}
	if len(overlays) != 1 {
		return nil, fmt.Errorf("overlay: expected one overlay, got %d", len(overlays))
	}
	return overlays[0], nil
}

// ParseOverlays reads one overlay or an array of overlays from YAML or JSON
func ParseOverlays(data []byte) ([]*Overlay, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("overlay: failed to parse: %w", err)
	}
	root := yamlutil.Content(&doc)
	if root == nil || root.Kind == 0 {
		return nil, ErrEmptyOverlay
	}

	switch root.Kind {
	case yaml.SequenceNode:
		var overlays []*Overlay
		if err := root.Decode(&overlays); err != nil {
			return nil, fmt.Errorf("overlay: failed to decode: %w", err)
		}
		return overlays, nil
	case yaml.MappingNode:
		var o Overlay
		if err := root.Decode(&o); err != nil {
			return nil, fmt.Errorf("overlay: failed to decode: %w", err)
		}
		return []*Overlay{&o}, nil
	}
	return nil, fmt.Errorf("overlay: expected a mapping or a sequence")
}
