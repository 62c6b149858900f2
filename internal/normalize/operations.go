package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/miorlan/openapi-store/internal/infrastructure/parser"
	"github.com/miorlan/openapi-store/internal/yamlutil"
	"gopkg.in/yaml.v3"
)

// OperationUpgrader translates Swagger 2.0 operations (body and formData
// parameters, response schemas, produces/consumes) into OpenAPI 3 request bodies
// and content maps using kin-openapi's openapi2conv. Path order of the legacy
// document is kept.
type OperationUpgrader struct{}

var _ Upgrader = OperationUpgrader{}

// Upgrade replaces doc's paths with the converted operations
func (OperationUpgrader) Upgrade(legacy, doc *yaml.Node) error {
	legacyPaths := yamlutil.MapValue(legacy, "paths")
	if legacyPaths == nil || len(legacyPaths.Content) == 0 {
		return nil
	}

	src := yamlutil.Clone(legacy)
	// version-like values must stay strings for openapi2.T
	forceString(yamlutil.MapValue(src, "swagger"))
	forceString(yamlutil.MapValue(yamlutil.MapValue(src, "info"), "version"))

	data, err := parser.MarshalJSON(src)
	if err != nil {
		return fmt.Errorf("failed to encode legacy document: %w", err)
	}

	var doc2 openapi2.T
	if err := json.Unmarshal(data, &doc2); err != nil {
		return fmt.Errorf("failed to decode legacy document: %w", err)
	}

	doc3, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return fmt.Errorf("failed to convert operations: %w", err)
	}

	converted, err := toNode(doc3.Paths)
	if err != nil {
		return err
	}

	paths := yamlutil.Mapping()
	_ = yamlutil.IterateMap(legacyPaths, func(key string, _ *yaml.Node) error {
		if item := yamlutil.MapValue(converted, key); item != nil {
			paths.Content = append(paths.Content, yamlutil.String(key), item)
		}
		return nil
	})
	yamlutil.SetMapValue(doc, "paths", paths)
	// media types now live in each operation's content map
	yamlutil.DeleteMapKey(doc, "consumes")
	yamlutil.DeleteMapKey(doc, "produces")

	if doc3.Components != nil && len(doc3.Components.RequestBodies) > 0 {
		bodies, err := toNode(doc3.Components.RequestBodies)
		if err != nil {
			return err
		}
		components := yamlutil.MapValue(doc, "components")
		if components == nil {
			components = yamlutil.Mapping()
			yamlutil.SetMapValue(doc, "components", components)
		}
		yamlutil.SetMapValue(components, "requestBodies", bodies)
	}

	return nil
}

func toNode(v interface{}) (*yaml.Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode converted operations: %w", err)
	}
	node, err := parser.NewParser().Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read converted operations: %w", err)
	}
	return node, nil
}

func forceString(node *yaml.Node) {
	if node != nil && node.Kind == yaml.ScalarNode {
		node.Tag = "!!str"
	}
}
