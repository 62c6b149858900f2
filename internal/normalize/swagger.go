package normalize

import (
	"strings"

	"github.com/miorlan/openapi-store/internal/yamlutil"
	"gopkg.in/yaml.v3"
)

// Swagger 2.0 top-level sections and where they live in OpenAPI 3
var componentSections = map[string]string{
	"definitions":         "schemas",
	"parameters":          "parameters",
	"responses":           "responses",
	"securityDefinitions": "securitySchemes",
}

// refPrefixes maps Swagger 2.0 local reference prefixes to their OpenAPI 3 counterparts
var refPrefixes = [][2]string{
	{"#/definitions/", "#/components/schemas/"},
	{"#/parameters/", "#/components/parameters/"},
	{"#/responses/", "#/components/responses/"},
	{"#/securityDefinitions/", "#/components/securitySchemes/"},
}

// upgradeSwagger rebuilds a Swagger 2.0 root mapping as an OpenAPI 3 document.
// Key order is kept: `openapi` replaces `swagger`, `servers` takes the place of the
// first of host/basePath/schemes and `components` the place of the first moved section.
func upgradeSwagger(doc *yaml.Node) *yaml.Node {
	out := yamlutil.Mapping()
	var components *yaml.Node
	serversPlaced := false

	_ = yamlutil.IterateMap(doc, func(key string, value *yaml.Node) error {
		switch key {
		case "swagger":
			out.Content = append(out.Content, yamlutil.String("openapi"), yamlutil.String(TargetVersion))

		case "host", "basePath", "schemes":
			if serversPlaced {
				return nil
			}
			serversPlaced = true
			if servers := buildServers(doc); servers != nil {
				out.Content = append(out.Content, yamlutil.String("servers"), servers)
			}

		case "definitions", "parameters", "responses", "securityDefinitions":
			if components == nil {
				components = yamlutil.MapValue(doc, "components")
				if components == nil || components.Kind != yaml.MappingNode {
					components = yamlutil.Mapping()
				}
				out.Content = append(out.Content, yamlutil.String("components"), components)
			}
			mergeSection(components, componentSections[key], value)

		case "components":
			// a hand-written components block is folded into the one built from the legacy sections
			if components == nil {
				components = value
				out.Content = append(out.Content, yamlutil.String("components"), components)
			}

		default:
			out.Content = append(out.Content, yamlutil.String(key), value)
		}
		return nil
	})

	rewriteRefs(out)
	return out
}

// buildServers collapses host, basePath and schemes into a servers list,
// one entry per scheme. The scheme defaults to http.
func buildServers(doc *yaml.Node) *yaml.Node {
	host := scalar(yamlutil.MapValue(doc, "host"))
	basePath := scalar(yamlutil.MapValue(doc, "basePath"))
	if host == "" && basePath == "" {
		return nil
	}

	servers := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if host == "" {
		servers.Content = append(servers.Content, yamlutil.Mapping("url", yamlutil.String(basePath)))
		return servers
	}

	var schemes []string
	if s := yamlutil.MapValue(doc, "schemes"); s != nil && s.Kind == yaml.SequenceNode {
		for _, item := range s.Content {
			if item.Kind == yaml.ScalarNode && item.Value != "" {
				schemes = append(schemes, item.Value)
			}
		}
	}
	if len(schemes) == 0 {
		schemes = []string{"http"}
	}

	for _, scheme := range schemes {
		url := scheme + "://" + host + basePath
		servers.Content = append(servers.Content, yamlutil.Mapping("url", yamlutil.String(url)))
	}
	return servers
}

// mergeSection moves the entries of a legacy section into components[name]
func mergeSection(components *yaml.Node, name string, section *yaml.Node) {
	existing := yamlutil.MapValue(components, name)
	if existing == nil || existing.Kind != yaml.MappingNode || section.Kind != yaml.MappingNode {
		yamlutil.SetMapValue(components, name, section)
		return
	}
	_ = yamlutil.IterateMap(section, func(key string, value *yaml.Node) error {
		yamlutil.SetMapValue(existing, key, value)
		return nil
	})
}

// rewriteRefs points local Swagger 2.0 references at their new components location
func rewriteRefs(root *yaml.Node) {
	yamlutil.Walk(root, func(node *yaml.Node) bool {
		if node.Kind != yaml.MappingNode {
			return true
		}
		ref := yamlutil.MapValue(node, yamlutil.RefKey)
		if ref == nil || ref.Kind != yaml.ScalarNode {
			return true
		}
		for _, p := range refPrefixes {
			if strings.HasPrefix(ref.Value, p[0]) {
				ref.Value = p[1] + strings.TrimPrefix(ref.Value, p[0])
				break
			}
		}
		return true
	})
}

func scalar(node *yaml.Node) string {
	if node == nil || node.Kind != yaml.ScalarNode {
		return ""
	}
	return node.Value
}
