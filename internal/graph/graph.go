// Package graph stores an OpenAPI document as an arena of tagged nodes.
// In-document $ref wrappers become Reference nodes that resolve to the live
// slot of their target, so a reference and its target are the same storage.
package graph

import (
	"strings"

	"github.com/miorlan/openapi-store/internal/yamlutil"
	"gopkg.in/yaml.v3"
)

// Kind tags an arena entry
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindSequence
	KindMapping
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindReference:
		return "reference"
	default:
		return "invalid"
	}
}

// NodeID addresses an entry in the arena
type NodeID int

// PrivatePrefix marks session-only keys that never leave the graph on export.
const PrivatePrefix = "_"

type entry struct {
	kind   Kind
	scalar *yaml.Node
	keys   []string
	fields map[string]NodeID
	items  []NodeID
	ref    string
}

// Graph is the arena. It is not safe for concurrent mutation.
type Graph struct {
	nodes []entry
	root  NodeID
	// resolved caches pointer -> slot for complete (non-cyclic) resolutions
	resolved map[string]NodeID
}

// New returns a graph whose root is an empty mapping
func New() *Graph {
	g := &Graph{}
	g.root = g.alloc(entry{kind: KindMapping, fields: map[string]NodeID{}})
	return g
}

// FromYAML seeds a graph from a yaml.Node tree. A mapping whose only key is an
// in-document $ref becomes a Reference; YAML aliases share the anchor's slot.
func FromYAML(node *yaml.Node) *Graph {
	node = yamlutil.Content(node)
	if node == nil || node.Kind == 0 {
		return New()
	}
	g := &Graph{}
	g.root = g.build(node, map[*yaml.Node]NodeID{})
	return g
}

// Root returns a handle to the document root
func (g *Graph) Root() Node {
	return Node{g: g, id: g.resolve(g.root)}
}

func (g *Graph) alloc(e entry) NodeID {
	g.nodes = append(g.nodes, e)
	return NodeID(len(g.nodes) - 1)
}

func (g *Graph) touch() {
	g.resolved = nil
}

// build copies a yaml tree into the arena
func (g *Graph) build(node *yaml.Node, seen map[*yaml.Node]NodeID) NodeID {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return g.alloc(nullEntry())
		}
		return g.build(node.Content[0], seen)
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return g.build(node.Alias, seen)
	}
	if id, ok := seen[node]; ok {
		return id
	}

	switch node.Kind {
	case yaml.MappingNode:
		if ref, ok := inDocumentRef(node); ok {
			id := g.alloc(entry{kind: KindReference, ref: ref})
			seen[node] = id
			return id
		}
		id := g.alloc(entry{kind: KindMapping, fields: map[string]NodeID{}})
		seen[node] = id
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			child := g.build(node.Content[i+1], seen)
			g.setField(id, key, child)
		}
		return id
	case yaml.SequenceNode:
		id := g.alloc(entry{kind: KindSequence})
		seen[node] = id
		items := make([]NodeID, 0, len(node.Content))
		for _, child := range node.Content {
			items = append(items, g.build(child, seen))
		}
		g.nodes[id].items = items
		return id
	default:
		id := g.alloc(entry{kind: KindScalar, scalar: scalarCopy(node)})
		seen[node] = id
		return id
	}
}

// setField re-points a slot, so cached resolutions may now be stale
func (g *Graph) setField(id NodeID, key string, child NodeID) {
	e := &g.nodes[id]
	if _, ok := e.fields[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.fields[key] = child
	g.touch()
}

func (g *Graph) deleteField(id NodeID, key string) bool {
	e := &g.nodes[id]
	if _, ok := e.fields[key]; !ok {
		return false
	}
	delete(e.fields, key)
	g.touch()
	for i, k := range e.keys {
		if k == key {
			e.keys = append(e.keys[:i:i], e.keys[i+1:]...)
			break
		}
	}
	return true
}

func inDocumentRef(node *yaml.Node) (string, bool) {
	if !yamlutil.IsPureRef(node) {
		return "", false
	}
	ref, _ := yamlutil.RefValue(node)
	if !strings.HasPrefix(ref, "#") {
		return "", false
	}
	return ref, true
}

func scalarCopy(node *yaml.Node) *yaml.Node {
	tag := node.Tag
	if tag == "" || tag == "!" {
		tag = node.ShortTag()
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: node.Value, Style: node.Style &^ yaml.TaggedStyle}
}

func nullEntry() entry {
	return entry{kind: KindScalar, scalar: &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}}
}
