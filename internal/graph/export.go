package graph

import (
	"strconv"
	"strings"

	"github.com/miorlan/openapi-store/internal/yamlutil"
	"gopkg.in/yaml.v3"
)

// ExportOption configures Export
type ExportOption func(*exportConfig)

type exportConfig struct {
	preserveRefs bool
	keepPrivate  bool
}

// PreserveRefs keeps every in-document reference as its {$ref} wrapper
// instead of expanding the target.
func PreserveRefs() ExportOption {
	return func(c *exportConfig) {
		c.preserveRefs = true
	}
}

// KeepPrivate keeps keys with the private prefix in the output
func KeepPrivate() ExportOption {
	return func(c *exportConfig) {
		c.keepPrivate = true
	}
}

type exporter struct {
	g      *Graph
	cfg    exportConfig
	active map[NodeID]string
}

// Export walks the whole document once and returns a detached yaml tree.
func (g *Graph) Export(opts ...ExportOption) *yaml.Node {
	return Node{g: g, id: g.root}.Export(opts...)
}

// Export walks the subtree rooted at n. A node met again on the active path
// is written as {$ref} with the pointer that introduced the cycle.
func (n Node) Export(opts ...ExportOption) *yaml.Node {
	if !n.IsValid() {
		return nil
	}
	e := &exporter{g: n.g, active: make(map[NodeID]string)}
	for _, opt := range opts {
		opt(&e.cfg)
	}
	return e.node(n.id, "#")
}

func (e *exporter) node(id NodeID, ptr string) *yaml.Node {
	ent := &e.g.nodes[id]
	switch ent.kind {
	case KindReference:
		if e.cfg.preserveRefs {
			return yamlutil.RefNode(ent.ref)
		}
		target := e.g.resolve(id)
		if e.g.nodes[target].kind == KindReference {
			return yamlutil.RefNode(ent.ref)
		}
		if _, onPath := e.active[target]; onPath {
			return yamlutil.RefNode(ent.ref)
		}
		return e.node(target, ptr)

	case KindMapping:
		if p, onPath := e.active[id]; onPath {
			return yamlutil.RefNode(p)
		}
		e.active[id] = ptr
		defer delete(e.active, id)

		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range ent.keys {
			if !e.cfg.keepPrivate && strings.HasPrefix(key, PrivatePrefix) {
				continue
			}
			child := e.node(ent.fields[key], ptr+"/"+escape(key))
			out.Content = append(out.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, child)
		}
		return out

	case KindSequence:
		if p, onPath := e.active[id]; onPath {
			return yamlutil.RefNode(p)
		}
		e.active[id] = ptr
		defer delete(e.active, id)

		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i, item := range ent.items {
			out.Content = append(out.Content, e.node(item, ptr+"/"+strconv.Itoa(i)))
		}
		return out

	default:
		s := *ent.scalar
		return &s
	}
}

func escape(token string) string {
	return strings.TrimPrefix(FormatPointer(token), "#/")
}

// Plain exports the document as a map
func (g *Graph) Plain(opts ...ExportOption) map[string]interface{} {
	m, _ := yamlutil.Plain(g.Export(opts...)).(map[string]interface{})
	return m
}
