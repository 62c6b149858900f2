package graph

import (
	"fmt"

	"github.com/miorlan/openapi-store/internal/yamlutil"
	"gopkg.in/yaml.v3"
)

// Merge deep-merges patch into the mapping n. Mappings merge key by key;
// every other value, sequences included, replaces the existing one.
func (n Node) Merge(patch interface{}) error {
	if n.Kind() != KindMapping {
		return fmt.Errorf("cannot merge into %s node", n.Kind())
	}
	node, err := patchNode(patch)
	if err != nil {
		return err
	}
	if node == nil || node.Kind != yaml.MappingNode || yamlutil.IsPureRef(node) {
		return fmt.Errorf("merge patch must be a mapping")
	}
	n.g.merge(n.id, node, map[*yaml.Node]NodeID{})
	n.g.touch()
	return nil
}

// Mergeable reports whether patch would be merged into n rather than replace it
func (n Node) Mergeable(patch interface{}) bool {
	if n.Kind() != KindMapping {
		return false
	}
	node, err := patchNode(patch)
	if err != nil || node == nil {
		return false
	}
	return node.Kind == yaml.MappingNode && !yamlutil.IsPureRef(node)
}

func patchNode(patch interface{}) (*yaml.Node, error) {
	switch p := patch.(type) {
	case Node:
		return p.Export(PreserveRefs(), KeepPrivate()), nil
	case *Node:
		if p == nil {
			return nil, nil
		}
		return p.Export(PreserveRefs(), KeepPrivate()), nil
	}
	node, err := yamlutil.ToNode(patch)
	if err != nil {
		return nil, err
	}
	if node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node, nil
}

func (g *Graph) merge(target NodeID, patch *yaml.Node, seen map[*yaml.Node]NodeID) {
	for i := 0; i+1 < len(patch.Content); i += 2 {
		key := patch.Content[i].Value
		value := patch.Content[i+1]
		if value.Kind == yaml.AliasNode && value.Alias != nil {
			value = value.Alias
		}
		if existing, ok := g.nodes[target].fields[key]; ok {
			resolved := g.resolve(existing)
			if g.nodes[resolved].kind == KindMapping && value.Kind == yaml.MappingNode && !yamlutil.IsPureRef(value) {
				g.merge(resolved, value, seen)
				continue
			}
		}
		g.setField(target, key, g.build(value, seen))
	}
}
