// Package yamlutil holds order-preserving helpers for yaml.Node trees.
package yamlutil

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RefKey is the JSON Reference keyword.
const RefKey = "$ref"

// MapValue gets a value from a mapping node by key
func MapValue(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// SetMapValue sets a value in a mapping node, preserving order.
// New keys are appended.
func SetMapValue(node *yaml.Node, key string, value *yaml.Node) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			node.Content[i+1] = value
			return
		}
	}
	node.Content = append(node.Content, String(key), value)
}

// DeleteMapKey removes a key from a mapping node
func DeleteMapKey(node *yaml.Node, key string) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			node.Content = append(node.Content[:i], node.Content[i+2:]...)
			return true
		}
	}
	return false
}

// IterateMap calls fn for each key-value pair of a mapping node in order
func IterateMap(node *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// String creates a plain string scalar
func String(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// Mapping creates a mapping node from alternating keys and values
func Mapping(pairs ...interface{}) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		value, ok := pairs[i+1].(*yaml.Node)
		if !ok {
			value = String(fmt.Sprint(pairs[i+1]))
		}
		node.Content = append(node.Content, String(key), value)
	}
	return node
}

// RefNode creates a node holding only a $ref
func RefNode(ref string) *yaml.Node {
	return Mapping(RefKey, String(ref))
}

// RefValue returns the $ref string of a node that carries one
func RefValue(node *yaml.Node) (string, bool) {
	ref := MapValue(node, RefKey)
	if ref == nil || ref.Kind != yaml.ScalarNode {
		return "", false
	}
	return ref.Value, true
}

// IsPureRef reports whether node is a mapping whose only key is $ref
func IsPureRef(node *yaml.Node) bool {
	if node == nil || node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return false
	}
	_, ok := RefValue(node)
	return ok
}

// Content unwraps document nodes
func Content(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	return node
}

// ToNode converts a Go value into a yaml.Node. A *yaml.Node is returned as is.
func ToNode(v interface{}) (*yaml.Node, error) {
	switch val := v.(type) {
	case *yaml.Node:
		if val == nil {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
		}
		return Content(val), nil
	case yaml.Node:
		return Content(&val), nil
	}

	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode value: %w", err)
	}
	return Content(node), nil
}

// Clone creates a deep copy of node. Aliases inside the copy point to the copied anchors.
func Clone(node *yaml.Node) *yaml.Node {
	return clone(node, make(map[*yaml.Node]*yaml.Node))
}

func clone(node *yaml.Node, seen map[*yaml.Node]*yaml.Node) *yaml.Node {
	if node == nil {
		return nil
	}
	if c, ok := seen[node]; ok {
		return c
	}
	c := &yaml.Node{
		Kind:   node.Kind,
		Style:  node.Style,
		Tag:    node.Tag,
		Value:  node.Value,
		Anchor: node.Anchor,
		Line:   node.Line,
		Column: node.Column,
	}
	seen[node] = c
	if node.Alias != nil {
		c.Alias = clone(node.Alias, seen)
	}
	if len(node.Content) > 0 {
		c.Content = make([]*yaml.Node, len(node.Content))
		for i, child := range node.Content {
			c.Content[i] = clone(child, seen)
		}
	}
	return c
}

// Walk visits every node reachable from root once, depth first.
// Alias nodes are followed to their anchor. fn returning false skips the children.
func Walk(root *yaml.Node, fn func(node *yaml.Node) bool) {
	seen := make(map[*yaml.Node]bool)
	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		if n == nil {
			return
		}
		if n.Kind == yaml.AliasNode {
			n = n.Alias
			if n == nil {
				return
			}
		}
		if seen[n] {
			return
		}
		seen[n] = true
		if !fn(n) {
			return
		}
		for _, child := range n.Content {
			walk(child)
		}
	}
	walk(root)
}

// Plain converts a node tree into maps, slices and scalars.
// Mapping keys are always strings, so "200:" stays "200".
func Plain(node *yaml.Node) interface{} {
	node = Content(node)
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.AliasNode:
		return Plain(node.Alias)
	case yaml.MappingNode:
		out := make(map[string]interface{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			out[node.Content[i].Value] = Plain(node.Content[i+1])
		}
		return out
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(node.Content))
		for _, child := range node.Content {
			out = append(out, Plain(child))
		}
		return out
	case yaml.ScalarNode:
		var v interface{}
		if err := node.Decode(&v); err != nil {
			return node.Value
		}
		return v
	}
	return nil
}
