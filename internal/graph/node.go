package graph

import (
	"fmt"
	"strconv"

	"github.com/miorlan/openapi-store/internal/domain"
	"github.com/miorlan/openapi-store/internal/yamlutil"
	"gopkg.in/yaml.v3"
)

// Node is a live handle to an arena slot. Handles obtained through Read,
// Field or Item are already resolved, so writes through them land in the
// referenced target. The zero Node is invalid.
type Node struct {
	g  *Graph
	id NodeID
}

// IsValid reports whether n points into a graph
func (n Node) IsValid() bool { return n.g != nil }

// ID returns the arena index of n
func (n Node) ID() NodeID { return n.id }

func (n Node) entry() *entry { return &n.g.nodes[n.id] }

// Kind returns the node tag. A resolved handle is only KindReference when the
// reference dangles or closes a cycle onto itself.
func (n Node) Kind() Kind {
	if !n.IsValid() {
		return KindInvalid
	}
	return n.entry().kind
}

// Field returns the resolved child under key, or an invalid Node
func (n Node) Field(key string) Node {
	if n.Kind() != KindMapping {
		return Node{}
	}
	c, ok := n.entry().fields[key]
	if !ok {
		return Node{}
	}
	return Node{g: n.g, id: n.g.resolve(c)}
}

// Has reports whether a mapping node carries key
func (n Node) Has(key string) bool {
	if n.Kind() != KindMapping {
		return false
	}
	_, ok := n.entry().fields[key]
	return ok
}

// Item returns the resolved element i of a sequence; negative i counts from the end
func (n Node) Item(i int) Node {
	if n.Kind() != KindSequence {
		return Node{}
	}
	items := n.entry().items
	if i < 0 {
		i += len(items)
	}
	if i < 0 || i >= len(items) {
		return Node{}
	}
	return Node{g: n.g, id: n.g.resolve(items[i])}
}

// Get descends through raw pointer tokens
func (n Node) Get(tokens ...string) Node {
	cur := n
	for _, tok := range tokens {
		switch cur.Kind() {
		case KindMapping:
			cur = cur.Field(tok)
		case KindSequence:
			i, err := strconv.Atoi(tok)
			if err != nil {
				return Node{}
			}
			cur = cur.Item(i)
		default:
			return Node{}
		}
	}
	return cur
}

// Keys returns the mapping keys in document order
func (n Node) Keys() []string {
	if n.Kind() != KindMapping {
		return nil
	}
	return append([]string(nil), n.entry().keys...)
}

// Len returns the number of entries of a mapping or sequence
func (n Node) Len() int {
	switch n.Kind() {
	case KindMapping:
		return len(n.entry().keys)
	case KindSequence:
		return len(n.entry().items)
	}
	return 0
}

// Value decodes a scalar into its Go value (string, int, float64, bool or nil)
func (n Node) Value() interface{} {
	if n.Kind() != KindScalar {
		return nil
	}
	var v interface{}
	if err := n.entry().scalar.Decode(&v); err != nil {
		return n.entry().scalar.Value
	}
	return v
}

// String returns the raw scalar text
func (n Node) String() string {
	if n.Kind() != KindScalar {
		return ""
	}
	return n.entry().scalar.Value
}

// Set stores value under key of a mapping. A Node of the same graph links the
// slot instead of copying it.
func (n Node) Set(key string, value interface{}) error {
	if n.Kind() != KindMapping {
		return fmt.Errorf("cannot set %q on %s node", key, n.Kind())
	}
	id, err := n.g.value(value)
	if err != nil {
		return err
	}
	n.g.setField(n.id, key, id)
	n.g.touch()
	return nil
}

// Delete removes key from a mapping
func (n Node) Delete(key string) bool {
	if n.Kind() != KindMapping {
		return false
	}
	ok := n.g.deleteField(n.id, key)
	if ok {
		n.g.touch()
	}
	return ok
}

// SetItem replaces element i of a sequence. i == Len() appends.
func (n Node) SetItem(i int, value interface{}) error {
	if n.Kind() != KindSequence {
		return fmt.Errorf("cannot set item %d on %s node", i, n.Kind())
	}
	e := n.entry()
	if i < 0 {
		i += len(e.items)
	}
	if i < 0 || i > len(e.items) {
		return fmt.Errorf("index %d out of range", i)
	}
	id, err := n.g.value(value)
	if err != nil {
		return err
	}
	e = n.entry()
	if i == len(e.items) {
		e.items = append(e.items, id)
	} else {
		e.items[i] = id
	}
	n.g.touch()
	return nil
}

// Append adds value to the end of a sequence
func (n Node) Append(value interface{}) error {
	return n.SetItem(n.Len(), value)
}

// RemoveItem deletes element i of a sequence
func (n Node) RemoveItem(i int) bool {
	if n.Kind() != KindSequence {
		return false
	}
	e := n.entry()
	if i < 0 {
		i += len(e.items)
	}
	if i < 0 || i >= len(e.items) {
		return false
	}
	e.items = append(e.items[:i:i], e.items[i+1:]...)
	n.g.touch()
	return true
}

// Interface exports the subtree rooted at n as plain Go data
func (n Node) Interface(opts ...ExportOption) interface{} {
	if !n.IsValid() {
		return nil
	}
	return yamlutil.Plain(n.Export(opts...))
}

// Entry is one child of a container node as seen by selectors
type Entry struct {
	Parent Node
	Key    string
	Index  int
	Node   Node
}

// Entries lists the resolved children of a mapping or sequence.
// Mapping entries have Index -1.
func (n Node) Entries() []Entry {
	switch n.Kind() {
	case KindMapping:
		keys := n.entry().keys
		out := make([]Entry, 0, len(keys))
		for _, k := range keys {
			out = append(out, Entry{Parent: n, Key: k, Index: -1, Node: n.Field(k)})
		}
		return out
	case KindSequence:
		items := n.entry().items
		out := make([]Entry, 0, len(items))
		for i := range items {
			out = append(out, Entry{Parent: n, Index: i, Node: n.Item(i)})
		}
		return out
	}
	return nil
}

// Replace overwrites the slot this entry occupies
func (e Entry) Replace(value interface{}) error {
	if e.Index >= 0 {
		return e.Parent.SetItem(e.Index, value)
	}
	return e.Parent.Set(e.Key, value)
}

// Remove deletes the slot this entry occupies
func (e Entry) Remove() bool {
	if e.Index >= 0 {
		return e.Parent.RemoveItem(e.Index)
	}
	return e.Parent.Delete(e.Key)
}

// value turns an arbitrary Go value into an arena slot
func (g *Graph) value(v interface{}) (NodeID, error) {
	switch val := v.(type) {
	case Node:
		if !val.IsValid() {
			return g.alloc(nullEntry()), nil
		}
		if val.g == g {
			return val.id, nil
		}
		return g.build(val.Export(PreserveRefs()), map[*yaml.Node]NodeID{}), nil
	case *Node:
		if val == nil {
			return g.alloc(nullEntry()), nil
		}
		return g.value(*val)
	}
	node, err := yamlutil.ToNode(v)
	if err != nil {
		return 0, err
	}
	if node == nil {
		return g.alloc(nullEntry()), nil
	}
	return g.build(node, map[*yaml.Node]NodeID{}), nil
}

// Read returns the live node at pointer
func (g *Graph) Read(pointer string) (Node, error) {
	tokens, err := ParsePointer(pointer)
	if err != nil {
		return Node{}, err
	}
	id, ok := g.lookup(tokens)
	if !ok {
		return Node{}, &domain.ErrPathNotFound{Pointer: pointer}
	}
	return Node{g: g, id: id}, nil
}

// Write stores value at pointer. The parent must exist; the last token may
// name a new mapping key, an index inside a sequence, or "-" to append.
// Writing to the root pointer replaces the whole document.
func (g *Graph) Write(pointer string, value interface{}) error {
	tokens, err := ParsePointer(pointer)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		id, err := g.value(value)
		if err != nil {
			return err
		}
		if g.nodes[g.resolve(id)].kind != KindMapping {
			return fmt.Errorf("document root must be a mapping")
		}
		g.root = id
		g.touch()
		return nil
	}

	parentID, ok := g.lookup(tokens[:len(tokens)-1])
	if !ok {
		return &domain.ErrPathNotFound{Pointer: pointer}
	}
	parent := Node{g: g, id: parentID}
	last := tokens[len(tokens)-1]
	switch parent.Kind() {
	case KindMapping:
		return parent.Set(last, value)
	case KindSequence:
		if last == "-" {
			return parent.Append(value)
		}
		i, err := strconv.Atoi(last)
		if err != nil {
			return &domain.ErrInvalidReference{Ref: pointer}
		}
		return parent.SetItem(i, value)
	}
	return &domain.ErrPathNotFound{Pointer: pointer}
}

// Delete removes the slot at pointer
func (g *Graph) Delete(pointer string) error {
	tokens, err := ParsePointer(pointer)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return &domain.ErrInvalidReference{Ref: pointer}
	}
	parentID, ok := g.lookup(tokens[:len(tokens)-1])
	if !ok {
		return &domain.ErrPathNotFound{Pointer: pointer}
	}
	parent := Node{g: g, id: parentID}
	last := tokens[len(tokens)-1]
	var removed bool
	switch parent.Kind() {
	case KindMapping:
		removed = parent.Delete(last)
	case KindSequence:
		if i, err := strconv.Atoi(last); err == nil {
			removed = parent.RemoveItem(i)
		}
	}
	if !removed {
		return &domain.ErrPathNotFound{Pointer: pointer}
	}
	return nil
}
