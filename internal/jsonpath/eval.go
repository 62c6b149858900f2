package jsonpath

import (
	"fmt"

	"github.com/miorlan/openapi-store/internal/graph"
)

// Select evaluates the path against root and returns the matched slots in
// document order. The root itself is returned as an Entry without a Parent.
func (p *Path) Select(root graph.Node) []graph.Entry {
	current := []graph.Entry{{Index: -1, Node: root}}
	for _, seg := range p.segments {
		current = apply(current, seg)
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

// Select parses expr and evaluates it against root
func Select(root graph.Node, expr string) ([]graph.Entry, error) {
	path, err := Parse(expr)
	if err != nil {
		return nil, err
	}
	return path.Select(root), nil
}

type slotKey struct {
	parent graph.NodeID
	key    string
	index  int
	root   bool
}

func keyOf(e graph.Entry) slotKey {
	if !e.Parent.IsValid() {
		return slotKey{root: true}
	}
	return slotKey{parent: e.Parent.ID(), key: e.Key, index: e.Index}
}

func apply(current []graph.Entry, seg segment) []graph.Entry {
	nodes := current
	if seg.recursive {
		nodes = descendants(current)
	}

	var out []graph.Entry
	seen := make(map[slotKey]bool)
	add := func(e graph.Entry) {
		k := keyOf(e)
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, e)
	}

	for _, cur := range nodes {
		n := cur.Node
		switch seg.kind {
		case segChild:
			if n.Kind() == graph.KindMapping && n.Has(seg.key) {
				add(graph.Entry{Parent: n, Key: seg.key, Index: -1, Node: n.Field(seg.key)})
			}
		case segWildcard:
			for _, e := range n.Entries() {
				add(e)
			}
		case segIndex:
			if n.Kind() != graph.KindSequence {
				continue
			}
			i := seg.index
			if i < 0 {
				i += n.Len()
			}
			if i >= 0 && i < n.Len() {
				add(graph.Entry{Parent: n, Index: i, Node: n.Item(i)})
			}
		case segFilter:
			for _, e := range n.Entries() {
				if seg.filter.match(e.Node) {
					add(e)
				}
			}
		}
	}
	return out
}

// descendants returns every entry reachable from current, current included.
// Nodes already expanded are not descended again, so cycles terminate.
func descendants(current []graph.Entry) []graph.Entry {
	var out []graph.Entry
	expanded := make(map[graph.NodeID]bool)
	var visit func(e graph.Entry)
	visit = func(e graph.Entry) {
		out = append(out, e)
		n := e.Node
		if !n.IsValid() || expanded[n.ID()] {
			return
		}
		expanded[n.ID()] = true
		for _, child := range n.Entries() {
			visit(child)
		}
	}
	for _, e := range current {
		visit(e)
	}
	return out
}

func (f *filter) match(n graph.Node) bool {
	cur := n
	for _, name := range f.field {
		cur = cur.Field(name)
		if !cur.IsValid() {
			return compare(nil, f.operator, f.value, false)
		}
	}
	if cur.Kind() != graph.KindScalar {
		return f.operator == "!=" && f.value != nil
	}
	return compare(cur.Value(), f.operator, f.value, true)
}

func compare(left interface{}, op string, right interface{}, present bool) bool {
	if !present {
		return op == "!="
	}
	if left == nil || right == nil {
		same := left == nil && right == nil
		switch op {
		case "==", "<=", ">=":
			return same
		case "!=":
			return !same
		}
		return false
	}

	if lf, ok := number(left); ok {
		rf, ok := number(right)
		if !ok {
			return op == "!="
		}
		switch op {
		case "==":
			return lf == rf
		case "!=":
			return lf != rf
		case "<":
			return lf < rf
		case "<=":
			return lf <= rf
		case ">":
			return lf > rf
		case ">=":
			return lf >= rf
		}
		return false
	}

	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok {
			return op == "!="
		}
		switch op {
		case "==":
			return ls == rs
		case "!=":
			return ls != rs
		case "<":
			return ls < rs
		case "<=":
			return ls <= rs
		case ">":
			return ls > rs
		case ">=":
			return ls >= rs
		}
		return false
	}

	switch op {
	case "==":
		return fmt.Sprint(left) == fmt.Sprint(right)
	case "!=":
		return fmt.Sprint(left) != fmt.Sprint(right)
	}
	return false
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
