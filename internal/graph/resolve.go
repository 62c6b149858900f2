package graph

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"
	"github.com/miorlan/openapi-store/internal/domain"
)

// ParsePointer decodes "#/a/b", "/a/b", "#" or "" into reference tokens.
// Only the "#" form is a URI fragment, so only there are percent escapes
// ("#/paths/~1pets~1%7Bid%7D") unescaped; "/files/100%" is taken literally.
func ParsePointer(pointer string) ([]string, error) {
	p, fragment := strings.CutPrefix(pointer, "#")
	if fragment && strings.Contains(p, "%") {
		unescaped, err := url.PathUnescape(p)
		if err != nil {
			return nil, &domain.ErrInvalidReference{Ref: pointer}
		}
		p = unescaped
	}
	if p == "" {
		return nil, nil
	}
	ptr, err := jsonpointer.New(p)
	if err != nil {
		return nil, &domain.ErrInvalidReference{Ref: pointer}
	}
	return ptr.DecodedTokens(), nil
}

// FormatPointer builds a "#/..." pointer from raw tokens
func FormatPointer(tokens ...string) string {
	var b strings.Builder
	b.WriteString("#")
	for _, t := range tokens {
		b.WriteString("/")
		b.WriteString(jsonpointer.Escape(t))
	}
	return b.String()
}

// resolve follows references from id until a non-reference node is reached.
// Dangling references and cycles return the last reference node.
func (g *Graph) resolve(id NodeID) NodeID {
	target, _ := g.resolveChain(id, map[string]bool{})
	return target
}

// resolveChain follows id within one resolution chain. complete is false when
// the chain was short-circuited or dangled.
func (g *Graph) resolveChain(id NodeID, chain map[string]bool) (NodeID, bool) {
	complete := true
	for g.nodes[id].kind == KindReference {
		ref := g.nodes[id].ref
		if cached, ok := g.resolved[ref]; ok {
			return cached, complete
		}
		if chain[ref] {
			return id, false
		}
		chain[ref] = true

		tokens, err := ParsePointer(ref)
		if err != nil {
			return id, false
		}
		target, ok, done := g.walk(tokens, chain)
		if !ok {
			return id, false
		}
		if done && complete && g.nodes[target].kind != KindReference {
			if g.resolved == nil {
				g.resolved = make(map[string]NodeID)
			}
			g.resolved[ref] = target
		}
		complete = complete && done
		id = target
	}
	return id, complete
}

// walk descends from the root along tokens, resolving references on the way
func (g *Graph) walk(tokens []string, chain map[string]bool) (NodeID, bool, bool) {
	cur, complete := g.resolveChain(g.root, chain)
	for _, tok := range tokens {
		child, ok := g.child(cur, tok)
		if !ok {
			return 0, false, complete
		}
		var done bool
		cur, done = g.resolveChain(child, chain)
		complete = complete && done
	}
	return cur, true, complete
}

// lookup resolves tokens with a fresh chain per step, so descending through a
// cycle any number of times keeps returning live nodes.
func (g *Graph) lookup(tokens []string) (NodeID, bool) {
	cur := g.resolve(g.root)
	for _, tok := range tokens {
		child, ok := g.child(cur, tok)
		if !ok {
			return 0, false
		}
		cur = g.resolve(child)
	}
	return cur, true
}

// child returns the raw (unresolved) slot under tok
func (g *Graph) child(id NodeID, tok string) (NodeID, bool) {
	e := &g.nodes[id]
	switch e.kind {
	case KindMapping:
		c, ok := e.fields[tok]
		return c, ok
	case KindSequence:
		i, err := strconv.Atoi(tok)
		if err != nil || i < 0 || i >= len(e.items) {
			return 0, false
		}
		return e.items[i], true
	}
	return 0, false
}
