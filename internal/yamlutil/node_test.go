package yamlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func parse(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	return Content(&doc)
}

func TestMapHelpers(t *testing.T) {
	node := parse(t, "a: 1\nb: 2\n")

	assert.Equal(t, "2", MapValue(node, "b").Value)
	assert.Nil(t, MapValue(node, "c"))

	SetMapValue(node, "a", String("x"))
	SetMapValue(node, "c", String("3"))

	var keys []string
	require.NoError(t, IterateMap(node, func(key string, _ *yaml.Node) error {
		keys = append(keys, key)
		return nil
	}))
	assert.Equal(t, []string{"a", "b", "c"}, keys)
	assert.Equal(t, "x", MapValue(node, "a").Value)

	assert.True(t, DeleteMapKey(node, "b"))
	assert.False(t, DeleteMapKey(node, "b"))
	assert.Nil(t, MapValue(node, "b"))
}

func TestRefHelpers(t *testing.T) {
	pure := parse(t, "$ref: '#/components/schemas/Pet'")
	withSibling := parse(t, "$ref: '#/components/schemas/Pet'\ndescription: a pet")

	assert.True(t, IsPureRef(pure))
	assert.False(t, IsPureRef(withSibling))

	ref, ok := RefValue(withSibling)
	assert.True(t, ok)
	assert.Equal(t, "#/components/schemas/Pet", ref)

	assert.True(t, IsPureRef(RefNode("#/a")))
}

func TestToNode(t *testing.T) {
	node, err := ToNode(map[string]interface{}{"b": 1, "a": []interface{}{"x"}})
	require.NoError(t, err)
	require.Equal(t, yaml.MappingNode, node.Kind)
	assert.Equal(t, "a", node.Content[0].Value)
	assert.Equal(t, yaml.SequenceNode, node.Content[1].Kind)

	src := String("kept")
	same, err := ToNode(src)
	require.NoError(t, err)
	assert.Same(t, src, same)
}

func TestCloneKeepsAliases(t *testing.T) {
	node := parse(t, "base: &b {x: 1}\ncopy: *b\n")
	c := Clone(node)

	require.NotSame(t, node, c)
	alias := MapValue(c, "copy")
	require.Equal(t, yaml.AliasNode, alias.Kind)
	assert.Same(t, MapValue(c, "base"), alias.Alias)
}

func TestWalkVisitsOnce(t *testing.T) {
	node := parse(t, "base: &b {x: 1}\ncopy: *b\n")

	count := 0
	Walk(node, func(n *yaml.Node) bool {
		if n.Kind == yaml.MappingNode && MapValue(n, "x") != nil {
			count++
		}
		return true
	})
	assert.Equal(t, 1, count)
}
