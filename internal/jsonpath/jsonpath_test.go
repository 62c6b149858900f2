package jsonpath

import (
	"testing"

	"github.com/miorlan/openapi-store/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const doc = `
openapi: 3.1.1
info:
  title: Planets
paths:
  /planets:
    get:
      operationId: listPlanets
      x-internal: false
    post:
      operationId: createPlanet
      x-internal: true
  /moons:
    get:
      operationId: listMoons
      x-rank: 3
tags:
  - name: planets
  - name: moons
  - name: stars
components:
  schemas:
    Node:
      properties:
        next:
          $ref: '#/components/schemas/Node'
        name:
          type: string
`

func root(t *testing.T) graph.Node {
	t.Helper()
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &n))
	return graph.FromYAML(&n).Root()
}

func selectValues(t *testing.T, expr string) []interface{} {
	t.Helper()
	entries, err := Select(root(t), expr)
	require.NoError(t, err)
	var out []interface{}
	for _, e := range entries {
		out = append(out, e.Node.Interface())
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want []interface{}
	}{
		{"child", "$.info.title", []interface{}{"Planets"}},
		{"quoted", "$.paths['/planets'].get.operationId", []interface{}{"listPlanets"}},
		{"double quoted", `$.paths["/moons"].get.operationId`, []interface{}{"listMoons"}},
		{"wildcard", "$.paths.*.get.operationId", []interface{}{"listPlanets", "listMoons"}},
		{"bracket wildcard", "$.tags[*].name", []interface{}{"planets", "moons", "stars"}},
		{"index", "$.tags[1].name", []interface{}{"moons"}},
		{"negative index", "$.tags[-1].name", []interface{}{"stars"}},
		{"recursive", "$..operationId", []interface{}{"listPlanets", "createPlanet", "listMoons"}},
		{"filter bool", "$.paths['/planets'][?@.x-internal == true].operationId", []interface{}{"createPlanet"}},
		{"filter string", "$.tags[?@.name != 'moons'].name", []interface{}{"planets", "stars"}},
		{"filter number", "$.paths.*[?@.x-rank >= 3].operationId", []interface{}{"listMoons"}},
		{"no match", "$.servers[0]", nil},
		{"index on mapping", "$.info[0]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectValues(t, tt.expr))
		})
	}
}

func TestSelect_Root(t *testing.T) {
	entries, err := Select(root(t), "$")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Parent.IsValid())
	assert.Equal(t, graph.KindMapping, entries[0].Node.Kind())
}

func TestSelect_RecursiveDescentTerminatesOnCycles(t *testing.T) {
	got := selectValues(t, "$.components..type")
	assert.Equal(t, []interface{}{"string"}, got)
}

func TestSelect_EntriesAreWritable(t *testing.T) {
	r := root(t)
	entries, err := Select(r, "$.tags[?@.name == 'moons']")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, entries[0].Replace(map[string]interface{}{"name": "satellites"}))

	assert.Equal(t, "satellites", r.Get("tags", "1", "name").Value())
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{
		"",
		"info.title",
		"$.",
		"$[",
		"$['open",
		"$[?name == 1]",
		"$[?@.name ~ 1]",
		"$.tags[1",
		"$.info title",
	} {
		_, err := Parse(expr)
		assert.Error(t, err, expr)
	}
}

func TestPath_String(t *testing.T) {
	p, err := Parse(" $.info ")
	require.NoError(t, err)
	assert.Equal(t, "$.info", p.String())
}
