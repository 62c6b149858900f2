package overlay

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/miorlan/openapi-store/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const planets = `
openapi: 3.1.1
info:
  title: Galaxy
  version: 1.0.0
paths:
  /planets:
    get:
      summary: List planets
      tags: [planets]
    post:
      summary: Create planet
components:
  schemas:
    Planet:
      type: object
`

func load(t *testing.T) *graph.Graph {
	t.Helper()
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(planets), &n))
	return graph.FromYAML(&n)
}

func read(t *testing.T, g *graph.Graph, pointer string) interface{} {
	t.Helper()
	n, err := g.Read(pointer)
	require.NoError(t, err)
	return n.Interface()
}

func TestApply_MergesUpdate(t *testing.T) {
	g := load(t)
	result := Apply(g, &Overlay{
		Version: "1.0.0",
		Actions: []Action{{
			Target: "$.info",
			Update: map[string]interface{}{"title": "Updated", "x-logo": map[string]interface{}{"url": "logo.png"}},
		}},
	})

	assert.Equal(t, 1, result.Applied)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, "Updated", read(t, g, "#/info/title"))
	assert.Equal(t, "1.0.0", read(t, g, "#/info/version"))
	assert.Equal(t, map[string]interface{}{"url": "logo.png"}, read(t, g, "#/info/x-logo"))
	require.Len(t, result.Changes, 1)
	assert.Equal(t, "update", result.Changes[0].Operation)
}

func TestApply_LastOverlayWins(t *testing.T) {
	g := load(t)
	o1 := &Overlay{Version: "1.0.0", Actions: []Action{
		{Target: "$.paths['/planets'].get", Update: map[string]interface{}{"summary": "first", "x-first": true}},
	}}
	o2 := &Overlay{Version: "1.0.0", Actions: []Action{
		{Target: "$.paths['/planets'].get", Update: map[string]interface{}{"summary": "second"}},
	}}

	Apply(g, o1, o2)
	assert.Equal(t, "second", read(t, g, "#/paths/~1planets/get/summary"))
	assert.Equal(t, true, read(t, g, "#/paths/~1planets/get/x-first"))

	g = load(t)
	Apply(g, o2, o1)
	assert.Equal(t, "first", read(t, g, "#/paths/~1planets/get/summary"))
}

func TestApply_NoMatchIsNoop(t *testing.T) {
	g := load(t)
	before := g.Plain()

	result := Apply(g, &Overlay{Version: "1.0.0", Actions: []Action{
		{Target: "$.paths['/moons'].get", Update: map[string]interface{}{"summary": "x"}},
	}})

	assert.Equal(t, before, g.Plain())
	assert.Equal(t, 0, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarnNoMatch, result.Warnings[0].Category)
}

func TestApply_BadSelectorSkipsOnlyThatAction(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	g := load(t)

	result := NewApplier(logger).Apply(g, &Overlay{Version: "1.0.0", Actions: []Action{
		{Target: "$.info", Update: map[string]interface{}{"title": "kept"}},
		{Target: "$.info[", Update: map[string]interface{}{"title": "never"}},
		{Target: "$.info", Update: map[string]interface{}{"description": "after"}},
	}})

	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Warnings, 1)
	w := result.Warnings[0]
	assert.Equal(t, WarnActionError, w.Category)
	assert.Equal(t, 1, w.ActionIndex)

	var applyErr *ApplyError
	require.True(t, errors.As(w.Cause, &applyErr))
	assert.Equal(t, "$.info[", applyErr.Target)

	assert.Equal(t, "kept", read(t, g, "#/info/title"))
	assert.Equal(t, "after", read(t, g, "#/info/description"))
	assert.Contains(t, logs.String(), "overlay action skipped")
}

func TestApply_ReplacesArraysAndScalars(t *testing.T) {
	g := load(t)
	Apply(g, &Overlay{Version: "1.0.0", Actions: []Action{
		{Target: "$.paths['/planets'].get", Update: map[string]interface{}{"tags": []interface{}{"solar"}}},
		{Target: "$.info.version", Update: "2.0.0"},
	}})

	assert.Equal(t, []interface{}{"solar"}, read(t, g, "#/paths/~1planets/get/tags"))
	assert.Equal(t, "2.0.0", read(t, g, "#/info/version"))
}

func TestApply_Remove(t *testing.T) {
	g := load(t)
	result := Apply(g, &Overlay{Version: "1.0.0", Actions: []Action{
		{Target: "$.paths['/planets'].post", Remove: true, Update: map[string]interface{}{"summary": "ignored"}},
		{Target: "$.paths.*.get.tags[0]", Remove: true},
	}})

	assert.Equal(t, 2, result.Applied)
	_, err := g.Read("#/paths/~1planets/post")
	assert.Error(t, err)
	assert.Equal(t, []interface{}{}, read(t, g, "#/paths/~1planets/get/tags"))
}

func TestApply_RootCannotBeRemoved(t *testing.T) {
	g := load(t)
	result := Apply(g, &Overlay{Version: "1.0.0", Actions: []Action{{Target: "$", Remove: true}}})
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarnActionError, result.Warnings[0].Category)
	assert.Equal(t, "Galaxy", read(t, g, "#/info/title"))
}

func TestApply_UpdateThroughReference(t *testing.T) {
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(`
openapi: 3.1.1
paths:
  /planets:
    get:
      responses:
        "200":
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Planet'
components:
  schemas:
    Planet:
      type: object
`), &n))
	g := graph.FromYAML(&n)

	Apply(g, &Overlay{Version: "1.0.0", Actions: []Action{{
		Target: "$.paths['/planets'].get.responses['200'].content['application/json'].schema",
		Update: map[string]interface{}{"description": "A planet"},
	}}})

	assert.Equal(t, "A planet", read(t, g, "#/components/schemas/Planet/description"))
}

func TestParseOverlays(t *testing.T) {
	single, err := ParseOverlays([]byte(`
overlay: 1.0.0
info:
  title: Docs
  version: 1.0.0
actions:
  - target: $.info
    description: set the title
    update:
      title: From overlay
      description: second key
`))
	require.NoError(t, err)
	require.Len(t, single, 1)
	o := single[0]
	assert.Equal(t, "1.0.0", o.Version)
	require.NotNil(t, o.Info)
	assert.Equal(t, "Docs", o.Info.Title)
	require.Len(t, o.Actions, 1)
	update, ok := o.Actions[0].Update.(*yaml.Node)
	require.True(t, ok)
	assert.Equal(t, "title", update.Content[0].Value)
	assert.Equal(t, "description", update.Content[2].Value)
	assert.Empty(t, Validate(o))

	many, err := ParseOverlays([]byte(`[
  {"overlay": "1.0.0", "actions": [{"target": "$.info", "update": {"title": "A"}}]},
  {"overlay": "1.0.0", "actions": [{"target": "$.info.title", "remove": true}]}
]`))
	require.NoError(t, err)
	require.Len(t, many, 2)
	assert.True(t, many[1].Actions[0].Remove)
	assert.Nil(t, many[1].Actions[0].Update)

	g := load(t)
	Apply(g, many...)
	_, err = g.Read("#/info/title")
	assert.Error(t, err)

	_, err = ParseOverlays([]byte(""))
	assert.ErrorIs(t, err, ErrEmptyOverlay)
	_, err = ParseOverlays([]byte("just text"))
	assert.Error(t, err)
	_, err = ParseOverlay([]byte("[]"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	errs := Validate(&Overlay{
		Version: "2.0.0",
		Actions: []Action{
			{Target: ""},
			{Target: "$.info[", Remove: true},
		},
	})
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"overlay", "actions[0].target", "actions[0]", "actions[1].target"}, fields)

	assert.Len(t, Validate(&Overlay{}), 2)
}
