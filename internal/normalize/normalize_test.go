package normalize

import (
	"errors"
	"testing"

	"github.com/miorlan/openapi-store/internal/domain"
	"github.com/miorlan/openapi-store/internal/infrastructure/parser"
	"github.com/miorlan/openapi-store/internal/yamlutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decode(t *testing.T, node *yaml.Node) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, node.Decode(&out))
	return out
}

func keys(node *yaml.Node) []string {
	var out []string
	_ = yamlutil.IterateMap(node, func(key string, _ *yaml.Node) error {
		out = append(out, key)
		return nil
	})
	return out
}

func TestNormalize_UpgradesSwagger(t *testing.T) {
	doc, err := Normalize(map[string]interface{}{
		"swagger": "2.0",
		"info": map[string]interface{}{
			"title":   "Example",
			"version": "1.0.0",
		},
		"host":        "localhost:8000",
		"basePath":    "/api",
		"schemes":     []interface{}{"http"},
		"paths":       map[string]interface{}{},
		"definitions": map[string]interface{}{},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{
		"openapi": "3.1.1",
		"info": map[string]interface{}{
			"title":   "Example",
			"version": "1.0.0",
		},
		"servers": []interface{}{
			map[string]interface{}{"url": "http://localhost:8000/api"},
		},
		"paths": map[string]interface{}{},
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{},
		},
	}, decode(t, doc))
}

func TestNormalize_SwaggerKeyOrder(t *testing.T) {
	doc, err := Normalize(`swagger: "2.0"
info:
  title: Example
  version: 1.0.0
host: localhost:8000
basePath: /api
schemes: [http]
paths: {}
definitions: {}
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"openapi", "info", "servers", "paths", "components"}, keys(doc))
}

func TestNormalize_Servers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "scheme defaults to http",
			src:  "swagger: '2.0'\nhost: api.example.com\nbasePath: /v1\n",
			want: []string{"http://api.example.com/v1"},
		},
		{
			name: "one server per scheme",
			src:  "swagger: '2.0'\nhost: api.example.com\nschemes: [https, http]\n",
			want: []string{"https://api.example.com", "http://api.example.com"},
		},
		{
			name: "base path only",
			src:  "swagger: '2.0'\nbasePath: /v1\n",
			want: []string{"/v1"},
		},
		{
			name: "no host",
			src:  "swagger: '2.0'\nschemes: [https]\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Normalize(tt.src)
			require.NoError(t, err)

			var got []string
			if servers := yamlutil.MapValue(doc, "servers"); servers != nil {
				for _, s := range servers.Content {
					got = append(got, yamlutil.MapValue(s, "url").Value)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_MovesSectionsAndRewritesRefs(t *testing.T) {
	doc, err := Normalize(`swagger: "2.0"
info: {title: Pets, version: "1"}
paths:
  /pets:
    get:
      parameters:
        - $ref: '#/parameters/limit'
      responses:
        "200":
          schema:
            $ref: '#/definitions/Pet'
        default:
          $ref: '#/responses/Error'
parameters:
  limit: {name: limit, in: query, type: integer}
responses:
  Error: {description: error}
securityDefinitions:
  key: {type: apiKey, name: X-Key, in: header}
definitions:
  Pet:
    properties:
      owner: {$ref: '#/definitions/Person'}
  Person: {type: object}
`)
	require.NoError(t, err)

	out := decode(t, doc)
	components := out["components"].(map[string]interface{})
	assert.Contains(t, components["schemas"], "Pet")
	assert.Contains(t, components["parameters"], "limit")
	assert.Contains(t, components["responses"], "Error")
	assert.Contains(t, components["securitySchemes"], "key")
	assert.NotContains(t, out, "definitions")
	assert.NotContains(t, out, "securityDefinitions")

	var refs []string
	yamlutil.Walk(doc, func(n *yaml.Node) bool {
		if ref, ok := yamlutil.RefValue(n); ok {
			refs = append(refs, ref)
		}
		return true
	})
	assert.ElementsMatch(t, []string{
		"#/components/parameters/limit",
		"#/components/schemas/Pet",
		"#/components/responses/Error",
		"#/components/schemas/Person",
	}, refs)
}

func TestNormalize_OpenAPI3PassThrough(t *testing.T) {
	doc, err := Normalize([]byte(`{"openapi": "3.0.3", "info": {"title": "Example", "version": "1.0.0"}, "paths": {"/a": {}}}`))
	require.NoError(t, err)

	out := decode(t, doc)
	assert.Equal(t, "3.1.1", out["openapi"])
	assert.Equal(t, map[string]interface{}{"/a": map[string]interface{}{}}, out["paths"])
	assert.Equal(t, map[string]interface{}{"schemas": map[string]interface{}{}}, out["components"])
	assert.Equal(t, []string{"openapi", "info", "paths", "components"}, keys(doc))
}

func TestNormalize_MissingVersion(t *testing.T) {
	inputs := map[string]interface{}{
		"empty object": map[string]interface{}{},
		"empty string": "",
		"scalar":       "just text",
		"no version":   `{"info": {"title": "x"}}`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(input)
			var invalid *domain.InvalidDocumentError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.EqualError(t, err, "Invalid OpenAPI/Swagger document, failed to find a specification version.")
		})
	}
}

func TestNormalize_UnsupportedVersion(t *testing.T) {
	for _, src := range []string{"swagger: '1.2'", "openapi: 4.0.0"} {
		_, err := Normalize(src)
		var invalid *domain.InvalidDocumentError
		require.True(t, errors.As(err, &invalid), "got %v", err)
		assert.NotEmpty(t, invalid.Version)
	}
}

func TestNormalize_MalformedInput(t *testing.T) {
	_, err := Normalize("openapi: [3.1.0")
	require.Error(t, err)
	var invalid *domain.InvalidDocumentError
	assert.False(t, errors.As(err, &invalid))
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	input, err := parser.NewParser().Parse([]byte("swagger: '2.0'\ndefinitions:\n  A: {$ref: '#/definitions/B'}\n  B: {}\n"))
	require.NoError(t, err)

	_, err = Normalize(input)
	require.NoError(t, err)

	assert.NotNil(t, yamlutil.MapValue(input, "swagger"))
	ref, _ := yamlutil.RefValue(yamlutil.MapValue(yamlutil.MapValue(input, "definitions"), "A"))
	assert.Equal(t, "#/definitions/B", ref)
}

func TestNormalize_CustomUpgrader(t *testing.T) {
	called := false
	doc, err := Normalize("swagger: '2.0'\nx-legacy: true\n", WithUpgrader(UpgraderFunc(func(legacy, doc *yaml.Node) error {
		called = true
		assert.NotNil(t, yamlutil.MapValue(legacy, "swagger"))
		yamlutil.DeleteMapKey(doc, "x-legacy")
		return nil
	})))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Nil(t, yamlutil.MapValue(doc, "x-legacy"))

	_, err = Normalize("openapi: 3.0.0\n", WithUpgrader(UpgraderFunc(func(_, _ *yaml.Node) error {
		t.Error("upgraders run only for legacy documents")
		return nil
	})))
	require.NoError(t, err)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		src     string
		dialect Dialect
		version string
	}{
		{"openapi: 3.1.0", DialectOpenAPI3, "3.1.0"},
		{"swagger: 2.0", DialectSwagger2, "2.0"},
		{"swagger: '2.0'\nopenapi: 3.0.0", DialectOpenAPI3, "3.0.0"},
		{"openapi: 2.0", DialectUnsupported, "2.0"},
		{"info: {}", DialectUnknown, ""},
	}

	for _, tt := range tests {
		node, err := Parse(tt.src)
		require.NoError(t, err)
		dialect, version := Detect(node)
		assert.Equal(t, tt.dialect, dialect, tt.src)
		assert.Equal(t, tt.version, version, tt.src)
	}
}
