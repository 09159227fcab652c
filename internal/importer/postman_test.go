package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/core"
)

const postmanFixture = `{
  "info": {
    "_postman_id": "abc",
    "name": "Petstore",
    "description": "Pets",
    "schema": "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"
  },
  "auth": {"type": "bearer", "bearer": [{"key": "token", "value": "{{token}}", "type": "string"}]},
  "variable": [
    {"key": "baseUrl", "value": "https://petstore.example.com"},
    {"key": "unused", "value": "x", "disabled": true}
  ],
  "item": [
    {
      "name": "List Pets",
      "request": {
        "method": "get",
        "header": [
          {"key": "Accept", "value": "application/json"},
          {"key": "X-Debug", "value": "1", "disabled": true}
        ],
        "url": {"raw": "{{baseUrl}}/pets?limit=10", "host": ["{{baseUrl}}"], "path": ["pets"]}
      }
    },
    {
      "name": "Pets",
      "item": [
        {
          "name": "Create Pet",
          "request": {
            "method": "POST",
            "header": [{"key": "Content-Type", "value": "application/json"}],
            "body": {"mode": "raw", "raw": "{\"name\": \"Rex\"}", "options": {"raw": {"language": "json"}}},
            "auth": {"type": "apikey", "apikey": [
              {"key": "key", "value": "api_key"},
              {"key": "value", "value": "secret"},
              {"key": "in", "value": "query"}
            ]},
            "url": "{{baseUrl}}/pets"
          }
        },
        {
          "name": "Nested",
          "item": [
            {
              "name": "Login",
              "request": {
                "method": "POST",
                "body": {"mode": "urlencoded", "urlencoded": [
                  {"key": "user", "value": "ann"},
                  {"key": "skip", "value": "1", "disabled": true},
                  {"key": "pass", "value": "pw"}
                ]},
                "auth": {"type": "basic", "basic": [
                  {"key": "username", "value": "ann"},
                  {"key": "password", "value": "pw"}
                ]},
                "url": {"protocol": "https", "host": ["auth", "example", "com"], "port": "8443", "path": ["login"]}
              }
            }
          ]
        }
      ]
    }
  ]
}`

func TestPostmanImporter_DetectFormat(t *testing.T) {
	imp := NewPostmanImporter()

	assert.True(t, imp.DetectFormat([]byte(postmanFixture)))
	assert.True(t, imp.DetectFormat([]byte(`{"info": {"schema": "https://schema.getpostman.com/json/collection/v2.0.0/collection.json"}}`)))
	assert.False(t, imp.DetectFormat([]byte(`{"info": {"schema": "other"}}`)))
	assert.False(t, imp.DetectFormat([]byte(`not json`)))
}

func TestPostmanImporter_Import(t *testing.T) {
	snap, err := NewPostmanImporter().Import(context.Background(), []byte(postmanFixture))
	require.NoError(t, err)
	require.NoError(t, snap.Validate())

	require.Len(t, snap.Collections, 1)
	col := snap.Collections[0]
	assert.Equal(t, "Petstore", col.Name)
	assert.Equal(t, "Pets", col.Description)
	assert.NotEmpty(t, col.ID)

	require.Len(t, col.Requests, 3)
	assert.Empty(t, col.Folders)

	t.Run("top-level request", func(t *testing.T) {
		req := col.Requests[0]
		assert.Equal(t, "List Pets", req.Name)
		assert.Equal(t, core.MethodGet, req.Method)
		assert.Equal(t, "{{baseUrl}}/pets?limit=10", req.URL)
		assert.Equal(t, col.ID, req.CollectionID)
		require.Len(t, req.Headers, 2)
		assert.True(t, req.Headers[0].Enabled)
		assert.Equal(t, "X-Debug", req.Headers[1].Key)
		assert.False(t, req.Headers[1].Enabled)
		assert.Equal(t, core.BodyTypeNone, req.Body.Type)
		assert.Equal(t, core.NewBearerAuth("{{token}}"), req.Auth, "collection auth is inherited")
	})

	t.Run("folder requests are named after their path", func(t *testing.T) {
		create := col.Requests[1]
		assert.Equal(t, "Pets/Create Pet", create.Name)
		assert.Equal(t, col.ID, create.CollectionID)
		assert.Equal(t, core.Body{Type: core.BodyTypeJSON, Content: `{"name": "Rex"}`}, create.Body)
		assert.Equal(t, core.NewAPIKeyAuth("api_key", "secret", core.APIKeyInQuery), create.Auth)

		login := col.Requests[2]
		assert.Equal(t, "Pets/Nested/Login", login.Name)
		assert.Equal(t, col.ID, login.CollectionID)
		assert.Equal(t, "https://auth.example.com:8443/login", login.URL)
		assert.Equal(t, core.Body{Type: core.BodyTypeForm, Content: "user=ann&pass=pw"}, login.Body)
		assert.Equal(t, core.NewBasicAuth("ann", "pw"), login.Auth)
	})

	t.Run("variables become an environment", func(t *testing.T) {
		require.Len(t, snap.Environments, 1)
		env := snap.Environments[0]
		assert.Equal(t, "Petstore", env.Name)
		assert.Equal(t, map[string]string{"baseUrl": "https://petstore.example.com"}, env.Variables)
	})

	assert.NotNil(t, snap.History)
	assert.Empty(t, snap.History)
}

func TestConvertPostmanBody(t *testing.T) {
	tests := []struct {
		name string
		body postmanBody
		want core.Body
	}{
		{
			name: "raw text",
			body: postmanBody{Mode: "raw", Raw: "hello"},
			want: core.Body{Type: core.BodyTypeRaw, Content: "hello"},
		},
		{
			name: "raw json without language hint",
			body: postmanBody{Mode: "raw", Raw: `[1,2]`},
			want: core.Body{Type: core.BodyTypeJSON, Content: `[1,2]`},
		},
		{
			name: "empty raw",
			body: postmanBody{Mode: "raw"},
			want: core.Body{Type: core.BodyTypeNone},
		},
		{
			name: "formdata skips files",
			body: postmanBody{Mode: "formdata", FormData: []postmanFormData{
				{Key: "a", Value: "1", Type: "text"},
				{Key: "f", Type: "file"},
			}},
			want: core.Body{Type: core.BodyTypeForm, Content: "a=1"},
		},
		{
			name: "graphql",
			body: postmanBody{Mode: "graphql", GraphQL: &postmanGraphQL{Query: "{ pets }", Variables: `{"n": 1}`}},
			want: core.Body{Type: core.BodyTypeJSON, Content: `{"query":"{ pets }","variables":{"n":1}}`},
		},
		{
			name: "unknown mode",
			body: postmanBody{Mode: "file"},
			want: core.Body{Type: core.BodyTypeNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convertPostmanBody(&tt.body))
		})
	}
}

func TestExtractURL(t *testing.T) {
	assert.Equal(t, "https://x.io/a", extractURL("https://x.io/a"))
	assert.Equal(t, "https://x.io/a/b", extractURL(map[string]any{
		"protocol": "https",
		"host":     []any{"x", "io"},
		"path":     []any{"a", "b"},
	}))
	assert.Equal(t, "", extractURL(nil))
}
