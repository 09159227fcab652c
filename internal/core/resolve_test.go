package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRequest(t *testing.T) {
	env := &Environment{
		ID:   "env-1",
		Name: "Dev",
		Variables: map[string]string{
			"id":    "42",
			"host":  "api.example.com",
			"token": "abc",
			"name":  "Ada",
		},
	}

	t.Run("interpolates url", func(t *testing.T) {
		req := NewRequestConfig()
		req.URL = "https://api/{{id}}"

		assert.Equal(t, "https://api/42", ResolveRequest(req, env).URL)
	})

	t.Run("leaves unknown tokens", func(t *testing.T) {
		req := NewRequestConfig()
		req.URL = "https://api/{{id}}"

		assert.Equal(t, "https://api/{{id}}", ResolveRequest(req, nil).URL)
		assert.Equal(t, "https://api/{{id}}", ResolveRequest(req, &Environment{}).URL)
	})

	t.Run("interpolates enabled header values only", func(t *testing.T) {
		req := NewRequestConfig()
		req.Headers = []Header{
			NewHeader("X-Host", "{{host}}"),
			{ID: "h2", Key: "X-Off", Value: "{{host}}", Enabled: false},
		}

		resolved := ResolveRequest(req, env)

		assert.Equal(t, map[string]string{"X-Host": "api.example.com"}, resolved.Headers)
	})

	t.Run("auth wins over custom header", func(t *testing.T) {
		req := NewRequestConfig()
		req.Headers = []Header{NewHeader("Authorization", "Custom xyz")}
		req.Auth = NewBearerAuth("{{token}}")

		resolved := ResolveRequest(req, env)

		assert.Equal(t, "Bearer abc", resolved.Headers["Authorization"])
		assert.Len(t, resolved.Headers, 1)
	})

	t.Run("json body is interpolated and typed", func(t *testing.T) {
		req := NewRequestConfig()
		req.Method = MethodPost
		req.Headers = []Header{NewHeader("content-type", "text/plain")}
		req.Body = Body{Type: BodyTypeJSON, Content: `{"name":"{{name}}"}`}

		resolved := ResolveRequest(req, env)

		assert.True(t, resolved.HasBody)
		assert.Equal(t, `{"name":"Ada"}`, resolved.Body)
		assert.Equal(t, map[string]string{"Content-Type": "application/json"}, resolved.Headers)
	})

	t.Run("raw and form bodies go out verbatim", func(t *testing.T) {
		for _, bt := range []BodyType{BodyTypeRaw, BodyTypeForm} {
			req := NewRequestConfig()
			req.Method = MethodPost
			req.Body = Body{Type: bt, Content: "name={{name}}"}

			resolved := ResolveRequest(req, env)

			assert.Equal(t, "name={{name}}", resolved.Body)
			assert.NotContains(t, resolved.Headers, "Content-Type")
		}
	})

	t.Run("get never carries a body", func(t *testing.T) {
		req := NewRequestConfig()
		req.Body = Body{Type: BodyTypeJSON, Content: `{}`}

		resolved := ResolveRequest(req, env)

		assert.False(t, resolved.HasBody)
		assert.Empty(t, resolved.Body)
		assert.Empty(t, resolved.Headers)
	})

	t.Run("api key in query is appended", func(t *testing.T) {
		req := NewRequestConfig()
		req.URL = "https://api/items?page=1#top"
		req.Auth = NewAPIKeyAuth("key", "{{token}}", APIKeyInQuery)

		resolved := ResolveRequest(req, env)

		assert.Equal(t, "https://api/items?page=1&key=abc#top", resolved.URL)
		assert.Empty(t, resolved.Headers)
	})

	t.Run("empty method defaults to get", func(t *testing.T) {
		req := RequestConfig{URL: "https://x"}
		assert.Equal(t, MethodGet, ResolveRequest(req, nil).Method)
	})
}

func TestUnresolvedVariables(t *testing.T) {
	req := NewRequestConfig()
	req.Method = MethodPost
	req.URL = "https://{{host}}/{{path}}"
	req.Headers = []Header{NewHeader("X", "{{path}}")}
	req.Auth = NewBearerAuth("{{token}}")
	req.Body = Body{Type: BodyTypeRaw, Content: "{{ignored}}"}

	env := &Environment{Variables: map[string]string{"host": "h"}}

	assert.Equal(t, []string{"path", "token"}, UnresolvedVariables(req, env))
}

func TestAppendQuery(t *testing.T) {
	assert.Equal(t, "https://x?a=1", appendQuery("https://x", map[string]string{"a": "1"}))
	assert.Equal(t, "https://x?a=1", appendQuery("https://x?", map[string]string{"a": "1"}))
	assert.Equal(t, "https://x?b=2&a=%26", appendQuery("https://x?b=2", map[string]string{"a": "&"}))
}
