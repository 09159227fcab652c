package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/core"
	"github.com/artpar/postbox/internal/importer"
)

func TestNewCurlCommand(t *testing.T) {
	t.Run("passes flags through to the parser", func(t *testing.T) {
		cmd := NewCurlCommand(&session{})
		assert.True(t, cmd.DisableFlagParsing)
		assert.Contains(t, cmd.Long, "Examples:")
	})
}

func TestCurlCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		method  core.Method
		url     string
		headers map[string]string
		body    string
	}{
		{
			name:   "simple GET",
			args:   []string{"https://example.com"},
			method: core.MethodGet,
			url:    "https://example.com",
		},
		{
			// The shell has already split: postbox curl -H "Content-Type: application/json" https://example.com
			name:    "header with spaces",
			args:    []string{"-H", "Content-Type: application/json", "https://example.com"},
			method:  core.MethodGet,
			url:     "https://example.com",
			headers: map[string]string{"Content-Type": "application/json"},
		},
		{
			name:   "body with quotes",
			args:   []string{"-X", "POST", "https://example.com/post", "-d", `{"name":"it's"}`},
			method: core.MethodPost,
			url:    "https://example.com/post",
			body:   `{"name":"it's"}`,
		},
		{
			name:   "leading curl is dropped",
			args:   []string{"curl", "https://example.com/a"},
			method: core.MethodGet,
			url:    "https://example.com/a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := importer.ParseCurl(curlCommandLine(tt.args))
			require.NoError(t, err)

			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.url, req.URL)
			for key, value := range tt.headers {
				found := false
				for _, h := range req.Headers {
					if h.Key == key {
						assert.Equal(t, value, h.Value)
						found = true
					}
				}
				assert.True(t, found, "header %s", key)
			}
			if tt.body != "" {
				assert.Equal(t, tt.body, req.Body.Content)
			}
		})
	}
}

func TestCurlCommand(t *testing.T) {
	srv := newEchoServer(t)
	c := newTestCLI(t)

	t.Run("sends the parsed request", func(t *testing.T) {
		out := c.mustRun("curl", "-X", "POST", srv.URL+"/post", "-H", "Content-Type: application/json", "-d", `{"name":"it's"}`)
		assert.Contains(t, out, "HTTP 200 OK")
		assert.Contains(t, out, `"method": "POST"`)
		assert.Contains(t, out, `it's`)
		assert.Contains(t, c.mustRun("history", "list"), "/post")
	})

	t.Run("no arguments", func(t *testing.T) {
		_, _, err := c.run("curl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no curl arguments provided")
	})

	t.Run("help", func(t *testing.T) {
		out := c.mustRun("curl", "--help")
		assert.Contains(t, out, "Parse curl arguments")
	})

	t.Run("unreachable host", func(t *testing.T) {
		_, _, err := c.run("curl", "http://127.0.0.1:1/down")
		require.Error(t, err)
	})
}
