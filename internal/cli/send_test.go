package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/app"
	"github.com/artpar/postbox/internal/core"
)

func TestSendCommand(t *testing.T) {
	srv := newEchoServer(t)
	c := newTestCLI(t)

	t.Run("ad-hoc GET", func(t *testing.T) {
		out := c.mustRun("send", srv.URL+"/users")
		assert.Contains(t, out, "HTTP 200 OK")
		assert.Contains(t, out, `"path": "/users"`)
		assert.Contains(t, c.mustRun("history", "list"), "/users")
	})

	t.Run("body implies POST", func(t *testing.T) {
		out := c.mustRun("send", srv.URL+"/users", "-d", `{"name":"Ada"}`, "--query", "method")
		assert.Equal(t, "POST\n", out)

		out = c.mustRun("send", srv.URL+"/users", "-d", `{"name":"Ada"}`, "-q", "contentType")
		assert.Equal(t, "application/json\n", out)
	})

	t.Run("explicit method and headers", func(t *testing.T) {
		out := c.mustRun("send", "put", srv.URL+"/items/1", "-H", "Authorization: Token abc", "-q", "[method, authorization]")
		assert.JSONEq(t, `["PUT", "Token abc"]`, out)
	})

	t.Run("bearer auth", func(t *testing.T) {
		out := c.mustRun("send", srv.URL+"/me", "--bearer", "secret", "-q", "authorization")
		assert.Equal(t, "Bearer secret\n", out)
	})

	t.Run("api key in query", func(t *testing.T) {
		out := c.mustRun("send", srv.URL+"/me", "--api-key", "key=123", "--api-key-in", "query", "-q", "query")
		assert.Equal(t, "key=123\n", out)
	})

	t.Run("json envelope", func(t *testing.T) {
		out := c.mustRun("send", srv.URL+"/x", "--json")
		var resp core.Response
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, 200, resp.Status)
		assert.Equal(t, "application/json", resp.Headers["content-type"])
	})

	t.Run("headers shown on request", func(t *testing.T) {
		out := c.mustRun("send", srv.URL+"/x", "-i")
		assert.Contains(t, out, "content-type: application/json")
	})

	t.Run("environment for one send", func(t *testing.T) {
		c.mustRun("env", "create", "dev", "--var", "base="+srv.URL)

		out := c.mustRun("send", "{{base}}/env", "--env", "dev", "-q", "path")
		assert.Equal(t, "/env\n", out)
		assert.NotContains(t, c.mustRun("env", "list"), "* dev")

		_, _, err := c.run("send", "{{base}}/env", "--env", "prod")
		assert.ErrorIs(t, err, app.ErrEnvironmentNotFound)
	})

	t.Run("warns about unresolved variables", func(t *testing.T) {
		_, errOut, err := c.run("send", srv.URL+"/{{missing}}", "-H", "X-Token: {{token}}")
		require.NoError(t, err)
		assert.Contains(t, errOut, "unresolved variables in "+srv.URL+"/{{missing}}: missing, token")

		_, errOut, err = c.run("send", srv.URL+"/plain")
		require.NoError(t, err)
		assert.NotContains(t, errOut, "unresolved")
	})

	t.Run("save and resend", func(t *testing.T) {
		out, errOut, err := c.run("send", "POST", srv.URL+"/saved", "-d", "plain", "--save", "My API Collection", "--name", "Saved one")
		require.NoError(t, err)
		assert.Contains(t, errOut, `Saved "Saved one" to My API Collection`)
		assert.Contains(t, out, `"body": "plain"`)

		out = c.mustRun("send", "--request", "My API Collection/Saved one", "-q", "[method, body]")
		assert.JSONEq(t, `["POST", "plain"]`, out)
	})

	t.Run("server error is still a response", func(t *testing.T) {
		out := c.mustRun("send", srv.URL+"/fail")
		assert.Contains(t, out, "HTTP 500")
	})

	t.Run("network error", func(t *testing.T) {
		before := len(historyIDs(t, c))
		out, _, err := c.run("send", "http://127.0.0.1:1/unreachable")
		require.Error(t, err)
		assert.Contains(t, out, core.NetworkErrorStatusText)
		assert.Len(t, historyIDs(t, c), before)
	})

	t.Run("argument errors", func(t *testing.T) {
		_, _, err := c.run("send")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "a URL or --request is required")

		_, _, err = c.run("send", "FETCH", srv.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported method")

		_, _, err = c.run("send", "--request", "My API Collection/Nope")
		assert.ErrorIs(t, err, app.ErrRequestNotFound)

		_, _, err = c.run("send", srv.URL, "-q", "[")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid JMESPath expression")
	})
}

func historyIDs(t *testing.T, c *testCLI) []string {
	t.Helper()
	var entries []core.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("history", "list", "-n", "0", "--json")), &entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
