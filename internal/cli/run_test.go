package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/postbox/internal/app"
)

func TestRunCommand(t *testing.T) {
	srv := newEchoServer(t)
	c := newTestCLI(t)
	c.cfg.SeedSample = false

	c.mustRun("collection", "create", "Smoke")
	c.mustRun("request", "add", "Smoke", "GET", srv.URL+"/health", "--name", "Health")
	c.mustRun("request", "add", "Smoke", "POST", "{{base}}/echo", "--name", "Echo", "-d", `{"ok":true}`)
	c.mustRun("env", "create", "local", "--var", "base="+srv.URL)

	t.Run("all pass", func(t *testing.T) {
		out := c.mustRun("run", "Smoke", "--env", "local")
		assert.Contains(t, out, "Running collection: Smoke")
		assert.Contains(t, out, "✓ GET Health 200")
		assert.Contains(t, out, "✓ POST Echo 200")
		assert.Contains(t, out, "Requests: 2/2 passed")

		history := historyIDs(t, c)
		assert.Len(t, history, 2)
		assert.NotContains(t, c.mustRun("env", "list"), "* local")
	})

	t.Run("unresolved variables fail", func(t *testing.T) {
		out, errOut, err := c.run("run", "Smoke", "--verbose")
		require.Error(t, err)
		assert.Contains(t, errOut, "warning: unresolved variables in Echo: base")
		assert.Contains(t, err.Error(), "1 of 2 requests failed")
		assert.Contains(t, out, "✗ POST Echo")
		assert.Contains(t, out, "Requests: 1/2 passed")
	})

	t.Run("bail stops at the first failure", func(t *testing.T) {
		c.mustRun("collection", "create", "Broken")
		c.mustRun("request", "add", "Broken", "GET", srv.URL+"/fail", "--name", "Fail")
		c.mustRun("request", "add", "Broken", "GET", srv.URL+"/ok", "--name", "Ok")

		out, _, err := c.run("run", "Broken", "--bail", "--json")
		require.Error(t, err)

		var summary runSummaryJSON
		require.NoError(t, json.Unmarshal([]byte(out), &summary))
		assert.Equal(t, "Broken", summary.Collection)
		assert.Equal(t, 2, summary.TotalRequests)
		assert.Equal(t, 1, summary.Executed)
		assert.Equal(t, 1, summary.Failed)
		assert.Equal(t, 1, summary.Skipped)
		require.Len(t, summary.Results, 1)
		assert.Equal(t, 500, summary.Results[0].Status)
		assert.Empty(t, summary.Results[0].Error)
	})

	t.Run("unknown collection", func(t *testing.T) {
		_, _, err := c.run("run", "Missing")
		assert.ErrorIs(t, err, app.ErrCollectionNotFound)
	})
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.50s", formatDuration(1500*time.Millisecond))
}
