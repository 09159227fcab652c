package interpolate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(vars map[string]string) *Engine {
	engine := NewEngine()
	engine.SetVariables(vars)
	return engine
}

func TestEngine_SetVariables(t *testing.T) {
	t.Run("later values win", func(t *testing.T) {
		engine := newEngine(map[string]string{"name": "John", "keep": "k"})
		engine.SetVariables(map[string]string{"name": "Jane"})

		result, err := engine.Interpolate("{{name}}/{{keep}}")

		require.NoError(t, err)
		assert.Equal(t, "Jane/k", result)
	})
}

func TestEngine_Interpolate(t *testing.T) {
	t.Run("interpolates single variable", func(t *testing.T) {
		engine := newEngine(map[string]string{"id": "42"})

		result, err := engine.Interpolate("https://api/{{id}}")

		require.NoError(t, err)
		assert.Equal(t, "https://api/42", result)
	})

	t.Run("replaces every occurrence", func(t *testing.T) {
		engine := newEngine(map[string]string{"x": "1"})

		result, err := engine.Interpolate("{{x}}-{{x}}-{{x}}")

		require.NoError(t, err)
		assert.Equal(t, "1-1-1", result)
	})

	t.Run("interpolates multiple variables", func(t *testing.T) {
		engine := newEngine(map[string]string{
			"host": "api.example.com",
			"port": "8080",
		})

		result, err := engine.Interpolate("http://{{host}}:{{port}}/users")

		require.NoError(t, err)
		assert.Equal(t, "http://api.example.com:8080/users", result)
	})

	t.Run("matches names exactly", func(t *testing.T) {
		engine := newEngine(map[string]string{"id": "42"})
		engine.SetOption(OptionKeepUndefined, true)

		result, err := engine.Interpolate("{{ id }}/{{id}}")

		require.NoError(t, err)
		assert.Equal(t, "{{ id }}/42", result)
	})

	t.Run("accepts names with punctuation", func(t *testing.T) {
		engine := newEngine(map[string]string{"base.url": "http://x", "api-key": "k"})

		result, err := engine.Interpolate("{{base.url}}?k={{api-key}}")

		require.NoError(t, err)
		assert.Equal(t, "http://x?k=k", result)
	})

	t.Run("does not rescan substituted values", func(t *testing.T) {
		engine := newEngine(map[string]string{"a": "{{b}}", "b": "nope"})

		result, err := engine.Interpolate("{{a}}")

		require.NoError(t, err)
		assert.Equal(t, "{{b}}", result)
	})

	t.Run("returns error for undefined variable", func(t *testing.T) {
		engine := NewEngine()

		_, err := engine.Interpolate("Hello, {{unknown}}!")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown")
	})

	t.Run("keeps undefined variables when configured", func(t *testing.T) {
		engine := NewEngine()
		engine.SetOption(OptionKeepUndefined, true)

		result, err := engine.Interpolate("https://api/{{id}}")

		require.NoError(t, err)
		assert.Equal(t, "https://api/{{id}}", result)
	})

	t.Run("leaves input without tokens untouched", func(t *testing.T) {
		engine := NewEngine()

		result, err := engine.Interpolate(`{"a": {"b": 1}}`)

		require.NoError(t, err)
		assert.Equal(t, `{"a": {"b": 1}}`, result)
	})

	t.Run("substitutes empty values", func(t *testing.T) {
		engine := newEngine(map[string]string{"empty": ""})

		result, err := engine.Interpolate("[{{empty}}]")

		require.NoError(t, err)
		assert.Equal(t, "[]", result)
	})
}

func TestExtractVariables(t *testing.T) {
	vars := ExtractVariables("{{host}}/{{path}}/{{host}}")
	assert.Equal(t, []string{"host", "path"}, vars)

	assert.Empty(t, ExtractVariables("no tokens here"))
}

func TestEngine_Missing(t *testing.T) {
	engine := newEngine(map[string]string{"host": "h"})

	assert.Equal(t, []string{"path"}, engine.Missing("{{host}}/{{path}}"))
	assert.Empty(t, engine.Missing("{{host}}"))
}

func TestEngine_Concurrency(t *testing.T) {
	engine := NewEngine()
	engine.SetOption(OptionKeepUndefined, true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			engine.SetVariables(map[string]string{"v": "x"})
		}()
		go func() {
			defer wg.Done()
			_, _ = engine.Interpolate("{{v}}")
		}()
	}
	wg.Wait()

	result, err := engine.Interpolate("{{v}}")
	require.NoError(t, err)
	assert.Equal(t, "x", result)
}
