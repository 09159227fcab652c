package interpolate

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// OptionKeepUndefined leaves unknown {{tokens}} in place instead of failing.
const OptionKeepUndefined = "keepUndefined"

// Engine handles {{name}} substitution against a variable map.
// Names are matched exactly as written between the braces.
type Engine struct {
	mu        sync.RWMutex
	variables map[string]string
	options   map[string]bool
}

// variablePattern matches a {{name}} token. The name is any run of
// characters without braces.
var variablePattern = regexp.MustCompile(`\{\{([^{}]+?)\}\}`)

// NewEngine creates a new interpolation engine.
func NewEngine() *Engine {
	return &Engine{
		variables: make(map[string]string),
		options:   make(map[string]bool),
	}
}

// SetVariables sets multiple variables at once.
func (e *Engine) SetVariables(vars map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range vars {
		e.variables[k] = v
	}
}

// SetOption sets an engine option.
func (e *Engine) SetOption(key string, value bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.options[key] = value
}

// Interpolate replaces all {{name}} placeholders in the input string.
// Substituted values are not scanned again.
func (e *Engine) Interpolate(input string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var missing []string
	result := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[2 : len(match)-2]

		if value, ok := e.variables[name]; ok {
			return value
		}

		if e.options[OptionKeepUndefined] {
			return match
		}

		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("undefined variables: %s", strings.Join(missing, ", "))
	}

	return result, nil
}

// ExtractVariables returns all variable names found in the input string.
func ExtractVariables(input string) []string {
	matches := variablePattern.FindAllStringSubmatch(input, -1)
	seen := make(map[string]bool)
	var result []string

	for _, match := range matches {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}

	return result
}

// Missing returns the variable names in input that the engine cannot resolve.
func (e *Engine) Missing(input string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var missing []string
	for _, name := range ExtractVariables(input) {
		if _, ok := e.variables[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
