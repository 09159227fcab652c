package core

// Environment represents a named set of variables for a specific context (e.g., Production, Staging).
type Environment struct {
	ID        string            `json:"id" yaml:"id" validate:"required"`
	Name      string            `json:"name" yaml:"name"`
	Variables map[string]string `json:"variables" yaml:"variables"`
	IsActive  bool              `json:"isActive" yaml:"isActive"`
}

// NewEnvironment creates a new environment with the given name.
func NewEnvironment(name string) Environment {
	return Environment{
		ID:        NewID(),
		Name:      name,
		Variables: make(map[string]string),
	}
}

// Clone creates a deep copy of the environment.
func (e Environment) Clone() Environment {
	clone := e
	if e.Variables != nil {
		clone.Variables = make(map[string]string, len(e.Variables))
		for k, v := range e.Variables {
			clone.Variables[k] = v
		}
	}
	return clone
}

// CloneEnvironments deep-copies an environment list, preserving nil.
func CloneEnvironments(in []Environment) []Environment {
	if in == nil {
		return nil
	}
	out := make([]Environment, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}

// FindEnvironment looks an environment up by ID, then by name.
func FindEnvironment(envs []Environment, ref string) (Environment, bool) {
	for _, e := range envs {
		if e.ID == ref {
			return e, true
		}
	}
	for _, e := range envs {
		if e.Name == ref {
			return e, true
		}
	}
	return Environment{}, false
}
