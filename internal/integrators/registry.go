package integrators

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/flywheel/internal/dynamo"
)

var registry = map[string]func() dynamo.Integrator{
	"rk4":   func() dynamo.Integrator { return NewRK4() },
	"euler": func() dynamo.Integrator { return NewEuler() },
}

// Get returns a fresh integrator by name. An empty name is RK4.
func Get(name string) (dynamo.Integrator, error) {
	if name == "" {
		name = "rk4"
	}
	fn, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, dynamo.ErrUnknownIntegrator)
	}
	return fn(), nil
}

func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
