package scene

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScene is returned for scene names that are not registered.
var ErrUnknownScene = errors.New("scene: unknown scene")

var builtins = map[string]func() *Scene{
	"cornell": NewCornellScene,
	"caustic": NewCausticGlassScene,
}

// Names lists the built-in scenes in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load creates the built-in scene called name and prepares it for
// rendering.
func Load(name string) (*Scene, error) {
	create, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownScene)
	}
	s := create()
	if err := s.Preprocess(); err != nil {
		return nil, err
	}
	return s, nil
}
