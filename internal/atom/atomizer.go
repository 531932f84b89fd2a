package atom

import "fmt"

// Atomizer carves a file's bytes into a [Testcase]. Implementations are
// registered in a static table (spec §6.3, §9 "Plugin discovery" — the
// source's dynamic plugin lookup is not portable and is replaced here by a
// compile-time registry).
type Atomizer interface {
	// Name is the registry key, matching the CLI's atomizer selection.
	Name() string

	// Atomize parses data into a Testcase. Round-tripping an unmodified
	// Testcase through [Testcase.Bytes] must reproduce data exactly
	// (spec §8 "Round-trip of atomization").
	Atomize(data []byte) (*Testcase, error)
}

var registry = map[string]Atomizer{}

// Register adds an atomizer to the static registry. Intended to be called
// from package init functions; panics on duplicate names, since that
// indicates a build-time wiring mistake rather than a runtime condition.
func Register(a Atomizer) {
	if _, exists := registry[a.Name()]; exists {
		panic(fmt.Sprintf("atom: atomizer %q already registered", a.Name()))
	}

	registry[a.Name()] = a
}

// Lookup returns the registered atomizer for name, or false if unknown.
func Lookup(name string) (Atomizer, bool) {
	a, ok := registry[name]

	return a, ok
}

// Names returns the registered atomizer names, for help/usage output.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}
