// Package strategy implements the chunk-removal reduction strategies from
// spec §4.3: the family of ddmin-derived minimizers that operate on an
// [atom.Testcase] through an [oracle.Driver].
package strategy

import (
	"errors"
	"fmt"

	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

// RepeatPolicy controls whether a strategy re-scans at the same chunk size
// after a round that removed at least one chunk (spec §4.3.2).
type RepeatPolicy int

// Repeat policy values, matching the --repeat flag (spec §6.1).
const (
	RepeatNever RepeatPolicy = iota
	RepeatLast
	RepeatAlways
)

// ParseRepeatPolicy parses the --repeat flag value.
func ParseRepeatPolicy(s string) (RepeatPolicy, error) {
	switch s {
	case "never":
		return RepeatNever, nil
	case "last":
		return RepeatLast, nil
	case "always":
		return RepeatAlways, nil
	default:
		return 0, fmt.Errorf("%w: --repeat=%s", ErrConfig, s)
	}
}

// String implements fmt.Stringer.
func (p RepeatPolicy) String() string {
	switch p {
	case RepeatAlways:
		return "always"
	case RepeatLast:
		return "last"
	default:
		return "never"
	}
}

// Config holds the parameters shared by every chunk-removal strategy.
type Config struct {
	ChunkMax int
	ChunkMin int
	Repeat   RepeatPolicy
}

// Errors returned by strategies, mapped to exit codes by the run
// controller (spec §7).
var (
	ErrConfig         = errors.New("strategy configuration error")
	ErrNotInteresting = errors.New("initial testcase is not interesting")
)

// ProgressEvent describes one oracle call, for verbose progress output
// (spec §7 "one progress line per oracle call at verbose level").
type ProgressEvent struct {
	ChunkSize int
	Position  int
	Verdict   oracle.Verdict
}

// Report summarizes a completed strategy run (spec §4.4 step 8).
type Report struct {
	Strategy     string
	InitialAtoms int
	FinalAtoms   int
	OracleCalls  int
	// CheckOnlyVerdict is set only by the check-only strategy.
	CheckOnlyVerdict oracle.Verdict
}

// Strategy is the common shape of every reduction strategy (spec §4.3).
type Strategy interface {
	// Name is the registry key, matching the CLI's --strategy selection.
	Name() string

	// Run mutates tc in place, flushing each accepted change to path
	// before the next oracle call, and returns a summary report. On
	// return (success or error) tc must still be interesting per driver,
	// or identical to the input if no reduction succeeded. cache may be
	// nil, in which case every candidate is tested against the oracle.
	Run(tc *atom.Testcase, path string, driver *oracle.Driver, cfg Config, cache *verdictcache.Cache, progress func(ProgressEvent)) (Report, error)
}

var registry = map[string]Strategy{}

// Register adds a strategy to the static registry (spec §6.3, §9).
func Register(s Strategy) {
	if _, exists := registry[s.Name()]; exists {
		panic("strategy: " + s.Name() + " already registered")
	}

	registry[s.Name()] = s
}

// Lookup returns the registered strategy for name, or false if unknown.
func Lookup(name string) (Strategy, bool) {
	s, ok := registry[name]

	return s, ok
}

// Names returns the registered strategy names, for help/usage output.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}

	return names
}
