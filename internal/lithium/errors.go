// Package lithium is the run controller: it loads configuration, builds a
// Testcase via the selected atomizer, drives a Strategy against an Oracle
// to a fixed point, and maps the outcome onto the exit codes of spec §7.
package lithium

import "errors"

// Error taxonomy from spec §7. Every error the controller unwinds on is
// wrapped in exactly one of these sentinels so ExitCode can classify it
// without inspecting strategy- or atom-package internals.
var (
	// ErrConfig covers bad flag combinations, a non-power-of-two
	// --min/--max, or an unknown strategy/atomizer name. Exit 2.
	ErrConfig = errors.New("lithium: configuration error")

	// ErrLoad covers I/O failures reading the input file, a missing
	// DDEND, or an empty reducible region. Exit 2.
	ErrLoad = errors.New("lithium: failed to load testcase")

	// ErrNotInteresting means the initial file failed the oracle. Exit 1.
	ErrNotInteresting = errors.New("lithium: initial testcase is not interesting")

	// ErrOracleFatal covers oracle init failure or repeated
	// infrastructure failure during test. Exit 3.
	ErrOracleFatal = errors.New("lithium: oracle fatal error")

	// ErrIO covers a save failure once reduction is underway: fatal,
	// but the last successfully saved state remains on disk. Exit 3.
	ErrIO = errors.New("lithium: I/O error")
)

// ExitCode maps a controller error to the process exit code of spec §6.1
// / §7. A nil error is success (0).
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotInteresting):
		return 1
	case errors.Is(err, ErrConfig), errors.Is(err, ErrLoad):
		return 2
	case errors.Is(err, ErrOracleFatal), errors.Is(err, ErrIO):
		return 3
	default:
		return 3
	}
}
