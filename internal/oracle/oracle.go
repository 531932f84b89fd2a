// Package oracle implements the interestingness-oracle driver: it wraps a
// user-supplied predicate, mints a fresh temp-workspace prefix per call,
// and maps exceptions/timeouts to Uninteresting per spec §4.2.
package oracle

import "errors"

// Verdict is the result of one oracle call. There is no third state:
// timeouts and crashes of the external test are mapped to Uninteresting.
type Verdict int

const (
	// Uninteresting means the candidate does not reproduce the property.
	Uninteresting Verdict = iota
	// Interesting means the candidate still reproduces the property.
	Interesting
)

// String implements fmt.Stringer for progress-line output.
func (v Verdict) String() string {
	if v == Interesting {
		return "interesting"
	}

	return "uninteresting"
}

// Predicate is the interestingness callable from spec §6.2.
type Predicate interface {
	// Interesting decides whether the candidate on disk is interesting.
	// tempDirPrefix is a fresh, per-call prefix the predicate may use to
	// scratch files; it must not be shared between calls.
	Interesting(args []string, tempDirPrefix string) (bool, error)
}

// Initializer is an optional interface a [Predicate] may implement for a
// one-time setup step before any Interesting call. Absent, it is treated
// as a no-op.
type Initializer interface {
	Init(args []string) error
}

// Cleaner is an optional interface a [Predicate] may implement for
// housekeeping at the end of a run. Absent, it is treated as a no-op.
type Cleaner interface {
	Cleanup(args []string) error
}

// ErrInfrastructure tags an oracle error as an infrastructure failure
// (e.g. the predicate executable could not be located or started) rather
// than an ordinary failing test. Three consecutive infrastructure
// failures during Test abort the run with [ErrFatal] (spec §4.2).
var ErrInfrastructure = errors.New("oracle infrastructure failure")

// ErrFatal is returned by [Driver.Init] on initialization failure, or by
// [Driver.Test] after three consecutive infrastructure failures.
var ErrFatal = errors.New("oracle fatal error")
