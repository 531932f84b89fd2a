package oracle

import (
	"errors"
	"fmt"
	"path/filepath"
)

// maxConsecutiveInfraFailures is the policy threshold from spec §4.2:
// "three consecutive init-like infrastructure failures abort with
// OracleFatal."
const maxConsecutiveInfraFailures = 3

// Driver wraps a [Predicate] and owns the monotonically increasing counter
// used to mint a fresh tempdir_prefix per call, so state is never shared
// between calls in a way that could bias the verdict (spec §4.2).
type Driver struct {
	predicate Predicate
	args      []string
	workDir   string
	warn      func(string)

	seq              uint64
	consecutiveInfra int
	calls            int
}

// NewDriver constructs a Driver. warn may be nil; when non-nil it receives
// one message per non-fatal oracle warning, for the run controller's IO
// layer to surface (spec §7 "Transient ... logged").
func NewDriver(predicate Predicate, args []string, workDir string, warn func(string)) *Driver {
	return &Driver{predicate: predicate, args: args, workDir: workDir, warn: warn}
}

// Init calls the predicate's optional Init hook. Failure is fatal.
func (d *Driver) Init() error {
	initer, ok := d.predicate.(Initializer)
	if !ok {
		return nil
	}

	if err := initer.Init(d.args); err != nil {
		return fmt.Errorf("%w: init: %w", ErrFatal, err)
	}

	return nil
}

// Cleanup calls the predicate's optional Cleanup hook. Always invoked by
// the run controller on every exit path (spec §4.4 step 7, §5).
func (d *Driver) Cleanup() error {
	cleaner, ok := d.predicate.(Cleaner)
	if !ok {
		return nil
	}

	return cleaner.Cleanup(d.args)
}

// Calls returns the number of Test invocations so far, for the final
// summary line (spec §4.4 step 8).
func (d *Driver) Calls() int {
	return d.calls
}

// Test invokes the predicate on the current on-disk candidate. The engine
// guarantees the candidate path is stable for the duration of this call
// (spec §5); the caller must have already saved the testcase before
// calling Test.
//
// A plain predicate error (not tagged [ErrInfrastructure]) is absorbed:
// logged as a warning and mapped to Uninteresting, matching the
// "Transient" policy of spec §7. An [ErrInfrastructure]-tagged error
// accumulates; three in a row returns [ErrFatal].
func (d *Driver) Test() (Verdict, error) {
	d.calls++
	d.seq++

	prefix := filepath.Join(d.workDir, fmt.Sprintf("%d-", d.seq))

	interesting, err := d.safeInteresting(prefix)
	if err == nil {
		d.consecutiveInfra = 0

		if interesting {
			return Interesting, nil
		}

		return Uninteresting, nil
	}

	if isInfrastructure(err) {
		d.consecutiveInfra++
		if d.consecutiveInfra >= maxConsecutiveInfraFailures {
			return Uninteresting, fmt.Errorf("%w: %d consecutive infrastructure failures: %w", ErrFatal, d.consecutiveInfra, err)
		}

		d.warnf("oracle infrastructure error (%d/%d consecutive): %v", d.consecutiveInfra, maxConsecutiveInfraFailures, err)

		return Uninteresting, nil
	}

	d.consecutiveInfra = 0
	d.warnf("oracle predicate error, treated as uninteresting: %v", err)

	return Uninteresting, nil
}

func (d *Driver) warnf(format string, a ...any) {
	if d.warn != nil {
		d.warn(fmt.Sprintf(format, a...))
	}
}

// safeInteresting recovers a panicking predicate and turns it into a plain
// error, per spec §4.2 "exceptions/panics ... are treated as
// Uninteresting ... but do not abort the run unless fatal".
func (d *Driver) safeInteresting(tempDirPrefix string) (result bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle predicate panicked: %v", r)
		}
	}()

	return d.predicate.Interesting(d.args, tempDirPrefix)
}

func isInfrastructure(err error) bool {
	return errors.Is(err, ErrInfrastructure)
}
