package oracle

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ShellPredicate wraps an external executable as a [Predicate] (spec §6.2).
// The oracle-spec from the CLI is the executable path; args are passed
// through unchanged and the conventional last element is the testcase
// path, which the predicate locates itself.
//
// Exit code 0 means interesting; any other exit means uninteresting. A
// failure to even start the process (missing binary, permission denied)
// is tagged [ErrInfrastructure] so the driver's fatal-failure policy can
// apply.
type ShellPredicate struct {
	path string
}

// NewShellPredicate returns a Predicate that runs path as a subprocess.
func NewShellPredicate(path string) *ShellPredicate {
	return &ShellPredicate{path: path}
}

// Interesting runs the predicate executable with tempDirPrefix passed as
// its last argument's sibling environment variable, so predicates that
// need scratch space don't have to parse it out of args.
func (s *ShellPredicate) Interesting(args []string, tempDirPrefix string) (bool, error) {
	cmd := exec.Command(s.path, args...)
	cmd.Env = append(os.Environ(), "LITHIUM_TEMPDIR_PREFIX="+tempDirPrefix)

	err := cmd.Run()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}

	return false, fmt.Errorf("%w: starting %q: %w", ErrInfrastructure, s.path, err)
}
