package lithium

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type containsPredicate struct {
	path   string
	target []byte
}

func (p *containsPredicate) Interesting([]string, string) (bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return false, err
	}

	return bytes.Contains(data, p.target), nil
}

func TestRunReducesToTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	require.NoError(t, os.WriteFile(path, []byte("A\nB\nKEEP\nC\nD\n"), 0o644))

	report, err := Run(RunOptions{
		TestcasePath: path,
		AtomizerName: "line",
		StrategyName: "minimize",
		Predicate:    &containsPredicate{path: path, target: []byte("KEEP")},
	})
	require.NoError(t, err)
	require.Equal(t, "KEEP\n", string(mustRead(t, path)))
	require.Greater(t, report.OracleCalls, 0)
	require.LessOrEqual(t, report.FinalAtoms, report.InitialAtoms)
}

func TestRunReturnsErrNotInterestingWhenInitialFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	require.NoError(t, os.WriteFile(path, []byte("A\nB\n"), 0o644))

	_, err := Run(RunOptions{
		TestcasePath: path,
		AtomizerName: "line",
		StrategyName: "minimize",
		Predicate:    &containsPredicate{path: path, target: []byte("NEVER")},
	})
	require.ErrorIs(t, err, ErrNotInteresting)
	require.Equal(t, 1, ExitCode(err))
}

func TestRunRejectsUnknownAtomizer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	require.NoError(t, os.WriteFile(path, []byte("A\n"), 0o644))

	_, err := Run(RunOptions{
		TestcasePath: path,
		AtomizerName: "no-such-atomizer",
		StrategyName: "minimize",
		Predicate:    &containsPredicate{path: path, target: []byte("A")},
	})
	require.ErrorIs(t, err, ErrConfig)
	require.Equal(t, 2, ExitCode(err))
}

func TestRunPersistsVerdictCacheAcrossInvocations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	require.NoError(t, os.WriteFile(path, []byte("A\nB\nKEEP\nC\nD\n"), 0o644))

	cachePath := filepath.Join(dir, "verdicts.bin")

	report, err := Run(RunOptions{
		TestcasePath: path,
		AtomizerName: "line",
		StrategyName: "minimize",
		Predicate:    &containsPredicate{path: path, target: []byte("KEEP")},
		CachePath:    cachePath,
	})
	require.NoError(t, err)
	require.Greater(t, report.OracleCalls, 0)
	require.FileExists(t, cachePath)

	// A second invocation on the original content replays the same
	// candidates; every removal attempt is answered from the cache file the
	// first run wrote, so only the initial interestingness check reaches
	// the oracle.
	require.NoError(t, os.WriteFile(path, []byte("A\nB\nKEEP\nC\nD\n"), 0o644))

	again, err := Run(RunOptions{
		TestcasePath: path,
		AtomizerName: "line",
		StrategyName: "minimize",
		Predicate:    &containsPredicate{path: path, target: []byte("KEEP")},
		CachePath:    cachePath,
	})
	require.NoError(t, err)
	require.Equal(t, "KEEP\n", string(mustRead(t, path)))
	require.Equal(t, 1, again.OracleCalls)
}

func TestRunClassifiesDeferredStrategyAsConfigError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	require.NoError(t, os.WriteFile(path, []byte("A\n"), 0o644))

	_, err := Run(RunOptions{
		TestcasePath: path,
		AtomizerName: "line",
		StrategyName: "replace-properties-by-globals",
		Predicate:    &containsPredicate{path: path, target: []byte("A")},
	})
	require.ErrorIs(t, err, ErrConfig)
	require.Equal(t, 2, ExitCode(err))
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return data
}
