package strategy

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

// containsPredicate is interesting as long as the on-disk candidate
// contains the target byte string; it models a minimal but realistic
// monotone oracle for exercising strategies end to end.
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

func writeFileForTest(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newDriver(t *testing.T, path string, target []byte) *oracle.Driver {
	t.Helper()

	return oracle.NewDriver(&containsPredicate{path: path, target: target}, nil, t.TempDir(), nil)
}

func TestMinimizeRemovesEverythingExceptTarget(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	writeFileForTest(t, path, "aaaaKEEPbbbbb\n")

	atomizer, ok := atom.Lookup("char")
	require.True(t, ok)

	tc, err := atom.Load(path, atomizer)
	require.NoError(t, err)

	s, ok := Lookup("minimize")
	require.True(t, ok)

	driver := newDriver(t, path, []byte("KEEP"))

	report, err := s.Run(tc, path, driver, Config{Repeat: RepeatAlways}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "KEEP", string(tc.Bytes()))
	require.LessOrEqual(t, report.FinalAtoms, report.InitialAtoms)
	require.Greater(t, report.OracleCalls, 0)
}

func TestMinimizeReturnsErrNotInterestingWhenInitialFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	writeFileForTest(t, path, "hello\n")

	atomizer, ok := atom.Lookup("char")
	require.True(t, ok)

	tc, err := atom.Load(path, atomizer)
	require.NoError(t, err)

	s, ok := Lookup("minimize")
	require.True(t, ok)

	driver := newDriver(t, path, []byte("NEVER PRESENT"))

	_, err = s.Run(tc, path, driver, Config{}, nil, nil)
	require.ErrorIs(t, err, ErrNotInteresting)
}

func TestCheckOnlyDoesNotMutateTestcase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	writeFileForTest(t, path, "abcKEEPdef\n")

	atomizer, ok := atom.Lookup("char")
	require.True(t, ok)

	tc, err := atom.Load(path, atomizer)
	require.NoError(t, err)

	before := tc.Len()

	s, ok := Lookup("check-only")
	require.True(t, ok)

	driver := newDriver(t, path, []byte("KEEP"))

	report, err := s.Run(tc, path, driver, Config{}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, before, tc.Len())
	require.Equal(t, oracle.Interesting, report.CheckOnlyVerdict)
	require.Equal(t, 1, report.OracleCalls)
}

func TestCheckOnlyReturnsErrNotInterestingOnUninterestingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	content := "abcdef\n"
	writeFileForTest(t, path, content)

	atomizer, ok := atom.Lookup("char")
	require.True(t, ok)

	tc, err := atom.Load(path, atomizer)
	require.NoError(t, err)

	s, ok := Lookup("check-only")
	require.True(t, ok)

	driver := newDriver(t, path, []byte("NEVER PRESENT"))

	report, err := s.Run(tc, path, driver, Config{}, nil, nil)
	require.ErrorIs(t, err, ErrNotInteresting)
	require.Equal(t, oracle.Uninteresting, report.CheckOnlyVerdict)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Equal(t, content, string(data))
}

func TestMinimizeBalancedRemovesWholeBlockWhenBraceIrrelevant(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	writeFileForTest(t, path, "KEEP{garbage garbage garbage}KEEP\n")

	atomizer, ok := atom.Lookup("char")
	require.True(t, ok)

	tc, err := atom.Load(path, atomizer)
	require.NoError(t, err)

	s, ok := Lookup("minimize-balanced")
	require.True(t, ok)

	driver := newDriver(t, path, []byte("KEEP"))

	_, err = s.Run(tc, path, driver, Config{Repeat: RepeatAlways}, nil, nil)
	require.NoError(t, err)
	require.NotContains(t, string(tc.Bytes()), "garbage")
}

// tablePredicate is interesting exactly for the remaining-content strings
// listed in table; anything else, including a previously-unseen candidate,
// is uninteresting. Used to pin the --repeat=last boundary semantics of
// spec §9 ("Repeat-policy ambiguity"): a removal can depend on an earlier
// removal later in the same left-to-right pass, so only a second full pass
// at the same chunk size uncovers it.
type tablePredicate struct {
	path  string
	table map[string]bool
}

func (p *tablePredicate) Interesting([]string, string) (bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return false, err
	}

	return p.table[string(data)], nil
}

func TestMinimizeRepeatLastOnlyRepeatsAtChunkMin(t *testing.T) {
	t.Parallel()

	// "ABCD" atom D is removable unconditionally; atom A is only
	// removable once D is already gone. A single left-to-right pass at
	// chunk size 1 visits A (index 0) before D (index 3), so it rejects A
	// and only removes D. Whether A ever gets removed then depends
	// entirely on whether the engine repeats the pass.
	table := map[string]bool{
		"ABCD": true,
		"ABC":  true,
		"BC":   true,
	}

	run := func(t *testing.T, repeat RepeatPolicy) string {
		t.Helper()

		dir := t.TempDir()
		path := filepath.Join(dir, "case.txt")
		writeFileForTest(t, path, "ABCD")

		atomizer, ok := atom.Lookup("char")
		require.True(t, ok)

		tc, err := atom.Load(path, atomizer)
		require.NoError(t, err)

		s, ok := Lookup("minimize")
		require.True(t, ok)

		driver := oracle.NewDriver(&tablePredicate{path: path, table: table}, nil, t.TempDir(), nil)

		_, err = s.Run(tc, path, driver, Config{ChunkMax: 1, ChunkMin: 1, Repeat: repeat}, nil, nil)
		require.NoError(t, err)

		return string(tc.Bytes())
	}

	// chunk_max == chunk_min == 1, so the outer loop runs exactly one
	// scan unless repeat triggers another at the same size. --repeat=never
	// never reruns the pass: D is removed, A never gets a second chance.
	require.Equal(t, "ABC", run(t, RepeatNever))

	// --repeat=last reruns the pass at chunk_min because the first pass
	// removed something; the second pass removes A (now unlocked), and a
	// third pass removes nothing, so the loop stops there.
	require.Equal(t, "BC", run(t, RepeatLast))
}

func TestParseRepeatPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseRepeatPolicy("always")
	require.NoError(t, err)
	require.Equal(t, RepeatAlways, p)

	_, err = ParseRepeatPolicy("sometimes")
	require.ErrorIs(t, err, ErrConfig)
}

func TestMinimizeUsesVerdictCacheToSkipRepeatedCandidates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "case.txt")
	writeFileForTest(t, path, "aaaaKEEPbbbbb\n")

	atomizer, ok := atom.Lookup("char")
	require.True(t, ok)

	tc, err := atom.Load(path, atomizer)
	require.NoError(t, err)

	s, ok := Lookup("minimize")
	require.True(t, ok)

	driver := newDriver(t, path, []byte("KEEP"))
	cache := verdictcache.Open(filepath.Join(dir, "verdicts.bin"))

	report, err := s.Run(tc, path, driver, Config{Repeat: RepeatAlways}, cache, nil)
	require.NoError(t, err)
	require.Contains(t, string(tc.Bytes()), "KEEP")

	require.Greater(t, report.OracleCalls, 0)

	// The last pass at chunk size 1 tried removing each atom of "KEEP" and
	// recorded those verdicts. A second single-atom pass over the same
	// testcase resolves every attempt from the cache, so the only oracle
	// call is the initial interestingness check.
	again := newDriver(t, path, []byte("KEEP"))

	report, err = s.Run(tc, path, again, Config{ChunkMax: 1, ChunkMin: 1, Repeat: RepeatNever}, cache, nil)
	require.NoError(t, err)
	require.Equal(t, "KEEP", string(tc.Bytes()))
	require.Equal(t, 1, report.OracleCalls)
}

func TestDeferredStrategiesReturnErrDeferred(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"replace-properties-by-globals", "replace-arguments-by-globals"} {
		s, ok := Lookup(name)
		require.True(t, ok)

		_, err := s.Run(nil, "", nil, Config{}, nil, nil)
		require.ErrorIs(t, err, ErrDeferred)
	}
}
