package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunHelp(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"lithium"},
		{"lithium", "--help"},
		{"lithium", "-h"},
	} {
		args := args

		t.Run(strings.Join(args, " "), func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer

			exitCode := Run(nil, &stdout, &stderr, args, nil)

			if args[len(args)-1] == "lithium" {
				require.Equal(t, 2, exitCode)
				require.Contains(t, stderr.String(), "missing <oracle-spec>")

				return
			}

			require.Equal(t, 0, exitCode)
			require.Contains(t, stdout.String(), usageLine)
		})
	}
}

// writeFakeOracle writes a shell script used as the oracle-spec: $1 is the
// testcase path, and it exits 0 iff the file contains target, which is
// written into the script text, mirroring how a real interestingness test
// is just an executable (spec §6.2).
func writeFakeOracle(t *testing.T, dir, target string) string {
	t.Helper()

	script := filepath.Join(dir, "oracle.sh")
	body := "#!/bin/sh\ngrep -q -- '" + target + "' \"$1\"\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	return script
}

func TestRunEndToEndMinimize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testcase := filepath.Join(dir, "case.txt")
	require.NoError(t, os.WriteFile(testcase, []byte("A\nB\nKEEP\nC\nD\n"), 0o644))

	oracleScript := writeFakeOracle(t, dir, "KEEP")

	var stdout, stderr bytes.Buffer

	exitCode := Run(nil, &stdout, &stderr, []string{"lithium", "--testcase=" + testcase, oracleScript, testcase}, nil)
	require.Equal(t, 0, exitCode, "stderr: %s", stderr.String())

	data, err := os.ReadFile(testcase)
	require.NoError(t, err)
	require.Equal(t, "KEEP\n", string(data))
	require.Contains(t, stdout.String(), "minimize:")
}

func TestRunExitsTwoOnUnknownStrategy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testcase := filepath.Join(dir, "case.txt")
	require.NoError(t, os.WriteFile(testcase, []byte("A\n"), 0o644))

	oracleScript := writeFakeOracle(t, dir, "A")

	var stdout, stderr bytes.Buffer

	exitCode := Run(nil, &stdout, &stderr, []string{"lithium", "--strategy=bogus", oracleScript, testcase}, nil)
	require.Equal(t, 2, exitCode)
	require.Contains(t, stderr.String(), "unknown strategy")
}

func TestRunExitsOneWhenInitialUninteresting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testcase := filepath.Join(dir, "case.txt")
	require.NoError(t, os.WriteFile(testcase, []byte("A\n"), 0o644))

	oracleScript := writeFakeOracle(t, dir, "NEVER")

	var stdout, stderr bytes.Buffer

	exitCode := Run(nil, &stdout, &stderr, []string{"lithium", oracleScript, testcase}, nil)
	require.Equal(t, 1, exitCode)
}

func TestRunChunkSizeShorthandRejectsNonPowerOfTwo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testcase := filepath.Join(dir, "case.txt")
	require.NoError(t, os.WriteFile(testcase, []byte("A\n"), 0o644))

	oracleScript := writeFakeOracle(t, dir, "A")

	var stdout, stderr bytes.Buffer

	exitCode := Run(nil, &stdout, &stderr, []string{"lithium", "--chunk-size=3", oracleScript, testcase}, nil)
	require.Equal(t, 2, exitCode)
}
