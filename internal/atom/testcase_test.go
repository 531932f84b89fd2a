package atom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestRoundTripEveryAtomizer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data string
	}{
		{"line", "A\nB\nC\nD\n"},
		{"char", "abcdefgh"},
		{"symbol", "foo(bar, baz);\nqux[0] = 1;\n"},
		{"jsstr", `x = "abc"; y = 'def';`},
		{"attribute", `<div id="a" class='b c' disabled>text</div>`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a, ok := Lookup(tc.name)
			require.True(t, ok, "atomizer must be registered")

			testcase, err := a.Atomize([]byte(tc.data))
			require.NoError(t, err)

			require.Equal(t, tc.data, string(testcase.Bytes()))
		})
	}
}

func TestDDMarkersSplitRegion(t *testing.T) {
	t.Parallel()

	data := "// DDBEGIN\na\nb\nc\n// DDEND\ntail\n"

	a, _ := Lookup("line")
	tc, err := a.Atomize([]byte(data))
	require.NoError(t, err)

	require.Equal(t, "// DDBEGIN\n", string(tc.Before()))
	require.Equal(t, "// DDEND\ntail\n", string(tc.After()))
	require.Equal(t, 3, tc.Len())
	require.Equal(t, data, string(tc.Bytes()))
}

func TestMissingDDENDIsAnError(t *testing.T) {
	t.Parallel()

	a, _ := Lookup("line")
	_, err := a.Atomize([]byte("// DDBEGIN\na\nb\n"))
	require.ErrorIs(t, err, ErrMissingDDEND)
}

func TestRemoveMergesInteriorSegments(t *testing.T) {
	t.Parallel()

	a, _ := Lookup("jsstr")
	tc, err := a.Atomize([]byte(`x = "abc"; y = "def";`))
	require.NoError(t, err)

	// Remove atoms b,c,d,e (indices 1..4), spanning across both literals.
	// The code between them ("; y = ") must survive in the merged segment.
	tc.Remove(1, 5)

	require.Equal(t, `x = "a"; y = "f";`, string(tc.Bytes()))
}

func TestRemoveThenRestoreRoundTrips(t *testing.T) {
	t.Parallel()

	a, _ := Lookup("line")
	tc, err := a.Atomize([]byte("A\nB\nC\nD\n"))
	require.NoError(t, err)

	before := tc.Bytes()
	snap := tc.Snapshot()

	tc.Remove(1, 3)
	require.Equal(t, "A\nD\n", string(tc.Bytes()))

	tc.Restore(snap)
	require.True(t, cmp.Equal(before, tc.Bytes()))
}

func TestRemoveClipsOutOfRangeIndices(t *testing.T) {
	t.Parallel()

	a, _ := Lookup("char")
	tc, err := a.Atomize([]byte("abcd"))
	require.NoError(t, err)

	tc.Remove(2, 100)
	require.Equal(t, "ab", string(tc.Bytes()))
	require.Equal(t, 2, tc.Len())
}
