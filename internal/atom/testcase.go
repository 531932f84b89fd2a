package atom

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/MozillaSecurity/lithium/internal/lfs"
)

// Sentinel errors classifying failures from [Load].
var (
	ErrMissingDDEND        = errors.New("DDBEGIN without matching DDEND")
	ErrEmptyReducibleRegion = errors.New("reducible region is empty")
	ErrIO                   = errors.New("i/o error loading testcase")
)

// Testcase holds the atomized form of a file: a fixed prefix (Segments[0]),
// a reducible sequence of atoms, a fixed suffix (Segments[len-1]), and the
// literal text interleaved between atoms that is itself not removable.
//
// Segments always has exactly len(Parts)+1 entries: Segments[i] is the
// literal text immediately preceding Parts[i], for i < len(Parts), and
// Segments[len(Parts)] is the trailing region. For atomizers with no
// interleaved text (Line, Char, Symbol-delimiter) every segment but the
// first and last is empty; this is the generalization spec §9 describes so
// JsStr/Attribute can reuse the same Remove/Save/snapshot machinery.
type Testcase struct {
	segments [][]byte
	parts    []Atom
}

// simpleSegments builds the segments array for atomizers that only have a
// fixed prefix/suffix and no literal text between atoms (Line, Char,
// Symbol-delimiter). When n is 0, before and after are merged into the
// single remaining segment so no text is lost.
func simpleSegments(before, after []byte, n int) [][]byte {
	if n == 0 {
		return [][]byte{append(append([]byte{}, before...), after...)}
	}

	segments := make([][]byte, n+1)
	segments[0] = before
	segments[n] = after

	return segments
}

// New constructs a Testcase directly from segments and parts. Panics if
// len(segments) != len(parts)+1, which would violate the model's core
// invariant.
func New(segments [][]byte, parts []Atom) *Testcase {
	if len(segments) != len(parts)+1 {
		panic("atom: len(segments) must equal len(parts)+1")
	}

	return &Testcase{segments: segments, parts: parts}
}

// Load reads path and atomizes it. Fails with an error wrapping
// [ErrIO], [ErrMissingDDEND], or [ErrEmptyReducibleRegion].
func Load(path string, atomizer Atomizer) (*Testcase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	tc, err := atomizer.Atomize(data)
	if err != nil {
		return nil, err
	}

	if len(tc.parts) == 0 {
		return nil, ErrEmptyReducibleRegion
	}

	return tc, nil
}

// Len returns the number of atoms in the reducible region.
func (t *Testcase) Len() int {
	return len(t.parts)
}

// Before returns the fixed prefix, never removed.
func (t *Testcase) Before() []byte {
	return t.segments[0]
}

// After returns the fixed suffix, never removed.
func (t *Testcase) After() []byte {
	return t.segments[len(t.segments)-1]
}

// Parts returns the current atoms. The slice is a read-only view; callers
// must not retain an index across a call to [Testcase.Remove] or
// [Testcase.Restore], per spec §3's index-stability invariant.
func (t *Testcase) Parts() []Atom {
	return t.parts
}

// Bytes serializes the testcase to the exact bytes the on-disk file should
// contain: Segments[0], then each atom interleaved with its following
// segment, ending in the trailing segment.
func (t *Testcase) Bytes() []byte {
	size := 0
	for _, s := range t.segments {
		size += len(s)
	}

	for _, p := range t.parts {
		size += len(p.Text)
	}

	buf := make([]byte, 0, size)
	buf = append(buf, t.segments[0]...)

	for i, p := range t.parts {
		buf = append(buf, p.Text...)
		buf = append(buf, t.segments[i+1]...)
	}

	return buf
}

// Remove deletes the atoms in [lo, hi), clipped to [0, Len()]. The segments
// bracketing the removed atoms (including any non-empty interior segments,
// which hold literal text that was never part of an atom) are merged into
// a single segment at the junction, so no literal content is lost.
func (t *Testcase) Remove(lo, hi int) {
	if lo < 0 {
		lo = 0
	}

	if hi > len(t.parts) {
		hi = len(t.parts)
	}

	if lo >= hi {
		return
	}

	merged := make([]byte, 0)
	for i := lo; i <= hi; i++ {
		merged = append(merged, t.segments[i]...)
	}

	newParts := make([]Atom, 0, len(t.parts)-(hi-lo))
	newParts = append(newParts, t.parts[:lo]...)
	newParts = append(newParts, t.parts[hi:]...)

	newSegments := make([][]byte, 0, len(newParts)+1)
	newSegments = append(newSegments, t.segments[:lo]...)
	newSegments = append(newSegments, merged)
	newSegments = append(newSegments, t.segments[hi+1:]...)

	t.parts = newParts
	t.segments = newSegments
}

// RemoveRanges removes several disjoint atom ranges in one speculative
// step, used by strategies that must delete more than one chunk at once
// (MinimizeSurroundingPairs' mirrored chunk, MinimizeBalancedPairs'
// matched bracket pair). Ranges are processed from highest index to
// lowest so earlier (lower-index) ranges are unaffected by the shift from
// later removals; the caller is responsible for passing disjoint ranges.
func (t *Testcase) RemoveRanges(ranges [][2]int) {
	sorted := make([][2]int, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i][0] > sorted[j][0] })

	for _, r := range sorted {
		t.Remove(r[0], r[1])
	}
}

// Snapshot is an opaque token produced by [Testcase.Snapshot], usable only
// with [Testcase.Restore].
type Snapshot struct {
	segments [][]byte
	parts    []Atom
}

// Snapshot captures the current state for later [Testcase.Restore].
//
// This is a full-vector copy, which spec §9 explicitly sanctions as
// acceptable at engine scale (testcases rarely exceed a few megabytes of
// atoms); the documented optimization of storing only the removed slice
// and its offset is not implemented here; since a strategy pass restores
// far more rarely than it removes, the simpler, obviously-correct copy
// was preferred over the savings.
func (t *Testcase) Snapshot() Snapshot {
	segments := make([][]byte, len(t.segments))
	copy(segments, t.segments)

	parts := make([]Atom, len(t.parts))
	copy(parts, t.parts)

	return Snapshot{segments: segments, parts: parts}
}

// Restore replaces the current state with a previously captured snapshot.
func (t *Testcase) Restore(s Snapshot) {
	t.segments = s.segments
	t.parts = s.parts
}

// Save atomically writes the testcase to path (spec §4.1, §6.4).
func (t *Testcase) Save(path string) error {
	w := lfs.NewAtomicWriter(lfs.NewReal())

	if err := w.WriteWithDefaults(path, t.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	return nil
}
