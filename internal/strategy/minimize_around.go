package strategy

import (
	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

func init() {
	Register(&minimizeSurroundingPairs{})
}

// minimizeSurroundingPairs implements MinimizeSurroundingPairs (spec
// §4.3.3): same scaffold as Minimize, but each speculative step removes
// two chunks at once: the chunk at the current position and its mirror
// chunk from the opposite end of the atom sequence. This clears files
// whose interesting region is a balanced prefix/suffix pair that must
// disappear together, such as open/close tags at matched positions, which
// a one-sided removal could never satisfy on its own since either half
// alone still leaves the oracle's precondition broken.
type minimizeSurroundingPairs struct{}

func (m *minimizeSurroundingPairs) Name() string { return "minimize-around" }

func (m *minimizeSurroundingPairs) Run(tc *atom.Testcase, path string, driver *oracle.Driver, cfg Config, cache *verdictcache.Cache, progress func(ProgressEvent)) (Report, error) {
	initial := tc.Len()

	if err := verifyInitiallyInteresting(tc, path, driver); err != nil {
		return Report{}, err
	}

	selector := func(tc *atom.Testcase, i, c int) ([][2]int, int, bool) {
		n := tc.Len()

		hi := i + c
		if hi > n {
			hi = n
		}

		if hi <= i {
			return nil, 1, false
		}

		mirrorLo := n - hi
		mirrorHi := n - i

		if mirrorLo <= i {
			// Front and mirror chunks overlap or have crossed; nothing
			// left to pair for this position.
			return [][2]int{{i, hi}}, c, true
		}

		if mirrorLo < hi {
			mirrorLo = hi
		}

		if mirrorLo >= mirrorHi {
			return [][2]int{{i, hi}}, c, true
		}

		return [][2]int{{i, hi}, {mirrorLo, mirrorHi}}, c, true
	}

	if err := runGreedy(tc, path, driver, cfg, cache, progress, selector); err != nil {
		return Report{}, err
	}

	return Report{
		Strategy:     m.Name(),
		InitialAtoms: initial,
		FinalAtoms:   tc.Len(),
		OracleCalls:  driver.Calls(),
	}, nil
}
