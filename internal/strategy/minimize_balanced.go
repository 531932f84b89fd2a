package strategy

import (
	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

func init() {
	Register(&minimizeBalanced{})
}

// minimizeBalanced implements MinimizeBalancedPairs (spec §4.3.4): at each
// position, if the atom opens a matched bracket pair, try deleting the
// bracket together with its partner and everything between them in one
// step; if no matched range starts at the position, skip ahead without
// consulting the oracle. This avoids producing syntactically broken
// intermediates for bracketed languages.
type minimizeBalanced struct{}

func (m *minimizeBalanced) Name() string { return "minimize-balanced" }

func (m *minimizeBalanced) Run(tc *atom.Testcase, path string, driver *oracle.Driver, cfg Config, cache *verdictcache.Cache, progress func(ProgressEvent)) (Report, error) {
	initial := tc.Len()

	if err := verifyInitiallyInteresting(tc, path, driver); err != nil {
		return Report{}, err
	}

	selector := func(tc *atom.Testcase, i, _ int) ([][2]int, int, bool) {
		matches := matchBrackets(tc)

		j := matches[i]
		if j <= i {
			return nil, 1, false
		}

		return [][2]int{{i, j + 1}}, 1, true
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
