package strategy

import (
	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

func init() {
	Register(&collapseEmptyBraces{})
}

// collapseEmptyBraces implements CollapseEmptyBraces (spec §4.3.5): a
// post-pass, run after any other strategy, that scans for adjacent pairs
// of open/close bracket atoms with an empty interior (the closing bracket
// immediately follows the opening one) and attempts to delete both atoms
// simultaneously. This tidies up leftover empty delimiter pairs
// (Minimize's atom-by-atom shrinking can empty a block's interior without
// ever considering the brackets themselves removable on their own) that a
// human reducing by hand would delete as an obvious next step.
type collapseEmptyBraces struct{}

func (c *collapseEmptyBraces) Name() string { return "minimize-collapse-brace" }

func (c *collapseEmptyBraces) Run(tc *atom.Testcase, path string, driver *oracle.Driver, _ Config, cache *verdictcache.Cache, progress func(ProgressEvent)) (Report, error) {
	initial := tc.Len()

	if err := verifyInitiallyInteresting(tc, path, driver); err != nil {
		return Report{}, err
	}

	i := 0
	for i < tc.Len() {
		matches := matchBrackets(tc)

		j := matches[i]
		if j != i+1 {
			i++
			continue
		}

		accepted, err := attemptRemoveRanges(tc, path, driver, cache, [][2]int{{i, j + 1}}, 2, i, progress)
		if err != nil {
			return Report{}, err
		}

		if !accepted {
			i++
		}
	}

	return Report{
		Strategy:     c.Name(),
		InitialAtoms: initial,
		FinalAtoms:   tc.Len(),
		OracleCalls:  driver.Calls(),
	}, nil
}
