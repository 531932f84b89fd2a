package strategy

import (
	"fmt"

	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

func init() {
	Register(&minimize{})
}

// minimize is the plain ddmin chunk-removal strategy (spec §4.3.2): at each
// chunk size, scan left to right attempting to delete a contiguous run of
// that many atoms, shrinking toward single-atom removal.
type minimize struct{}

func (m *minimize) Name() string { return "minimize" }

func (m *minimize) Run(tc *atom.Testcase, path string, driver *oracle.Driver, cfg Config, cache *verdictcache.Cache, progress func(ProgressEvent)) (Report, error) {
	initial := tc.Len()

	if err := verifyInitiallyInteresting(tc, path, driver); err != nil {
		return Report{}, err
	}

	selector := func(tc *atom.Testcase, i, c int) ([][2]int, int, bool) {
		hi := i + c
		if hi > tc.Len() {
			hi = tc.Len()
		}

		if hi <= i {
			return nil, 1, false
		}

		return [][2]int{{i, hi}}, c, true
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

// verifyInitiallyInteresting saves tc as-is and confirms the oracle still
// calls it interesting before any reduction begins (spec §4.4 step 3: "if
// the initial testcase is not interesting, abort").
func verifyInitiallyInteresting(tc *atom.Testcase, path string, driver *oracle.Driver) error {
	if err := tc.Save(path); err != nil {
		return fmt.Errorf("saving initial testcase: %w", err)
	}

	verdict, err := driver.Test()
	if err != nil {
		return err
	}

	if verdict != oracle.Interesting {
		return ErrNotInteresting
	}

	return nil
}
