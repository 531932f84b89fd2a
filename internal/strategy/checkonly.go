package strategy

import (
	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

func init() {
	Register(&checkOnly{})
}

// checkOnly implements the check-only strategy (--strategy=check-only): a
// single oracle call against the testcase as given, with no reduction
// attempted (spec §6.1).
type checkOnly struct{}

func (c *checkOnly) Name() string { return "check-only" }

func (c *checkOnly) Run(tc *atom.Testcase, path string, driver *oracle.Driver, _ Config, _ *verdictcache.Cache, progress func(ProgressEvent)) (Report, error) {
	if err := tc.Save(path); err != nil {
		return Report{}, err
	}

	verdict, err := driver.Test()

	if progress != nil {
		progress(ProgressEvent{ChunkSize: tc.Len(), Position: 0, Verdict: verdict})
	}

	if err != nil {
		return Report{}, err
	}

	report := Report{
		Strategy:         c.Name(),
		InitialAtoms:     tc.Len(),
		FinalAtoms:       tc.Len(),
		OracleCalls:      driver.Calls(),
		CheckOnlyVerdict: verdict,
	}

	// Spec §8 scenario 5: check-only exits 1 on an uninteresting file, just
	// like any other strategy that never got past the initial check.
	if verdict != oracle.Interesting {
		return report, ErrNotInteresting
	}

	return report, nil
}
