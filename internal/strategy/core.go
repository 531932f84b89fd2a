package strategy

import (
	"fmt"

	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

// defaultChunkMax picks the largest power of two not greater than n/2, but
// at least 1, the Minimize default from spec §4.3.2 ("largest power of two
// ≤ len(parts)/2, but at least 1"). Returns 0 when n is 0.
func defaultChunkMax(n int) int {
	if n <= 0 {
		return 0
	}

	half := n / 2
	if half < 1 {
		return 1
	}

	c := 1
	for c*2 <= half {
		c *= 2
	}

	return c
}

// resolveChunkBounds fills in cfg's ChunkMax/ChunkMin against the current
// atom count when the caller left them unset (0), per the --chunk-size and
// --min flags defaulting rules of spec §6.1.
func resolveChunkBounds(cfg Config, n int) (max, min int) {
	max = cfg.ChunkMax
	if max <= 0 {
		max = defaultChunkMax(n)
	}

	min = cfg.ChunkMin
	if min <= 0 {
		min = 1
	}

	return max, min
}

// rangeSelector produces the set of atom ranges a strategy wants to try
// removing together for the chunk starting at i with the current chunk
// size c. ok is false when no candidate exists at this position (the
// strategy should advance by the returned step without attempting a
// removal).
type rangeSelector func(tc *atom.Testcase, i, c int) (ranges [][2]int, step int, ok bool)

// runGreedy implements the shared ddmin loop from spec §4.3.2: outer loop
// over shrinking chunk sizes, inner left-to-right scan attempting to
// remove each candidate chunk; a removal is kept only when the oracle (or
// the verdict cache) finds the saved candidate interesting.
func runGreedy(
	tc *atom.Testcase,
	path string,
	driver *oracle.Driver,
	cfg Config,
	cache *verdictcache.Cache,
	progress func(ProgressEvent),
	selector rangeSelector,
) error {
	max, min := resolveChunkBounds(cfg, tc.Len())

	for c := max; c >= min && c >= 1; {
		removedAny, err := scanOnce(tc, path, driver, cache, c, progress, selector)
		if err != nil {
			return err
		}

		switch cfg.Repeat {
		case RepeatAlways:
			if removedAny {
				continue
			}
		case RepeatLast:
			if removedAny && c == min {
				continue
			}
		}

		c /= 2
	}

	return nil
}

// scanOnce performs one left-to-right pass at chunk size c, returning
// whether any chunk was removed during the pass.
func scanOnce(
	tc *atom.Testcase,
	path string,
	driver *oracle.Driver,
	cache *verdictcache.Cache,
	c int,
	progress func(ProgressEvent),
	selector rangeSelector,
) (bool, error) {
	removedAny := false
	i := 0

	for i < tc.Len() {
		ranges, step, ok := selector(tc, i, c)
		if !ok {
			i += step
			continue
		}

		accepted, err := attemptRemoveRanges(tc, path, driver, cache, ranges, c, i, progress)
		if err != nil {
			return removedAny, err
		}

		if accepted {
			removedAny = true
			// Do not advance i: the next atom has shifted into position i.
			continue
		}

		i += step
	}

	return removedAny, nil
}

// attemptRemoveRanges speculatively removes ranges from tc, saves to path,
// and consults driver (or, on a hit, the verdict cache keyed by the
// candidate's content hash). On Interesting the change is kept; otherwise
// tc is restored to its pre-removal state. This is the snapshot/remove/
// save/test/accept-or-revert protocol of spec §4.3.2, extended with the
// memoization step from the DOMAIN STACK's verdictcache component.
func attemptRemoveRanges(
	tc *atom.Testcase,
	path string,
	driver *oracle.Driver,
	cache *verdictcache.Cache,
	ranges [][2]int,
	chunkSize, pos int,
	progress func(ProgressEvent),
) (bool, error) {
	snap := tc.Snapshot()

	tc.RemoveRanges(ranges)

	candidate := tc.Bytes()

	var key verdictcache.Key
	if cache != nil {
		key = verdictcache.HashKey(candidate)
	}

	if cache != nil {
		if interesting, hit := cache.Lookup(key); hit {
			if progress != nil {
				v := oracle.Uninteresting
				if interesting {
					v = oracle.Interesting
				}

				progress(ProgressEvent{ChunkSize: chunkSize, Position: pos, Verdict: v})
			}

			if interesting {
				if err := tc.Save(path); err != nil {
					return false, fmt.Errorf("saving cached-interesting candidate: %w", err)
				}

				return true, nil
			}

			tc.Restore(snap)

			if err := tc.Save(path); err != nil {
				return false, fmt.Errorf("restoring candidate after cached-uninteresting removal: %w", err)
			}

			return false, nil
		}
	}

	if err := tc.Save(path); err != nil {
		tc.Restore(snap)

		return false, fmt.Errorf("saving candidate: %w", err)
	}

	verdict, err := driver.Test()

	if progress != nil {
		progress(ProgressEvent{ChunkSize: chunkSize, Position: pos, Verdict: verdict})
	}

	if err != nil {
		tc.Restore(snap)

		if saveErr := tc.Save(path); saveErr != nil {
			return false, fmt.Errorf("%w; restoring candidate after oracle error: %w", err, saveErr)
		}

		return false, err
	}

	if cache != nil {
		cache.Record(key, verdict == oracle.Interesting)
	}

	if verdict == oracle.Interesting {
		return true, nil
	}

	tc.Restore(snap)

	if err := tc.Save(path); err != nil {
		return false, fmt.Errorf("restoring candidate after rejected removal: %w", err)
	}

	return false, nil
}
