package lithium

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/MozillaSecurity/lithium/internal/atom"
	"github.com/MozillaSecurity/lithium/internal/lfs"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/strategy"
	"github.com/MozillaSecurity/lithium/internal/verdictcache"
)

// RunOptions gathers everything the controller needs to drive a single
// reduction, already resolved from flags/config by the caller (spec §4.4
// step 1 happens in internal/cli; everything from step 2 on happens here).
type RunOptions struct {
	TestcasePath   string
	AtomizerName   string
	StrategyName   string
	StrategyConfig strategy.Config

	Predicate  oracle.Predicate
	OracleArgs []string

	// Workspace is the root temp directory the Oracle driver mints
	// per-call prefixes under. Empty creates and removes a fresh one for
	// the duration of this run.
	Workspace string

	// CachePath, if non-empty, enables verdict memoization across runs
	// (spec §9 "Snapshots" budget note; not itself a spec requirement,
	// wired because the on-disk binary format is otherwise unexercised).
	CachePath string

	Warn     func(string)
	Progress func(strategy.ProgressEvent)
}

// Run executes spec §4.4 steps 2-8: load, select, init, run to fixed
// point, cleanup unconditionally, report. The caller (internal/cli) maps
// the returned error to an exit code via ExitCode.
func Run(opts RunOptions) (ReductionReport, error) {
	atomizer, ok := atom.Lookup(opts.AtomizerName)
	if !ok {
		return ReductionReport{}, fmt.Errorf("%w: unknown atomizer %q", ErrConfig, opts.AtomizerName)
	}

	strat, ok := strategy.Lookup(opts.StrategyName)
	if !ok {
		return ReductionReport{}, fmt.Errorf("%w: unknown strategy %q", ErrConfig, opts.StrategyName)
	}

	tc, err := atom.Load(opts.TestcasePath, atomizer)
	if err != nil {
		return ReductionReport{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	workspace := opts.Workspace
	if workspace == "" {
		dir, err := os.MkdirTemp("", "lithium-")
		if err != nil {
			return ReductionReport{}, fmt.Errorf("%w: creating oracle workspace: %w", ErrIO, err)
		}

		workspace = dir
		defer os.RemoveAll(dir)
	}

	var cache *verdictcache.Cache
	if opts.CachePath != "" {
		cache = verdictcache.Open(opts.CachePath)
	}

	start := time.Now()

	// The workspace root is owned by this run alone (spec §5 "Shared
	// resources"), but a caller reusing the same --workspace across two
	// concurrent lithium invocations is still possible; guard it with
	// lfs.WithLock's flock on a lock file inside the workspace.
	var report strategy.Report

	runErr := lfs.WithLock(workspace, func() error {
		driver := oracle.NewDriver(opts.Predicate, opts.OracleArgs, workspace, opts.Warn)

		if err := driver.Init(); err != nil {
			_ = driver.Cleanup()

			return fmt.Errorf("%w: %w", ErrOracleFatal, err)
		}

		var strategyErr error
		report, strategyErr = strat.Run(tc, opts.TestcasePath, driver, opts.StrategyConfig, cache, opts.Progress)

		// Step 7: cleanup is unconditional, on every exit path.
		cleanupErr := driver.Cleanup()

		if strategyErr != nil {
			return classifyStrategyErr(strategyErr)
		}

		if cleanupErr != nil {
			return fmt.Errorf("%w: oracle cleanup: %w", ErrIO, cleanupErr)
		}

		return nil
	})

	elapsed := time.Since(start)

	if runErr != nil {
		if errors.Is(runErr, lfs.ErrLockTimeout) || errors.Is(runErr, lfs.ErrLockFileOpen) {
			return ReductionReport{}, fmt.Errorf("%w: %w", ErrIO, runErr)
		}

		return ReductionReport{}, runErr
	}

	if cache != nil {
		if err := cache.Flush(); err != nil {
			return ReductionReport{}, fmt.Errorf("%w: flushing verdict cache: %w", ErrIO, err)
		}
	}

	return newReductionReport(report, elapsed), nil
}

func classifyStrategyErr(err error) error {
	switch {
	case errors.Is(err, strategy.ErrNotInteresting):
		return fmt.Errorf("%w: %w", ErrNotInteresting, err)
	case errors.Is(err, strategy.ErrDeferred):
		return fmt.Errorf("%w: %w", ErrConfig, err)
	case errors.Is(err, oracle.ErrFatal):
		return fmt.Errorf("%w: %w", ErrOracleFatal, err)
	default:
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
}
