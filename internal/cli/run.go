package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/MozillaSecurity/lithium/internal/lithium"
	"github.com/MozillaSecurity/lithium/internal/oracle"
	"github.com/MozillaSecurity/lithium/internal/strategy"
)

const usageLine = "lithium [options] <oracle-spec> [oracle-args...]"

// Run is the process entry point behind cmd/lithium/main.go. It parses
// flags, resolves configuration, drives the reduction, and returns the
// process exit code (spec §6.1, §7). sigCh may be nil (tests).
func Run(_ io.Reader, out, errOut io.Writer, args []string, sigCh <-chan os.Signal) int {
	flags := flag.NewFlagSet("lithium", flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.Usage = func() {}
	flags.SetOutput(&strings.Builder{})

	flagHelp := flags.BoolP("help", "h", false, "show help")
	flagTestcase := flags.String("testcase", "", "path to the file to reduce (default: last oracle-arg)")
	flagChar := flags.BoolP("char", "c", false, "use the Char atomizer")
	flagSymbol := flags.Bool("symbol", false, "use the Symbol-delimiter atomizer")
	flagStrategy := flags.String("strategy", "", "reduction strategy (default: minimize, or the project config)")
	flagRepeat := flags.String("repeat", "", "repeat policy: always, last, never (default: last, or the project config)")
	flagMax := flags.Int("max", 0, "initial chunk size (power of two)")
	flagMin := flags.Int("min", 0, "minimum chunk size (power of two, default 1)")
	flagChunkSize := flags.Int("chunk-size", 0, "shorthand for --repeat=never --min=N --max=N")
	flagConfig := flags.String("config", "", "explicit project config file (default: .lithium.json)")
	flagVerbose := flags.BoolP("verbose", "v", false, "print one progress line per oracle call")
	flagCache := flags.String("cache", "", "verdict cache file (default: disabled)")

	if err := flags.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, flags)

		return lithium.ExitCode(lithium.ErrConfig)
	}

	if *flagHelp {
		printUsage(out, flags)
		return 0
	}

	if *flagChar && *flagSymbol {
		fprintln(errOut, "error: --char and --symbol are mutually exclusive")
		return lithium.ExitCode(lithium.ErrConfig)
	}

	positional := flags.Args()
	if len(positional) == 0 {
		fprintln(errOut, "error: missing <oracle-spec>")
		printUsage(errOut, flags)

		return lithium.ExitCode(lithium.ErrConfig)
	}

	oracleSpec := positional[0]
	oracleArgs := positional[1:]

	testcasePath := *flagTestcase
	if testcasePath == "" {
		if len(oracleArgs) == 0 {
			fprintln(errOut, "error: --testcase not given and oracle-args is empty")
			return lithium.ExitCode(lithium.ErrConfig)
		}

		testcasePath = oracleArgs[len(oracleArgs)-1]
	}

	cfg, err := lithium.LoadConfig(lithium.LoadConfigInput{ConfigPath: *flagConfig})
	if err != nil {
		fprintln(errOut, "error:", err)
		return lithium.ExitCode(err)
	}

	applyFlagOverrides(&cfg, flags, flagStrategy, flagRepeat, flagMax, flagMin, flagChunkSize)

	if err := lithium.ValidateConfig(cfg); err != nil {
		fprintln(errOut, "error:", err)
		return lithium.ExitCode(err)
	}

	atomizerName := "line"

	switch {
	case *flagChar:
		atomizerName = "char"
	case *flagSymbol:
		atomizerName = "symbol"
	}

	repeatPolicy, err := strategy.ParseRepeatPolicy(cfg.Repeat)
	if err != nil {
		fprintln(errOut, "error:", err)
		return lithium.ExitCode(lithium.ErrConfig)
	}

	cmdIO := NewIO(out, errOut)

	opts := lithium.RunOptions{
		TestcasePath: testcasePath,
		AtomizerName: atomizerName,
		StrategyName: cfg.Strategy,
		StrategyConfig: strategy.Config{
			ChunkMax: cfg.ChunkMax,
			ChunkMin: cfg.ChunkMin,
			Repeat:   repeatPolicy,
		},
		Predicate:  oracle.Resolve(oracleSpec),
		OracleArgs: oracleArgs,
		Workspace:  cfg.Workspace,
		CachePath:  *flagCache,
		Warn:       cmdIO.Warn,
	}

	if *flagVerbose {
		opts.Progress = func(ev strategy.ProgressEvent) {
			cmdIO.Println(lithium.ProgressLine(ev))
		}
	}

	done := make(chan struct {
		report lithium.ReductionReport
		err    error
	}, 1)

	go func() {
		report, err := lithium.Run(opts)
		done <- struct {
			report lithium.ReductionReport
			err    error
		}{report, err}
	}()

	select {
	case result := <-done:
		return finish(cmdIO, result.report, result.err)
	case <-sigCh:
		fprintln(errOut, "shutting down with 5s timeout...")
	}

	select {
	case result := <-done:
		return finish(cmdIO, result.report, result.err)
	case <-time.After(5 * time.Second):
		fprintln(errOut, "graceful shutdown timed out, forced exit (130)")
		return 130
	case <-sigCh:
		fprintln(errOut, "graceful shutdown interrupted, forced exit (130)")
		return 130
	}
}

func finish(cmdIO *IO, report lithium.ReductionReport, err error) int {
	cmdIO.Finish()

	if err != nil {
		cmdIO.ErrPrintln("error:", err)
		return lithium.ExitCode(err)
	}

	cmdIO.Println(report.Summary())

	return 0
}

func applyFlagOverrides(cfg *lithium.Config, flags *flag.FlagSet, strat, repeat *string, maxN, minN, chunkSize *int) {
	if flags.Changed("strategy") {
		cfg.Strategy = *strat
	}

	if flags.Changed("repeat") {
		cfg.Repeat = *repeat
	}

	if flags.Changed("max") {
		cfg.ChunkMax = *maxN
	}

	if flags.Changed("min") {
		cfg.ChunkMin = *minN
	}

	// --chunk-size is shorthand for --repeat=never --min=N --max=N
	// (spec §6.1) and takes precedence over the individual flags above.
	if flags.Changed("chunk-size") {
		cfg.Repeat = "never"
		cfg.ChunkMin = *chunkSize
		cfg.ChunkMax = *chunkSize
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, flags *flag.FlagSet) {
	fprintln(w, "lithium - automated testcase reducer")
	fprintln(w)
	fprintln(w, "Usage:", usageLine)
	fprintln(w)
	fprintln(w, "Options:")

	var buf strings.Builder

	flags.SetOutput(&buf)
	flags.PrintDefaults()
	fprintln(w, buf.String())
}
