// Package cli is the lithium command-line surface (spec §6.1): flag
// parsing, signal-driven graceful shutdown, and the warning/summary output
// contract, adapted from the teacher's subcommand-dispatching CLI down to
// lithium's single operation.
package cli

import (
	"fmt"
	"io"
)

// IO handles output for a run: buffered warnings (oracle Transient
// failures, per spec §7) flushed to stderr at both the start and end of
// output so they survive truncation or piping, plus the stdout progress
// line per oracle call and the final summary line.
type IO struct {
	out     io.Writer
	errOut  io.Writer
	warn    []string
	started bool
}

// NewIO creates an IO writing normal output to out and errors/warnings to
// errOut.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn buffers a non-fatal message (oracle Transient failure, non-fatal
// infrastructure failure)
// for stderr. Unlike the teacher's IO, a buffered warning does not by
// itself change the process exit code: lithium's exit codes are fixed by
// spec §6.1/§7 and are decided from the run error alone.
func (o *IO) Warn(msg string) {
	o.warn = append(o.warn, msg)
}

// Println writes to stdout, flushing any buffered warnings to stderr
// first on the first call.
func (o *IO) Println(a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout, flushing any buffered
// warnings to stderr first on the first call.
func (o *IO) Printf(format string, a ...any) {
	o.flushWarningsStart()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes directly to stderr, bypassing the warning buffer.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish re-flushes every buffered warning to stderr so it is visible even
// if nothing was ever printed to stdout.
func (o *IO) Finish() {
	o.flushWarningsStart()

	for _, w := range o.warn {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}
}

func (o *IO) flushWarningsStart() {
	if !o.started && len(o.warn) > 0 {
		for _, w := range o.warn {
			_, _ = fmt.Fprintln(o.errOut, "warning:", w)
		}

		o.started = true
	}
}
