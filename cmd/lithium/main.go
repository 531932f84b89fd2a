// Command lithium reduces a testcase file to a locally minimal variant
// that still satisfies an external interestingness oracle (spec §1).
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/MozillaSecurity/lithium/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, sigCh))
}
