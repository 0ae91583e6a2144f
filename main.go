// Command topdirs reports the largest directories below a path.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/idelchi/topdirs/internal/cli"
)

// version is set at build time.
var version = "unknown - unofficial & generated by unknown"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.New(version).Execute(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FailureMessage(err))
		os.Exit(1)
	}
}
