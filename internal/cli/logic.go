package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/containerd/log"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/idelchi/topdirs/internal/fsusage"
	"github.com/idelchi/topdirs/internal/report"
	"github.com/idelchi/topdirs/internal/topdirs"
)

// FailureMessage renders an error returned by Execute for the user.
func FailureMessage(err error) string {
	if errors.Is(err, topdirs.ErrInvalidRoot) {
		return fmt.Sprintf("Invalid directory: %v\nPlease check the path and try again.", err)
	}

	return fmt.Sprintf("Analysis failed: %v", err)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func logic(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	enableProgress := opts.Output == "table" &&
		!opts.Debug &&
		isTerminal(stderr)

	// Simple progress callback that prints directly to stderr
	var progressHook func(dirs, bytes int64)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(dirs, bytes int64) {
			msg := fmt.Sprintf("Analyzing folders… %d directories, %s",
				dirs, humanize.IBytes(uint64(bytes))) //nolint:gosec // Bytes is always positive
			fmt.Fprintf(stderr, "\r\033[2K%s\r", msg)
		}
	}

	// The analysis runs in the background; this goroutine only waits for the outcome.
	runner := topdirs.NewRunner(opts.Options, progressHook)
	outcome := <-runner.Start(ctx, opts.Path, opts.TopN)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	if outcome.Err != nil {
		return outcome.Err
	}

	if opts.Output == "paths" {
		return PrintPaths(outcome.Result, stdout)
	}

	usage, err := fsusage.Of(outcome.Result.Root)
	if err != nil {
		log.G(ctx).WithError(err).Debug("filesystem usage unavailable")
	}

	rep := report.New(outcome.Result, usage)

	if opts.Output == "json" {
		return PrintJSON(rep, stdout)
	}

	return PrintTable(rep, stdout)
}
