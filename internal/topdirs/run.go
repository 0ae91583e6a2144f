package topdirs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/containerd/errdefs"
	"github.com/containerd/log"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// ValidateRoot resolves path to a cleaned absolute path and checks that it is
// an existing directory.
func ValidateRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q does not exist: %w", ErrInvalidRoot, path, errdefs.ErrNotFound)
		}

		return "", fmt.Errorf("%w: accessing %q: %w", ErrInvalidRoot, path, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %q is not a directory: %w", ErrInvalidRoot, path, errdefs.ErrInvalidArgument)
	}

	return abs, nil
}

// startProgressReporter invokes hook(directories, bytes) on each tick until
// the returned stop function is called. Once stop returns, hook is not running
// and will not be called again.
func startProgressReporter(stats *counters, hook func(int64, int64), interval time.Duration) (stop func()) {
	if hook == nil {
		return func() {}
	}

	ticker := time.NewTicker(interval)
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(stats.directories.Load(), stats.bytes.Load())
			case <-quit:
				return
			}
		}
	}()

	return func() {
		close(quit)
		<-done
	}
}

// Analyze computes the recursive size of every directory below opt.Path and
// returns the opt.TopN largest ones.
//
// An invalid root fails with ErrInvalidRoot before any traversal. Directories
// that cannot be listed count as empty and are only reported through
// Result.ProbeFailures. A panic inside the traversal is returned as a
// *FaultError. Progress updates are sent to progressHook if provided, never
// after Analyze has returned.
func Analyze(ctx context.Context, opt Options, progressHook func(int64, int64)) (*Result, error) {
	opt = opt.withDefaults()

	root, err := ValidateRoot(opt.Path)
	if err != nil {
		return nil, err
	}

	if opt.Engine != EngineForkJoin && opt.Engine != EngineWalk {
		return nil, fmt.Errorf("unknown engine %q: %w", opt.Engine, errdefs.ErrInvalidArgument)
	}

	logger := log.G(ctx).WithFields(log.Fields{
		"root":    root,
		"engine":  opt.Engine,
		"workers": opt.Workers,
	})
	logger.Debug("starting analysis")

	stats := &counters{}

	stopProgress := startProgressReporter(stats, progressHook, opt.ProgressInterval)
	defer stopProgress()

	start := time.Now()

	var records []Record

	switch opt.Engine {
	case EngineWalk:
		records, err = walk(ctx, root, opt, stats)
	default:
		records, err = newForkJoin(opt, stats).run(ctx, root)
	}

	if err != nil {
		return nil, err
	}

	ranked := Rank(records, opt.TopN)

	result := &Result{
		Root:          root,
		Records:       ranked,
		Elapsed:       time.Since(start),
		Directories:   stats.directories.Load(),
		ProbeFailures: stats.failures.Load(),
		TopN:          opt.TopN,
	}

	logger.WithFields(log.Fields{
		"directories":    result.Directories,
		"probe_failures": result.ProbeFailures,
		"elapsed":        result.Elapsed,
	}).Debug("analysis complete")

	return result, nil
}
