package topdirs

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

// Outcome is delivered once for every analysis started by a Runner.
type Outcome struct {
	// Result is set on success.
	Result *Result
	// Err is set on failure.
	Err error
	// Shared reports whether the result was shared with a concurrent request.
	Shared bool
}

// Runner runs analyses in the background. Concurrent requests for the same
// root and limit share a single traversal.
type Runner struct {
	opt   Options
	hook  func(int64, int64)
	group singleflight.Group
}

// NewRunner creates a Runner whose analyses use opt (opt.Path is ignored) and
// report progress to progressHook if provided.
func NewRunner(opt Options, progressHook func(int64, int64)) *Runner {
	return &Runner{opt: opt, hook: progressHook}
}

// Start launches an analysis of path limited to topN records (0 = the Runner
// default) and returns a channel that receives exactly one Outcome.
//
// The traversal itself is not tied to ctx, since it may be shared with other
// callers; ctx only bounds how long this caller waits.
func (r *Runner) Start(ctx context.Context, path string, topN int) <-chan Outcome {
	opt := r.opt
	opt.Path = path

	if topN > 0 {
		opt.TopN = topN
	}

	opt = opt.withDefaults()

	root, err := ValidateRoot(opt.Path)
	if err != nil {
		out := make(chan Outcome, 1)
		out <- Outcome{Err: err}
		close(out)

		return out
	}

	opt.Path = root
	key := root + "\x00" + strconv.Itoa(opt.TopN)

	// Keep the logger but detach from the caller's cancellation.
	background := context.WithoutCancel(ctx)

	ch := r.group.DoChan(key, func() (any, error) {
		return Analyze(background, opt, r.hook)
	})

	out := make(chan Outcome, 1)

	go func() {
		defer close(out)

		select {
		case <-ctx.Done():
			out <- Outcome{Err: ctx.Err()}
		case res := <-ch:
			if res.Err != nil {
				out <- Outcome{Err: res.Err, Shared: res.Shared}

				return
			}

			result, _ := res.Val.(*Result)
			out <- Outcome{Result: result, Shared: res.Shared}
		}
	}()

	return out
}

// Do runs an analysis and waits for its outcome.
func (r *Runner) Do(ctx context.Context, path string, topN int) (*Result, error) {
	outcome := <-r.Start(ctx, path, topN)

	return outcome.Result, outcome.Err
}
