package topdirs

import (
	"runtime"
	"sync/atomic"
	"time"
)

// bytesPerGiB is the divisor used to convert byte counts into GiB.
const bytesPerGiB = 1 << 30

// DefaultTopN is the number of directories kept in a Result.
const DefaultTopN = 20

// Engine names accepted in Options.Engine.
const (
	// EngineForkJoin aggregates with one task per directory.
	EngineForkJoin = "forkjoin"
	// EngineWalk aggregates from a fastwalk traversal.
	EngineWalk = "walk"
)

// Record is the aggregate size of one directory, including its full subtree.
type Record struct {
	// Path is the absolute directory path.
	Path string `json:"path"`
	// SizeGiB is the recursive size in GiB.
	SizeGiB float64 `json:"size_gib"`
	// Bytes is the recursive size in bytes.
	Bytes uint64 `json:"bytes"`
}

// NewRecord builds a Record, converting bytes to GiB once.
func NewRecord(path string, bytes uint64) Record {
	return Record{
		Path:    path,
		SizeGiB: float64(bytes) / bytesPerGiB,
		Bytes:   bytes,
	}
}

// Result is the ranked outcome of one analysis.
type Result struct {
	// Root is the absolute path that was analyzed.
	Root string `json:"root"`
	// Records holds at most TopN records, largest first.
	Records []Record `json:"records"`
	// Elapsed is the wall-clock time from traversal start to end of ranking.
	Elapsed time.Duration `json:"elapsed"`
	// Directories is the number of directories visited.
	Directories int64 `json:"directories"`
	// ProbeFailures is the number of directories that could not be listed.
	ProbeFailures int64 `json:"probe_failures"`
	// TopN is the ranking limit that was applied.
	TopN int `json:"top_n"`
}

// ElapsedSeconds returns Elapsed as fractional seconds.
func (r *Result) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// Options configures an analysis.
type Options struct {
	// Path is the directory to analyze.
	Path string
	// TopN is the number of largest directories to keep.
	TopN int
	// Workers bounds concurrent directory listings (0 = number of CPUs).
	Workers int
	// Engine selects the aggregation engine (forkjoin or walk).
	Engine string
	// FollowSymlinks makes symbolic links count as their targets.
	FollowSymlinks bool
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Prober overrides directory listing for the forkjoin engine.
	Prober Prober
}

// withDefaults fills in zero values.
func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = "."
	}

	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}

	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}

	if o.Engine == "" {
		o.Engine = EngineForkJoin
	}

	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}

	return o
}

// counters tracks traversal progress. They are observability only and never
// feed back into the aggregation.
type counters struct {
	directories atomic.Int64
	bytes       atomic.Int64
	failures    atomic.Int64
}

func (c *counters) visited(bytes uint64) {
	c.directories.Add(1)
	c.bytes.Add(int64(bytes)) //nolint:gosec // Direct file bytes never exceed int64
}

func (c *counters) failed() {
	c.failures.Add(1)
}
