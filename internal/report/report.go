// Package report shapes analysis results for output.
package report

import (
	"github.com/dustin/go-humanize"

	"github.com/idelchi/topdirs/internal/fsusage"
	"github.com/idelchi/topdirs/internal/topdirs"
)

// Directory is one ranked directory.
type Directory struct {
	// Rank is the 1-based position in the ranking.
	Rank int `json:"rank"`
	// Path is the absolute directory path.
	Path string `json:"path"`
	// SizeGiB is the recursive size in GiB.
	SizeGiB float64 `json:"size_gib"`
	// Bytes is the recursive size in bytes.
	Bytes uint64 `json:"bytes"`
	// Size is the human-readable size, like "12 GiB".
	Size string `json:"size"`
	// Percent is the share of the filesystem's used space, if known.
	Percent float64 `json:"percent,omitempty"`
}

// Report is the printable form of a topdirs.Result.
type Report struct {
	Root           string         `json:"root"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	Directories    int64          `json:"directories"`
	ProbeFailures  int64          `json:"probe_failures"`
	TopN           int            `json:"top_n"`
	Records        []Directory    `json:"records"`
	Filesystem     *fsusage.Usage `json:"filesystem,omitempty"`
}

// New builds a Report. usage may be nil.
func New(result *topdirs.Result, usage *fsusage.Usage) *Report {
	records := make([]Directory, 0, len(result.Records))

	for i, record := range result.Records {
		records = append(records, Directory{
			Rank:    i + 1,
			Path:    record.Path,
			SizeGiB: record.SizeGiB,
			Bytes:   record.Bytes,
			Size:    humanize.IBytes(record.Bytes),
			Percent: usage.Share(record.Bytes),
		})
	}

	return &Report{
		Root:           result.Root,
		ElapsedSeconds: result.ElapsedSeconds(),
		Directories:    result.Directories,
		ProbeFailures:  result.ProbeFailures,
		TopN:           result.TopN,
		Records:        records,
		Filesystem:     usage,
	}
}
