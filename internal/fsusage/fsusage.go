// Package fsusage reports capacity of the filesystem holding a path.
package fsusage

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

const bytesPerGiB = 1 << 30

// Usage describes the filesystem that contains a path.
type Usage struct {
	Path         string  `json:"path"`
	Filesystem   string  `json:"filesystem"`
	TotalBytes   uint64  `json:"total_bytes"`
	UsedBytes    uint64  `json:"used_bytes"`
	FreeBytes    uint64  `json:"free_bytes"`
	TotalGiB     float64 `json:"total_gib"`
	UsedGiB      float64 `json:"used_gib"`
	UsagePercent float64 `json:"usage_percent"`
}

// Of returns usage of the filesystem holding path.
func Of(path string) (*Usage, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return nil, fmt.Errorf("reading filesystem usage of %q: %w", path, err)
	}

	return &Usage{
		Path:         path,
		Filesystem:   stat.Fstype,
		TotalBytes:   stat.Total,
		UsedBytes:    stat.Used,
		FreeBytes:    stat.Free,
		TotalGiB:     float64(stat.Total) / bytesPerGiB,
		UsedGiB:      float64(stat.Used) / bytesPerGiB,
		UsagePercent: stat.UsedPercent,
	}, nil
}

// Share returns the percentage of the filesystem's used space taken by bytes.
func (u *Usage) Share(bytes uint64) float64 {
	if u == nil || u.UsedBytes == 0 {
		return 0
	}

	return 100.0 * float64(bytes) / float64(u.UsedBytes)
}
