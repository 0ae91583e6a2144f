package topdirs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/containerd/log"
)

// treeCollector records the directory tree seen by concurrent fastwalk
// callbacks and the bytes held directly by each directory.
type treeCollector struct {
	mu       sync.Mutex // Protect concurrent access
	root     string
	direct   map[string]uint64
	children map[string][]string
	stats    *counters
}

func newTreeCollector(root string, stats *counters) *treeCollector {
	c := &treeCollector{
		root:     root,
		direct:   make(map[string]uint64),
		children: make(map[string][]string),
		stats:    stats,
	}
	c.direct[root] = 0
	stats.directories.Add(1)

	return c
}

// addDirLocked registers a directory under its parent. c.mu must be held.
func (c *treeCollector) addDirLocked(path string) {
	if _, ok := c.direct[path]; ok {
		return
	}

	c.direct[path] = 0
	c.stats.directories.Add(1)

	parent := filepath.Dir(path)
	c.children[parent] = append(c.children[parent], path)

	c.addDirLocked(parent)
}

func (c *treeCollector) addDir(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.addDirLocked(path)
}

func (c *treeCollector) addFile(dir string, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.addDirLocked(dir)
	c.direct[dir] += uint64(size) //nolint:gosec // File lengths are never negative
	c.stats.bytes.Add(size)
}

// records rolls direct bytes up to every ancestor and returns one record per
// directory, children (sorted by name) before their parent.
func (c *treeCollector) records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	records := make([]Record, 0, len(c.direct))

	var visit func(dir string) uint64

	visit = func(dir string) uint64 {
		total := c.direct[dir]
		kids := c.children[dir]
		slices.Sort(kids)

		for _, kid := range kids {
			total += visit(kid)
		}

		records = append(records, NewRecord(dir, total))

		return total
	}

	visit(c.root)

	return records
}

// walk aggregates root with fastwalk and returns its records in post order.
func walk(ctx context.Context, root string, opt Options, stats *counters) ([]Record, error) {
	collector := newTreeCollector(root, stats)

	conf := &fastwalk.Config{
		Follow:     opt.FollowSymlinks,
		NumWorkers: opt.Workers,
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			stats.failed()
			log.G(ctx).WithError(err).WithField("path", path).Debug("treating unreadable directory as empty")

			return nil // Silently skip errors
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if path == root {
			return nil
		}

		var (
			info    fs.FileInfo
			infoErr error
		)

		if d.Type()&fs.ModeSymlink != 0 {
			if !opt.FollowSymlinks {
				return nil
			}

			info, infoErr = os.Stat(path)
		} else {
			info, infoErr = d.Info()
		}

		if infoErr != nil {
			return nil // Dangling links and vanished entries are skipped
		}

		switch {
		case info.IsDir():
			// fastwalk will not enter such a link, so it must not get a record.
			if d.Type()&fs.ModeSymlink != 0 && linksToAncestor(path) {
				log.G(ctx).WithField("path", path).Debug("skipping symlink cycle")

				return filepath.SkipDir
			}

			collector.addDir(path)
		case info.Mode().IsRegular():
			collector.addFile(filepath.Dir(path), info.Size())
		}

		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %q: %w", root, walkErr)
	}

	return collector.records(), nil
}
