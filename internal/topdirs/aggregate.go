package topdirs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/containerd/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// subtree is what one directory task hands back to its parent: every record
// produced below and including the directory, and the directory's total.
type subtree struct {
	records []Record
	bytes   uint64
}

// forkJoin runs one task per directory. A parent blocks on its children only
// after it has released its worker token, so the pool can never be exhausted
// by waiting parents.
type forkJoin struct {
	prober Prober
	tokens *semaphore.Weighted
	follow bool
	stats  *counters
}

func newForkJoin(opt Options, stats *counters) *forkJoin {
	prober := opt.Prober
	if prober == nil {
		prober = FSProber{FollowSymlinks: opt.FollowSymlinks}
	}

	return &forkJoin{
		prober: prober,
		tokens: semaphore.NewWeighted(int64(opt.Workers)),
		follow: opt.FollowSymlinks,
		stats:  stats,
	}
}

// run aggregates root and returns its records in post order.
func (a *forkJoin) run(ctx context.Context, root string) (records []Record, err error) {
	defer recoverFault(root, &err)

	tree, err := a.visit(ctx, root)
	if err != nil {
		return nil, err
	}

	return tree.records, nil
}

// visit probes dir, aggregates its subdirectories in parallel and returns the
// children's records followed by the record for dir itself.
func (a *forkJoin) visit(ctx context.Context, dir string) (subtree, error) {
	if err := a.tokens.Acquire(ctx, 1); err != nil {
		return subtree{}, fmt.Errorf("waiting to probe %q: %w", dir, err)
	}

	entries, probeErr := a.prober.Probe(dir)

	a.tokens.Release(1)

	if probeErr != nil {
		a.stats.failed()
		log.G(ctx).WithError(probeErr).WithField("path", dir).Debug("treating unreadable directory as empty")

		entries = nil
	}

	var direct uint64

	subdirs := make([]string, 0, len(entries))

	for _, entry := range entries {
		switch entry.Kind {
		case KindFile:
			direct += uint64(entry.Size) //nolint:gosec // File lengths are never negative
		case KindDir:
			subdirs = append(subdirs, entry.Path)
		}
	}

	if a.follow {
		subdirs = pruneCycles(ctx, subdirs)
	}

	children := make([]subtree, len(subdirs))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, sub := range subdirs {
		group.Go(func() (err error) {
			defer recoverFault(sub, &err)

			children[i], err = a.visit(groupCtx, sub)

			return err
		})
	}

	if err := group.Wait(); err != nil {
		return subtree{}, err
	}

	total := direct
	count := 1

	for _, child := range children {
		total += child.bytes
		count += len(child.records)
	}

	records := make([]Record, 0, count)
	for _, child := range children {
		records = append(records, child.records...)
	}

	records = append(records, NewRecord(dir, total))

	a.stats.visited(direct)

	return subtree{records: records, bytes: total}, nil
}

// pruneCycles drops symbolic links that lead back to a directory containing
// them.
func pruneCycles(ctx context.Context, subdirs []string) []string {
	kept := subdirs[:0]

	for _, sub := range subdirs {
		if info, err := os.Lstat(sub); err == nil && info.Mode()&fs.ModeSymlink != 0 && linksToAncestor(sub) {
			log.G(ctx).WithField("path", sub).Debug("skipping symlink cycle")

			continue
		}

		kept = append(kept, sub)
	}

	return kept
}

// linksToAncestor reports whether path resolves to the same directory as one
// of its lexical parents, up to the filesystem root. A parent that cannot be
// checked counts as a match. fastwalk applies the same rule before it follows
// a link.
func linksToAncestor(path string) bool {
	target, err := os.Stat(path)
	if err != nil {
		return true
	}

	for dir := filepath.Dir(path); ; {
		info, err := os.Stat(dir)
		if err != nil || os.SameFile(target, info) {
			return true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}

		dir = parent
	}
}
