package topdirs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"testing"

	"github.com/containerd/errdefs"
	"gotest.tools/v3/assert"
	"pgregory.net/rapid"
)

// memTree is an in-memory directory tree. Directories missing from the map
// cannot be listed.
type memTree map[string][]Entry

func (m memTree) Probe(dir string) ([]Entry, error) {
	entries, ok := m[dir]
	if !ok {
		return nil, fs.ErrPermission
	}

	return entries, nil
}

func runForkJoin(t *testing.T, prober Prober, root string) ([]Record, *counters, error) {
	t.Helper()

	stats := &counters{}
	opt := Options{Prober: prober, Workers: 2}.withDefaults()

	records, err := newForkJoin(opt, stats).run(context.Background(), root)

	return records, stats, err
}

func TestForkJoinPostOrder(t *testing.T) {
	tree := memTree{
		"/r": {
			{Kind: KindFile, Path: "/r/f", Size: 1},
			{Kind: KindDir, Path: "/r/a"},
			{Kind: KindDir, Path: "/r/b"},
		},
		"/r/a":   {{Kind: KindDir, Path: "/r/a/x"}},
		"/r/a/x": {{Kind: KindFile, Path: "/r/a/x/f", Size: 10}},
		"/r/b":   {{Kind: KindFile, Path: "/r/b/f", Size: 100}},
	}

	records, stats, err := runForkJoin(t, tree, "/r")
	assert.NilError(t, err)
	assert.DeepEqual(t, records, []Record{
		NewRecord("/r/a/x", 10),
		NewRecord("/r/a", 10),
		NewRecord("/r/b", 100),
		NewRecord("/r", 111),
	})
	assert.Equal(t, stats.directories.Load(), int64(4))
	assert.Equal(t, stats.bytes.Load(), int64(111))
	assert.Equal(t, stats.failures.Load(), int64(0))
}

func TestForkJoinProbeFailureIsEmpty(t *testing.T) {
	tree := memTree{
		"/r": {
			{Kind: KindFile, Path: "/r/f", Size: 5},
			{Kind: KindDir, Path: "/r/denied"},
		},
	}

	records, stats, err := runForkJoin(t, tree, "/r")
	assert.NilError(t, err)
	assert.DeepEqual(t, records, []Record{
		NewRecord("/r/denied", 0),
		NewRecord("/r", 5),
	})
	assert.Equal(t, stats.failures.Load(), int64(1))
}

func TestForkJoinFault(t *testing.T) {
	prober := ProberFunc(func(dir string) ([]Entry, error) {
		switch dir {
		case "/r":
			return []Entry{{Kind: KindDir, Path: "/r/bad"}, {Kind: KindDir, Path: "/r/good"}}, nil
		case "/r/bad":
			panic("out of file descriptors")
		default:
			return nil, nil
		}
	})

	_, _, err := runForkJoin(t, prober, "/r")

	var fault *FaultError

	assert.Assert(t, errors.As(err, &fault))
	assert.Equal(t, fault.Path, "/r/bad")
	assert.Assert(t, errdefs.IsInternal(err))
	assert.ErrorContains(t, err, `analyzing "/r/bad": out of file descriptors`)
}

func TestForkJoinFaultWrapsErrorCause(t *testing.T) {
	cause := errors.New("disk on fire")
	prober := ProberFunc(func(string) ([]Entry, error) {
		panic(cause)
	})

	_, _, err := runForkJoin(t, prober, "/r")
	assert.ErrorIs(t, err, cause)
	assert.Assert(t, errdefs.IsInternal(err))
}

// drawTree builds a random tree below dir and returns the expected recursive
// byte total of every directory in it.
func drawTree(t *rapid.T, tree memTree, dir string, depth int, totals map[string]uint64) uint64 {
	var total uint64

	entries := []Entry{}

	files := rapid.IntRange(0, 3).Draw(t, "files")
	for i := range files {
		size := rapid.Int64Range(0, 1<<34).Draw(t, "size")
		entries = append(entries, Entry{Kind: KindFile, Path: path.Join(dir, fmt.Sprintf("f%d", i)), Size: size})
		total += uint64(size)
	}

	if depth < 3 {
		dirs := rapid.IntRange(0, 3).Draw(t, "dirs")
		for i := range dirs {
			sub := path.Join(dir, fmt.Sprintf("d%d", i))
			entries = append(entries, Entry{Kind: KindDir, Path: sub})
			total += drawTree(t, tree, sub, depth+1, totals)
		}
	}

	tree[dir] = entries
	totals[dir] = total

	return total
}

func TestForkJoinTotalsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tree := memTree{}
		totals := map[string]uint64{}
		drawTree(t, tree, "/root", 0, totals)

		stats := &counters{}
		opt := Options{Prober: tree, Workers: 3}.withDefaults()

		records, err := newForkJoin(opt, stats).run(context.Background(), "/root")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(records) != len(totals) {
			t.Fatalf("got %d records for %d directories", len(records), len(totals))
		}

		seen := map[string]bool{}

		for _, record := range records {
			if seen[record.Path] {
				t.Fatalf("duplicate record for %s", record.Path)
			}

			seen[record.Path] = true

			want, ok := totals[record.Path]
			if !ok {
				t.Fatalf("record for unknown directory %s", record.Path)
			}

			if record.Bytes != want || record.SizeGiB != float64(want)/bytesPerGiB {
				t.Fatalf("%s: got %d bytes (%f GiB), want %d", record.Path, record.Bytes, record.SizeGiB, want)
			}

			if parent := path.Dir(record.Path); record.Path != "/root" && totals[parent] < record.Bytes {
				t.Fatalf("%s is larger than its parent", record.Path)
			}
		}

		if last := records[len(records)-1]; last.Path != "/root" {
			t.Fatalf("root record must come last, got %s", last.Path)
		}
	})
}
