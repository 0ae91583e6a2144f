package topdirs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// EntryKind tells files and directories apart.
type EntryKind uint8

const (
	// KindFile is a regular file.
	KindFile EntryKind = iota
	// KindDir is a directory.
	KindDir
)

// Entry is one immediate child of a probed directory.
type Entry struct {
	// Kind is the classification of the entry.
	Kind EntryKind
	// Path is the full path of the entry.
	Path string
	// Size is the apparent length in bytes (files only).
	Size int64
}

// Prober lists the immediate entries of a directory.
//
// A non-nil error means the directory could not be listed. Callers treat such
// a directory as empty; the error is only reported for diagnostics.
type Prober interface {
	Probe(dir string) ([]Entry, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(dir string) ([]Entry, error)

// Probe calls f(dir).
func (f ProberFunc) Probe(dir string) ([]Entry, error) {
	return f(dir)
}

// FSProber lists directories on the local filesystem.
type FSProber struct {
	// FollowSymlinks classifies symbolic links by their target instead of
	// ignoring them.
	FollowSymlinks bool
}

// Probe implements Prober. Only regular files and directories are reported;
// entries that disappear between listing and stat are skipped.
func (p FSProber) Probe(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))

	for _, d := range dirEntries { //nolint:varnamelen // d is standard for DirEntry
		path := filepath.Join(dir, d.Name())

		var info fs.FileInfo

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			if !p.FollowSymlinks {
				continue
			}

			info, err = os.Stat(path)
		case d.IsDir():
			entries = append(entries, Entry{Kind: KindDir, Path: path})

			continue
		case d.Type().IsRegular():
			info, err = d.Info()
		default:
			continue
		}

		if err != nil {
			continue
		}

		switch {
		case info.IsDir():
			entries = append(entries, Entry{Kind: KindDir, Path: path})
		case info.Mode().IsRegular():
			entries = append(entries, Entry{Kind: KindFile, Path: path, Size: info.Size()})
		}
	}

	return entries, nil
}
