package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
	"gotest.tools/v3/fs"

	"github.com/idelchi/topdirs/internal/report"
	"github.com/idelchi/topdirs/internal/topdirs"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := New("v1.2.3").Command()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), err
}

func testTree(t *testing.T) *fs.Dir {
	t.Helper()

	return fs.NewDir(t, "cli",
		fs.WithFile("top", "0123456789"),
		fs.WithDir("big", fs.WithFile("f", strings.Repeat("x", 100))),
		fs.WithDir("small", fs.WithFile("f", "xyz")),
	)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "--version")
	assert.NilError(t, err)
	assert.Equal(t, out, "v1.2.3\n")
}

func TestOutputPaths(t *testing.T) {
	dir := testTree(t)

	out, err := run(t, "--output", "paths", dir.Path())
	assert.NilError(t, err)
	assert.Equal(t, out, strings.Join([]string{dir.Path(), dir.Join("big"), dir.Join("small")}, "\n")+"\n")
}

func TestOutputJSON(t *testing.T) {
	dir := testTree(t)

	out, err := run(t, "-o", "json", "--top", "2", "--engine", "walk", dir.Path())
	assert.NilError(t, err)

	var rep report.Report
	assert.NilError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, rep.Root, dir.Path())
	assert.Equal(t, rep.TopN, 2)
	assert.Equal(t, rep.Directories, int64(3))
	assert.Assert(t, is.Len(rep.Records, 2))
	assert.Equal(t, rep.Records[0].Bytes, uint64(113))
	assert.Equal(t, rep.Records[1].Path, dir.Join("big"))
}

func TestOutputTable(t *testing.T) {
	dir := testTree(t)

	out, err := run(t, dir.Path())
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out, "Top 20 largest folders:"))
	assert.Assert(t, is.Contains(out, "1) '"+dir.Path()+"'"))
	assert.Assert(t, is.Contains(out, "0.00 GB"))
	assert.Assert(t, is.Contains(out, "Total directories:"))
	assert.Assert(t, is.Contains(out, "Analysis completed in "))
}

func TestInvalidFlags(t *testing.T) {
	dir := testTree(t)

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "output", args: []string{"-o", "yaml", dir.Path()}, want: `invalid output format "yaml"`},
		{name: "engine", args: []string{"--engine", "magic", dir.Path()}, want: `invalid engine "magic"`},
		{name: "top", args: []string{"--top", "0", dir.Path()}, want: "top must be positive"},
		{name: "workers", args: []string{"--workers", "-1", dir.Path()}, want: "workers cannot be negative"},
		{name: "args", args: []string{dir.Path(), dir.Path()}, want: "accepts at most 1 arg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, tc.args...)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestInvalidRoot(t *testing.T) {
	dir := testTree(t)

	_, err := run(t, dir.Join("missing"))
	assert.ErrorIs(t, err, topdirs.ErrInvalidRoot)
	assert.Assert(t, strings.HasPrefix(FailureMessage(err), "Invalid directory: "))
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, FailureMessage(errors.New("boom")), "Analysis failed: boom")
}

func TestFollowSymlinksByDefault(t *testing.T) {
	dir := fs.NewDir(t, "cli-links",
		fs.WithFile("own", "xy"),
		fs.WithDir("data", fs.WithFile("f", strings.Repeat("x", 40))),
		fs.WithSymlink("alias.bin", "data/f"),
		fs.WithSymlink("loop", "."),
	)

	testCases := []struct {
		name string
		args []string
		want uint64
	}{
		{name: "default", args: []string{"-o", "json", dir.Path()}, want: 82},
		{name: "disabled", args: []string{"-o", "json", "--follow=false", dir.Path()}, want: 42},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, tc.args...)
			assert.NilError(t, err)

			var rep report.Report
			assert.NilError(t, json.Unmarshal([]byte(out), &rep))
			assert.Equal(t, rep.Directories, int64(2))
			assert.Equal(t, rep.Records[0].Path, dir.Path())
			assert.Equal(t, rep.Records[0].Bytes, tc.want)
		})
	}
}
