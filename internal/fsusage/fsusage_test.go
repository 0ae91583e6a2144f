package fsusage

import (
	"testing"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/fs"
)

func TestOf(t *testing.T) {
	dir := fs.NewDir(t, "fsusage")

	usage, err := Of(dir.Path())
	assert.NilError(t, err)
	assert.Equal(t, usage.Path, dir.Path())
	assert.Assert(t, usage.TotalBytes > 0)
	assert.Assert(t, usage.UsagePercent >= 0 && usage.UsagePercent <= 100)
}

func TestOfMissing(t *testing.T) {
	dir := fs.NewDir(t, "fsusage-missing")

	_, err := Of(dir.Join("missing"))
	assert.ErrorContains(t, err, "reading filesystem usage")
}

func TestShare(t *testing.T) {
	usage := &Usage{UsedBytes: 400}

	assert.Equal(t, usage.Share(100), 25.0)
	assert.Equal(t, (&Usage{}).Share(100), 0.0)

	var missing *Usage
	assert.Equal(t, missing.Share(100), 0.0)
}
