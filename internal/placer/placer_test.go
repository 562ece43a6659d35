package placer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/shelve/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPlace_Move(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	file := writeFile(t, src, "report.txt", "hello")

	p := New(dest, config.OpMove, false)
	res, err := p.Place(file, "r")
	require.NoError(t, err)

	assert.Equal(t, Placed, res.Outcome)
	assert.True(t, res.CreatedDir, "first placement creates the bucket")
	assert.Equal(t, filepath.Join(dest, "r", "report.txt"), res.Target)

	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err), "moved file must leave its source")
	b, err := os.ReadFile(res.Target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestPlace_CopyPreservesAttributes(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	file := writeFile(t, src, "photo.png", "pixels")
	require.NoError(t, os.Chmod(file, 0o600))
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(file, mtime, mtime))

	p := New(dest, config.OpCopy, false)
	res, err := p.Place(file, "p")
	require.NoError(t, err)
	assert.Equal(t, Placed, res.Outcome)

	_, err = os.Stat(file)
	assert.NoError(t, err, "copy leaves the original in place")

	info, err := os.Stat(res.Target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime), "mtime preserved")
}

func TestPlace_LinkPointsAtSource(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	file := writeFile(t, src, "photo.png", "pixels")

	p := New(dest, config.OpLink, false)
	res, err := p.Place(file, "p")
	require.NoError(t, err)
	assert.Equal(t, Placed, res.Outcome)

	linkTarget, err := os.Readlink(res.Target)
	require.NoError(t, err)
	assert.Equal(t, file, linkTarget, "symlink resolves to the absolute source")

	_, err = os.Stat(file)
	assert.NoError(t, err, "link leaves the original in place")
}

func TestPlace_DuplicateBasenameSkipped(t *testing.T) {
	srcA := t.TempDir()
	srcB := t.TempDir()
	dest := t.TempDir()
	first := writeFile(t, srcA, "report.txt", "first")
	second := writeFile(t, srcB, "report.txt", "second")

	p := New(dest, config.OpCopy, false)

	res1, err := p.Place(first, "r")
	require.NoError(t, err)
	assert.Equal(t, Placed, res1.Outcome)

	res2, err := p.Place(second, "r")
	require.NoError(t, err, "duplicates are non-fatal")
	assert.Equal(t, SkippedDuplicate, res2.Outcome)

	b, err := os.ReadFile(res1.Target)
	require.NoError(t, err)
	assert.Equal(t, "first", string(b), "no silent overwrite")
}

func TestPlace_SameSourceTwiceSkipped(t *testing.T) {
	// Overlapping source arguments can hand the placer the same canonical
	// path twice; the second attempt must skip, not re-run the operation.
	src := t.TempDir()
	dest := t.TempDir()
	file := writeFile(t, src, "report.txt", "once")

	p := New(dest, config.OpMove, false)

	res1, err := p.Place(file, "r")
	require.NoError(t, err)
	assert.Equal(t, Placed, res1.Outcome)

	res2, err := p.Place(file, "r")
	require.NoError(t, err, "re-placing an already-placed source is non-fatal")
	assert.Equal(t, SkippedDuplicate, res2.Outcome)

	b, err := os.ReadFile(res1.Target)
	require.NoError(t, err)
	assert.Equal(t, "once", string(b))
}

func TestPlace_SameSourceTwiceSkippedInDryRun(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	file := writeFile(t, src, "report.txt", "once")

	p := New(dest, config.OpMove, true)

	res1, err := p.Place(file, "r")
	require.NoError(t, err)
	assert.Equal(t, Placed, res1.Outcome)

	res2, err := p.Place(file, "r")
	require.NoError(t, err)
	assert.Equal(t, SkippedDuplicate, res2.Outcome,
		"dry-run reports the repeat exactly like a real run")
}

func TestPlace_ExistingFileInBucketSkipped(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	file := writeFile(t, src, "report.txt", "new")
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "r"), 0o755))
	writeFile(t, filepath.Join(dest, "r"), "report.txt", "old")

	p := New(dest, config.OpMove, false)
	res, err := p.Place(file, "r")
	require.NoError(t, err)
	assert.Equal(t, SkippedDuplicate, res.Outcome)

	_, err = os.Stat(file)
	assert.NoError(t, err, "skipped file stays at its source")
}

func TestPlace_BucketPathIsFile(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	file := writeFile(t, src, "report.txt", "x")
	writeFile(t, dest, "r", "i am in the way")

	p := New(dest, config.OpMove, false)
	res, err := p.Place(file, "r")
	assert.ErrorIs(t, err, ErrNotWritable)
	assert.Equal(t, Failed, res.Outcome)
}

func TestPlace_DryRunMutatesNothing(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	fileA := writeFile(t, src, "alpha.txt", "a")
	fileB := writeFile(t, src, "beta.txt", "b")

	p := New(dest, config.OpMove, true)

	resA, err := p.Place(fileA, "a")
	require.NoError(t, err)
	assert.Equal(t, Placed, resA.Outcome)
	assert.True(t, resA.CreatedDir)

	resB, err := p.Place(fileB, "b")
	require.NoError(t, err)
	assert.Equal(t, Placed, resB.Outcome)

	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry-run must not touch the destination tree")

	_, err = os.Stat(fileA)
	assert.NoError(t, err, "dry-run must not move sources")
}

func TestPlace_DryRunReportsDuplicatesLikeRealRun(t *testing.T) {
	srcA := t.TempDir()
	srcB := t.TempDir()
	dest := t.TempDir()
	first := writeFile(t, srcA, "report.txt", "first")
	second := writeFile(t, srcB, "report.txt", "second")

	p := New(dest, config.OpMove, true)

	res1, err := p.Place(first, "r")
	require.NoError(t, err)
	assert.Equal(t, Placed, res1.Outcome)
	assert.True(t, res1.CreatedDir)

	res2, err := p.Place(second, "r")
	require.NoError(t, err)
	assert.Equal(t, SkippedDuplicate, res2.Outcome)
	assert.False(t, res2.CreatedDir, "bucket reported created at most once")
}

func TestPlace_BucketCreatedLazilyOncePerKey(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	fileA := writeFile(t, src, "alpha.txt", "a")
	fileB := writeFile(t, src, "another.txt", "b")

	p := New(dest, config.OpCopy, false)

	resA, err := p.Place(fileA, "a")
	require.NoError(t, err)
	assert.True(t, resA.CreatedDir)

	resB, err := p.Place(fileB, "a")
	require.NoError(t, err)
	assert.False(t, resB.CreatedDir, "second placement reuses the bucket")
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "placed", Placed.String())
	assert.Equal(t, "skipped (duplicate)", SkippedDuplicate.String())
	assert.Equal(t, "failed", Failed.String())
}
