// Package placer performs collision-aware placement of candidate files into
// their bucket directories via move, copy, or symlink.
package placer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/backmassage/shelve/internal/config"
)

// Sentinel errors for fatal placement-infrastructure failures. Both abort
// the whole run; duplicates are reported through [Result] instead.
var (
	ErrDirCreate   = errors.New("cannot create bucket directory")
	ErrNotWritable = errors.New("bucket path is not a writable directory")
)

// Outcome classifies the result of placing one file.
type Outcome int

const (
	Placed Outcome = iota
	SkippedDuplicate
	Failed
)

// String returns the display label for an outcome.
func (o Outcome) String() string {
	switch o {
	case Placed:
		return "placed"
	case SkippedDuplicate:
		return "skipped (duplicate)"
	default:
		return "failed"
	}
}

// Result describes the attempted placement of one candidate file.
type Result struct {
	Source  string
	Target  string
	Bucket  string
	Outcome Outcome

	// CreatedDir is true when this placement created (or, in dry-run,
	// would create) the bucket directory.
	CreatedDir bool
}

// Placer places files into DEST_DIR/<key>/ one at a time. It tracks targets
// claimed earlier in the run so duplicate reporting is identical between
// dry and real runs, and creates each bucket directory lazily on first use.
// Placer is not goroutine-safe; the pipeline is strictly sequential.
type Placer struct {
	destRoot string
	mode     config.OpMode
	dryRun   bool
	claims   map[string]bool // target paths claimed earlier this run
	created  map[string]bool // bucket dirs created (or virtually created) this run
}

// New returns a Placer rooted at destRoot performing mode operations.
func New(destRoot string, mode config.OpMode, dryRun bool) *Placer {
	return &Placer{
		destRoot: destRoot,
		mode:     mode,
		dryRun:   dryRun,
		claims:   make(map[string]bool),
		created:  make(map[string]bool),
	}
}

// Place attempts to place source (an absolute, canonicalized path) into the
// bucket named by key. Duplicate basenames in the bucket are skipped and
// reported via the Result; any infrastructure or operation failure returns a
// non-nil error and the caller must abort the run.
func (p *Placer) Place(source, key string) (Result, error) {
	bucketDir := filepath.Join(p.destRoot, key)
	target := filepath.Join(bucketDir, filepath.Base(source))
	res := Result{Source: source, Target: target, Bucket: key, Outcome: Failed}

	// Bucket existence is re-checked on every placement; an earlier check
	// is not assumed to still hold.
	created, err := p.ensureBucketDir(bucketDir)
	if err != nil {
		return res, err
	}
	res.CreatedDir = created

	dup, err := p.isDuplicate(target)
	if err != nil {
		return res, err
	}
	if dup {
		res.Outcome = SkippedDuplicate
		return res, nil
	}
	p.claims[target] = true

	if p.dryRun {
		res.Outcome = Placed
		return res, nil
	}

	if err := p.operate(source, target); err != nil {
		return res, err
	}
	res.Outcome = Placed
	return res, nil
}

// ensureBucketDir makes sure dir exists and is a directory, creating it on
// first need. The returned bool reports whether this call created it (in
// dry-run, whether it would have).
func (p *Placer) ensureBucketDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, fmt.Errorf("%w: %s exists as a file", ErrNotWritable, dir)
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("%w: %s: %v", ErrDirCreate, dir, err)
	}

	if p.dryRun {
		if p.created[dir] {
			return false, nil
		}
		p.created[dir] = true
		return true, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrDirCreate, dir, err)
	}
	p.created[dir] = true
	return true, nil
}

// isDuplicate reports whether target is already taken, either on disk or by
// an earlier placement in this run. A target claimed earlier is a duplicate
// even when the same source claimed it: overlapping source arguments can
// yield the same candidate twice, and the second attempt must skip, not
// re-run the operation against a target that now exists (or, in move mode,
// a source that no longer does).
func (p *Placer) isDuplicate(target string) (bool, error) {
	if _, claimed := p.claims[target]; claimed {
		return true, nil
	}
	_, err := os.Lstat(target)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: %s: %v", ErrNotWritable, target, err)
	}
	return false, nil
}

// operate runs the configured filesystem operation. Any failure is fatal;
// permission errors are classified as ErrNotWritable.
func (p *Placer) operate(source, target string) error {
	var err error
	switch p.mode {
	case config.OpMove:
		// No cross-device fallback: a rename that cannot complete in one
		// step fails the run rather than degrading to copy+delete.
		err = os.Rename(source, target)
	case config.OpCopy:
		err = copyFile(source, target)
	case config.OpLink:
		err = os.Symlink(source, target)
	}
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %v", ErrNotWritable, err)
	}
	return fmt.Errorf("%s %s: %w", p.mode, filepath.Base(source), err)
}

// copyFile duplicates source at target, preserving mode and modification
// time. Target creation is exclusive; the duplicate check has already run,
// so an existing file here means the tree changed underneath us.
func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(target)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return err
	}

	if err := os.Chmod(target, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(target, info.ModTime(), info.ModTime())
}
