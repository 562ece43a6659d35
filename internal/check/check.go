// Package check provides destination diagnostics (--check mode): whether the
// destination exists, is writable, supports symlinks, and can be locked.
// TV and NAS shares are the usual shelve targets, and CIFS/FAT mounts often
// refuse symlinks, which silently rules out --link mode.
package check

import (
	"os"
	"path/filepath"

	"github.com/backmassage/shelve/internal/filelock"
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the --check flow against destRoot and reports each probe.
// It returns false when the destination is unusable (missing and
// uncreatable, or unwritable); degraded capabilities such as missing
// symlink support only warn.
func RunCheck(destRoot string, log Logger) bool {
	log.Info("=== Destination Check ===")
	log.Info("Destination: %s", destRoot)

	if !checkExists(destRoot, log) {
		return false
	}
	ok := checkWritable(destRoot, log)
	checkSymlinks(destRoot, log)
	checkLock(destRoot, log)
	return ok
}

// checkExists verifies destRoot is a directory, creating it if missing the
// same way a real run would.
func checkExists(destRoot string, log Logger) bool {
	info, err := os.Stat(destRoot)
	switch {
	case err == nil && info.IsDir():
		log.Success("Destination exists")
		return true
	case err == nil:
		log.Error("Destination exists but is not a directory")
		return false
	}

	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		log.Error("Destination missing and cannot be created: %v", err)
		return false
	}
	log.Success("Destination created")
	return true
}

// checkWritable creates and removes a probe file in destRoot.
func checkWritable(destRoot string, log Logger) bool {
	probe := filepath.Join(destRoot, ".shelve-write-probe")
	f, err := os.OpenFile(probe, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		log.Error("Destination is not writable: %v", err)
		return false
	}
	f.Close()
	os.Remove(probe)
	log.Success("Destination is writable")
	return true
}

// checkSymlinks probes symlink support, which --link mode depends on.
func checkSymlinks(destRoot string, log Logger) {
	probe := filepath.Join(destRoot, ".shelve-link-probe")
	if err := os.Symlink(destRoot, probe); err != nil {
		log.Warn("Symlinks not supported (--link will fail here): %v", err)
		return
	}
	os.Remove(probe)
	log.Success("Symlinks supported (--link available)")
}

// checkLock verifies the run lock can be taken, catching both permission
// problems and a concurrent run already holding the destination.
func checkLock(destRoot string, log Logger) {
	lock, err := filelock.Acquire(destRoot)
	if err != nil {
		log.Warn("Run lock unavailable: %v", err)
		return
	}
	lock.Release()
	log.Success("Run lock available")
}
