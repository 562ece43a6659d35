// Package pipeline orchestrates the single pass of a shelve run: collect
// candidates, derive bucket keys, and place each file, with per-file
// logging and a batch summary.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backmassage/shelve/internal/bucket"
	"github.com/backmassage/shelve/internal/collector"
	"github.com/backmassage/shelve/internal/config"
	"github.com/backmassage/shelve/internal/display"
	"github.com/backmassage/shelve/internal/filelock"
	"github.com/backmassage/shelve/internal/placer"
)

// Logger is the minimal logging interface needed by Run; satisfied by
// *logging.Logger and by test fakes.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Confirm is consulted once, before a move-mode batch mutates the
// filesystem. A nil Confirm declines, so non-interactive callers cannot
// accidentally relocate files.
type Confirm func(prompt string) bool

// Run executes one batch: collect → derive keys → confirm → lock → place.
// Candidates and keys are derived in lockstep and consumed pairwise. The
// context is checked between files so an interrupt stops the batch cleanly;
// a fatal placement error aborts immediately.
func Run(ctx context.Context, cfg *config.Config, log Logger, confirm Confirm) RunStats {
	var stats RunStats

	destAbs := resolveDest(cfg.DestDir)

	files, err := collector.Collect(cfg.Sources, cfg.Recurse, destAbs)
	if err != nil {
		log.Error("%v", err)
		stats.Aborted = true
		return stats
	}
	stats.Total = len(files)
	keys := bucket.Keys(files, cfg.IgnoreArticle)

	logBatchHeader(cfg, log, &stats)

	if stats.Total == 0 {
		log.Warn("Nothing to shelve")
		return stats
	}

	if cfg.Mode == config.OpMove && !cfg.DryRun {
		prompt := fmt.Sprintf("Move %s into %s?", display.FormatCount(stats.Total), cfg.DestDir)
		if confirm == nil || !confirm(prompt) {
			log.Warn("Aborted: move not confirmed")
			stats.Aborted = true
			return stats
		}
	}

	if !cfg.DryRun {
		if err := os.MkdirAll(destAbs, 0o755); err != nil {
			log.Error("Cannot create destination directory: %v", err)
			stats.Aborted = true
			return stats
		}
		lock, err := filelock.Acquire(destAbs)
		if err != nil {
			log.Error("%v", err)
			stats.Aborted = true
			return stats
		}
		defer lock.Release()
	}

	p := placer.New(destAbs, cfg.Mode, cfg.DryRun)
	for i, path := range files {
		stats.Current = i + 1

		if ctx.Err() != nil {
			log.Warn("Interrupted")
			stats.Aborted = true
			break
		}

		if !placeFile(cfg, log, p, path, keys[i], &stats) {
			break
		}
	}

	logSummary(cfg, log, &stats)
	return stats
}

// placeFile handles one candidate and returns false when the run must abort.
func placeFile(cfg *config.Config, log Logger, p *placer.Placer, path, key string, stats *RunStats) bool {
	basename := filepath.Base(path)

	// Size is read before the operation; after a move the source is gone.
	var size int64
	if fi, err := os.Stat(path); err == nil {
		size = fi.Size()
	}

	res, err := p.Place(path, key)
	if err != nil {
		log.Error("[%d/%d] %s: %v", stats.Current, stats.Total, basename, err)
		stats.Failed++
		stats.Aborted = true
		return false
	}

	if res.CreatedDir {
		if cfg.DryRun {
			log.Info("[DRY] Would create bucket %s/", key)
		} else {
			log.Debug(cfg.Verbose, "Created bucket %s/", key)
		}
	}

	switch res.Outcome {
	case placer.Placed:
		stats.Placed++
		stats.BytesPlaced += size
		if cfg.DryRun {
			log.Success("[%d/%d] [DRY] Would %s %s -> %s/", stats.Current, stats.Total, cfg.Mode, basename, key)
		} else {
			log.Success("[%d/%d] %s -> %s/", stats.Current, stats.Total, basename, key)
		}
	case placer.SkippedDuplicate:
		stats.Skipped++
		log.Warn("[%d/%d] Skip (duplicate): %s already in %s/", stats.Current, stats.Total, basename, key)
	}
	return true
}

// resolveDest returns the absolute, symlink-resolved destination path.
// A destination that does not exist yet (dry-run never creates it) falls
// back to the plain absolute path.
func resolveDest(dest string) string {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return dest
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log Logger, stats *RunStats) {
	log.Info("Found %s", display.FormatCount(stats.Total))
	log.Info("Mode: %s", cfg.Mode)
	if cfg.IgnoreArticle {
		log.Info("Buckets: leading 'the' ignored")
	}
	if cfg.Recurse {
		log.Info("Sources: recursive")
	}
	if cfg.DryRun {
		log.Warn("DRY RUN: no files will be touched")
	}
}

func logSummary(cfg *config.Config, log Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d placed, %d skipped, %d failed", stats.Placed, stats.Skipped, stats.Failed)
	if stats.Placed == 0 {
		return
	}
	if cfg.DryRun {
		log.Info("Would shelve %s (%s)", display.FormatCount(stats.Placed), display.FormatBytes(stats.BytesPlaced))
		return
	}
	log.Success("Shelved %s (%s)", display.FormatCount(stats.Placed), display.FormatBytes(stats.BytesPlaced))
}
