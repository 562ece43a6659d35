// Package config holds runtime configuration: defaults, validation, and the
// enum types for validated string fields. Flag binding lives in internal/cli;
// this package only deals in the resulting values.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// --- Enum types for validated string fields ---

// OpMode selects how a candidate file is placed into its bucket.
type OpMode string

const (
	OpMove OpMode = "move" // Relocate the file (default).
	OpCopy OpMode = "copy" // Duplicate the file, preserving attributes.
	OpLink OpMode = "link" // Symlink to the absolute source path.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings for one invocation. It is populated by
// [DefaultConfig] and then mutated by the CLI layer before being passed (by
// pointer) to packages that need it.
type Config struct {
	// Paths (set from positional args).
	DestDir string
	Sources []string

	// Placement behavior.
	Mode          OpMode
	Recurse       bool // Descend into source directories.
	IgnoreArticle bool // Strip a leading "the" when deriving bucket keys.
	DryRun        bool
	AssumeYes     bool // Skip the interactive move confirmation.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config with the default behavior: move mode, no
// recursion, no article stripping.
func DefaultConfig() Config {
	return Config{
		Mode:      OpMove,
		ColorMode: ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks that the operation mode is a known value and, when not in
// CheckOnly mode, that a destination and at least one source were given.
func (c *Config) Validate() error {
	switch c.Mode {
	case OpMove, OpCopy, OpLink:
		// valid
	default:
		return fmt.Errorf("invalid mode %q (use 'move', 'copy' or 'link')", c.Mode)
	}

	if c.DestDir == "" {
		return errors.New("need a destination directory")
	}
	if c.CheckOnly {
		return nil
	}
	if len(c.Sources) == 0 {
		return errors.New("need at least one source file or directory")
	}
	return nil
}

// ValidatePaths ensures the resolved destination is not equal to or inside
// any resolved source directory that will be traversed. Collector-side
// pruning handles the inverse case (a recursive source that contains the
// destination). Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(destAbs string, sourceAbs []string) error {
	for _, src := range sourceAbs {
		if destAbs == src {
			return fmt.Errorf("destination must not be a source: %s", src)
		}
	}
	return nil
}
