// Package cli wires flags, validation, logging, and confirmation around the
// pipeline. It owns the whole command-line surface; the core packages only
// see the resulting config values.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/backmassage/shelve/internal/check"
	"github.com/backmassage/shelve/internal/config"
	"github.com/backmassage/shelve/internal/display"
	"github.com/backmassage/shelve/internal/logging"
	"github.com/backmassage/shelve/internal/pipeline"
	"github.com/backmassage/shelve/internal/term"
)

// modeFlags holds the booleans behind --copy/--link and --color/--no-color;
// they are folded into cfg after parsing so [config.DefaultConfig] values
// hold unless the user passes the flag.
type modeFlags struct {
	copyMode   bool
	linkMode   bool
	forceColor bool
	noColor    bool
}

// NewRootCommand builds the shelve root command.
func NewRootCommand(version string) *cobra.Command {
	cfg := config.DefaultConfig()
	var mf modeFlags

	cmd := &cobra.Command{
		Use:   "shelve [flags] <dest_dir> <source>...",
		Short: "Sort files into alphabetical bucket directories",
		Long: `Shelve organizes files into one subdirectory per first letter
(DEST_DIR/a/, DEST_DIR/b/, ...) so large collections stay browsable on
TV interfaces and other devices with poor file navigation.

Each source argument is a file or a directory; directory sources
contribute their files (recursively with --recurse). Files are moved by
default, or copied/symlinked with --copy/--link. A file whose name is
already present in its bucket is skipped, never overwritten.`,
		Example: `  # Preview what would happen
  shelve --dry-run /srv/media/shelf ~/downloads

  # Copy recursively, grouping "The X" under X's letter
  shelve -c -r -t /srv/media/shelf /srv/media/incoming

  # Symlink files in place
  shelve --link /srv/media/shelf /srv/media/incoming

  # Probe a destination (writability, symlink support)
  shelve --check /srv/media/shelf`,
		Version: version,
		Args: func(cmd *cobra.Command, args []string) error {
			if cfg.CheckOnly {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Usage is helpful for flag and argument mistakes, which are
			// reported before RunE; from here on errors stand alone.
			cmd.SilenceUsage = true
			return run(&cfg, &mf, args)
		},
	}

	fl := cmd.Flags()
	fl.BoolVarP(&cfg.DryRun, "dry-run", "d", false, "Preview placements without touching the filesystem")
	fl.BoolVarP(&mf.copyMode, "copy", "c", false, "Copy files instead of moving them")
	fl.BoolVarP(&mf.linkMode, "link", "l", false, "Symlink files instead of moving them")
	fl.BoolVarP(&cfg.IgnoreArticle, "ignore-the", "t", false, "Ignore a leading \"the\" when choosing buckets")
	fl.BoolVarP(&cfg.Recurse, "recurse", "r", false, "Descend into source directories")
	fl.BoolVarP(&cfg.AssumeYes, "yes", "y", false, "Do not ask for confirmation before moving")
	fl.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	fl.BoolVar(&mf.forceColor, "color", false, "Force colored output")
	fl.BoolVar(&mf.noColor, "no-color", false, "Disable colored output")
	fl.StringVar(&cfg.LogFile, "log", "", "Append logs to a file")
	fl.BoolVar(&cfg.CheckOnly, "check", false, "Run destination diagnostics and exit")

	cmd.MarkFlagsMutuallyExclusive("copy", "link")
	cmd.MarkFlagsMutuallyExclusive("color", "no-color")

	return cmd
}

// run is the command body: fold flags into cfg, validate, set up logging,
// and hand off to --check or the pipeline.
func run(cfg *config.Config, mf *modeFlags, args []string) error {
	if mf.copyMode {
		cfg.Mode = config.OpCopy
	}
	if mf.linkMode {
		cfg.Mode = config.OpLink
	}
	if mf.noColor {
		cfg.ColorMode = config.ColorNever
	} else if mf.forceColor {
		cfg.ColorMode = config.ColorAlways
	}

	cfg.DestDir = config.NormalizeDirArg(args[0])
	for _, src := range args[1:] {
		cfg.Sources = append(cfg.Sources, config.NormalizeDirArg(src))
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner()

	if cfg.CheckOnly {
		if !check.RunCheck(cfg.DestDir, log) {
			return errors.New("destination check failed")
		}
		return nil
	}

	if err := validatePaths(cfg); err != nil {
		return err
	}

	// Cancel the run context on SIGINT/SIGTERM so the pipeline stops
	// between files instead of mid-operation.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	stats := pipeline.Run(ctx, cfg, log, confirmFunc(cfg))
	if !stats.Ok() {
		return errors.New("run did not complete")
	}
	return nil
}

// validatePaths resolves the destination and sources and rejects a
// destination that is itself listed as a source. Sources that fail to
// resolve are left for the collector, whose errors name the argument.
func validatePaths(cfg *config.Config) error {
	destAbs, err := resolve(cfg.DestDir)
	if err != nil {
		// Destination may not exist yet; nothing to cross-check.
		return nil
	}
	var sourceAbs []string
	for _, src := range cfg.Sources {
		if abs, err := resolve(src); err == nil {
			sourceAbs = append(sourceAbs, abs)
		}
	}
	return cfg.ValidatePaths(destAbs, sourceAbs)
}

// resolve returns the absolute path with symlinks resolved, for comparing
// destination and source hierarchies.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// confirmFunc returns the confirmation callback for this invocation.
// --yes and non-interactive stdin auto-confirm (scripted moves must keep
// working); otherwise the user is prompted and anything but an explicit
// yes declines.
func confirmFunc(cfg *config.Config) pipeline.Confirm {
	if cfg.AssumeYes || !term.IsTerminal(os.Stdin) {
		return func(string) bool { return true }
	}
	return func(prompt string) bool {
		fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
