// Command shelve is the CLI entrypoint for the alphabetical file shelver.
// It builds the root command and maps its outcome to the process exit code.
package main

import (
	"fmt"
	"os"

	"github.com/backmassage/shelve/internal/cli"
)

// version is injected at build time via -ldflags.
// When built with plain "go build", it retains its default.
var version = "1.0.0-dev"

func main() {
	rootCmd := cli.NewRootCommand(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "shelve: %v\n", err)
		os.Exit(1)
	}
}
