/*
Package main is the entry point for the forkfeat CLI.

forkfeat extracts fork-prediction features from a study database of
annotated IDE interaction logs and writes them as an ARFF (or CSV) table.

Usage:
  forkfeat [command]

Available Commands:
  extract     Extract the feature table from the event store
  schema      Print the ARFF header for the current configuration
  classify    Label every annotated event as Fork or NotFork
  bin         Show the category of counts under the configured thresholds
  events      Inspect the event names recorded in the store
  db          Manage event store files
  config      Create or inspect the configuration file
  version     Show version information

Examples:
  # Extract with the default windows into ./ift_features-count-_-_<date>.arff
  forkfeat extract --db ../IFT_Forks_DB/ift_forks.sqlite

  # Add pairwise sums and run four events at a time
  forkfeat extract --pairwise --workers 4
*/
package main

import (
	"fmt"
	"os"

	"github.com/khanglvm/forkfeat/internal/cli"
	"github.com/khanglvm/forkfeat/internal/version"
)

// Version information (set via ldflags during build)
var (
	ver    = "dev"
	commit = "none"
	date   = "unknown"
)

func main() {
	version.Version, version.Commit, version.Date = ver, commit, date

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
