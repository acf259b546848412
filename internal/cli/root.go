/*
Package cli implements the forkfeat commands.

Every command resolves its configuration the same way: defaults, then the
YAML file named by --config (or forkfeat.yaml in the working directory),
then FORKFEAT_* environment variables, then flags given on the command
line. Flags only override when they are set explicitly.
*/
package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanglvm/forkfeat/internal/config"
	"github.com/khanglvm/forkfeat/internal/logging"
	"github.com/khanglvm/forkfeat/internal/storage"
	"github.com/khanglvm/forkfeat/internal/version"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	storePath  string
	logLevel   string
	logFormat  string

	before    int
	forkStart int
	forkEnd   int
	after     int

	variant  string
	category bool
	binary   bool
	pairwise bool
	relation string
}

// NewRootCmd creates the forkfeat command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "forkfeat",
		Short: "Extract fork-prediction features from IDE interaction logs",
		Long: `forkfeat turns a study database of annotated IDE sessions into a
feature table for classifier training.

For every annotated candidate fork it counts interaction events in a window
before and after the fork, derives category, boolean, and pairwise-sum
copies of those counts, labels the row Fork or NotFork, and writes the
table as ARFF (or CSV).`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file (default: ./"+config.DefaultFileName+" if present)")
	pf.StringVar(&g.storePath, "db", "", "Path to the SQLite event store")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format: console or json")
	pf.IntVar(&g.before, "before", 0, "Start of the before window, seconds relative to the event")
	pf.IntVar(&g.forkStart, "fork-start", 0, "Start of the fork window, seconds")
	pf.IntVar(&g.forkEnd, "fork-end", 0, "End of the fork window, seconds")
	pf.IntVar(&g.after, "after", 0, "End of the after window, seconds")
	pf.StringVar(&g.variant, "variant", "", "Base attribute variant: count or binary")
	pf.BoolVar(&g.category, "category", true, "Add category__ copies of each feature")
	pf.BoolVar(&g.binary, "binary", true, "Add binary__ copies of each feature")
	pf.BoolVar(&g.pairwise, "pairwise", false, "Add pairwise sums of the base features")
	pf.StringVar(&g.relation, "relation", "", "ARFF relation name")

	rootCmd.AddCommand(NewExtractCmd(g))
	rootCmd.AddCommand(NewSchemaCmd(g))
	rootCmd.AddCommand(NewClassifyCmd(g))
	rootCmd.AddCommand(NewBinCmd(g))
	rootCmd.AddCommand(NewEventsCmd(g))
	rootCmd.AddCommand(NewDBCmd())
	rootCmd.AddCommand(NewConfigCmd(g))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// loadConfig resolves the effective configuration for cmd.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	}

	if changed("db") {
		cfg.Store.Path = g.storePath
	}
	if changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = g.logFormat
	}
	if changed("before") {
		cfg.Windows.Before = g.before
	}
	if changed("fork-start") {
		cfg.Windows.ForkStart = g.forkStart
	}
	if changed("fork-end") {
		cfg.Windows.ForkEnd = g.forkEnd
	}
	if changed("after") {
		cfg.Windows.After = g.after
	}
	if changed("variant") {
		cfg.Features.Variant = g.variant
	}
	if changed("category") {
		cfg.Features.Category = g.category
	}
	if changed("binary") {
		cfg.Features.Binary = g.binary
	}
	if changed("pairwise") {
		cfg.Features.Pairwise = g.pairwise
	}
	if changed("relation") {
		cfg.Output.Relation = g.relation
	}

	if err := config.CheckOverrides(cfg, g.configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the run logger. Every entry carries the run id.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, string, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return nil, "", err
	}
	runID := uuid.NewString()
	return logger.With(zap.String("run_id", runID)), runID, nil
}

// openStore opens the configured event store.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	store := storage.NewStorage(cfg.Store.Path, cfg.Store.ReadOnly)
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}
	return store, nil
}
