package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanglvm/forkfeat/internal/search"
	"github.com/khanglvm/forkfeat/internal/storage"
)

// NewEventsCmd creates the 'events' command with list and search subcommands.
func NewEventsCmd(g *globalFlags) *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect the event names recorded in the store",
		Long: `List or search the distinct command and eclipse command names in the
event store, for choosing group members in the config file.

Names are held in a search index built from the store on every call. With
--index the index is kept on disk at that path and refreshed in place.`,
	}

	cmd.PersistentFlags().StringVar(&indexPath, "index", "", "Keep the event name index at this path")

	cmd.AddCommand(newEventsListCmd(g, &indexPath))
	cmd.AddCommand(newEventsSearchCmd(g, &indexPath))

	return cmd
}

func newEventsListCmd(g *globalFlags, indexPath *string) *cobra.Command {
	var field string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List distinct event names with their counts",
		Example: `  forkfeat events list
  forkfeat events list --field eclipsecommand`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := fieldScope(field)
			if err != nil {
				return err
			}

			indexer, err := loadIndex(cmd, g, *indexPath)
			if err != nil {
				return err
			}
			defer indexer.Close()

			total, err := indexer.Count()
			if err != nil {
				return err
			}
			hits, err := indexer.All(scope, int(total))
			if err != nil {
				return err
			}
			return printHits(cmd, hits, jsonOutput, false)
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "Only list one field: command or eclipsecommand")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func newEventsSearchCmd(g *globalFlags, indexPath *string) *cobra.Command {
	var field string
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search event names by the words they contain",
		Long: `Search event names by word. Names are split at dots and CamelCase
boundaries, so "search" matches org.eclipse.search.ui.openSearchDialog and
"open" matches FileOpenCommand.`,
		Example: `  forkfeat events search search
  forkfeat events search "step into" --field eclipsecommand`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := fieldScope(field)
			if err != nil {
				return err
			}

			indexer, err := loadIndex(cmd, g, *indexPath)
			if err != nil {
				return err
			}
			defer indexer.Close()

			query := strings.Join(args, " ")
			var hits []search.Hit
			if scope != "" {
				hits, err = indexer.SearchByField(query, scope, limit)
			} else {
				hits, err = indexer.Search(query, limit)
			}
			if err != nil {
				return err
			}

			if len(hits) == 0 && !jsonOutput {
				fmt.Fprintf(cmd.OutOrStdout(), "No event names match %q.\n", query)
				return nil
			}
			return printHits(cmd, hits, jsonOutput, true)
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "Only search one field: command or eclipsecommand")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

// fieldScope validates a --field value; empty means every field.
func fieldScope(field string) (string, error) {
	if field == "" {
		return "", nil
	}
	f, err := storage.ParseField(field)
	if err != nil {
		return "", err
	}
	return f.String(), nil
}

// loadIndex reads the event names from the store into a search index,
// in memory or at path.
func loadIndex(cmd *cobra.Command, g *globalFlags, path string) (*search.Indexer, error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, _, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	names, err := store.EventNames(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to list event names: %w", err)
	}

	var indexer *search.Indexer
	if path != "" {
		indexer, err = search.NewIndexerWithPath(path, logger)
	} else {
		indexer, err = search.NewIndexer(logger)
	}
	if err != nil {
		return nil, err
	}

	if err := indexer.Replace(names); err != nil {
		indexer.Close()
		return nil, err
	}
	logger.Debug("event names indexed", zap.Int("names", len(names)), zap.String("index", path))
	return indexer, nil
}

func printHits(cmd *cobra.Command, hits []search.Hit, jsonOutput, withScore bool) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if withScore {
		fmt.Fprintln(tw, "FIELD\tNAME\tCOUNT\tSCORE")
		for _, h := range hits {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.3f\n", h.Field, h.Name, h.Count, h.Score)
		}
	} else {
		fmt.Fprintln(tw, "FIELD\tNAME\tCOUNT")
		for _, h := range hits {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", h.Field, h.Name, h.Count)
		}
	}
	return tw.Flush()
}
