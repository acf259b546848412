package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/forkfeat/internal/storage"
)

// NewDBCmd creates the 'db' command group.
func NewDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage event store files",
	}

	cmd.AddCommand(newDBInitCmd())

	return cmd
}

func newDBInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <path>",
		Short: "Create an empty event store",
		Long: `Create a SQLite event store with the codes and commands tables and the
indexes used by window queries. Running it on an existing store only
applies missing migrations.`,
		Example: `  forkfeat db init ./ift_forks.sqlite`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := storage.NewStorage(args[0], false)
			if err := store.Init(cmd.Context()); err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			if err := store.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Event store ready at %s\n", args[0])
			return nil
		},
	}
}
