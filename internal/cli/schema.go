package cli

import (
	"github.com/spf13/cobra"

	"github.com/khanglvm/forkfeat/internal/arff"
	"github.com/khanglvm/forkfeat/internal/config"
	"github.com/khanglvm/forkfeat/internal/features"
)

// NewSchemaCmd creates the 'schema' command.
func NewSchemaCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the ARFF header for the current configuration",
		Long: `Print the @RELATION and @ATTRIBUTE declarations that 'extract' would
write, without reading the event store.`,
		Example: `  forkfeat schema
  forkfeat schema --pairwise --variant binary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			_, schema, err := buildSchema(cfg)
			if err != nil {
				return err
			}
			return arff.WriteHeader(cmd.OutOrStdout(), schema)
		},
	}

	return cmd
}

// buildSchema derives the feature catalog and attribute layout from cfg.
func buildSchema(cfg *config.Config) ([]features.Feature, *features.Schema, error) {
	groups, err := cfg.EventGroups()
	if err != nil {
		return nil, nil, err
	}
	catalog, err := features.Catalog(groups)
	if err != nil {
		return nil, nil, err
	}
	opts, err := cfg.SchemaOptions()
	if err != nil {
		return nil, nil, err
	}
	schema, err := features.BuildSchema(catalog, opts)
	if err != nil {
		return nil, nil, err
	}
	return catalog, schema, nil
}
