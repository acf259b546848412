package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewBinCmd creates the 'bin' command.
func NewBinCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bin <count>...",
		Short: "Show the category of counts under the configured thresholds",
		Long: `Map each count to the label of the first threshold, in ascending key
order, whose key is greater than or equal to the count. Counts above the
largest key take the largest key's label.`,
		Example: `  forkfeat bin 0 1 2 6 13`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			thresholds, err := cfg.Thresholds()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("count %q is not an integer", arg)
				}
				label, err := thresholds.Bin(n)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%d\t%s\n", n, label)
			}
			return nil
		},
	}

	return cmd
}
