package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khanglvm/forkfeat/internal/features"
)

// classifiedEvent is one row of 'classify --json' output.
type classifiedEvent struct {
	Participant   string `json:"participant"`
	VideoTime     string `json:"videotime"`
	Retrospective string `json:"retrospective"`
	Forks         int    `json:"forks"`
	Label         string `json:"label,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewClassifyCmd creates the 'classify' command.
func NewClassifyCmd(g *globalFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Label every annotated event as Fork or NotFork",
		Long: `Reconcile the coders' fork count with each participant's retrospective
answer and print the resulting class of every annotated event.

Rows whose signals cannot be reconciled are listed and make the command fail.`,
		Example: `  forkfeat classify
  forkfeat classify --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, g, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runClassify(cmd *cobra.Command, g *globalFlags, jsonOutput bool) error {
	ctx := cmd.Context()

	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.AnnotatedEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to read annotated events: %w", err)
	}

	rows := make([]classifiedEvent, 0, len(events))
	tally := make(map[features.Label]int)
	var bad int
	for _, ev := range events {
		row := classifiedEvent{
			Participant:   ev.Participant,
			VideoTime:     ev.VideoTime,
			Retrospective: ev.Retrospective,
			Forks:         ev.Forks,
		}
		label, err := features.Classify(ev)
		if err != nil {
			var labelErr *features.LabelError
			if !errors.As(err, &labelErr) {
				return err
			}
			row.Error = labelErr.Reason
			bad++
		} else {
			row.Label = string(label)
			tally[label]++
		}
		rows = append(rows, row)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode events: %w", err)
		}
	} else {
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PARTICIPANT\tVIDEOTIME\tRETROSPECTIVE\tFORKS\tLABEL")
		for _, r := range rows {
			label := r.Label
			if r.Error != "" {
				label = "✗ " + r.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.Participant, r.VideoTime, r.Retrospective, r.Forks, label)
		}
		tw.Flush()

		fmt.Fprintf(out, "\n%d events: ", len(rows))
		for i, l := range features.Labels() {
			if i > 0 {
				fmt.Fprint(out, ", ")
			}
			fmt.Fprintf(out, "%d %s", tally[l], l)
		}
		fmt.Fprintln(out)
	}

	if bad > 0 {
		return fmt.Errorf("%d annotated events have inconsistent fork conditions", bad)
	}
	return nil
}
