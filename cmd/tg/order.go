package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quarryhill/taskgraph/internal/ui"
)

var orderCmd = &cobra.Command{
	Use:     "order",
	Short:   "Show a safe execution order for a task subset",
	GroupID: "graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		story, _ := cmd.Flags().GetString("story")
		statuses, _ := cmd.Flags().GetStringSlice("status")

		order, err := tgClient.GetExecutionOrder(context.Background(), story, statuses)
		if err != nil {
			return fmt.Errorf("getting execution order: %w", err)
		}

		if jsonOutput {
			printJSON(order)
			return nil
		}

		if len(order.Cycle) > 0 {
			fmt.Println("cycle blocks ordering:")
			fmt.Printf("  %s\n", strings.Join(order.Cycle, " -> "))
			return fmt.Errorf("dependency cycle detected")
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "POS\tID\tTITLE\tAFTER")
		for _, t := range order.Tasks {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
				t.Position, t.ID, t.Title, strings.Join(t.Dependencies, ", "))
		}
		return w.Flush()
	},
}

var storiesCmd = &cobra.Command{
	Use:     "stories",
	Short:   "Show the health of every story",
	GroupID: "graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := tgClient.GetStoryHealth(context.Background())
		if err != nil {
			return fmt.Errorf("getting story health: %w", err)
		}

		if jsonOutput {
			printJSON(health)
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tSUGGESTED\tDONE\tTOTAL\tPCT\tTITLE")
		for _, h := range health {
			suggested := string(h.SuggestedStatus)
			if h.Mismatch {
				suggested = ui.RenderAccent(suggested + " !")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.0f%%\t%s\n",
				h.StoryID,
				ui.RenderStatus(h.Status),
				suggested,
				h.Counts.Done,
				h.Counts.Total(),
				h.CompletionPercentage,
				h.Title,
			)
		}
		return w.Flush()
	},
}

func init() {
	orderCmd.Flags().String("story", "", "restrict to children of this story")
	orderCmd.Flags().StringSliceP("status", "s", nil, "restrict to these statuses (repeatable)")
}
