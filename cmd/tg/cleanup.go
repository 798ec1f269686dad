package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:     "cleanup <status>",
	Short:   "Bulk-delete tasks at a status, preserving completion evidence",
	GroupID: "graph",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := tgClient.Cleanup(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("cleanup: %w", err)
		}

		if jsonOutput {
			printJSON(result)
			return nil
		}

		fmt.Printf("deleted %d, preserved %d\n", len(result.DeletedIDs), len(result.Preserved))
		for _, id := range result.DeletedIDs {
			fmt.Printf("  deleted %s\n", id)
		}
		if len(result.Preserved) > 0 {
			fmt.Println()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tREASON\tPROGRESS\tTITLE")
			for _, p := range result.Preserved {
				progress := ""
				if p.TotalCount > 0 {
					progress = fmt.Sprintf("%d/%d (%.0f%%)", p.DoneCount, p.TotalCount, p.CompletionPercentage)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Reason, progress, p.Title)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
		return nil
	},
}
