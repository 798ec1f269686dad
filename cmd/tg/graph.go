package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:     "graph",
	Short:   "Dump the task graph (nodes and dependency edges)",
	GroupID: "graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		g, err := tgClient.GetGraph(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("getting graph: %w", err)
		}

		if jsonOutput {
			printJSON(g)
			return nil
		}

		for _, t := range g.Nodes {
			fmt.Printf("%s [%s] %s\n", t.ID, t.Status, t.Title)
		}
		if len(g.Edges) > 0 {
			fmt.Println()
			for _, e := range g.Edges {
				fmt.Printf("%s -> %s\n", e.Source, e.Target)
			}
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show task counts by status",
	GroupID: "graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := tgClient.GetStats(context.Background())
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		if jsonOutput {
			printJSON(stats)
			return nil
		}

		fmt.Printf("backlog:     %d\n", stats.TotalBacklog)
		fmt.Printf("todo:        %d\n", stats.TotalTodo)
		fmt.Printf("in_progress: %d\n", stats.TotalInProgress)
		fmt.Printf("done:        %d\n", stats.TotalDone)
		return nil
	},
}

func init() {
	graphCmd.Flags().Int("limit", 0, "maximum number of nodes (default server-side)")
}
