package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show details of a task",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		task, err := tgClient.GetTask(context.Background(), id)
		if err != nil {
			return fmt.Errorf("getting task %s: %w", id, err)
		}

		if jsonOutput {
			printJSON(task)
			return nil
		}

		printTaskTable(task)
		if len(task.Dependencies) > 0 {
			fmt.Println()
			fmt.Println("Depends On:")
			for _, d := range task.Dependencies {
				fmt.Printf("  %s\n", d.DependsOnID)
			}
		}

		g, err := tgClient.GetTaskResources(context.Background(), id)
		if err == nil && len(g.Edges) > 0 {
			names := make(map[string]string, len(g.Nodes))
			for _, r := range g.Nodes {
				names[r.ID] = fmt.Sprintf("%s:%s", r.Kind, r.Name)
			}
			fmt.Println()
			fmt.Println("Resources:")
			for _, e := range g.Edges {
				fmt.Printf("  %s %s (%.2f)\n", e.Action, names[e.ResourceID], e.Confidence)
			}
		}
		return nil
	},
}
