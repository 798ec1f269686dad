package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarryhill/taskgraph/internal/client"
)

var depCmd = &cobra.Command{
	Use:     "dep",
	Short:   "Manage task dependencies",
	GroupID: "graph",
}

var depAddCmd = &cobra.Command{
	Use:   "add <task-id> <depends-on-id>",
	Short: "Add a dependency edge (task depends on target)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, dependsOnID := args[0], args[1]

		_, err := tgClient.AddDependency(context.Background(), taskID, dependsOnID, actor)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && len(apiErr.Cycle) > 0 {
				return fmt.Errorf("dependency rejected, would create cycle: %s",
					strings.Join(apiErr.Cycle, " -> "))
			}
			return fmt.Errorf("adding dependency: %w", err)
		}

		fmt.Printf("%s now depends on %s\n", taskID, dependsOnID)
		return nil
	},
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <task-id> <depends-on-id>",
	Short: "Remove a dependency edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := tgClient.RemoveDependency(context.Background(), args[0], args[1]); err != nil {
			return fmt.Errorf("removing dependency: %w", err)
		}
		fmt.Printf("%s no longer depends on %s\n", args[0], args[1])
		return nil
	},
}

var depListCmd = &cobra.Command{
	Use:   "list <task-id>",
	Short: "List the dependencies of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := tgClient.GetDependencies(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting dependencies: %w", err)
		}

		if jsonOutput {
			printJSON(deps)
			return nil
		}
		if len(deps) == 0 {
			fmt.Println("no dependencies")
			return nil
		}
		for _, d := range deps {
			fmt.Printf("%s\n", d.DependsOnID)
		}
		return nil
	},
}

func init() {
	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depRemoveCmd)
	depCmd.AddCommand(depListCmd)
}
