package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhill/taskgraph/internal/client"
)

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	Short:   "Update fields of a task",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		req := &client.UpdateTaskRequest{UpdatedBy: actor}

		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			req.Title = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			req.Description = &v
		}
		if cmd.Flags().Changed("status") {
			v, _ := cmd.Flags().GetString("status")
			req.Status = &v
		}
		if cmd.Flags().Changed("parent") {
			v, _ := cmd.Flags().GetString("parent")
			req.ParentStoryID = &v
		}

		if req.Title == nil && req.Description == nil && req.Status == nil && req.ParentStoryID == nil {
			return fmt.Errorf("nothing to update (use --title, --description, --status, or --parent)")
		}

		task, err := tgClient.UpdateTask(context.Background(), id, req)
		if err != nil {
			return fmt.Errorf("updating task %s: %w", id, err)
		}

		if jsonOutput {
			printJSON(task)
		} else {
			fmt.Printf("Updated %s\n", task.ID)
		}
		return nil
	},
}

// doneCmd is shorthand for update --status done.
var doneCmd = &cobra.Command{
	Use:     "done <id>...",
	Short:   "Mark one or more tasks done",
	GroupID: "tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := "done"
		for _, id := range args {
			if _, err := tgClient.UpdateTask(context.Background(), id, &client.UpdateTaskRequest{
				Status:    &status,
				UpdatedBy: actor,
			}); err != nil {
				return fmt.Errorf("marking %s done: %w", id, err)
			}
			fmt.Printf("Done %s\n", id)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().String("title", "", "new title")
	updateCmd.Flags().StringP("description", "d", "", "new description")
	updateCmd.Flags().StringP("status", "s", "", "new status")
	updateCmd.Flags().StringP("parent", "p", "", "new parent story id (empty to detach)")
}
