package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhill/taskgraph/internal/client"
)

var createCmd = &cobra.Command{
	Use:     "create <title>",
	Short:   "Create a task or story",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		status, _ := cmd.Flags().GetString("status")
		parent, _ := cmd.Flags().GetString("parent")
		isStory, _ := cmd.Flags().GetBool("story")
		deps, _ := cmd.Flags().GetStringSlice("dep")

		task, err := tgClient.CreateTask(context.Background(), &client.CreateTaskRequest{
			Title:         args[0],
			Description:   description,
			Status:        status,
			ParentStoryID: parent,
			IsStory:       isStory,
			Dependencies:  deps,
			CreatedBy:     actor,
		})
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		if jsonOutput {
			printJSON(task)
		} else {
			fmt.Printf("Created %s\n", task.ID)
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringP("description", "d", "", "task description")
	createCmd.Flags().StringP("status", "s", "", "initial status (default backlog)")
	createCmd.Flags().StringP("parent", "p", "", "parent story id")
	createCmd.Flags().Bool("story", false, "create a story instead of a task")
	createCmd.Flags().StringSlice("dep", nil, "task id this task depends on (repeatable)")
}
