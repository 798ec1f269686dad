package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhill/taskgraph/internal/client"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tasks",
	GroupID: "tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetStringSlice("status")
		story, _ := cmd.Flags().GetString("story")
		stories, _ := cmd.Flags().GetBool("stories")
		search, _ := cmd.Flags().GetString("search")
		sort, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		resp, err := tgClient.ListTasks(context.Background(), &client.ListTasksRequest{
			Status:  status,
			StoryID: story,
			Stories: stories,
			Search:  search,
			Sort:    sort,
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}

		if jsonOutput {
			printJSON(resp.Tasks)
		} else {
			printTaskListTable(resp.Tasks, resp.Total)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringSliceP("status", "s", nil, "filter by status (repeatable)")
	listCmd.Flags().String("story", "", "filter by parent story id")
	listCmd.Flags().Bool("stories", false, "list only stories")
	listCmd.Flags().String("search", "", "search in title and description")
	listCmd.Flags().String("sort", "", "sort column (created_at, updated_at, title, status; prefix - for descending)")
	listCmd.Flags().Int("limit", 20, "maximum number of tasks to return")
	listCmd.Flags().Int("offset", 0, "offset for pagination")
}
