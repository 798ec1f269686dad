package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Short:   "Delete one or more tasks",
	GroupID: "tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			if err := tgClient.DeleteTask(context.Background(), id); err != nil {
				return fmt.Errorf("deleting %s: %w", id, err)
			}
			fmt.Printf("Deleted %s\n", id)
		}
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:     "events <id>",
	Short:   "Show the event history of a task",
	GroupID: "tasks",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := tgClient.GetEvents(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting events for %s: %w", args[0], err)
		}

		if jsonOutput {
			printJSON(events)
			return nil
		}
		for _, e := range events {
			ts := e.CreatedAt.Format("2006-01-02 15:04:05")
			fmt.Printf("[%s] %s %s\n", ts, e.Topic, e.Actor)
		}
		return nil
	},
}
