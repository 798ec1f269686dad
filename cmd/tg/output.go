package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/quarryhill/taskgraph/internal/model"
	"github.com/quarryhill/taskgraph/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printTaskTable(task *model.Task) {
	fmt.Printf("ID:          %s\n", task.ID)
	fmt.Printf("Title:       %s\n", task.Title)
	fmt.Printf("Status:      %s\n", ui.RenderStatus(task.Status))
	if task.IsStory {
		fmt.Printf("Story:       yes\n")
	}
	if task.ParentStoryID != "" {
		fmt.Printf("Parent:      %s\n", task.ParentStoryID)
	}
	if task.Description != "" {
		fmt.Printf("Description: %s\n", task.Description)
	}
	fmt.Printf("Created By:  %s\n", task.CreatedBy)
	if !task.CreatedAt.IsZero() {
		fmt.Printf("Created At:  %s\n", task.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if !task.UpdatedAt.IsZero() {
		fmt.Printf("Updated At:  %s\n", task.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printTaskListTable(tasks []*model.Task, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTORY\tPARENT\tTITLE")
	for _, t := range tasks {
		title := t.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		story := ""
		if t.IsStory {
			story = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.Status,
			story,
			t.ParentStoryID,
			title,
		)
	}
	w.Flush()
	fmt.Printf("\n%d tasks (%d total)\n", len(tasks), total)
}

func printConflicts(conflicts []*model.Conflict) {
	if len(conflicts) == 0 {
		fmt.Println("no conflicts")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEVERITY\tTYPE\tTASK\tRESOURCE\tDETAIL")
	for _, c := range conflicts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ui.RenderSeverity(c.Severity),
			c.Type,
			c.TaskID,
			c.ResourceName,
			c.Description,
		)
	}
	w.Flush()
}
