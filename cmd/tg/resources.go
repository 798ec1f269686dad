package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarryhill/taskgraph/internal/model"
)

var resourcesCmd = &cobra.Command{
	Use:     "resources",
	Short:   "Manage the resources a task touches",
	GroupID: "graph",
}

var resourcesSetCmd = &cobra.Command{
	Use:   "set <task-id> <kind:name[:path]=action[@confidence]>...",
	Short: "Declare the full resource set of a task",
	Long: `Declare the full resource set of a task. Replaces nothing; entries
are upserted by (kind, name, action). Examples:

  tg resources set tk-abc file:auth.go=modifies
  tg resources set tk-abc file:auth.go:internal/auth/auth.go=modifies@0.9 api:login=creates`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID := args[0]

		entries := make([]model.ResourceEntry, 0, len(args)-1)
		for _, spec := range args[1:] {
			entry, err := parseResourceEntry(spec)
			if err != nil {
				return fmt.Errorf("invalid resource %q: %w", spec, err)
			}
			entries = append(entries, entry)
		}

		resp, err := tgClient.SaveResources(context.Background(), taskID, entries)
		if err != nil {
			return fmt.Errorf("saving resources: %w", err)
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}

		fmt.Printf("Saved %d resources for %s\n", len(resp.ResourceIDs), resp.TaskID)
		if len(resp.Conflicts) > 0 {
			fmt.Println()
			printConflicts(resp.Conflicts)
		}
		return nil
	},
}

var resourcesShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show the resources a task touches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := tgClient.GetTaskResources(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting resources: %w", err)
		}

		if jsonOutput {
			printJSON(g)
			return nil
		}
		if len(g.Edges) == 0 {
			fmt.Println("no resources")
			return nil
		}
		names := make(map[string]*model.Resource, len(g.Nodes))
		for _, r := range g.Nodes {
			names[r.ID] = r
		}
		for _, e := range g.Edges {
			r := names[e.ResourceID]
			line := fmt.Sprintf("%s %s:%s", e.Action, r.Kind, r.Name)
			if r.Path != "" {
				line += " (" + r.Path + ")"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var conflictsCmd = &cobra.Command{
	Use:     "conflicts <task-id>",
	Short:   "Show resource conflicts with other active tasks",
	GroupID: "graph",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conflicts, err := tgClient.GetConflicts(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting conflicts: %w", err)
		}
		if jsonOutput {
			printJSON(conflicts)
			return nil
		}
		printConflicts(conflicts)
		return nil
	},
}

var usageCmd = &cobra.Command{
	Use:     "usage <resource-id>",
	Short:   "Show every task referencing a resource",
	GroupID: "graph",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		usage, err := tgClient.GetResourceUsage(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting usage: %w", err)
		}
		if jsonOutput {
			printJSON(usage)
			return nil
		}
		fmt.Printf("%s:%s\n", usage.Resource.Kind, usage.Resource.Name)
		for _, u := range usage.Uses {
			fmt.Printf("  %s %s\n", u.Action, u.TaskID)
		}
		return nil
	},
}

// parseResourceEntry parses "kind:name[:path]=action[@confidence]".
// Confidence defaults to 1.0.
func parseResourceEntry(spec string) (model.ResourceEntry, error) {
	lhs, rhs, ok := strings.Cut(spec, "=")
	if !ok {
		return model.ResourceEntry{}, fmt.Errorf("expected kind:name=action")
	}

	parts := strings.SplitN(lhs, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return model.ResourceEntry{}, fmt.Errorf("expected kind:name before =")
	}
	entry := model.ResourceEntry{
		Kind:       model.ResourceKind(parts[0]),
		Name:       parts[1],
		Confidence: 1.0,
	}
	if len(parts) == 3 {
		entry.Path = parts[2]
	}

	action, conf, hasConf := strings.Cut(rhs, "@")
	if action == "" {
		return model.ResourceEntry{}, fmt.Errorf("action is required after =")
	}
	entry.Action = model.ResourceAction(action)
	if hasConf {
		f, err := strconv.ParseFloat(conf, 64)
		if err != nil {
			return model.ResourceEntry{}, fmt.Errorf("invalid confidence %q", conf)
		}
		entry.Confidence = f
	}
	return entry, nil
}

func init() {
	resourcesCmd.AddCommand(resourcesSetCmd)
	resourcesCmd.AddCommand(resourcesShowCmd)
}
