package main

import (
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarryhill/taskgraph/internal/client"
	"github.com/quarryhill/taskgraph/internal/ui"
)

var (
	serverURL  string
	jsonOutput bool
	actor      string

	tgClient client.TaskGraphClient
)

func defaultActor() string {
	out, err := exec.Command("git", "config", "user.name").Output()
	if err == nil {
		name := strings.TrimSpace(string(out))
		if name != "" {
			return name
		}
	}
	return "unknown"
}

func defaultServer() string {
	if s := os.Getenv("TASKGRAPH_SERVER"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func serverToken() string {
	if t := os.Getenv("TASKGRAPH_AUTH_TOKEN"); t != "" {
		return t
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "tg <command>",
	Short: "CLI client for the taskgraph service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		tgClient = client.NewHTTPClient(serverURL, serverToken())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if tgClient != nil {
			tgClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "HTTP server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", defaultActor(), "actor name for created_by fields")

	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Tasks:"},
		&cobra.Group{ID: "graph", Title: "Graph:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false

	// Tasks
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(eventsCmd)

	// Graph
	rootCmd.AddCommand(depCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(usageCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(storiesCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(statsCmd)

	// System
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
