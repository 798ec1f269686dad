package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarryhill/taskgraph/internal/snapshot"
	"github.com/quarryhill/taskgraph/internal/store/postgres"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export the full task graph as JSONL",
	GroupID: "system",
	// Export reads the database directly; no client connection needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		dbURL := os.Getenv("TASKGRAPH_DATABASE_URL")
		if dbURL == "" {
			return fmt.Errorf("TASKGRAPH_DATABASE_URL is required")
		}

		store, err := postgres.New(dbURL)
		if err != nil {
			return err
		}
		defer store.Close()

		w := os.Stdout
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		if err := snapshot.ExportJSONL(context.Background(), store, w); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "-", "output file (- for stdout)")
}
