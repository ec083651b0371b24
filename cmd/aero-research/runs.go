// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/aero-research/internal/runstore"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List, show, and export stored research runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		summaries, err := store.ListRuns(context.Background())
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Println("No stored runs.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFINISHED\tDOCS\tEDGES\tQUERY")
		for _, s := range summaries {
			query := s.QueryText
			if len(query) > 50 {
				query = query[:47] + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
				s.ID, s.FinishedAt.Format("2006-01-02 15:04"), s.Documents, s.Edges, query)
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.LoadRun(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		formatRunResult(run)
		return nil
	},
}

var runsExportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Export a stored run to YAML or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		format, _ := cmd.Flags().GetString("format")
		var path string
		switch format {
		case "yaml", "":
			path, err = store.ExportYAML(context.Background(), args[0])
		case "json":
			path, err = store.ExportJSON(context.Background(), args[0])
		default:
			return fmt.Errorf("unsupported format %q: use yaml or json", format)
		}
		if err != nil {
			return err
		}
		fmt.Println("Exported to", path)
		return nil
	},
}

func openStore() (*runstore.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return runstore.NewStore(cfg.Store)
}

func init() {
	runsShowCmd.Flags().Bool("json", false, "output the run as JSON")
	runsExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)

	rootCmd.AddCommand(runsCmd)
}
