// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/aero-research/internal/planner"
)

var planCmd = &cobra.Command{
	Use:   "plan [question]",
	Short: "Build a search plan without executing it",
	Long: `Plan decomposes a research question into terms, classification codes,
and a boolean query expression, and prints it without querying any
provider. Use --out to save the plan as a YAML file for inspection or
later re-execution.`,
	Args: cobra.ArbitraryArgs,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	query, err := queryFromFlags(cmd, args)
	if err != nil {
		return err
	}

	p := planner.New(&planner.StaticExtractor{}, cfg.Planner, log)
	plan, err := p.Plan(context.Background(), query)
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := planner.WritePlanFile(out, query, plan); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Plan written to %s\n", out)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	if plan.Degraded {
		fmt.Println("degraded: extractor unreachable, keyword fallback used")
	}
	fmt.Printf("terms:      %s\n", strings.Join(plan.Terms, ", "))
	fmt.Printf("codes:      %s\n", strings.Join(plan.Codes, ", "))
	if len(plan.Subsystems) > 0 {
		fmt.Printf("subsystems: %s\n", strings.Join(plan.Subsystems, ", "))
	}
	for _, code := range plan.Codes {
		if desc := planner.CodeDescription(code); desc != "" {
			fmt.Printf("  %-8s %s\n", code, desc)
		}
	}
	return nil
}

func init() {
	planCmd.Flags().String("query", "", "free-text research question")
	planCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	planCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	planCmd.Flags().StringSlice("org", nil, "filter by organization (repeatable)")
	planCmd.Flags().Bool("citations", true, "request citation data in the plan")
	planCmd.Flags().String("out", "", "write the plan to a YAML file")
	planCmd.Flags().Bool("json", false, "output the plan as JSON")

	rootCmd.AddCommand(planCmd)
}
