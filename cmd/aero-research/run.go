// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/aero-research/internal/pipeline"
	"github.com/pdiddy/aero-research/internal/planner"
	"github.com/pdiddy/aero-research/internal/provider"
	"github.com/pdiddy/aero-research/internal/runstore"
	"github.com/pdiddy/aero-research/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run [question]",
	Short: "Run a research question against all providers",
	Long: `Run plans a free-text aerospace research question, fans it out to the
patent, preprint, journal, and agency-project providers, and prints the
deduplicated document set with citation influence and classification
trends. Provider failures degrade the result instead of failing it.

The completed run is saved to the local run store unless --no-save is set.`,
	Args: cobra.ArbitraryArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if granularity, _ := cmd.Flags().GetString("granularity"); granularity != "" {
		cfg.Trends.Granularity = types.TimeGranularity(granularity)
	}
	if maxResults, _ := cmd.Flags().GetInt("max-results"); maxResults > 0 {
		cfg.Orchestrator.MaxResults = maxResults
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	p := pipeline.New(&planner.StaticExtractor{}, registry, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result pipeline.RunResult
	var runErr error
	if planPath, _ := cmd.Flags().GetString("plan"); planPath != "" {
		pf, err := planner.ReadPlanFile(planPath)
		if err != nil {
			return err
		}
		result, runErr = p.RunPlanned(ctx, pf.Query, pf.Plan)
	} else {
		query, err := queryFromFlags(cmd, args)
		if err != nil {
			return err
		}
		result, runErr = p.Run(ctx, query)
	}
	if runErr != nil {
		var cancelled *types.CancellationError
		if !errors.As(runErr, &cancelled) {
			return runErr
		}
		fmt.Fprintln(os.Stderr, "run cancelled; printing partial results")
	}

	noSave, _ := cmd.Flags().GetBool("no-save")
	if !noSave && runErr == nil {
		store, err := runstore.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveRun(context.Background(), result); err != nil {
			log.Warn("saving run failed", zap.Error(err))
		}
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	formatRunResult(result)
	return runErr
}

// queryFromFlags assembles the ResearchQuery from flags and positional
// arguments.
func queryFromFlags(cmd *cobra.Command, args []string) (types.ResearchQuery, error) {
	text, _ := cmd.Flags().GetString("query")
	if text == "" && len(args) > 0 {
		text = strings.Join(args, " ")
	}

	query := types.ResearchQuery{Text: text}
	query.Organizations, _ = cmd.Flags().GetStringSlice("org")
	query.WantCitations, _ = cmd.Flags().GetBool("citations")

	if from, _ := cmd.Flags().GetString("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return query, fmt.Errorf("parsing --from: %w", err)
		}
		query.DateFrom = t
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return query, fmt.Errorf("parsing --to: %w", err)
		}
		query.DateTo = t
	}
	return query, nil
}

// buildRegistry constructs the production provider adapters.
func buildRegistry(cfg types.PipelineConfig) (*provider.Registry, error) {
	client := &http.Client{Timeout: cfg.Orchestrator.Timeout}
	ua := cfg.Orchestrator.UserAgent
	maxResults := cfg.Orchestrator.MaxResults

	return provider.NewRegistry(
		&provider.PatentsView{
			Client:     client,
			APIKey:     secretDefault("patentsview-api-key", os.Getenv("PATENTSVIEW_API_KEY")),
			UserAgent:  ua,
			MaxResults: maxResults,
		},
		&provider.Arxiv{Client: client, UserAgent: ua, MaxResults: maxResults},
		&provider.OpenAlex{
			Client:     client,
			Email:      secretDefault("openalex-email", os.Getenv("OPENALEX_EMAIL")),
			UserAgent:  ua,
			MaxResults: maxResults,
		},
		&provider.Techport{Client: client, UserAgent: ua, MaxResults: maxResults},
	)
}

func formatRunResult(result pipeline.RunResult) {
	fmt.Printf("run %s\n", result.ID)
	if result.Plan.Degraded {
		fmt.Println("plan: degraded (keyword fallback)")
	}
	fmt.Printf("terms: %s\n", strings.Join(result.Plan.Terms, ", "))
	if len(result.Plan.Codes) > 0 {
		fmt.Printf("codes: %s\n", strings.Join(result.Plan.Codes, ", "))
	}

	names := make([]string, 0, len(result.ProviderStatus))
	for name := range result.ProviderStatus {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		line := fmt.Sprintf("  %-12s %s", name, result.ProviderStatus[name])
		if reason := result.Reasons[name]; reason != "" {
			line += " (" + reason + ")"
		}
		fmt.Println(line)
	}

	fmt.Printf("\n%d documents (%d records dropped)\n", len(result.Documents), result.Dropped)
	for _, d := range result.Documents {
		date := "undated"
		if !d.PublicationDate.IsZero() {
			date = d.PublicationDate.Format("2006-01-02")
		}
		title := d.Title
		if len(title) > 70 {
			title = title[:67] + "..."
		}
		fmt.Printf("  %.4f  %-10s  %s  [%s]\n",
			result.Graph.Influence[d.ID], date, title, strings.Join(d.Sources, ","))
	}

	if len(result.Graph.Edges) > 0 {
		fmt.Printf("\n%d citation edges resolved\n", len(result.Graph.Edges))
	}
	if len(result.Trends) > 0 {
		fmt.Println("\ntrends:")
		for _, b := range result.Trends {
			fmt.Printf("  %-10s  %-30s  %3d  %.2f\n", b.Window, b.Code, b.Count, b.Score)
		}
	}
}

func init() {
	runCmd.Flags().String("query", "", "free-text research question")
	runCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	runCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	runCmd.Flags().StringSlice("org", nil, "filter by organization (repeatable)")
	runCmd.Flags().Bool("citations", true, "resolve citation data and build the graph")
	runCmd.Flags().String("granularity", "", "trend granularity: month, quarter, or year")
	runCmd.Flags().Int("max-results", 0, "maximum results per provider")
	runCmd.Flags().String("plan", "", "execute a saved plan file instead of planning the question")
	runCmd.Flags().Bool("json", false, "output the full run result as JSON")
	runCmd.Flags().Bool("no-save", false, "do not persist the run to the run store")

	rootCmd.AddCommand(runCmd)
}
