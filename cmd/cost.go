package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/config"
	"github.com/ziadkadry99/foresight/internal/doctrine"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/llm"
)

const (
	// Rough prompt sizes used by the dry-run estimate.
	instructionChars     = 1200
	evidenceSnippetChars = 500
	replyTokens          = 400
)

var costCmd = &cobra.Command{
	Use:   "cost [event]",
	Short: "Estimate API costs for forecasting without making any calls",
	Long: `Performs a dry run that counts the LLM calls a forecast needs (question
generation, one call per doctrine agent and the final elicitation), estimates
their tokens and prices them for each quality tier. Pass one event or a batch
file with --file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCost,
}

func init() {
	costCmd.Flags().String("file", "", "YAML batch file of events")
	rootCmd.AddCommand(costCmd)
}

func runCost(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	events, err := costEvents(cmd, args)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("nothing to estimate: pass an event or --file")
	}

	packs, err := doctrine.LoadDir(cfg.DoctrineDir, logger)
	if err != nil {
		return err
	}
	packs, err = doctrine.Select(packs, cfg.Doctrines)
	if err != nil {
		return err
	}
	agents := len(packs)
	callsPerEvent := agents + 2

	var inputTokens, outputTokens int
	for _, e := range events {
		prompt := strings.Repeat(" ", instructionChars+cfg.Forecast.EvidenceTopK*evidenceSnippetChars) + e
		inputTokens += callsPerEvent * llm.EstimateTokens(prompt)
		outputTokens += callsPerEvent * replyTokens
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Cost Estimate")
	fmt.Fprintln(out, "=============")
	fmt.Fprintf(out, "  Events:              %d\n", len(events))
	fmt.Fprintf(out, "  Doctrine agents:     %d\n", agents)
	fmt.Fprintf(out, "  LLM calls:           %d\n", callsPerEvent*len(events))
	fmt.Fprintf(out, "  Estimated tokens:    %d in / %d out\n", inputTokens, outputTokens)
	fmt.Fprintf(out, "  Estimated cost:      $%.4f\n\n", llm.EstimateCost(cfg.Model, inputTokens, outputTokens))

	fmt.Fprintln(out, "  Tier Comparison:")
	fmt.Fprintln(out, "  ────────────────────────────────────────")
	for _, tier := range []config.QualityTier{config.QualityLite, config.QualityNormal, config.QualityMax} {
		preset := config.GetPreset(cfg.Provider, tier)
		marker := " "
		if tier == cfg.Quality {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %-8s  ~$%.4f  (model: %s)\n", marker, tier,
			llm.EstimateCost(preset.Model, inputTokens, outputTokens), preset.Model)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  * = current configuration")
	fmt.Fprintf(out, "  Provider: %s\n", cfg.Provider)
	fmt.Fprintf(out, "  Model:    %s\n", cfg.Model)
	return nil
}

func costEvents(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) == 1 {
		return args, nil
	}
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()
	reqs, err := forecast.LoadBatch(f)
	if err != nil {
		return nil, err
	}
	events := make([]string, len(reqs))
	for i, r := range reqs {
		events[i] = r.Event
	}
	return events, nil
}

// printUsage reports token spend for a run on stderr so stdout stays
// machine-readable.
func printUsage(u llm.Usage, model string, elapsed time.Duration) {
	fmt.Fprintf(os.Stderr, "%d LLM calls (%d cached), %d input / %d output tokens, ~$%.4f with %s in %s\n",
		u.Calls, u.CachedCalls, u.InputTokens, u.OutputTokens, u.CostUSD, model, elapsed.Round(time.Second))
}
