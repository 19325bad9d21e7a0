package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/model"
	"github.com/ziadkadry99/foresight/internal/report"
	"github.com/ziadkadry99/foresight/internal/scenario"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Generate and monitor scenario sets",
}

var scenarioGenerateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a scenario set for a topic",
	Long: `Asks the model for a set of alternative futures with narratives, key
assumptions and early-warning signposts, and saves it as revision 1.`,
	Args: cobra.ExactArgs(1),
	RunE: runScenarioGenerate,
}

var scenarioMonitorCmd = &cobra.Command{
	Use:   "monitor <set-id>",
	Short: "Re-evaluate signposts and weights against new evidence",
	Long: `Runs one monitoring pass over the newest revision of a set and saves the
result as the next revision. Evidence comes from --evidence-file (a JSON list
of {source, snippet, relevance_score}) or, without it, from the evidence index
searched with the set's topic.`,
	Args: cobra.ExactArgs(1),
	RunE: runScenarioMonitor,
}

var scenarioAlertsCmd = &cobra.Command{
	Use:   "alerts <set-id>",
	Short: "Show alerts for the newest revision of a set",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioAlerts,
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenario sets",
	RunE:  runScenarioList,
}

func init() {
	scenarioGenerateCmd.Flags().Int("count", 0, "number of scenarios (default from config)")
	scenarioGenerateCmd.Flags().String("domain", "", "domain of the topic")
	scenarioGenerateCmd.Flags().String("evidence-file", "", "JSON evidence list to ground the scenarios")

	scenarioMonitorCmd.Flags().String("evidence-file", "", "JSON evidence list to monitor against")

	scenarioCmd.AddCommand(scenarioGenerateCmd, scenarioMonitorCmd, scenarioAlertsCmd, scenarioListCmd)
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarioGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	topic := args[0]

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	req := scenario.Request{Topic: topic, Count: ws.cfg.Scenario.Count}
	if n, _ := cmd.Flags().GetInt("count"); n > 0 {
		req.Count = n
	}
	if s, _ := cmd.Flags().GetString("domain"); s != "" {
		d, err := model.ParseDomain(s)
		if err != nil {
			return err
		}
		req.Domain = &d
	}

	path, _ := cmd.Flags().GetString("evidence-file")
	req.Evidence, err = loadEvidence(path)
	if err != nil {
		return err
	}
	if path == "" {
		if r := ws.retriever(ctx); r != nil {
			if req.Evidence, err = r.Retrieve(ctx, topic, ws.cfg.Forecast.EvidenceTopK); err != nil {
				logger.Warn("evidence retrieval failed", "stage", "scenario", "error", err)
				ws.metrics.IncEvidenceFailure()
			}
		}
	}

	client, err := ws.llmClient(ctx)
	if err != nil {
		return err
	}
	scenarios, err := scenario.NewGenerator(client, scenario.WithGeneratorLogger(logger)).Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("generating scenarios: %w", err)
	}

	set, err := ws.scenarioStore().Create(ctx, topic, req.Domain, scenarios)
	if err != nil {
		return fmt.Errorf("saving scenario set: %w", err)
	}
	ws.record(ctx, audit.ScenarioCreated(audit.ActorCLI, set.ID, set.Topic, set.Scenarios))

	fmt.Fprintf(cmd.ErrOrStderr(), "Saved scenario set %s (revision %d)\n", set.ID, set.Revision)
	fmt.Fprint(cmd.OutOrStdout(), report.ScenarioMarkdown(set.Topic, set.Scenarios, scenario.CheckScenarioAlerts(set.Scenarios)))
	return nil
}

func runScenarioMonitor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	setID := args[0]

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	store := ws.scenarioStore()

	path, _ := cmd.Flags().GetString("evidence-file")
	evidence, err := loadEvidence(path)
	if err != nil {
		return err
	}
	cur, err := store.Latest(ctx, setID)
	if err != nil {
		return err
	}
	if path == "" {
		r := ws.retriever(ctx)
		if r == nil {
			return fmt.Errorf("no evidence index available: pass --evidence-file")
		}
		if evidence, err = r.Retrieve(ctx, cur.Topic, ws.cfg.Forecast.EvidenceTopK); err != nil {
			return fmt.Errorf("retrieving evidence: %w", err)
		}
	}

	set, err := store.Monitor(ctx, setID, evidence, ws.scenarioMonitor())
	if err != nil {
		return fmt.Errorf("monitoring %s: %w", setID, err)
	}
	ws.metrics.IncMonitorPass()
	ws.record(ctx, audit.ScenarioMonitored(audit.ActorCLI, set.ID, set.Revision, cur.Scenarios, set.Scenarios))

	alerts := scenario.CheckScenarioAlerts(set.Scenarios)
	if err := ws.notifier().Notify(ctx, set.ID, set.Topic, set.Revision, alerts); err != nil {
		logger.Warn("alert notification failed", "set", set.ID, "stage", "monitor", "error", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Monitored %s against %d evidence items (revision %d)\n", setID, len(evidence), set.Revision)
	fmt.Fprint(cmd.OutOrStdout(), report.ScenarioMarkdown(set.Topic, set.Scenarios, alerts))
	return nil
}

func runScenarioAlerts(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	set, err := ws.scenarioStore().Latest(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	alerts := scenario.CheckScenarioAlerts(set.Scenarios)
	if len(alerts) == 0 {
		fmt.Fprintf(out, "No alerts for %q (revision %d).\n", set.Topic, set.Revision)
		return nil
	}
	for _, a := range alerts {
		fmt.Fprintln(out, a)
	}
	return nil
}

func runScenarioList(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	sets, err := ws.scenarioStore().List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(sets) == 0 {
		fmt.Fprintln(out, "No scenario sets found.")
		return nil
	}
	for _, s := range sets {
		fmt.Fprintf(out, "%-24s rev %-3d %d scenarios  %s\n", s.ID, s.Revision, len(s.Scenarios), truncate(s.Topic, 60))
	}
	return nil
}

// loadEvidence reads a JSON evidence list. An empty path yields nil.
func loadEvidence(path string) ([]model.Evidence, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evidence file: %w", err)
	}
	var items []model.Evidence
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding evidence file %s: %w", path, err)
	}
	return items, nil
}
