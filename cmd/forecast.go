package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/model"
	"github.com/ziadkadry99/foresight/internal/progress"
	"github.com/ziadkadry99/foresight/internal/report"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Produce and inspect probability forecasts",
}

var forecastRunCmd = &cobra.Command{
	Use:   "run <event>",
	Short: "Forecast a single event",
	Long: `Retrieves evidence, breaks the event into sub-questions, consults the
doctrine council and elicits a final probability. The forecast is saved and
printed as a Markdown card.`,
	Args: cobra.ExactArgs(1),
	RunE: runForecast,
}

var forecastBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Forecast every event listed in a YAML file",
	Long: `Runs the forecaster for each entry of a YAML list, one after another.
Failed entries are reported at the end and do not stop the batch.

Each entry has the fields event, horizon (YYYY-MM-DD), domain and optionally
event_category (a CAMEO code) and base_rate.`,
	RunE: runForecastBatch,
}

var forecastListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved forecasts, newest first",
	RunE:  runForecastList,
}

var forecastShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one forecast and its outcome",
	Args:  cobra.ExactArgs(1),
	RunE:  runForecastShow,
}

var forecastExpireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Mark open forecasts whose horizon has passed as expired",
	RunE:  runForecastExpire,
}

func init() {
	forecastRunCmd.Flags().String("horizon", "", "resolution date (YYYY-MM-DD)")
	forecastRunCmd.Flags().String("domain", string(model.DomainGeopolitics), "forecast domain")
	forecastRunCmd.Flags().String("category", "", "CAMEO event code, e.g. 13 or 043")
	forecastRunCmd.Flags().Float64("base-rate", 0, "historical base rate in [0, 1]")
	forecastRunCmd.Flags().Bool("json", false, "print the forecast as JSON")
	_ = forecastRunCmd.MarkFlagRequired("horizon")

	forecastBatchCmd.Flags().String("file", "", "YAML file of events")
	_ = forecastBatchCmd.MarkFlagRequired("file")

	forecastListCmd.Flags().String("status", "", "filter by status (open, resolved_true, resolved_false, expired)")
	forecastListCmd.Flags().String("domain", "", "filter by domain")
	forecastListCmd.Flags().Int("limit", 0, "maximum forecasts to list")
	forecastListCmd.Flags().Bool("json", false, "print as JSON")

	forecastShowCmd.Flags().Bool("json", false, "print as JSON")

	forecastExpireCmd.Flags().String("as-of", "", "expire forecasts with a horizon before this date (default today)")

	forecastCmd.AddCommand(forecastRunCmd, forecastBatchCmd, forecastListCmd, forecastShowCmd, forecastExpireCmd)
	rootCmd.AddCommand(forecastCmd)
}

func forecastRequest(cmd *cobra.Command, event string) (forecast.Request, error) {
	horizonStr, _ := cmd.Flags().GetString("horizon")
	domainStr, _ := cmd.Flags().GetString("domain")
	category, _ := cmd.Flags().GetString("category")
	baseRate, _ := cmd.Flags().GetFloat64("base-rate")

	horizon, err := model.ParseDate(horizonStr)
	if err != nil {
		return forecast.Request{}, err
	}
	domain, err := model.ParseDomain(domainStr)
	if err != nil {
		return forecast.Request{}, err
	}

	req := forecast.Request{Event: event, Horizon: horizon, Domain: domain}
	if category != "" {
		cat, ok := model.ClassifyCAMEO(category)
		if !ok {
			return forecast.Request{}, fmt.Errorf("unknown CAMEO code %q", category)
		}
		req.EventCategory = &cat
	}
	if cmd.Flags().Changed("base-rate") {
		req.BaseRate = &baseRate
	}
	return req, req.Validate()
}

func runForecast(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	req, err := forecastRequest(cmd, args[0])
	if err != nil {
		return err
	}

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	f, err := ws.forecaster(ctx)
	if err != nil {
		return err
	}

	fc, err := f.Forecast(ctx, req)
	if err != nil {
		return fmt.Errorf("forecast failed: %w", err)
	}
	if err := ws.forecastStore().Save(ctx, fc); err != nil {
		return fmt.Errorf("saving forecast: %w", err)
	}
	ws.record(ctx, audit.ForecastCreated(audit.ActorCLI, fc))

	printUsage(ws.client.Usage(), ws.cfg.Model, time.Since(start))

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(fc)
	}
	fmt.Fprint(cmd.OutOrStdout(), report.ForecastMarkdown(*fc, nil))
	return nil
}

func runForecastBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	path, _ := cmd.Flags().GetString("file")
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening batch file: %w", err)
	}
	reqs, err := forecast.LoadBatch(file)
	file.Close()
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events to forecast.")
		return nil
	}

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	f, err := ws.forecaster(ctx)
	if err != nil {
		return err
	}

	res, err := forecast.RunBatch(ctx, f, auditedSaver{ws, ws.forecastStore()}, reqs, progress.NewReporter("Forecasting"), logger)
	printUsage(ws.client.Usage(), ws.cfg.Model, time.Since(start))
	if err != nil {
		return fmt.Errorf("batch interrupted after %d forecasts: %w", len(res.Forecasts), err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Forecast %d of %d events.\n", len(res.Forecasts), len(reqs))
	for _, fc := range res.Forecasts {
		fmt.Fprintf(out, "  %s  %3.0f%%  %s\n", fc.ID, fc.Probability*100, fc.Event)
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d events failed", len(res.Failed))
	}
	return nil
}

func runForecastList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	domain, _ := cmd.Flags().GetString("domain")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := forecast.ListFilter{
		Status: model.ForecastStatus(status),
		Domain: model.Domain(domain),
		Limit:  limit,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	if filter.Domain != "" && !filter.Domain.Valid() {
		return fmt.Errorf("unknown domain %q", domain)
	}

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	forecasts, err := ws.forecastStore().List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(forecasts)
	}
	out := cmd.OutOrStdout()
	if len(forecasts) == 0 {
		fmt.Fprintln(out, "No forecasts found.")
		return nil
	}
	for _, fc := range forecasts {
		fmt.Fprintf(out, "%-28s %-14s %-14s %3.0f%%  %s  %s\n",
			fc.ID, fc.Status, fc.Domain, fc.Probability*100, fc.Horizon, truncate(fc.Event, 60))
	}
	return nil
}

func runForecastShow(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	fc, outcome, err := loadForecastWithOutcome(cmd, ws, args[0])
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(struct {
			Forecast *model.Forecast `json:"forecast"`
			Outcome  *model.Outcome  `json:"outcome,omitempty"`
		}{fc, outcome})
	}
	fmt.Fprint(cmd.OutOrStdout(), report.ForecastMarkdown(*fc, outcome))
	return nil
}

func loadForecastWithOutcome(cmd *cobra.Command, ws *workspace, id string) (*model.Forecast, *model.Outcome, error) {
	store := ws.forecastStore()
	fc, err := store.Get(cmd.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	outcomes, err := store.Outcomes(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	for i := range outcomes {
		if outcomes[i].ForecastID == id {
			return fc, &outcomes[i], nil
		}
	}
	return fc, nil, nil
}

func runForecastExpire(cmd *cobra.Command, args []string) error {
	asOf := model.DateOf(time.Now())
	if s, _ := cmd.Flags().GetString("as-of"); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return err
		}
		asOf = d
	}

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	n, err := ws.forecastStore().ExpireOverdue(cmd.Context(), asOf)
	if err != nil {
		return err
	}
	if n > 0 {
		ws.record(cmd.Context(), audit.ForecastsExpired(audit.ActorCLI, asOf, n))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Expired %d forecast(s) with a horizon before %s.\n", n, asOf)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
