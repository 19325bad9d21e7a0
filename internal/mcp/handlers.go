package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/foresight/internal/evidence"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/model"
	"github.com/ziadkadry99/foresight/internal/report"
	"github.com/ziadkadry99/foresight/internal/scenario"
	"github.com/ziadkadry99/foresight/internal/scoring"
)

func (s *Server) handleSearchEvidence(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Evidence == nil {
		return mcp.NewToolResultError("evidence index is not available"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	var filter *evidence.Filter
	if id := request.GetString("doctrine_id", ""); id != "" {
		filter = &evidence.Filter{DoctrineID: &id}
	}

	results, err := s.deps.Evidence.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No passages found. Run `foresight ingest` to index source documents."), nil
	}
	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

func (s *Server) handleListForecasts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Forecasts == nil {
		return mcp.NewToolResultError("forecast store is not available"), nil
	}

	filter := forecast.ListFilter{
		Status: model.ForecastStatus(request.GetString("status", "")),
		Domain: model.Domain(request.GetString("domain", "")),
		Limit:  request.GetInt("limit", 20),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", filter.Status)), nil
	}
	if filter.Domain != "" && !filter.Domain.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown domain %q", filter.Domain)), nil
	}

	forecasts, err := s.deps.Forecasts.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing forecasts failed: %v", err)), nil
	}
	if len(forecasts) == 0 {
		return mcp.NewToolResultText("No forecasts found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d forecast(s):\n\n", len(forecasts))
	for _, f := range forecasts {
		fmt.Fprintf(&sb, "- %s [%s, %s] %.0f%% by %s: %s\n",
			f.ID, f.Domain, f.Status, f.Probability*100, f.Horizon, f.Event)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleGetForecast(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Forecasts == nil {
		return mcp.NewToolResultError("forecast store is not available"), nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	fc, err := s.deps.Forecasts.Get(ctx, id)
	if errors.Is(err, forecast.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no forecast with id %q", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading forecast failed: %v", err)), nil
	}

	outcomes, err := s.deps.Forecasts.Outcomes(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading outcomes failed: %v", err)), nil
	}
	var outcome *model.Outcome
	for i := range outcomes {
		if outcomes[i].ForecastID == id {
			outcome = &outcomes[i]
		}
	}
	return mcp.NewToolResultText(report.ForecastMarkdown(*fc, outcome)), nil
}

func (s *Server) handleCalibrationReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Forecasts == nil {
		return mcp.NewToolResultError("forecast store is not available"), nil
	}
	bins := request.GetInt("bins", s.deps.NumBins)
	if bins <= 0 {
		return mcp.NewToolResultError("bins must be positive"), nil
	}

	forecasts, outcomes, err := s.deps.Forecasts.Resolved(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading resolved forecasts failed: %v", err)), nil
	}

	rep, err := scoring.BuildCalibrationReport(forecasts, outcomes, bins)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("calibration failed: %v", err)), nil
	}

	var decomp *model.BrierDecomposition
	if d, err := scoring.BrierDecomposition(forecasts, outcomes); err == nil {
		decomp = &d
	}
	return mcp.NewToolResultText(report.CalibrationMarkdown(rep, decomp)), nil
}

func (s *Server) handleScenarioAlerts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.deps.Scenarios == nil {
		return mcp.NewToolResultError("scenario store is not available"), nil
	}
	setID, err := request.RequireString("set_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: set_id"), nil
	}

	set, err := s.deps.Scenarios.Latest(ctx, setID)
	if errors.Is(err, scenario.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no scenario set with id %q", setID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading scenario set failed: %v", err)), nil
	}

	alerts := scenario.CheckScenarioAlerts(set.Scenarios)
	if len(alerts) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No alerts for %q (revision %d).", set.Topic, set.Revision)), nil
	}
	return mcp.NewToolResultText(strings.Join(alerts, "\n")), nil
}

// formatSearchResults renders passages for agent consumption.
func formatSearchResults(results []evidence.SearchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d passage(s):\n", len(results))

	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Passage %d ---\n", i+1)
		m := r.Passage.Metadata
		if m.Source != "" {
			fmt.Fprintf(&sb, "Source: %s (chunk %d)\n", m.Source, m.Chunk)
		}
		if m.DoctrineID != "" {
			fmt.Fprintf(&sb, "Doctrine: %s\n", m.DoctrineID)
		}
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n\n", r.Similarity*100)
		sb.WriteString(r.Passage.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
