package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/foresight/internal/db"
	"github.com/ziadkadry99/foresight/internal/evidence"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/model"
	"github.com/ziadkadry99/foresight/internal/scenario"
)

// mockStore implements evidence.Store for testing.
type mockStore struct {
	passages []evidence.Passage
}

func (m *mockStore) Add(_ context.Context, passages []evidence.Passage) error {
	m.passages = append(m.passages, passages...)
	return nil
}

func (m *mockStore) Search(_ context.Context, _ string, limit int, filter *evidence.Filter) ([]evidence.SearchResult, error) {
	var results []evidence.SearchResult
	for _, p := range m.passages {
		if filter != nil && filter.DoctrineID != nil && p.Metadata.DoctrineID != *filter.DoctrineID {
			continue
		}
		results = append(results, evidence.SearchResult{Passage: p, Similarity: 0.9})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

func (m *mockStore) DeleteBySource(context.Context, string) error { return nil }
func (m *mockStore) Persist(context.Context, string) error        { return nil }
func (m *mockStore) Load(context.Context, string) error           { return nil }
func (m *mockStore) Count() int                                   { return len(m.passages) }

func callTool(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

type fixture struct {
	srv       *Server
	forecasts *forecast.Store
	setID     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	fcStore := forecast.NewStore(database)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []float64{0.8, 0.3} {
		fc := &model.Forecast{
			ID:                 []string{"fc_a", "fc_b"}[i],
			Event:              []string{"Ceasefire holds", "Sanctions lifted"}[i],
			Horizon:            model.NewDate(2026, time.June, 30),
			Probability:        p,
			ConfidenceInterval: model.DefaultConfidenceInterval,
			Domain:             model.DomainMilitary,
			DoctrineAgentsUsed: []string{"sun_tzu"},
			CreatedAt:          created.Add(time.Duration(i) * time.Hour),
			Status:             model.ForecastOpen,
		}
		require.NoError(t, fcStore.Save(ctx, fc))
	}
	require.NoError(t, fcStore.RecordOutcome(ctx, model.Outcome{
		ForecastID: "fc_a", Resolved: true, ResolutionDate: model.NewDate(2026, time.May, 1), Notes: "Held.",
	}))

	scStore := scenario.NewStore(database)
	set, err := scStore.Create(ctx, "Strait crisis", nil, []model.Scenario{
		{ID: "sc_1", Title: "Escalation", ProbabilityWeight: 0.7, Status: model.ScenarioActive},
		{ID: "sc_2", Title: "Stalemate", ProbabilityWeight: 0.3, Status: model.ScenarioActive},
	})
	require.NoError(t, err)

	ev := &mockStore{passages: []evidence.Passage{
		{ID: "a#0", Content: "Naval units repositioned.", Metadata: evidence.Metadata{Source: "a.txt"}},
		{ID: "b#0", Content: "All warfare is based on deception.", Metadata: evidence.Metadata{Source: "b.md", DoctrineID: "sun_tzu"}},
	}}

	srv := NewServer(Deps{Evidence: ev, Forecasts: fcStore, Scenarios: scStore})
	return fixture{srv: srv, forecasts: fcStore, setID: set.ID}
}

func TestToolDefinitions(t *testing.T) {
	for _, tool := range []mcp.Tool{searchEvidenceTool, listForecastsTool, getForecastTool, calibrationReportTool, scenarioAlertsTool} {
		assert.NotEmpty(t, tool.Name)
		assert.NotEmpty(t, tool.Description, tool.Name)
	}
	assert.Equal(t, "search_evidence", searchEvidenceTool.Name)
	assert.Equal(t, "scenario_alerts", scenarioAlertsTool.Name)
}

func TestNewServerDefaultsBins(t *testing.T) {
	srv := NewServer(Deps{})
	require.NotNil(t, srv.mcp)
	assert.Equal(t, 10, srv.deps.NumBins)
}

func TestHandleSearchEvidence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.srv.handleSearchEvidence(ctx, callTool(map[string]any{"query": "naval"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Found 2 passage(s)")

	res, err = f.srv.handleSearchEvidence(ctx, callTool(map[string]any{"query": "deception", "doctrine_id": "sun_tzu"}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "Found 1 passage(s)")
	assert.Contains(t, text, "Doctrine: sun_tzu")

	res, err = f.srv.handleSearchEvidence(ctx, callTool(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = NewServer(Deps{}).handleSearchEvidence(ctx, callTool(map[string]any{"query": "x"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleListAndGetForecast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.srv.handleListForecasts(ctx, callTool(map[string]any{"status": "open"}))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, "1 forecast(s)")
	assert.Contains(t, text, "fc_b [military, open] 30% by 2026-06-30: Sanctions lifted")

	res, err = f.srv.handleListForecasts(ctx, callTool(map[string]any{"domain": "weather"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = f.srv.handleGetForecast(ctx, callTool(map[string]any{"id": "fc_a"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text = resultText(t, res)
	assert.Contains(t, text, "# Ceasefire holds")
	assert.Contains(t, text, "The event occurred (resolved 2026-05-01). Held.")

	res, err = f.srv.handleGetForecast(ctx, callTool(map[string]any{"id": "fc_missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleCalibrationReport(t *testing.T) {
	f := newFixture(t)

	res, err := f.srv.handleCalibrationReport(context.Background(), callTool(map[string]any{}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := resultText(t, res)
	// One resolved forecast at 0.8 that occurred: Brier (0.8-1)^2 = 0.04.
	assert.Contains(t, text, "| 0.85 | 0.8000 | 1.0000 | 1 | +0.2000 |")
	assert.Contains(t, text, "| military | 0.0400 |")
	assert.Contains(t, text, "| sun_tzu | 0.0400 |")

	res, err = f.srv.handleCalibrationReport(context.Background(), callTool(map[string]any{"bins": float64(0)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleScenarioAlerts(t *testing.T) {
	f := newFixture(t)

	res, err := f.srv.handleScenarioAlerts(context.Background(), callTool(map[string]any{"set_id": f.setID}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "Scenario 'Escalation' is dominant (P=70%)", resultText(t, res))

	res, err = f.srv.handleScenarioAlerts(context.Background(), callTool(map[string]any{"set_id": "set_nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
