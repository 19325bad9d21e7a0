package dashboard

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/model"
	"github.com/ziadkadry99/foresight/internal/scenario"
	"github.com/ziadkadry99/foresight/internal/scoring"
)

const (
	defaultRecent = 20
	maxRecent     = 100
)

// statsResponse is the JSON response for the stats endpoint. Brier is
// omitted until at least one forecast has resolved.
type statsResponse struct {
	Forecasts            map[model.ForecastStatus]int `json:"forecasts"`
	ScenarioSets         int                          `json:"scenario_sets"`
	ActiveAlerts         int                          `json:"active_alerts"`
	PendingNotifications int                          `json:"pending_notifications"`
	Brier                *float64                     `json:"brier,omitempty"`
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	forecasts, err := d.forecasts.List(ctx, forecast.ListFilter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	counts := map[model.ForecastStatus]int{
		model.ForecastOpen:          0,
		model.ForecastResolvedTrue:  0,
		model.ForecastResolvedFalse: 0,
		model.ForecastExpired:       0,
	}
	for _, fc := range forecasts {
		counts[fc.Status]++
	}

	resp := statsResponse{Forecasts: counts}

	if d.scenarios != nil {
		sets, err := d.scenarios.List(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.ScenarioSets = len(sets)
		for _, s := range sets {
			resp.ActiveAlerts += len(scenario.CheckScenarioAlerts(s.Scenarios))
		}
	}

	if d.notifications != nil {
		pending, err := d.notifications.Pending(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.PendingNotifications = len(pending)
	}

	resolved, outcomes, err := d.forecasts.Resolved(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(resolved) > 0 {
		if decomp, err := scoring.BrierDecomposition(resolved, outcomes); err == nil {
			resp.Brier = &decomp.Overall
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (d *Dashboard) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecent
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecent)
	}

	entries := []audit.Entry{}
	if d.trail != nil {
		var err error
		entries, err = d.trail.Query(r.Context(), audit.QueryFilter{Limit: limit})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
