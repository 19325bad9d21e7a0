package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/metrics"
	"github.com/ziadkadry99/foresight/internal/model"
)

// Generating produces a scenario set. *Generator implements it.
type Generating interface {
	Generate(ctx context.Context, req Request) ([]model.Scenario, error)
}

// Notifier receives the alerts raised by a monitoring pass.
// *notifications.Dispatcher implements it.
type Notifier interface {
	Notify(ctx context.Context, setID, topic string, revision int, alerts []string) error
}

// Deps are the collaborators the scenario endpoints need. Generator,
// Evidence, Notifier and Audit may be nil; generation then answers 503,
// monitoring uses only the evidence posted in the request body and alerts
// and changes are not recorded.
type Deps struct {
	Store     *Store
	Generator Generating
	Evidence  forecast.EvidenceRetriever
	Monitor   Monitor
	TopK      int
	Notifier  Notifier
	Audit     audit.Recorder
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// RegisterRoutes mounts the scenario API under /api/scenarios.
func RegisterRoutes(r chi.Router, d Deps) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	r.Route("/api/scenarios", func(r chi.Router) {
		r.Get("/", handleList(d))
		r.Post("/", handleCreate(d))
		r.Get("/{setID}", handleLatest(d))
		r.Get("/{setID}/history", handleHistory(d))
		r.Post("/{setID}/monitor", handleMonitor(d))
		r.Get("/{setID}/alerts", handleAlerts(d))
	})
}

func handleList(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sets, err := d.Store.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sets)
	}
}

func handleCreate(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Generator == nil {
			writeError(w, http.StatusServiceUnavailable, "scenario generation is not configured")
			return
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.Topic == "" {
			writeError(w, http.StatusBadRequest, "topic is required")
			return
		}
		if len(req.Evidence) == 0 {
			req.Evidence = retrieve(r.Context(), d, req.Topic)
		}

		scenarios, err := d.Generator.Generate(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		set, err := d.Store.Create(r.Context(), req.Topic, req.Domain, scenarios)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		audit.Record(r.Context(), d.Audit, d.Logger, audit.ScenarioCreated(audit.ActorAPI, set.ID, set.Topic, set.Scenarios))
		writeJSON(w, http.StatusCreated, set)
	}
}

func handleLatest(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set, err := d.Store.Latest(r.Context(), chi.URLParam(r, "setID"))
		if !writeStoreError(w, err) {
			writeJSON(w, http.StatusOK, set)
		}
	}
}

func handleHistory(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sets, err := d.Store.History(r.Context(), chi.URLParam(r, "setID"))
		if !writeStoreError(w, err) {
			writeJSON(w, http.StatusOK, sets)
		}
	}
}

type monitorRequest struct {
	Evidence []model.Evidence `json:"evidence"`
}

type monitorResponse struct {
	Set    *Set     `json:"set"`
	Alerts []string `json:"alerts"`
}

func handleMonitor(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setID := chi.URLParam(r, "setID")
		var req monitorRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
				return
			}
		}
		cur, err := d.Store.Latest(r.Context(), setID)
		if writeStoreError(w, err) {
			return
		}
		if len(req.Evidence) == 0 {
			req.Evidence = retrieve(r.Context(), d, cur.Topic)
		}

		set, err := d.Store.Monitor(r.Context(), setID, req.Evidence, d.Monitor)
		if writeStoreError(w, err) {
			return
		}
		d.Metrics.IncMonitorPass()
		audit.Record(r.Context(), d.Audit, d.Logger,
			audit.ScenarioMonitored(audit.ActorAPI, set.ID, set.Revision, cur.Scenarios, set.Scenarios))

		alerts := CheckScenarioAlerts(set.Scenarios)
		if d.Notifier != nil {
			if err := d.Notifier.Notify(r.Context(), set.ID, set.Topic, set.Revision, alerts); err != nil {
				d.Logger.Warn("alert notification failed", "set", set.ID, "stage", "monitor", "error", err)
			}
		}
		writeJSON(w, http.StatusOK, monitorResponse{Set: set, Alerts: alerts})
	}
}

func handleAlerts(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set, err := d.Store.Latest(r.Context(), chi.URLParam(r, "setID"))
		if !writeStoreError(w, err) {
			writeJSON(w, http.StatusOK, CheckScenarioAlerts(set.Scenarios))
		}
	}
}

func retrieve(ctx context.Context, d Deps, query string) []model.Evidence {
	if d.Evidence == nil {
		return nil
	}
	topK := d.TopK
	if topK <= 0 {
		topK = 10
	}
	ev, err := d.Evidence.Retrieve(ctx, query, topK)
	if err != nil {
		d.Logger.Warn("evidence retrieval failed", "stage", "scenario", "error", err)
		d.Metrics.IncEvidenceFailure()
		return nil
	}
	return ev
}

// writeStoreError writes an error response for err and reports whether it did.
func writeStoreError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
