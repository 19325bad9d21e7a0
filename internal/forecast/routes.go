package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/model"
	"github.com/ziadkadry99/foresight/internal/scoring"
)

// Runner produces a forecast for a request. *Forecaster implements it.
type Runner interface {
	Forecast(ctx context.Context, req Request) (*model.Forecast, error)
}

// RouteOption configures RegisterRoutes.
type RouteOption func(*routeConfig)

type routeConfig struct {
	audit audit.Recorder
}

// WithAudit records created forecasts and outcomes in rec.
func WithAudit(rec audit.Recorder) RouteOption {
	return func(c *routeConfig) { c.audit = rec }
}

// RegisterRoutes mounts forecast, outcome and calibration endpoints. runner
// may be nil, in which case POST /api/forecasts answers 503.
func RegisterRoutes(r chi.Router, store *Store, runner Runner, numBins int, opts ...RouteOption) {
	var cfg routeConfig
	for _, o := range opts {
		o(&cfg)
	}
	r.Route("/api/forecasts", func(r chi.Router) {
		r.Get("/", handleList(store))
		r.Post("/", handleCreate(store, runner, cfg.audit))
		r.Get("/{id}", handleGet(store))
		r.Post("/{id}/outcome", handleOutcome(store, cfg.audit))
	})
	r.Get("/api/calibration", handleCalibration(store, numBins))
	r.Get("/api/calibration/decomposition", handleDecomposition(store))
}

func handleList(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := ListFilter{
			Status: model.ForecastStatus(q.Get("status")),
			Domain: model.Domain(q.Get("domain")),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		if filter.Domain != "" && !filter.Domain.Valid() {
			writeError(w, http.StatusBadRequest, "unknown domain")
			return
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}

		forecasts, err := store.List(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, forecasts)
	}
}

func handleCreate(store *Store, runner Runner, rec audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			writeError(w, http.StatusServiceUnavailable, "forecasting is not configured")
			return
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		fc, err := runner.Forecast(r.Context(), req)
		switch {
		case errors.Is(err, ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, ErrUnparsableProbability):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		case err != nil:
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		if err := store.Save(r.Context(), fc); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		audit.Record(r.Context(), rec, nil, audit.ForecastCreated(audit.ActorAPI, fc))
		writeJSON(w, http.StatusCreated, fc)
	}
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fc, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, fc)
	}
}

type outcomeRequest struct {
	Resolved       bool       `json:"resolved"`
	ResolutionDate model.Date `json:"resolution_date"`
	Notes          string     `json:"notes"`
}

func handleOutcome(store *Store, rec audit.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req outcomeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.ResolutionDate.IsZero() {
			writeError(w, http.StatusBadRequest, "resolution_date is required")
			return
		}

		o := model.Outcome{
			ForecastID:     chi.URLParam(r, "id"),
			Resolved:       req.Resolved,
			ResolutionDate: req.ResolutionDate,
			Notes:          req.Notes,
		}
		fc, err := store.Get(r.Context(), o.ForecastID)
		if err == nil {
			err = store.RecordOutcome(r.Context(), o)
		}
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		audit.Record(r.Context(), rec, nil, audit.OutcomeRecorded(audit.ActorAPI, o, fc.Status))
		writeJSON(w, http.StatusCreated, o)
	}
}

func handleCalibration(store *Store, numBins int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bins := numBins
		if v := r.URL.Query().Get("bins"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				bins = n
			}
		}
		forecasts, outcomes, err := store.Resolved(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		report, err := scoring.BuildCalibrationReport(forecasts, outcomes, bins)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func handleDecomposition(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		forecasts, outcomes, err := store.Resolved(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		d, err := scoring.BrierDecomposition(forecasts, outcomes)
		if errors.Is(err, scoring.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
