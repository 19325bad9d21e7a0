package forecast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/model"
)

func setupRouter(t *testing.T, runner Runner) (*chi.Mux, *Store) {
	t.Helper()
	store := setupStore(t)
	r := chi.NewRouter()
	RegisterRoutes(r, store, runner, 10)
	return r, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCreateForecastRoute(t *testing.T) {
	llm := &fakeLLM{questions: "1. Is the ceasefire holding in the north?", probability: "0.7"}
	f := newTestForecaster(llm, nil, []DoctrineAgent{&fakeAgent{id: "a", response: "ok"}})
	r, store := setupRouter(t, f)

	w := do(t, r, http.MethodPost, "/api/forecasts",
		`{"event":"Ceasefire collapses","horizon":"2026-12-31","domain":"military"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var fc model.Forecast
	require.NoError(t, json.NewDecoder(w.Body).Decode(&fc))
	assert.Equal(t, 0.7, fc.Probability)

	stored, err := store.Get(context.Background(), fc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ceasefire collapses", stored.Event)

	w = do(t, r, http.MethodGet, "/api/forecasts/"+fc.ID, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateForecastRouteErrors(t *testing.T) {
	r, _ := setupRouter(t, newTestForecaster(&fakeLLM{probability: "no idea"}, nil, nil))

	w := do(t, r, http.MethodPost, "/api/forecasts", `{"event":"x","horizon":"2026-12-31","domain":"weather"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/forecasts", `{"event":"x","horizon":"2026-12-31","domain":"cyber"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	r, _ = setupRouter(t, nil)
	w = do(t, r, http.MethodPost, "/api/forecasts", `{"event":"x","horizon":"2026-12-31","domain":"cyber"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOutcomeAndCalibrationRoutes(t *testing.T) {
	r, store := setupRouter(t, nil)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleForecast("fc_1", model.DomainCyber, model.NewDate(2026, 6, 1), time.Now())))

	w := do(t, r, http.MethodGet, "/api/calibration/decomposition", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPost, "/api/forecasts/missing/outcome", `{"resolved":true,"resolution_date":"2026-05-01"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/forecasts/fc_1/outcome", `{"resolved":true,"resolution_date":"2026-05-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/calibration", "")
	require.Equal(t, http.StatusOK, w.Code)
	var report model.CalibrationReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	require.Len(t, report.Bins, 1)
	assert.Equal(t, 1, report.Bins[0].Count)
	assert.InDelta(t, 0.36, report.DomainScores["cyber"], 1e-9)

	w = do(t, r, http.MethodGet, "/api/calibration/decomposition", "")
	require.Equal(t, http.StatusOK, w.Code)
	var d model.BrierDecomposition
	require.NoError(t, json.NewDecoder(w.Body).Decode(&d))
	assert.InDelta(t, 0.36, d.Overall, 1e-6)

	w = do(t, r, http.MethodGet, "/api/forecasts?status=resolved_true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []model.Forecast
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 1)

	w = do(t, r, http.MethodGet, "/api/forecasts?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type recordingAudit struct{ entries []audit.Entry }

func (a *recordingAudit) Log(_ context.Context, e audit.Entry) error {
	a.entries = append(a.entries, e)
	return nil
}

func TestRoutesRecordAudit(t *testing.T) {
	llm := &fakeLLM{questions: "1. Is the ceasefire holding in the north?", probability: "0.7"}
	f := newTestForecaster(llm, nil, []DoctrineAgent{&fakeAgent{id: "a", response: "ok"}})
	store := setupStore(t)
	rec := &recordingAudit{}
	r := chi.NewRouter()
	RegisterRoutes(r, store, f, 10, WithAudit(rec))

	w := do(t, r, http.MethodPost, "/api/forecasts",
		`{"event":"Ceasefire collapses","horizon":"2026-12-31","domain":"military"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var fc model.Forecast
	require.NoError(t, json.NewDecoder(w.Body).Decode(&fc))

	w = do(t, r, http.MethodPost, "/api/forecasts/"+fc.ID+"/outcome", `{"resolved":false,"resolution_date":"2026-05-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/forecasts/missing/outcome", `{"resolved":true,"resolution_date":"2026-05-01"}`)
	require.Equal(t, http.StatusNotFound, w.Code)

	require.Len(t, rec.entries, 2)
	assert.Equal(t, audit.ActionForecastCreated, rec.entries[0].Action)
	assert.Equal(t, fc.ID, rec.entries[0].SubjectID)
	assert.Equal(t, audit.ActorAPI, rec.entries[0].Actor)
	assert.Equal(t, audit.ActionOutcomeRecorded, rec.entries[1].Action)
	assert.Equal(t, "open", rec.entries[1].PreviousValue)
	assert.Equal(t, "resolved_false", rec.entries[1].NewValue)
}
