package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/db"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/model"
	"github.com/ziadkadry99/foresight/internal/notifications"
	"github.com/ziadkadry99/foresight/internal/scenario"
)

type fixture struct {
	dash      *Dashboard
	forecasts *forecast.Store
	scenarios *scenario.Store
	trail     *audit.Store
	feed      *Feed
}

func setupTest(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	f := &fixture{
		forecasts: forecast.NewStore(database),
		scenarios: scenario.NewStore(database),
		trail:     audit.NewStore(database),
	}
	f.feed = NewFeed(f.trail, nil)
	f.dash = New(Deps{
		Forecasts:     f.forecasts,
		Scenarios:     f.scenarios,
		Notifications: notifications.NewStore(database),
		Audit:         f.trail,
		Feed:          f.feed,
	})
	return f
}

func setupRouter(d *Dashboard) chi.Router {
	r := chi.NewRouter()
	d.RegisterRoutes(r)
	return r
}

func saveForecast(t *testing.T, store *forecast.Store, id string, p float64) {
	t.Helper()
	fc := &model.Forecast{
		ID:          id,
		Event:       "Event " + id,
		Horizon:     model.NewDate(2026, time.June, 30),
		Probability: p,
		Domain:      model.DomainMilitary,
		CreatedAt:   time.Now(),
	}
	if err := store.Save(context.Background(), fc); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestStatsEndpoint(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	saveForecast(t, f.forecasts, "fc_a", 0.8)
	saveForecast(t, f.forecasts, "fc_b", 0.3)
	if err := f.forecasts.RecordOutcome(ctx, model.Outcome{ForecastID: "fc_a", Resolved: true, ResolutionDate: model.NewDate(2026, time.May, 1)}); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	_, err := f.scenarios.Create(ctx, "Strait crisis", nil, []model.Scenario{
		{Title: "Escalation", ProbabilityWeight: 0.7},
		{Title: "Stalemate", ProbabilityWeight: 0.3},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := httptest.NewRecorder()
	setupRouter(f.dash).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var stats statsResponse
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if stats.Forecasts[model.ForecastOpen] != 1 || stats.Forecasts[model.ForecastResolvedTrue] != 1 {
		t.Errorf("forecast counts = %v", stats.Forecasts)
	}
	if stats.ScenarioSets != 1 {
		t.Errorf("ScenarioSets = %d, want 1", stats.ScenarioSets)
	}
	if stats.ActiveAlerts != 1 {
		t.Errorf("ActiveAlerts = %d, want 1 (dominant scenario)", stats.ActiveAlerts)
	}
	if stats.Brier == nil {
		t.Fatal("expected a Brier score")
	}
	if d := *stats.Brier - 0.04; d > 1e-9 || d < -1e-9 {
		t.Errorf("Brier = %f, want 0.04", *stats.Brier)
	}
}

func TestStatsEndpointEmpty(t *testing.T) {
	f := setupTest(t)
	w := httptest.NewRecorder()
	setupRouter(f.dash).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "brier") {
		t.Errorf("expected no brier score without outcomes: %s", w.Body.String())
	}
}

func TestRecentEndpoint(t *testing.T) {
	f := setupTest(t)
	ctx := context.Background()
	for i := range 3 {
		e := audit.ForecastsExpired(audit.ActorCLI, model.NewDate(2026, time.January, 1), i+1)
		if err := f.feed.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	r := setupRouter(f.dash)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/recent?limit=2", nil))
	var entries []audit.Entry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/recent?limit=zero", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestServeIndex(t *testing.T) {
	f := setupTest(t)
	w := httptest.NewRecorder()
	setupRouter(f.dash).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "/ws/events") {
		t.Error("expected the page to open the event feed")
	}
}

func TestFeedFanOut(t *testing.T) {
	feed := NewFeed(nil, nil)
	a, cancelA := feed.Subscribe()
	b, cancelB := feed.Subscribe()
	defer cancelB()

	if err := feed.Log(context.Background(), audit.Entry{Action: audit.ActionScenarioCreated}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	for _, ch := range []<-chan audit.Entry{a, b} {
		if e := <-ch; e.Action != audit.ActionScenarioCreated {
			t.Errorf("got %q", e.Action)
		}
	}

	cancelA()
	cancelA()
	if feed.Subscribers() != 1 {
		t.Errorf("Subscribers = %d, want 1", feed.Subscribers())
	}
	if _, ok := <-a; ok {
		t.Error("expected cancelled channel to be closed")
	}
}

func TestFeedDropsForSlowSubscriber(t *testing.T) {
	feed := NewFeed(nil, nil)
	ch, cancel := feed.Subscribe()
	defer cancel()
	for range subscriberBuffer + 5 {
		if err := feed.Log(context.Background(), audit.Entry{}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered %d entries, want %d", len(ch), subscriberBuffer)
	}
}

type failingRecorder struct{}

func (failingRecorder) Log(context.Context, audit.Entry) error { return errors.New("read-only") }

func TestFeedDoesNotPublishFailedEntries(t *testing.T) {
	feed := NewFeed(failingRecorder{}, nil)
	ch, cancel := feed.Subscribe()
	defer cancel()
	if err := feed.Log(context.Background(), audit.Entry{}); err == nil {
		t.Fatal("expected the inner error")
	}
	if len(ch) != 0 {
		t.Error("failed entry was published")
	}
}

func dial(t *testing.T, r http.Handler) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWebSocketStreamsAuditEntries(t *testing.T) {
	f := setupTest(t)
	conn := dial(t, setupRouter(f.dash))

	// A pong proves the handler has subscribed.
	if err := conn.WriteJSON(clientMessage{Type: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ev event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "pong" {
		t.Fatalf("expected pong, got %q", ev.Type)
	}

	entry := audit.ScenarioCreated(audit.ActorAPI, "set_1", "Strait crisis", nil)
	if err := f.feed.Log(context.Background(), entry); err != nil {
		t.Fatalf("Log: %v", err)
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "audit" || ev.Entry == nil {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Entry.SubjectID != "set_1" || ev.Entry.Action != audit.ActionScenarioCreated {
		t.Errorf("entry = %+v", ev.Entry)
	}
}

func TestWebSocketRejectsUnknownMessages(t *testing.T) {
	f := setupTest(t)
	conn := dial(t, setupRouter(f.dash))

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	var ev event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != "error" || ev.Message != "invalid message format" {
		t.Errorf("unexpected event %+v", ev)
	}

	if err := conn.WriteJSON(clientMessage{Type: "subscribe"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(ev.Message, "unknown message type: subscribe") {
		t.Errorf("unexpected event %+v", ev)
	}
}
