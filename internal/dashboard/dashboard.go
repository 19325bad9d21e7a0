// Package dashboard serves a live overview of forecasts, calibration and
// scenario activity, with a websocket feed of changes as they are recorded.
package dashboard

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/notifications"
	"github.com/ziadkadry99/foresight/internal/scenario"
)

// Dashboard provides the HTML overview and its JSON and websocket endpoints.
type Dashboard struct {
	forecasts     *forecast.Store
	scenarios     *scenario.Store
	notifications *notifications.Store
	trail         *audit.Store
	feed          *Feed
	logger        *slog.Logger
}

// Deps are the stores the dashboard reads. Feed may be nil, in which case
// the websocket endpoint only answers pings.
type Deps struct {
	Forecasts     *forecast.Store
	Scenarios     *scenario.Store
	Notifications *notifications.Store
	Audit         *audit.Store
	Feed          *Feed
	Logger        *slog.Logger
}

// New creates a new Dashboard.
func New(d Deps) *Dashboard {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		forecasts:     d.Forecasts,
		scenarios:     d.Scenarios,
		notifications: d.Notifications,
		trail:         d.Audit,
		feed:          d.Feed,
		logger:        logger,
	}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/api/dashboard/stats", d.handleStats)
	r.Get("/api/dashboard/recent", d.handleRecent)
	r.Get("/ws/events", d.handleWebSocket)
}
