package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/dashboard"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/notifications"
	"github.com/ziadkadry99/foresight/internal/scenario"
	"github.com/ziadkadry99/foresight/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API server",
	Long: `Starts the foresight REST API: forecasts, outcomes, calibration,
scenario sets, notifications and the audit trail, plus /healthz, Prometheus
/metrics and a live dashboard on /. When no LLM provider
can be configured the read-only endpoints still work and generation answers
503.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().Int("port", 0, "port to listen on (default from config)")
	rootCmd.AddCommand(serverCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer ws.Close()

	port := ws.cfg.Server.Port
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		port = p
	}

	var (
		runner    forecast.Runner
		generator scenario.Generating
	)
	if f, err := ws.forecaster(ctx); err != nil {
		logger.Warn("forecasting disabled", "error", err)
	} else {
		runner = f
		generator = scenario.NewGenerator(ws.client, scenario.WithGeneratorLogger(logger))
	}

	var ev forecast.EvidenceRetriever
	if r := ws.retriever(ctx); r != nil {
		ev = r
	}

	srv := server.New(server.Config{
		Port:     port,
		AllowAll: ws.cfg.Server.AllowAllOrigins,
	}, ws.db, server.WithLogger(logger), server.WithGatherer(prometheus.DefaultGatherer))

	feed := dashboard.NewFeed(ws.auditStore(), logger)
	forecast.RegisterRoutes(srv.Router(), ws.forecastStore(), runner, ws.cfg.Calibration.NumBins, forecast.WithAudit(feed))
	scenario.RegisterRoutes(srv.Router(), scenario.Deps{
		Store:     ws.scenarioStore(),
		Generator: generator,
		Evidence:  ev,
		Monitor:   ws.scenarioMonitor(),
		TopK:      ws.cfg.Forecast.EvidenceTopK,
		Notifier:  ws.notifier(),
		Audit:     feed,
		Metrics:   ws.metrics,
		Logger:    logger,
	})

	notifications.RegisterRoutes(srv.Router(), notifications.NewStore(ws.db))
	audit.RegisterRoutes(srv.Router(), ws.auditStore())
	dashboard.New(dashboard.Deps{
		Forecasts:     ws.forecastStore(),
		Scenarios:     ws.scenarioStore(),
		Notifications: notifications.NewStore(ws.db),
		Audit:         ws.auditStore(),
		Feed:          feed,
		Logger:        logger,
	}).RegisterRoutes(srv.Router())

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("server shutdown", "error", err)
		}
	}()

	logger.Info("foresight server starting",
		"version", Version, "port", port, "database", ws.cfg.DBPath())
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
