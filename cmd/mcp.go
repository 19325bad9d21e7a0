package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/foresight/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio exposing evidence
search, saved forecasts, calibration and scenario alerts as tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace(nil)
		if err != nil {
			return err
		}
		defer ws.Close()

		deps := mcpserver.Deps{
			Forecasts: ws.forecastStore(),
			Scenarios: ws.scenarioStore(),
			NumBins:   ws.cfg.Calibration.NumBins,
		}
		if store, err := ws.evidenceStore(cmd.Context()); err != nil {
			logger.Warn("evidence search disabled", "error", err)
		} else {
			deps.Evidence = store
			logger.Info("evidence index loaded", "passages", store.Count())
		}

		mcpserver.Version = Version
		logger.Info("foresight MCP server started on stdio", "database", ws.cfg.DBPath())
		return mcpserver.NewServer(deps).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
