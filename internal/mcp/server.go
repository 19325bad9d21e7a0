package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/foresight/internal/evidence"
	"github.com/ziadkadry99/foresight/internal/forecast"
	"github.com/ziadkadry99/foresight/internal/scenario"
	"github.com/ziadkadry99/foresight/internal/scoring"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Deps are the stores the tools read from. Any of them may be nil; the
// matching tools then answer with a tool error.
type Deps struct {
	Evidence  evidence.Store
	Forecasts *forecast.Store
	Scenarios *scenario.Store
	NumBins   int
}

// Server wraps an MCP server exposing evidence search, forecasts,
// calibration and scenario alerts as tools.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(deps Deps) *Server {
	if deps.NumBins <= 0 {
		deps.NumBins = scoring.DefaultNumBins
	}
	s := &Server{deps: deps}

	s.mcp = server.NewMCPServer(
		"foresight",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchEvidenceTool, s.handleSearchEvidence)
	s.mcp.AddTool(listForecastsTool, s.handleListForecasts)
	s.mcp.AddTool(getForecastTool, s.handleGetForecast)
	s.mcp.AddTool(calibrationReportTool, s.handleCalibrationReport)
	s.mcp.AddTool(scenarioAlertsTool, s.handleScenarioAlerts)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
