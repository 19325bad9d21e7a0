package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchEvidenceTool = mcp.NewTool("search_evidence",
	mcp.WithDescription("Semantic search over ingested evidence and doctrine passages."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default 10)"),
	),
	mcp.WithString("doctrine_id",
		mcp.Description("Only search passages ingested for this doctrine pack"),
	),
)

var listForecastsTool = mcp.NewTool("list_forecasts",
	mcp.WithDescription("List stored forecasts, newest first."),
	mcp.WithString("status",
		mcp.Description("Filter by forecast status"),
		mcp.Enum("open", "resolved_true", "resolved_false", "expired"),
	),
	mcp.WithString("domain",
		mcp.Description("Filter by doctrine domain"),
		mcp.Enum("geopolitics", "economic", "military", "cyber", "civilizational", "diplomatic"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of forecasts to return (default 20)"),
	),
)

var getForecastTool = mcp.NewTool("get_forecast",
	mcp.WithDescription("Get the full forecast card for one forecast, including its outcome if recorded."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Forecast id, e.g. fc_20260101_120000_a1b2c3"),
	),
)

var calibrationReportTool = mcp.NewTool("calibration_report",
	mcp.WithDescription("Calibration of resolved forecasts: reliability bins, Brier decomposition, and per-domain and per-agent Brier scores."),
	mcp.WithNumber("bins",
		mcp.Description("Number of probability bins (default from configuration)"),
	),
)

var scenarioAlertsTool = mcp.NewTool("scenario_alerts",
	mcp.WithDescription("Current alerts for a monitored scenario set."),
	mcp.WithString("set_id",
		mcp.Required(),
		mcp.Description("Scenario set id"),
	),
)
