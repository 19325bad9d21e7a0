package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/report"
	"github.com/ziadkadry99/foresight/internal/scenario"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render Markdown or HTML reports",
	Long: `Renders a calibration report, a forecast card or a scenario set as
Markdown. With --html the report becomes a standalone HTML page.`,
}

var reportCalibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Calibration report over all resolved forecasts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderReport(cmd, func(ws *workspace) (string, string, error) {
			rep, decomp, err := calibration(cmd, ws, ws.cfg.Calibration.NumBins)
			if err != nil {
				return "", "", err
			}
			return "Calibration Report", report.CalibrationMarkdown(rep, decomp), nil
		})
	},
}

var reportForecastCmd = &cobra.Command{
	Use:   "forecast <id>",
	Short: "Forecast card with its outcome",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderReport(cmd, func(ws *workspace) (string, string, error) {
			fc, outcome, err := loadForecastWithOutcome(cmd, ws, args[0])
			if err != nil {
				return "", "", err
			}
			return fc.Event, report.ForecastMarkdown(*fc, outcome), nil
		})
	},
}

var reportScenarioCmd = &cobra.Command{
	Use:   "scenario <set-id>",
	Short: "Newest revision of a scenario set with its alerts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return renderReport(cmd, func(ws *workspace) (string, string, error) {
			set, err := ws.scenarioStore().Latest(cmd.Context(), args[0])
			if err != nil {
				return "", "", err
			}
			alerts := scenario.CheckScenarioAlerts(set.Scenarios)
			return "Scenarios: " + set.Topic, report.ScenarioMarkdown(set.Topic, set.Scenarios, alerts), nil
		})
	},
}

func init() {
	reportCmd.PersistentFlags().Bool("html", false, "render as a standalone HTML page")
	reportCmd.PersistentFlags().StringP("out", "o", "", "write to a file instead of stdout")

	reportCmd.AddCommand(reportCalibrationCmd, reportForecastCmd, reportScenarioCmd)
	rootCmd.AddCommand(reportCmd)
}

// renderReport builds the Markdown with build, converts it when --html is
// set and writes it to --out or stdout.
func renderReport(cmd *cobra.Command, build func(ws *workspace) (title, markdown string, err error)) error {
	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	title, markdown, err := build(ws)
	if err != nil {
		return err
	}

	data := []byte(markdown)
	if asHTML, _ := cmd.Flags().GetBool("html"); asHTML {
		if data, err = report.RenderHTML(title, markdown); err != nil {
			return err
		}
	}

	path, _ := cmd.Flags().GetString("out")
	if path == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	return nil
}
