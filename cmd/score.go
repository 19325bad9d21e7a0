package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/model"
	"github.com/ziadkadry99/foresight/internal/report"
	"github.com/ziadkadry99/foresight/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score resolved forecasts",
}

var scoreBrierCmd = &cobra.Command{
	Use:   "brier",
	Short: "Brier score and its Murphy decomposition",
	Long: `With --probability, scores a single prediction against --occurred.
Otherwise decomposes the mean Brier score of every resolved forecast into
reliability, resolution and uncertainty.`,
	RunE: runScoreBrier,
}

var scoreCalibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Reliability bins and per-domain, per-agent Brier scores",
	RunE:  runScoreCalibration,
}

func init() {
	scoreBrierCmd.Flags().Float64("probability", 0, "score a single probability")
	scoreBrierCmd.Flags().Bool("occurred", false, "outcome for --probability")
	scoreBrierCmd.Flags().Bool("json", false, "print as JSON")

	scoreCalibrationCmd.Flags().Int("bins", 0, "number of probability bins (default from config)")
	scoreCalibrationCmd.Flags().Bool("json", false, "print as JSON")

	scoreCmd.AddCommand(scoreBrierCmd, scoreCalibrationCmd)
	rootCmd.AddCommand(scoreCmd)
}

func runScoreBrier(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	asJSON, _ := cmd.Flags().GetBool("json")

	if cmd.Flags().Changed("probability") {
		p, _ := cmd.Flags().GetFloat64("probability")
		occurred, _ := cmd.Flags().GetBool("occurred")
		score, err := scoring.BrierScore(p, occurred)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(map[string]float64{"brier": score})
		}
		fmt.Fprintf(out, "Brier score: %.4f\n", score)
		return nil
	}

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	forecasts, outcomes, err := ws.forecastStore().Resolved(cmd.Context())
	if err != nil {
		return err
	}
	decomp, err := scoring.BrierDecomposition(forecasts, outcomes)
	if err != nil {
		return fmt.Errorf("no resolved forecasts to score: %w", err)
	}
	if asJSON {
		return printJSON(decomp)
	}
	fmt.Fprintf(out, "Resolved forecasts: %d\n", len(forecasts))
	fmt.Fprintf(out, "  Reliability:  %.4f\n", decomp.Reliability)
	fmt.Fprintf(out, "  Resolution:   %.4f\n", decomp.Resolution)
	fmt.Fprintf(out, "  Uncertainty:  %.4f\n", decomp.Uncertainty)
	fmt.Fprintf(out, "  Brier score:  %.4f\n", decomp.Overall)
	return nil
}

func runScoreCalibration(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	bins, _ := cmd.Flags().GetInt("bins")
	if bins <= 0 {
		bins = ws.cfg.Calibration.NumBins
	}

	rep, decomp, err := calibration(cmd, ws, bins)
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(rep)
	}
	fmt.Fprint(cmd.OutOrStdout(), report.CalibrationMarkdown(rep, decomp))
	return nil
}

// calibration builds the report over every resolved forecast. The
// decomposition is nil while nothing has resolved.
func calibration(cmd *cobra.Command, ws *workspace, bins int) (model.CalibrationReport, *model.BrierDecomposition, error) {
	forecasts, outcomes, err := ws.forecastStore().Resolved(cmd.Context())
	if err != nil {
		return model.CalibrationReport{}, nil, err
	}
	rep, err := scoring.BuildCalibrationReport(forecasts, outcomes, bins)
	if err != nil {
		return model.CalibrationReport{}, nil, err
	}
	var decomp *model.BrierDecomposition
	if d, err := scoring.BrierDecomposition(forecasts, outcomes); err == nil {
		decomp = &d
	}
	return rep, decomp, nil
}
