package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/model"
)

var outcomeCmd = &cobra.Command{
	Use:   "outcome",
	Short: "Record how forecast events resolved",
}

var outcomeRecordCmd = &cobra.Command{
	Use:   "record <forecast-id>",
	Short: "Record the outcome of a forecast",
	Long: `Records whether the forecast event occurred. The forecast moves to
resolved_true or resolved_false; recording again replaces the earlier outcome.`,
	Args: cobra.ExactArgs(1),
	RunE: runOutcomeRecord,
}

func init() {
	outcomeRecordCmd.Flags().Bool("occurred", false, "the event occurred")
	outcomeRecordCmd.Flags().String("date", "", "resolution date (default today)")
	outcomeRecordCmd.Flags().String("notes", "", "free-text resolution notes")

	outcomeCmd.AddCommand(outcomeRecordCmd)
	rootCmd.AddCommand(outcomeCmd)
}

func runOutcomeRecord(cmd *cobra.Command, args []string) error {
	occurred, _ := cmd.Flags().GetBool("occurred")
	notes, _ := cmd.Flags().GetString("notes")

	date := model.DateOf(time.Now())
	if s, _ := cmd.Flags().GetString("date"); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return err
		}
		date = d
	}

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	store := ws.forecastStore()
	fc, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	o := model.Outcome{ForecastID: args[0], Resolved: occurred, ResolutionDate: date, Notes: notes}
	if err := store.RecordOutcome(cmd.Context(), o); err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}
	ws.record(cmd.Context(), audit.OutcomeRecorded(audit.ActorCLI, o, fc.Status))

	verdict := "did not occur"
	if occurred {
		verdict = "occurred"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded: %s %s (resolved %s).\n", args[0], verdict, date)
	return nil
}
