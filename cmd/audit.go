package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/audit"
	"github.com/ziadkadry99/foresight/internal/model"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the change history of forecasts and scenario sets",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries, newest first",
	RunE:  runAuditList,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit entries recorded before a date",
	RunE:  runAuditPrune,
}

func init() {
	auditListCmd.Flags().String("action", "", "filter by action, e.g. forecast_created")
	auditListCmd.Flags().String("subject-id", "", "filter by forecast or scenario set id")
	auditListCmd.Flags().String("since", "", "only entries on or after this date (YYYY-MM-DD)")
	auditListCmd.Flags().Int("limit", 50, "maximum entries to list")
	auditListCmd.Flags().Bool("json", false, "print as JSON")

	auditPruneCmd.Flags().String("before", "", "delete entries recorded before this date (YYYY-MM-DD)")
	_ = auditPruneCmd.MarkFlagRequired("before")

	auditCmd.AddCommand(auditListCmd, auditPruneCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	action, _ := cmd.Flags().GetString("action")
	subjectID, _ := cmd.Flags().GetString("subject-id")
	since, _ := cmd.Flags().GetString("since")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := audit.QueryFilter{Action: audit.Action(action), SubjectID: subjectID, Limit: limit}
	if action != "" && !filter.Action.Valid() {
		return fmt.Errorf("unknown action %q", action)
	}
	if since != "" {
		d, err := model.ParseDate(since)
		if err != nil {
			return err
		}
		filter.Since = d.Time
	}

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	entries, err := ws.auditStore().Query(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(entries)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No audit entries found.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  %-4s %-19s %-28s %s\n",
			e.Timestamp.UTC().Format(time.DateTime), e.Actor, e.Action, e.SubjectID, truncate(e.Summary, 70))
	}
	return nil
}

func runAuditPrune(cmd *cobra.Command, args []string) error {
	s, _ := cmd.Flags().GetString("before")
	before, err := model.ParseDate(s)
	if err != nil {
		return err
	}

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	n, err := ws.auditStore().DeleteBefore(cmd.Context(), before.Time)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d audit entr%s recorded before %s.\n", n, pluralY(n), before)
	return nil
}

func pluralY(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
