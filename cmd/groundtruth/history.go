package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past conversion and publish runs",
	Long: `History lists the run ledger, newest first: when each run started, what
version it produced, its outcome, and the artifact digest.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to get limit flag: %w", err)
	}

	app, cleanup, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	recs, err := app.history.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	app.printer.Header("Run History")
	app.printer.RunHistory(recs)
	return nil
}
