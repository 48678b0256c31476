package cmd

import (
	"github.com/mkarlsen/gridsync/core"
	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/spf13/cobra"
)

// runsCmd lists the persisted synchronization run history.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the recorded synchronization run history.",
	Long: `List past synchronization runs from the decision store.

Each entry records when the run started and finished, its terminal
state, row counts and stage confidence. Use --limit to control how many
runs are shown.`,
	Args:    cobra.NoArgs,
	PreRunE: metaSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRunsList(cfg, decisionStore); err != nil {
			contract.LogFatal("Cannot list runs", err)
		}
	},
}
