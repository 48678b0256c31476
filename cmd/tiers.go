package cmd

import (
	"github.com/mkarlsen/gridsync/core"
	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/spf13/cobra"
)

// tiersCmd displays the quality tier and penalty definitions.
var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Show alignment quality tiers and confidence penalties.",
	Long: `Display the formal definitions used to score synchronized rows.

Shows the distance thresholds of each alignment tier, the confidence
each tier contributes, and the penalties that reduce the overall stage
confidence. This is a static reference; no input data is read.`,
	Args:    cobra.NoArgs,
	PreRunE: metaSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTiers(cfg); err != nil {
			contract.LogFatal("Cannot print tier definitions", err)
		}
	},
}
