package cmd

import (
	"github.com/mkarlsen/gridsync/core"
	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
	"github.com/spf13/cobra"
)

// windowsCmd groups exclusion window operations.
var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Inspect and decide exclusion window proposals.",
	Long: `Manage the exclusion windows proposed by suspended sync runs.

A proposal marks a time range where at least two mandatory streams were
silent together for eight hours or more, which usually means the whole
installation was offline. Proposals never take effect on their own: an
explicit approval is required before any row is excluded.`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// windowsListCmd lists stored windows and their decision states.
var windowsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List stored exclusion windows.",
	Args:    cobra.NoArgs,
	PreRunE: metaSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWindowsList(cfg, decisionStore); err != nil {
			contract.LogFatal("Cannot list windows", err)
		}
	},
}

// windowsApproveCmd records an APPROVED decision.
var windowsApproveCmd = &cobra.Command{
	Use:     "approve <window-id>",
	Short:   "Approve a proposed exclusion window.",
	Args:    cobra.ExactArgs(1),
	PreRunE: metaSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteDecide(cfg, decisionStore, args[0], schema.ApprovedWindow); err != nil {
			contract.LogFatal("Cannot approve window", err)
		}
	},
}

// windowsRejectCmd records a REJECTED decision.
var windowsRejectCmd = &cobra.Command{
	Use:     "reject <window-id>",
	Short:   "Reject a proposed exclusion window.",
	Args:    cobra.ExactArgs(1),
	PreRunE: metaSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteDecide(cfg, decisionStore, args[0], schema.RejectedWindow); err != nil {
			contract.LogFatal("Cannot reject window", err)
		}
	},
}
