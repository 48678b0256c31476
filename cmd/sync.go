package cmd

import (
	"github.com/mkarlsen/gridsync/core"
	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/spf13/cobra"
)

// syncCmd runs the synchronization pipeline on an input file.
var syncCmd = &cobra.Command{
	Use:   "sync <input-file>",
	Short: "Fuse raw stream samples into gap-aware rows on a uniform grid.",
	Long: `Synchronize multi-rate sensor streams onto a shared master grid.

Reads raw samples from a CSV file, classifies inter-sample gaps, aligns
each stream to the grid without interpolating values, and fuses the
streams into per-timestamp rows with gap types and confidence scores.

When at least two mandatory streams share a long overlapping outage, the
run suspends with exclusion window proposals instead of producing rows.
Approve or reject the windows, then re-run the sync:
- Rows inside an approved window are EXCLUDED with zero confidence
- Rows inside a rejected window keep their gap classification

Examples:
  # Synchronize onto a 15-minute grid (the default)
  gridsync sync samples.csv

  # A 5-minute grid with a tighter alignment tolerance
  gridsync sync samples.csv --step 300 --tolerance 600

  # Export the full dataset for downstream analytics
  gridsync sync samples.csv --output csv --output-file rows.csv
  gridsync sync samples.csv --parquet-file rows.parquet

  # Run without persistence (proposals are shown but cannot be decided)
  gridsync sync samples.csv --decision-backend none`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSync(rootCtx, cfg, decisionStore); err != nil {
			contract.LogFatal("Cannot run synchronization", err)
		}
	},
}
