package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintSyncResult outputs a completed run, dispatching based on the output format configured.
func PrintSyncResult(result *schema.StageResult, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := printJSONSyncResult(result, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := printCSVSyncResult(result, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table
		if err := printSyncTable(result, cfg, fmtFloat, duration); err != nil {
			return fmt.Errorf("error writing sync table output: %w", err)
		}
	}
	return nil
}

// printJSONSyncResult handles opening the file and calling the JSON writer.
func printJSONSyncResult(result *schema.StageResult, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSONSyncResult(w, result)
	}, "Wrote JSON sync results")
}

// printCSVSyncResult handles opening the file and calling the CSV writer.
func printCSVSyncResult(result *schema.StageResult, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeCSVSyncResult(csvWriter, result, fmtFloat)
	}, "Wrote CSV sync results")
}

// printSyncTable prints the fused rows in a table, followed by the
// metrics summary. Tables cap at the configured result limit; CSV,
// JSON and parquet carry the full dataset.
func printSyncTable(result *schema.StageResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	// Use os.Stdout, consistent with existing table printing
	table := tablewriter.NewWriter(os.Stdout)

	// Limit stream columns by terminal width; rows by the result limit
	streams := result.Streams
	maxCols := GetMaxStreamColumns(cfg)
	truncatedCols := false
	if len(streams) > maxCols {
		streams = streams[:maxCols]
		truncatedCols = true
	}

	// --- 1. Define Headers ---
	headers := []string{"Timestamp", "Gap Type", "Conf", "Label"}
	headers = append(headers, streams...)
	table.Header(headers)

	// 2. Configure Alignment
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// --- 3. Prepare Data Rows ---
	rows := result.Rows
	truncatedRows := false
	if len(rows) > cfg.ResultLimit {
		rows = rows[:cfg.ResultLimit]
		truncatedRows = true
	}

	var data [][]string
	for _, r := range rows {
		label := contract.GetPlainLabel(r.Confidence)
		if cfg.UseColors {
			label = contract.GetColorLabel(r.Confidence)
		}
		row := []string{
			r.Timestamp.Format(contract.DateTimeFormat),
			string(r.GapType),
			fmtFloat(r.Confidence),
			label,
		}
		for _, id := range streams {
			row = append(row, formatCell(r.Cells[id], fmtFloat))
		}
		data = append(data, row)
	}

	// --- 4. Render the table ---
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if truncatedRows {
		fmt.Printf("... showing %d of %d rows (see --output csv/json or --parquet-file for all)\n", len(rows), len(result.Rows))
	}
	if truncatedCols {
		fmt.Printf("... showing %d of %d streams (widen the terminal or set --width)\n", len(streams), len(result.Streams))
	}

	printMetricsSummary(result.Metrics, cfg, fmtFloat)

	fmt.Printf("Synchronization completed in %v with %d workers. Decision backend: %s\n", duration, cfg.Workers, cfg.DecisionBackend)
	return nil
}

// formatCell renders one per-stream slot of a row for table output.
func formatCell(cell schema.StreamCell, fmtFloat func(float64) string) string {
	switch cell.Quality {
	case schema.MissingQuality:
		return "-"
	case schema.ExactQuality:
		return fmtFloat(cell.Value)
	default:
		// Tag non-exact matches so a reader can spot stale values
		return fmt.Sprintf("%s (%s)", fmtFloat(cell.Value), qualityMarker(cell.Quality))
	}
}

// qualityMarker returns the single-letter tag shown next to non-exact values.
func qualityMarker(q schema.AlignQuality) string {
	switch q {
	case schema.CloseQuality:
		return "C"
	case schema.InterpQuality:
		return "I"
	default:
		return "?"
	}
}

// printMetricsSummary prints the coverage, penalty and warning summary
// below the row table.
func printMetricsSummary(metrics *schema.SyncMetrics, cfg *contract.Config, fmtFloat func(float64) string) {
	if metrics == nil {
		return
	}

	header := "Summary"
	if cfg.UseEmojis {
		header = "📊 Summary"
	}
	fmt.Printf("\n%s\n", header)

	fmt.Printf("Grid: %d points, step %v (CV %.4f)\n", metrics.Grid.Points, metrics.Grid.MeanStep, metrics.Grid.CV)
	fmt.Printf("Rows:")
	for _, gt := range schema.AllGapTypes {
		if n := metrics.RowCounts[gt]; n > 0 {
			fmt.Printf(" %s=%d", gt, n)
		}
	}
	fmt.Printf(" (%.1f%% VALID)\n", metrics.CoveragePct*100)

	for _, sc := range metrics.Streams {
		role := "optional"
		if sc.Mandatory {
			role = "mandatory"
		}
		fmt.Printf("Stream %s (%s): %.1f%% coverage (exact=%d close=%d interp=%d missing=%d)\n",
			sc.StreamID, role, sc.CoveragePct*100, sc.Exact, sc.Close, sc.Interp, sc.Missing)
	}

	for _, p := range metrics.Penalties {
		fmt.Printf("Penalty %s: -%s (%s)\n", p.Key, fmtFloat(p.Amount), p.Detail)
	}
	for _, w := range metrics.Warnings {
		line := fmt.Sprintf("Warning %s: %s", w.Code, w.Message)
		if cfg.UseColors {
			line = contract.WarnColor.Sprint(line)
		}
		fmt.Println(line)
	}

	label := contract.GetPlainLabel(metrics.StageConfidence)
	if cfg.UseColors {
		label = contract.GetColorLabel(metrics.StageConfidence)
	}
	fmt.Printf("Stage confidence: %s (%s)\n", fmtFloat(metrics.StageConfidence), label)
}
