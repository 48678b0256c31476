package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintRuns outputs the persisted run history, dispatching based on the output format configured.
func PrintRuns(runs []schema.RunSummary, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON run history")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeCSVRuns(csvWriter, runs, fmtFloat)
		}, "Wrote CSV run history")
	default:
		return printRunsTable(runs, cfg, fmtFloat)
	}
}

// printRunsTable prints the run history in a table.
func printRunsTable(runs []schema.RunSummary, cfg *contract.Config, fmtFloat func(float64) string) error {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)

	headers := []string{"Run ID", "Started", "Finished", "State", "Rows", "Valid", "Conf", "Label"}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range runs {
		finished := "-"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format(contract.DateTimeFormat)
		}
		label := contract.GetPlainLabel(r.Confidence)
		if cfg.UseColors {
			label = contract.GetColorLabel(r.Confidence)
		}
		row := []string{
			strconv.FormatInt(r.RunID, 10),
			r.StartedAt.Format(contract.DateTimeFormat),
			finished,
			string(r.State),
			strconv.Itoa(r.RowsTotal),
			strconv.Itoa(r.RowsValid),
			fmtFloat(r.Confidence),
			label,
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writeCSVRuns writes the run history to a CSV writer.
func writeCSVRuns(w *csv.Writer, runs []schema.RunSummary, fmtFloat func(float64) string) error {
	header := []string{
		"run_id",
		"started_at",
		"finished_at",
		"state",
		"rows_total",
		"rows_valid",
		"confidence",
		"config_params",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range runs {
		finished := ""
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format(contract.DateTimeFormat)
		}
		params := ""
		if len(r.ConfigParams) > 0 {
			raw, err := json.Marshal(r.ConfigParams)
			if err != nil {
				return fmt.Errorf("failed to encode config params: %w", err)
			}
			params = string(raw)
		}
		row := []string{
			strconv.FormatInt(r.RunID, 10),
			r.StartedAt.Format(contract.DateTimeFormat),
			finished,
			string(r.State),
			strconv.Itoa(r.RowsTotal),
			strconv.Itoa(r.RowsValid),
			fmtFloat(r.Confidence),
			params,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
