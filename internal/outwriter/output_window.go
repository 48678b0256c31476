package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintProposals outputs a suspended run: the pipeline stopped at the
// approval boundary and these windows need a human decision before any
// rows are produced.
func PrintProposals(result *schema.StageResult, cfg *contract.Config) error {
	proposals := result.Proposals()

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONWindows(w, proposals)
		}, "Wrote JSON proposals")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeCSVWindows(csvWriter, proposals)
		}, "Wrote CSV proposals")
	default:
		header := "Run suspended: exclusion window proposals need a decision"
		if cfg.UseEmojis {
			header = "⏸️  " + header
		}
		fmt.Println(header)
		if err := printWindowsTable(proposals, cfg); err != nil {
			return err
		}
		fmt.Println("Decide with: gridsync windows approve <window-id> | gridsync windows reject <window-id>")
		fmt.Println("Then re-run the sync to produce rows.")
		return nil
	}
}

// PrintWindows outputs stored exclusion windows, dispatching based on the output format configured.
func PrintWindows(windows []schema.ExclusionWindow, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSONWindows(w, windows)
		}, "Wrote JSON windows")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			csvWriter := csv.NewWriter(w)
			defer csvWriter.Flush()
			return writeCSVWindows(csvWriter, windows)
		}, "Wrote CSV windows")
	default:
		return printWindowsTable(windows, cfg)
	}
}

// PrintDecision confirms a recorded window decision.
func PrintDecision(windowID string, status schema.ApprovalStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, map[string]string{
				"window_id": windowID,
				"status":    string(status),
			})
		}, "Wrote JSON decision")
	default:
		marker := ""
		if cfg.UseEmojis {
			if status == schema.ApprovedWindow {
				marker = "✅ "
			} else {
				marker = "🚫 "
			}
		}
		fmt.Printf("%sWindow %s %s\n", marker, windowID, strings.ToLower(string(status)))
		return nil
	}
}

// printWindowsTable prints exclusion windows in a table.
func printWindowsTable(windows []schema.ExclusionWindow, cfg *contract.Config) error {
	if len(windows) == 0 {
		fmt.Println("No exclusion windows found.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)

	headers := []string{"Window ID", "Start", "End", "Overlap", "Streams", "Status"}
	table.Header(headers)

	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, w := range windows {
		status := string(w.Status)
		if cfg.UseColors {
			status = colorWindowStatus(w.Status)
		}
		row := []string{
			w.WindowID,
			w.Start.Format(contract.DateTimeFormat),
			w.End.Format(contract.DateTimeFormat),
			w.OverlapDuration.String(),
			strings.Join(w.AffectedStreams, "|"),
			status,
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// colorWindowStatus maps a window status to a colored console string.
func colorWindowStatus(status schema.ApprovalStatus) string {
	switch status {
	case schema.ApprovedWindow:
		return contract.HighColor.Sprint(string(status))
	case schema.RejectedWindow:
		return contract.NoneColor.Sprint(string(status))
	default:
		return contract.WarnColor.Sprint(string(status))
	}
}
