package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
)

// writeJSONSyncResult marshals the schema.StageResult to JSON and writes it.
func writeJSONSyncResult(w io.Writer, result *schema.StageResult) error {
	return writeJSON(w, result)
}

// writeCSVSyncResult writes the fused rows to a CSV writer, one line per
// grid timestamp with flattened per-stream columns. CSV always carries
// the full dataset; the result limit applies to tables only.
func writeCSVSyncResult(w *csv.Writer, result *schema.StageResult, fmtFloat func(float64) string) error {
	// 1. Write Header Row
	header := []string{
		"timestamp",
		"gap_type",
		"confidence",
		"label",
		"exclusion_window_id",
	}
	for _, id := range result.Streams {
		header = append(header,
			fmt.Sprintf("%s_value", id),
			fmt.Sprintf("%s_quality", id),
			fmt.Sprintf("%s_distance_s", id),
		)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	// 2. Write Data Rows
	for _, r := range result.Rows {
		row := []string{
			r.Timestamp.Format(contract.DateTimeFormat),
			string(r.GapType),
			fmtFloat(r.Confidence),
			contract.GetPlainLabel(r.Confidence),
			r.ExclusionWindowID,
		}
		for _, id := range result.Streams {
			cell := r.Cells[id]
			if cell.Quality == schema.MissingQuality {
				row = append(row, "", string(schema.MissingQuality), "")
			} else {
				row = append(row,
					fmtFloat(cell.Value),
					string(cell.Quality),
					strconv.FormatInt(int64(cell.Distance.Seconds()), 10),
				)
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
