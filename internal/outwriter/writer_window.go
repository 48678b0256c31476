package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
)

// writeJSONWindows marshals exclusion windows to JSON and writes them.
func writeJSONWindows(w io.Writer, windows []schema.ExclusionWindow) error {
	return writeJSON(w, windows)
}

// writeCSVWindows writes exclusion windows to a CSV writer.
func writeCSVWindows(w *csv.Writer, windows []schema.ExclusionWindow) error {
	// 1. Write Header Row
	header := []string{
		"window_id",
		"start",
		"end",
		"overlap_s",
		"affected_streams",
		"status",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	// 2. Write Data Rows
	for _, win := range windows {
		row := []string{
			win.WindowID,
			win.Start.Format(contract.DateTimeFormat),
			win.End.Format(contract.DateTimeFormat),
			strconv.FormatInt(int64(win.OverlapDuration.Seconds()), 10),
			strings.Join(win.AffectedStreams, "|"),
			string(win.Status),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
