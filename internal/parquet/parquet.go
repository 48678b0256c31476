// Package parquet provides data structures and functions for exporting
// synchronized rows and coverage metrics to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/mkarlsen/gridsync/schema"
	"github.com/parquet-go/parquet-go"
)

// RowCell is the long-format export record: one row per grid timestamp
// and stream. Downstream analytics pivot it back to wide format as
// needed; long format keeps the Parquet schema stable across datasets
// with different stream sets.
type RowCell struct {
	// GridTs is the grid timestamp of the fused row (nanosecond precision)
	GridTs time.Time `parquet:"grid_ts,snappy"`

	// StreamID identifies the measurement channel
	StreamID string `parquet:"stream_id,snappy"`

	// Value is the aligned raw value (nullable, absent when the cell is missing)
	Value *float64 `parquet:"value,optional,snappy"`

	// Quality is the alignment tier (EXACT, CLOSE, INTERP, MISSING)
	Quality string `parquet:"quality,snappy"`

	// DistanceS is the alignment distance in seconds (nullable)
	DistanceS *int64 `parquet:"distance_s,optional,snappy"`

	// GapType is the row-level classification shared by all cells of the row
	GapType string `parquet:"gap_type,snappy"`

	// Confidence is the row confidence shared by all cells of the row
	Confidence float64 `parquet:"confidence,snappy"`

	// ExclusionWindowID references the covering approved window (nullable)
	ExclusionWindowID *string `parquet:"exclusion_window_id,optional,snappy"`
}

// StreamCoverageRecord maps one stream's coverage summary to a Parquet row.
type StreamCoverageRecord struct {
	// StreamID identifies the measurement channel
	StreamID string `parquet:"stream_id,snappy"`

	// Mandatory indicates whether the stream gates row validity
	Mandatory bool `parquet:"mandatory,snappy"`

	// Exact is the count of grid points matched within the exact tier
	Exact int32 `parquet:"exact,snappy"`

	// Close is the count of grid points matched within the close tier
	Close int32 `parquet:"close,snappy"`

	// Interp is the count of grid points matched within the tolerance tier
	Interp int32 `parquet:"interp,snappy"`

	// Missing is the count of grid points with no usable sample
	Missing int32 `parquet:"missing,snappy"`

	// CoveragePct is the non-missing share of grid points
	CoveragePct float64 `parquet:"coverage_pct,snappy"`
}

// WriteRowRecords flattens a completed result into long-format cells and
// writes them to a Parquet file.
func WriteRowRecords(result *schema.StageResult, outputPath string) error {
	cells := FlattenRows(result)

	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the RowCell struct tags
	writer := parquet.NewGenericWriter[RowCell](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(cells); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteStreamCoverage writes the per-stream coverage summary to a Parquet file.
func WriteStreamCoverage(metrics *schema.SyncMetrics, outputPath string) error {
	records := make([]StreamCoverageRecord, 0, len(metrics.Streams))
	for _, sc := range metrics.Streams {
		records = append(records, StreamCoverageRecord{
			StreamID:    sc.StreamID,
			Mandatory:   sc.Mandatory,
			Exact:       int32(sc.Exact),
			Close:       int32(sc.Close),
			Interp:      int32(sc.Interp),
			Missing:     int32(sc.Missing),
			CoveragePct: sc.CoveragePct,
		})
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[StreamCoverageRecord](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// FlattenRows converts the wide row records into long-format cells,
// one per grid timestamp and stream, in deterministic stream order.
func FlattenRows(result *schema.StageResult) []RowCell {
	cells := make([]RowCell, 0, len(result.Rows)*len(result.Streams))
	for _, row := range result.Rows {
		var windowID *string
		if row.ExclusionWindowID != "" {
			id := row.ExclusionWindowID
			windowID = &id
		}
		for _, streamID := range result.Streams {
			cell := RowCell{
				GridTs:            row.Timestamp,
				StreamID:          streamID,
				Quality:           string(schema.MissingQuality),
				GapType:           string(row.GapType),
				Confidence:        row.Confidence,
				ExclusionWindowID: windowID,
			}
			if sc, ok := row.Cells[streamID]; ok && sc.Quality != schema.MissingQuality {
				value := sc.Value
				distance := int64(sc.Distance.Seconds())
				cell.Value = &value
				cell.DistanceS = &distance
				cell.Quality = string(sc.Quality)
			}
			cells = append(cells, cell)
		}
	}
	return cells
}
