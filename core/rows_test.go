package core

import (
	"testing"
	"time"

	"github.com/mkarlsen/gridsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rowBase = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// alignedAll builds an alignment slice with the same quality at every grid index.
func alignedAll(stream string, points int, quality schema.AlignQuality, value float64) []schema.AlignmentResult {
	out := make([]schema.AlignmentResult, points)
	for i := range out {
		out[i] = schema.AlignmentResult{StreamID: stream, GridIndex: i, Quality: quality, Value: value}
	}
	return out
}

func rowTestGrid(t *testing.T, points int) *schema.MasterGrid {
	t.Helper()
	grid, err := BuildGrid(rowBase, rowBase.Add(time.Duration(points-1)*15*time.Minute), 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, grid.Points, points)
	return grid
}

func rowTestStreams() []schema.StreamSeries {
	return []schema.StreamSeries{
		{StreamID: "flow", NominalInterval: 15 * time.Minute, Mandatory: true},
		{StreamID: "temp-supply", NominalInterval: 15 * time.Minute, Mandatory: true},
		{StreamID: "ambient", NominalInterval: time.Hour, Mandatory: false},
	}
}

func TestClassifyRows_ValidTakesMinMandatoryConfidence(t *testing.T) {
	grid := rowTestGrid(t, 2)
	alignments := map[string][]schema.AlignmentResult{
		"flow":        alignedAll("flow", 2, schema.ExactQuality, 10),
		"temp-supply": alignedAll("temp-supply", 2, schema.InterpQuality, 60),
		"ambient":     alignedAll("ambient", 2, schema.CloseQuality, 5),
	}

	rows := ClassifyRows(grid, rowTestStreams(), alignments, nil, nil)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, schema.ValidRow, r.GapType)
		// INTERP (0.85) is the weakest mandatory tier; the optional
		// CLOSE stream does not participate.
		assert.Equal(t, 0.85, r.Confidence)
		assert.Len(t, r.Cells, 3)
	}
}

func TestClassifyRows_OptionalMissingNeverBlocks(t *testing.T) {
	grid := rowTestGrid(t, 1)
	alignments := map[string][]schema.AlignmentResult{
		"flow":        alignedAll("flow", 1, schema.ExactQuality, 10),
		"temp-supply": alignedAll("temp-supply", 1, schema.ExactQuality, 60),
		"ambient":     alignedAll("ambient", 1, schema.MissingQuality, 0),
	}

	rows := ClassifyRows(grid, rowTestStreams(), alignments, nil, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, schema.ValidRow, rows[0].GapType)
	assert.Equal(t, 0.95, rows[0].Confidence)
	assert.Equal(t, schema.MissingQuality, rows[0].Cells["ambient"].Quality)
}

func TestClassifyRows_MandatoryMissingUsesGapSemantic(t *testing.T) {
	grid := rowTestGrid(t, 1)
	alignments := map[string][]schema.AlignmentResult{
		"flow":        alignedAll("flow", 1, schema.MissingQuality, 0),
		"temp-supply": alignedAll("temp-supply", 1, schema.ExactQuality, 60),
		"ambient":     alignedAll("ambient", 1, schema.ExactQuality, 5),
	}
	intervals := map[string][]schema.IntervalClassification{
		"flow": {{
			StreamID: "flow",
			Start:    rowBase.Add(-time.Hour),
			End:      rowBase.Add(time.Hour),
			Size:     schema.MajorGap,
			Semantic: schema.CovConstant,
		}},
	}

	rows := ClassifyRows(grid, rowTestStreams(), alignments, intervals, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, schema.CovConstantRow, rows[0].GapType)
	// Row confidence measures alignment certainty; a benign gap is
	// still not a measurement.
	assert.Zero(t, rows[0].Confidence)
}

func TestClassifyRows_UnknownSemanticReadsAsGap(t *testing.T) {
	grid := rowTestGrid(t, 1)
	alignments := map[string][]schema.AlignmentResult{
		"flow":        alignedAll("flow", 1, schema.MissingQuality, 0),
		"temp-supply": alignedAll("temp-supply", 1, schema.ExactQuality, 60),
		"ambient":     alignedAll("ambient", 1, schema.ExactQuality, 5),
	}
	intervals := map[string][]schema.IntervalClassification{
		"flow": {{
			StreamID: "flow",
			Start:    rowBase.Add(-time.Hour),
			End:      rowBase.Add(time.Hour),
			Size:     schema.MinorGap,
			Semantic: schema.UnknownGap,
		}},
	}

	rows := ClassifyRows(grid, rowTestStreams(), alignments, intervals, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, schema.GapRow, rows[0].GapType)
}

func TestClassifyRows_MostSevereSemanticWins(t *testing.T) {
	// Both mandatory streams missing: one in a benign COV gap, one in
	// an anomaly. The anomaly dominates the row.
	grid := rowTestGrid(t, 1)
	alignments := map[string][]schema.AlignmentResult{
		"flow":        alignedAll("flow", 1, schema.MissingQuality, 0),
		"temp-supply": alignedAll("temp-supply", 1, schema.MissingQuality, 0),
		"ambient":     alignedAll("ambient", 1, schema.ExactQuality, 5),
	}
	intervals := map[string][]schema.IntervalClassification{
		"flow": {{
			StreamID: "flow", Start: rowBase.Add(-time.Hour), End: rowBase.Add(time.Hour),
			Size: schema.MajorGap, Semantic: schema.CovConstant,
		}},
		"temp-supply": {{
			StreamID: "temp-supply", Start: rowBase.Add(-time.Hour), End: rowBase.Add(time.Hour),
			Size: schema.MajorGap, Semantic: schema.SensorAnomaly,
		}},
	}

	rows := ClassifyRows(grid, rowTestStreams(), alignments, intervals, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, schema.AnomalyRow, rows[0].GapType)
}

func TestClassifyRows_ApprovedWindowExcludes(t *testing.T) {
	grid := rowTestGrid(t, 3)
	alignments := map[string][]schema.AlignmentResult{
		"flow":        alignedAll("flow", 3, schema.ExactQuality, 10),
		"temp-supply": alignedAll("temp-supply", 3, schema.ExactQuality, 60),
		"ambient":     alignedAll("ambient", 3, schema.ExactQuality, 5),
	}
	windows := []schema.ExclusionWindow{{
		WindowID: "w-0000000000aa",
		Start:    grid.Points[1],
		End:      grid.Points[1],
		Status:   schema.ApprovedWindow,
	}}

	rows := ClassifyRows(grid, rowTestStreams(), alignments, nil, windows)
	require.Len(t, rows, 3)
	assert.Equal(t, schema.ValidRow, rows[0].GapType)
	assert.Equal(t, schema.ExcludedRow, rows[1].GapType)
	assert.Zero(t, rows[1].Confidence)
	assert.Equal(t, "w-0000000000aa", rows[1].ExclusionWindowID)
	assert.Equal(t, schema.ValidRow, rows[2].GapType)
	// Cell values stay present even on excluded rows; downstream sees
	// the data plus the instruction not to trust it.
	assert.Equal(t, 10.0, rows[1].Cells["flow"].Value)
}

func TestClassifyRows_RejectedWindowHasNoEffect(t *testing.T) {
	grid := rowTestGrid(t, 1)
	alignments := map[string][]schema.AlignmentResult{
		"flow":        alignedAll("flow", 1, schema.ExactQuality, 10),
		"temp-supply": alignedAll("temp-supply", 1, schema.ExactQuality, 60),
		"ambient":     alignedAll("ambient", 1, schema.ExactQuality, 5),
	}
	windows := []schema.ExclusionWindow{{
		WindowID: "w-0000000000bb",
		Start:    rowBase.Add(-time.Hour),
		End:      rowBase.Add(time.Hour),
		Status:   schema.RejectedWindow,
	}}

	rows := ClassifyRows(grid, rowTestStreams(), alignments, nil, windows)
	require.Len(t, rows, 1)
	assert.Equal(t, schema.ValidRow, rows[0].GapType)
	assert.Empty(t, rows[0].ExclusionWindowID)
}

func TestClassifyRows_ExclusionBeatsGapSemantic(t *testing.T) {
	// A row both excluded and inside an anomaly gap reads EXCLUDED;
	// the window decision outranks everything.
	grid := rowTestGrid(t, 1)
	alignments := map[string][]schema.AlignmentResult{
		"flow":        alignedAll("flow", 1, schema.MissingQuality, 0),
		"temp-supply": alignedAll("temp-supply", 1, schema.MissingQuality, 0),
		"ambient":     alignedAll("ambient", 1, schema.MissingQuality, 0),
	}
	intervals := map[string][]schema.IntervalClassification{
		"flow": {{
			StreamID: "flow", Start: rowBase.Add(-time.Hour), End: rowBase.Add(time.Hour),
			Size: schema.MajorGap, Semantic: schema.SensorAnomaly,
		}},
	}
	windows := []schema.ExclusionWindow{{
		WindowID: "w-0000000000cc",
		Start:    rowBase.Add(-time.Hour),
		End:      rowBase.Add(time.Hour),
		Status:   schema.ApprovedWindow,
	}}

	rows := ClassifyRows(grid, rowTestStreams(), alignments, intervals, windows)
	require.Len(t, rows, 1)
	assert.Equal(t, schema.ExcludedRow, rows[0].GapType)
}

func TestGapLookup_AdvancesWithGrid(t *testing.T) {
	ics := []schema.IntervalClassification{
		{Start: rowBase, End: rowBase.Add(time.Hour), Size: schema.NormalInterval},
		{Start: rowBase.Add(time.Hour), End: rowBase.Add(3 * time.Hour), Size: schema.MajorGap, Semantic: schema.CovMinor},
		{Start: rowBase.Add(5 * time.Hour), End: rowBase.Add(7 * time.Hour), Size: schema.MinorGap, Semantic: schema.UnknownGap},
	}
	lu := newGapLookup(ics)

	_, ok := lu.semanticAt(rowBase.Add(30 * time.Minute))
	assert.False(t, ok, "normal intervals are not gaps")

	sem, ok := lu.semanticAt(rowBase.Add(2 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, schema.CovMinor, sem)

	_, ok = lu.semanticAt(rowBase.Add(4 * time.Hour))
	assert.False(t, ok)

	sem, ok = lu.semanticAt(rowBase.Add(6 * time.Hour))
	require.True(t, ok)
	assert.Equal(t, schema.UnknownGap, sem)
}
