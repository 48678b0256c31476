package outwriter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syncResultFixture() *schema.StageResult {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &schema.StageResult{
		State:   schema.CompletedState,
		Streams: []string{"ambient", "flow"},
		Rows: []schema.RowRecord{
			{
				Timestamp:  ts,
				GapType:    schema.ValidRow,
				Confidence: 0.95,
				Cells: map[string]schema.StreamCell{
					"ambient": {Value: 4.2, Quality: schema.CloseQuality, Distance: 120 * time.Second},
					"flow":    {Value: 12.5, Quality: schema.ExactQuality},
				},
			},
			{
				Timestamp:         ts.Add(15 * time.Minute),
				GapType:           schema.ExcludedRow,
				Confidence:        0,
				ExclusionWindowID: "w-00deadbeef01",
				Cells: map[string]schema.StreamCell{
					"ambient": {Quality: schema.MissingQuality},
					"flow":    {Value: 12.6, Quality: schema.InterpQuality, Distance: 900 * time.Second},
				},
			},
		},
	}
}

func TestWriteCSVSyncResult(t *testing.T) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	fmtFloat, _ := createFormatters(2)

	require.NoError(t, writeCSVSyncResult(w, syncResultFixture(), fmtFloat))
	w.Flush()

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"timestamp", "gap_type", "confidence", "label", "exclusion_window_id",
		"ambient_value", "ambient_quality", "ambient_distance_s",
		"flow_value", "flow_quality", "flow_distance_s",
	}, records[0])

	assert.Equal(t, []string{
		"2024-03-01T00:00:00Z", "VALID", "0.95", "High", "",
		"4.20", "CLOSE", "120",
		"12.50", "EXACT", "0",
	}, records[1])

	// A missing cell leaves value and distance empty.
	assert.Equal(t, []string{
		"2024-03-01T00:15:00Z", "EXCLUDED", "0.00", "None", "w-00deadbeef01",
		"", "MISSING", "",
		"12.60", "INTERP", "900",
	}, records[2])
}

func TestWriteCSVWindows(t *testing.T) {
	windows := []schema.ExclusionWindow{{
		WindowID:        "w-00deadbeef01",
		Start:           time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC),
		End:             time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC),
		AffectedStreams: []string{"flow", "temp-supply"},
		OverlapDuration: 12 * time.Hour,
		Status:          schema.ProposedWindow,
	}}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, writeCSVWindows(w, windows))
	w.Flush()

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"window_id", "start", "end", "overlap_s", "affected_streams", "status"}, records[0])
	assert.Equal(t, []string{
		"w-00deadbeef01", "2024-03-01T04:00:00Z", "2024-03-01T16:00:00Z",
		"43200", "flow|temp-supply", "PROPOSED",
	}, records[1])
}

func TestWriteCSVRuns(t *testing.T) {
	started := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	finished := started.Add(3 * time.Second)
	runs := []schema.RunSummary{
		{
			RunID:        1700000000000000001,
			StartedAt:    started,
			FinishedAt:   &finished,
			State:        schema.CompletedState,
			RowsTotal:    960,
			RowsValid:    875,
			Confidence:   0.95,
			ConfigParams: map[string]any{"workers": 4.0},
		},
		{RunID: 1700000000000000002, StartedAt: started, State: schema.AwaitingApprovalState},
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	fmtFloat, _ := createFormatters(2)
	require.NoError(t, writeCSVRuns(w, runs, fmtFloat))
	w.Flush()

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1700000000000000001", records[1][0])
	assert.Equal(t, "2024-03-01T08:00:03Z", records[1][2])
	assert.Equal(t, "COMPLETED", records[1][3])
	assert.Equal(t, "960", records[1][4])
	assert.Equal(t, `{"workers":4}`, records[1][7])

	// Unfinished runs leave finished_at and config_params empty.
	assert.Equal(t, "", records[2][2])
	assert.Equal(t, "AWAITING_APPROVAL", records[2][3])
	assert.Equal(t, "", records[2][7])
}

func TestWriteJSONIndents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"points": 81}))
	assert.Equal(t, "{\n  \"points\": 81\n}\n", buf.String())
}

func TestCreateFormatters(t *testing.T) {
	fmtFloat, intFmt := createFormatters(3)
	assert.Equal(t, "0.950", fmtFloat(0.95))
	assert.Equal(t, "%d", intFmt)

	fmtFloat, _ = createFormatters(0)
	assert.Equal(t, "1", fmtFloat(0.95))
}

func TestGetMaxStreamColumns(t *testing.T) {
	cases := []struct {
		width int
		want  int
	}{
		{70, 1},   // narrower than base + one column still shows one
		{76, 1},   // 16 available, exactly one column
		{92, 2},   // 32 available
		{140, 5},  // 80 available
		{300, 12}, // capped
	}
	for _, tc := range cases {
		cfg := &contract.Config{Width: tc.width}
		assert.Equal(t, tc.want, GetMaxStreamColumns(cfg), "width %d", tc.width)
	}
}

func TestFormatCell(t *testing.T) {
	fmtFloat, _ := createFormatters(2)

	assert.Equal(t, "-", formatCell(schema.StreamCell{Quality: schema.MissingQuality}, fmtFloat))
	assert.Equal(t, "12.50", formatCell(schema.StreamCell{Value: 12.5, Quality: schema.ExactQuality}, fmtFloat))
	assert.Equal(t, "12.50 (C)", formatCell(schema.StreamCell{Value: 12.5, Quality: schema.CloseQuality}, fmtFloat))
	assert.Equal(t, "12.50 (I)", formatCell(schema.StreamCell{Value: 12.5, Quality: schema.InterpQuality}, fmtFloat))
}

func TestBuildTiersRenderModel(t *testing.T) {
	model := buildTiersRenderModel()

	require.Len(t, model.Tiers, 4)
	assert.Equal(t, schema.ExactQuality, model.Tiers[0].Quality)
	assert.Equal(t, 0.95, model.Tiers[0].Confidence)
	assert.Equal(t, schema.MissingQuality, model.Tiers[3].Quality)
	assert.Zero(t, model.Tiers[3].Confidence)

	require.Len(t, model.Penalties, 4)
	keys := make([]schema.PenaltyKey, 0, 4)
	for _, p := range model.Penalties {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []schema.PenaltyKey{
		schema.PenaltyCoverage, schema.PenaltyJitter, schema.PenaltyGranular, schema.PenaltyAnomalies,
	}, keys)
}

func TestPrintTiersText(t *testing.T) {
	var buf bytes.Buffer
	cfg := &contract.Config{UseEmojis: false}
	require.NoError(t, printTiersText(&buf, buildTiersRenderModel(), cfg))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Alignment Quality Tiers\n"))
	assert.Contains(t, out, "EXACT (conf 0.95, < 60s)")
	assert.Contains(t, out, "Stage Confidence Penalties")
	assert.Contains(t, out, "MISSING (conf 0.00, > tolerance)")
}
