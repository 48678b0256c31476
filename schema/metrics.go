package schema

import "time"

// StreamCoverage summarizes alignment quality for one stream across the
// whole grid.
type StreamCoverage struct {
	StreamID    string  `json:"stream_id"`
	Mandatory   bool    `json:"mandatory"`
	Exact       int     `json:"exact"`
	Close       int     `json:"close"`
	Interp      int     `json:"interp"`
	Missing     int     `json:"missing"`
	CoveragePct float64 `json:"coverage_pct"` // (exact+close+interp) / grid points
}

// GridStats describes the spacing of the realized grid. CV should be
// exactly zero; anything else indicates a builder defect, not data noise.
type GridStats struct {
	Points   int           `json:"points"`
	MeanStep time.Duration `json:"mean_step"`
	StdStep  time.Duration `json:"std_step"`
	CV       float64       `json:"cv"`
}

// Penalty is one itemized deduction from the stage confidence.
type Penalty struct {
	Key    PenaltyKey `json:"key"`
	Amount float64    `json:"amount"`
	Detail string     `json:"detail"`
}

// Warning is a recoverable data-quality condition, accumulated as data
// rather than raised as control flow.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// SyncMetrics is the metrics object of the downstream output contract:
// coverage, row counts, grid statistics, and the stage's scalar
// confidence with itemized penalties and warnings.
type SyncMetrics struct {
	Streams         []StreamCoverage `json:"streams"`
	RowCounts       map[GapType]int  `json:"row_counts"`
	Grid            GridStats        `json:"grid"`
	CoveragePct     float64          `json:"coverage_pct"` // VALID rows / total rows
	StageConfidence float64          `json:"stage_confidence"`
	Penalties       []Penalty        `json:"penalties,omitempty"`
	Warnings        []Warning        `json:"warnings,omitempty"`
}

// TotalPenalty sums all itemized penalties.
func (m *SyncMetrics) TotalPenalty() float64 {
	var total float64
	for _, p := range m.Penalties {
		total += p.Amount
	}
	return total
}

// RunSummary is one row of the persisted run history.
type RunSummary struct {
	RunID        int64          `json:"run_id"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	State        PipelineState  `json:"state"`
	RowsTotal    int            `json:"rows_total"`
	RowsValid    int            `json:"rows_valid"`
	Confidence   float64        `json:"confidence"`
	ConfigParams map[string]any `json:"config_params,omitempty"`
}
