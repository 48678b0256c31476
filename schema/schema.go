// Package schema has models and constants for all parts of gridsync.
package schema

import "time"

// Sample is one raw measurement in a stream. Timestamps are UTC and
// strictly increasing within a stream.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ValueBounds is an optional physical plausibility range for a stream.
// A gap whose closing value lands outside the range is classified as a
// sensor anomaly regardless of the relative change.
type ValueBounds struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// StreamSeries is the upstream input contract for a single measurement
// channel: unit-canonicalized values on a monotonically ordered timeline.
type StreamSeries struct {
	StreamID        string        `json:"stream_id"`
	NominalInterval time.Duration `json:"nominal_interval"`
	Mandatory       bool          `json:"mandatory"`
	Bounds          ValueBounds   `json:"bounds"`
	Samples         []Sample      `json:"samples"`
}

// IntervalClassification describes one consecutive sample pair of a
// stream: its duration category and, for gaps, the value-behavior
// semantic that separates benign COV silence from sensor failure.
type IntervalClassification struct {
	StreamID    string        `json:"stream_id"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	Duration    time.Duration `json:"duration"`
	Size        GapSize       `json:"size"`
	Semantic    GapSemantic   `json:"semantic,omitempty"` // set for non-NORMAL intervals only
	ValueBefore float64       `json:"value_before"`
	ValueAfter  float64       `json:"value_after"`
}

// ExclusionWindow is a candidate (or decided) offline/maintenance range
// where at least two mandatory streams share a major gap. WindowID is
// deterministic over the window bounds and affected streams so that a
// re-run proposes the same IDs and stored decisions still apply.
type ExclusionWindow struct {
	WindowID        string         `json:"window_id"`
	Start           time.Time      `json:"start"`
	End             time.Time      `json:"end"`
	AffectedStreams []string       `json:"affected_streams"`
	OverlapDuration time.Duration  `json:"overlap_duration"`
	Status          ApprovalStatus `json:"status"`
}

// Covers reports whether ts falls inside the window, boundaries included.
func (w *ExclusionWindow) Covers(ts time.Time) bool {
	return !ts.Before(w.Start) && !ts.After(w.End)
}

// MasterGrid is the uniformly spaced target timeline shared read-only by
// all stream aligners.
type MasterGrid struct {
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Step   time.Duration `json:"step"`
	Points []time.Time   `json:"points"`
}

// AlignmentResult maps one grid point of one stream to its nearest raw
// sample. Value and Distance are meaningful only when Quality is not
// MISSING.
type AlignmentResult struct {
	StreamID  string        `json:"stream_id"`
	GridIndex int           `json:"grid_index"`
	Value     float64       `json:"value"`
	Distance  time.Duration `json:"distance"`
	Quality   AlignQuality  `json:"quality"`
}

// StreamCell is the per-stream slot of a row record.
type StreamCell struct {
	Value    float64       `json:"value"`
	Quality  AlignQuality  `json:"quality"`
	Distance time.Duration `json:"distance"`
}

// RowRecord is the final deliverable unit: one fused row per grid
// timestamp, consumed by downstream physics calculations.
type RowRecord struct {
	Timestamp         time.Time             `json:"timestamp"`
	Cells             map[string]StreamCell `json:"cells"`
	GapType           GapType               `json:"gap_type"`
	Confidence        float64               `json:"confidence"`
	ExclusionWindowID string                `json:"exclusion_window_id,omitempty"`
}

// StageResult is the single coherent result object handed to the
// caller: either a completed dataset with metrics, or a pipeline
// suspended at the approval boundary carrying its proposals.
type StageResult struct {
	State     PipelineState                       `json:"state"`
	Streams   []string                            `json:"streams"`
	Intervals map[string][]IntervalClassification `json:"intervals,omitempty"`
	Windows   []ExclusionWindow                   `json:"windows,omitempty"`
	Grid      *MasterGrid                         `json:"grid,omitempty"`
	Rows      []RowRecord                         `json:"rows,omitempty"`
	Metrics   *SyncMetrics                        `json:"metrics,omitempty"`
}

// Proposals returns the windows still waiting for a decision.
func (r *StageResult) Proposals() []ExclusionWindow {
	var pending []ExclusionWindow
	for _, w := range r.Windows {
		if w.Status == ProposedWindow {
			pending = append(pending, w)
		}
	}
	return pending
}

// ApprovedWindows returns the approved subset of the result's windows.
func (r *StageResult) ApprovedWindows() []ExclusionWindow {
	var approved []ExclusionWindow
	for _, w := range r.Windows {
		if w.Status == ApprovedWindow {
			approved = append(approved, w)
		}
	}
	return approved
}
