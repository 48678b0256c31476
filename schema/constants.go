package schema

// Custom string types for type safety.
type (
	// GapSize categorizes the duration of an inter-sample interval.
	GapSize string

	// GapSemantic categorizes the value behavior across a gap.
	GapSemantic string

	// AlignQuality represents the distance tier of an aligned grid point.
	AlignQuality string

	// GapType is the fused row-level classification.
	GapType string

	// ApprovalStatus tracks the human decision on an exclusion window.
	ApprovalStatus string

	// PipelineState is the terminal state of a synchronization run.
	PipelineState string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the decision store.
	DatabaseBackend string

	// WarningCode identifies a recoverable data-quality condition.
	WarningCode string

	// PenaltyKey identifies an itemized confidence penalty.
	PenaltyKey string
)

// Interval size categories.
const (
	NormalInterval GapSize = "NORMAL"
	MinorGap       GapSize = "MINOR_GAP"
	MajorGap       GapSize = "MAJOR_GAP"
)

// Gap semantics derived from value continuity.
const (
	CovConstant   GapSemantic = "COV_CONSTANT"
	CovMinor      GapSemantic = "COV_MINOR"
	SensorAnomaly GapSemantic = "SENSOR_ANOMALY"
	UnknownGap    GapSemantic = "UNKNOWN"
)

// Alignment quality tiers. INTERP denotes a distance tier, not an
// interpolated value; the aligner never synthesizes numbers.
const (
	ExactQuality   AlignQuality = "EXACT"
	CloseQuality   AlignQuality = "CLOSE"
	InterpQuality  AlignQuality = "INTERP"
	MissingQuality AlignQuality = "MISSING"
)

// Row-level gap types.
const (
	ValidRow       GapType = "VALID"
	CovConstantRow GapType = "COV_CONSTANT"
	CovMinorRow    GapType = "COV_MINOR"
	AnomalyRow     GapType = "SENSOR_ANOMALY"
	GapRow         GapType = "GAP"
	ExcludedRow    GapType = "EXCLUDED"
)

// Exclusion window approval states.
const (
	ProposedWindow ApprovalStatus = "PROPOSED"
	ApprovedWindow ApprovalStatus = "APPROVED"
	RejectedWindow ApprovalStatus = "REJECTED"
)

// Pipeline states.
const (
	CompletedState        PipelineState = "COMPLETED"
	AwaitingApprovalState PipelineState = "AWAITING_APPROVAL"
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All decision store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Warning codes for recoverable conditions.
const (
	WarnStreamNotProvided  WarningCode = "stream_not_provided"
	WarnGridTooCoarse      WarningCode = "grid_too_coarse"
	WarnGridTooFine        WarningCode = "grid_too_fine"
	WarnGridJitter         WarningCode = "grid_jitter"
	WarnToleranceMismatch  WarningCode = "tolerance_mismatch"
	WarnUndecidedRejected  WarningCode = "undecided_window_rejected"
	WarnAnomalousIntervals WarningCode = "anomalous_intervals"
)

// Penalty keys used in the stage confidence breakdown.
const (
	PenaltyCoverage  PenaltyKey = "coverage"
	PenaltyJitter    PenaltyKey = "jitter"
	PenaltyGranular  PenaltyKey = "granularity"
	PenaltyAnomalies PenaltyKey = "anomalies"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidBackends lists all valid decision store backends.
var ValidBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidDecisions lists the statuses a caller may record for a window.
var ValidDecisions = map[ApprovalStatus]struct{}{
	ApprovedWindow: {},
	RejectedWindow: {},
}

// QualityConfidence maps each non-missing alignment tier to its
// per-stream confidence contribution.
var QualityConfidence = map[AlignQuality]float64{
	ExactQuality:  0.95,
	CloseQuality:  0.90,
	InterpQuality: 0.85,
}

// AllGapTypes enumerates row classifications in display order.
var AllGapTypes = []GapType{ValidRow, CovConstantRow, CovMinorRow, AnomalyRow, GapRow, ExcludedRow}

// AllQualities enumerates alignment tiers in display order.
var AllQualities = []AlignQuality{ExactQuality, CloseQuality, InterpQuality, MissingQuality}
