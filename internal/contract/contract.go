// Package contract provides interfaces and shared utilities for the gridsync CLI's internal architecture.
package contract

import (
	"github.com/mkarlsen/gridsync/schema"
)

// DecisionStore persists exclusion window proposals and the human
// decisions made on them, plus the run history. This is the only
// stateful boundary of the engine; it allows a suspended pipeline to
// resume in a later process with the same decisions.
type DecisionStore interface {
	// SaveProposal inserts a proposal if its window ID is not yet known.
	// It returns true when the proposal was newly inserted.
	SaveProposal(w schema.ExclusionWindow) (bool, error)

	// GetDecision returns the recorded status for a window ID, or
	// PROPOSED when no decision exists yet.
	GetDecision(windowID string) (schema.ApprovalStatus, error)

	// RecordDecision stores an APPROVED or REJECTED decision.
	RecordDecision(windowID string, status schema.ApprovalStatus) error

	// ListWindows returns all known windows, newest first.
	ListWindows() ([]schema.ExclusionWindow, error)

	// BeginRun opens a run-history record and returns its ID.
	BeginRun(params map[string]any) (int64, error)

	// EndRun finalizes a run-history record.
	EndRun(runID int64, state schema.PipelineState, rowsTotal, rowsValid int, confidence float64) error

	// ListRuns returns the run history, newest first, up to limit rows.
	ListRuns(limit int) ([]schema.RunSummary, error)

	Close() error
}
