package contract

import (
	"github.com/mkarlsen/gridsync/schema"
	"github.com/stretchr/testify/mock"
)

// MockDecisionStore is a mock implementation of DecisionStore for testing.
type MockDecisionStore struct {
	mock.Mock
}

var _ DecisionStore = &MockDecisionStore{} // Compile-time check

// SaveProposal implements the DecisionStore interface.
func (m *MockDecisionStore) SaveProposal(w schema.ExclusionWindow) (bool, error) {
	args := m.Called(w)
	return args.Bool(0), args.Error(1)
}

// GetDecision implements the DecisionStore interface.
func (m *MockDecisionStore) GetDecision(windowID string) (schema.ApprovalStatus, error) {
	args := m.Called(windowID)
	return args.Get(0).(schema.ApprovalStatus), args.Error(1)
}

// RecordDecision implements the DecisionStore interface.
func (m *MockDecisionStore) RecordDecision(windowID string, status schema.ApprovalStatus) error {
	args := m.Called(windowID, status)
	return args.Error(0)
}

// ListWindows implements the DecisionStore interface.
func (m *MockDecisionStore) ListWindows() ([]schema.ExclusionWindow, error) {
	args := m.Called()
	windows, _ := args.Get(0).([]schema.ExclusionWindow)
	return windows, args.Error(1)
}

// BeginRun implements the DecisionStore interface.
func (m *MockDecisionStore) BeginRun(params map[string]any) (int64, error) {
	args := m.Called(params)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the DecisionStore interface.
func (m *MockDecisionStore) EndRun(runID int64, state schema.PipelineState, rowsTotal, rowsValid int, confidence float64) error {
	args := m.Called(runID, state, rowsTotal, rowsValid, confidence)
	return args.Error(0)
}

// ListRuns implements the DecisionStore interface.
func (m *MockDecisionStore) ListRuns(limit int) ([]schema.RunSummary, error) {
	args := m.Called(limit)
	runs, _ := args.Get(0).([]schema.RunSummary)
	return runs, args.Error(1)
}

// Close implements the DecisionStore interface.
func (m *MockDecisionStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
