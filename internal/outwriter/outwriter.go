// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSyncResult prints a completed synchronization run using the configured output format.
func (ow *OutWriter) WriteSyncResult(result *schema.StageResult, cfg *contract.Config, duration time.Duration) error {
	return PrintSyncResult(result, cfg, duration)
}

// WriteProposals prints the pending exclusion window proposals of a suspended run.
func (ow *OutWriter) WriteProposals(result *schema.StageResult, cfg *contract.Config) error {
	return PrintProposals(result, cfg)
}

// WriteWindows prints the stored exclusion windows using the configured output format.
func (ow *OutWriter) WriteWindows(windows []schema.ExclusionWindow, cfg *contract.Config) error {
	return PrintWindows(windows, cfg)
}

// WriteRuns prints the persisted run history using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.RunSummary, cfg *contract.Config) error {
	return PrintRuns(runs, cfg)
}

// WriteTierDefinitions prints the quality tier and penalty definitions.
func (ow *OutWriter) WriteTierDefinitions(cfg *contract.Config) error {
	return PrintTierDefinitions(cfg)
}
