// Package core has the gap-aware timestamp synchronization engine:
// interval classification, exclusion window detection, grid
// construction, stream alignment, row fusion and confidence scoring.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/internal/ingest"
	"github.com/mkarlsen/gridsync/internal/outwriter"
	"github.com/mkarlsen/gridsync/internal/parquet"
	"github.com/mkarlsen/gridsync/schema"
)

// ExecuteSync runs the synchronization pipeline on the configured input
// and prints results to the configured output. It serves as the main
// entry point for the 'sync' mode.
func ExecuteSync(ctx context.Context, cfg *contract.Config, store contract.DecisionStore) error {
	start := time.Now()

	streams, err := ingest.LoadStreams(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("failed to load input streams: %w", err)
	}

	result, err := Run(ctx, cfg, streams, store)
	if err != nil {
		return err
	}
	duration := time.Since(start)

	if result.State == schema.AwaitingApprovalState {
		return outwriter.PrintProposals(result, cfg)
	}

	if cfg.ParquetFile != "" {
		if err := parquet.WriteRowRecords(result, cfg.ParquetFile); err != nil {
			return fmt.Errorf("parquet export failed: %w", err)
		}
	}
	return outwriter.PrintSyncResult(result, cfg, duration)
}

// ExecuteWindowsList prints all known exclusion windows and their
// decision states.
func ExecuteWindowsList(cfg *contract.Config, store contract.DecisionStore) error {
	if store == nil {
		return fmt.Errorf("windows require a decision store; backend is %q", schema.NoneBackend)
	}
	windows, err := store.ListWindows()
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}
	return outwriter.PrintWindows(windows, cfg)
}

// ExecuteDecide records an APPROVED or REJECTED decision for a window.
func ExecuteDecide(cfg *contract.Config, store contract.DecisionStore, windowID string, status schema.ApprovalStatus) error {
	if store == nil {
		return fmt.Errorf("decisions require a decision store; backend is %q", schema.NoneBackend)
	}
	if _, ok := schema.ValidDecisions[status]; !ok {
		return fmt.Errorf("invalid decision %q: must be %s or %s", status, schema.ApprovedWindow, schema.RejectedWindow)
	}
	if err := store.RecordDecision(windowID, status); err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return outwriter.PrintDecision(windowID, status, cfg)
}

// ExecuteRunsList prints the persisted run history.
func ExecuteRunsList(cfg *contract.Config, store contract.DecisionStore) error {
	if store == nil {
		return fmt.Errorf("run history requires a decision store; backend is %q", schema.NoneBackend)
	}
	runs, err := store.ListRuns(cfg.ResultLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return outwriter.PrintRuns(runs, cfg)
}

// ExecuteTiers displays the formal definitions of the quality tiers and
// confidence penalties. This is a static display that needs no input.
func ExecuteTiers(cfg *contract.Config) error {
	return outwriter.PrintTierDefinitions(cfg)
}
