package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkarlsen/gridsync/core"
	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/internal/ingest"
	"github.com/mkarlsen/gridsync/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	store   contract.DecisionStore
}

func (h *toolHandler) handleRunSync(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("input", "")
	if s := request.GetInt("step", 0); s > 0 {
		cfg.Step = time.Duration(s) * time.Second
	}
	if t := request.GetInt("tolerance", 0); t > 0 {
		cfg.Tolerance = time.Duration(t) * time.Second
	}
	if j := request.GetFloat("anomaly_jump", 0); j > 0 {
		cfg.AnomalyJump = j
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	streams, err := ingest.LoadStreams(cfg.InputPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load input streams: %v", err)), nil
	}

	result, err := core.Run(ctx, cfg, streams, h.store)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("synchronization failed: %v", err)), nil
	}

	// Cap the row payload; callers wanting the full dataset use the CLI
	// with CSV or parquet output.
	if len(result.Rows) > cfg.ResultLimit {
		result.Rows = result.Rows[:cfg.ResultLimit]
	}
	// Interval detail is per sample pair and dwarfs the rest of the payload.
	result.Intervals = nil

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListWindows(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.store == nil {
		return mcp.NewToolResultError("no decision store configured"), nil
	}
	windows, err := h.store.ListWindows()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list windows: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(windows, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleDecideWindow(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.store == nil {
		return mcp.NewToolResultError("no decision store configured"), nil
	}
	windowID := request.GetString("window_id", "")
	status := schema.ApprovalStatus(request.GetString("decision", ""))
	if _, ok := schema.ValidDecisions[status]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid decision %q: must be %s or %s", status, schema.ApprovedWindow, schema.RejectedWindow)), nil
	}

	if err := h.store.RecordDecision(windowID, status); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record decision: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(map[string]string{
		"window_id": windowID,
		"status":    string(status),
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListRuns(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.store == nil {
		return mcp.NewToolResultError("no decision store configured"), nil
	}
	limit := request.GetInt("limit", h.baseCfg.ResultLimit)

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list runs: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(runs, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
