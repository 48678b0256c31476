// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the gridsync MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, store contract.DecisionStore) *server.MCPServer {
	s := server.NewMCPServer(
		"Gridsync Synchronization Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		store:   store,
	}

	// --- 1. Tool: run_sync ---
	s.AddTool(mcp.NewTool("run_sync",
		mcp.WithDescription("Synchronize multi-rate sensor streams onto a uniform master grid. Suspends with proposals when new exclusion windows need approval."),
		mcp.WithString("input", mcp.Description("Path to the input CSV file with raw stream samples."), mcp.Required()),
		mcp.WithNumber("step", mcp.Description("Master grid step in seconds. Defaults to 900.")),
		mcp.WithNumber("tolerance", mcp.Description("Maximum alignment distance in seconds. Defaults to 1800.")),
		mcp.WithNumber("anomaly_jump", mcp.Description("Absolute value jump across a gap treated as a sensor anomaly.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of rows returned.")),
	), h.handleRunSync)

	// --- 2. Tool: list_windows ---
	s.AddTool(mcp.NewTool("list_windows",
		mcp.WithDescription("List stored exclusion windows and their decision states."),
	), h.handleListWindows)

	// --- 3. Tool: decide_window ---
	s.AddTool(mcp.NewTool("decide_window",
		mcp.WithDescription("Record an APPROVED or REJECTED decision for a proposed exclusion window."),
		mcp.WithString("window_id", mcp.Description("The window identifier from a proposal."), mcp.Required()),
		mcp.WithString("decision", mcp.Description("The decision to record."), mcp.Required(), mcp.Enum("APPROVED", "REJECTED")),
	), h.handleDecideWindow)

	// --- 4. Tool: list_runs ---
	s.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the persisted synchronization run history."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of runs returned.")),
	), h.handleListRuns)

	return s
}

// StartMCPServer starts the gridsync MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, store contract.DecisionStore) error {
	s := NewMCPServer(baseCfg, store)
	return server.ServeStdio(s)
}
