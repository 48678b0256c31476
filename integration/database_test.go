//go:build database

// Package integration contains integration tests for gridsync.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags database ./integration
package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/internal/decision"
	"github.com/mkarlsen/gridsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDecisionStoreWithMySQL exercises the decision store against a MySQL backend.
func TestDecisionStoreWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "gridsync",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/gridsync?parseTime=true", host, port.Port())
	exerciseDecisionStore(t, schema.MySQLBackend, connStr)
}

// TestDecisionStoreWithPostgres exercises the decision store against a PostgreSQL backend.
func TestDecisionStoreWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	exerciseDecisionStore(t, schema.PostgreSQLBackend, connStr)
}

// exerciseDecisionStore runs the full window and run-history lifecycle
// against a live backend.
func exerciseDecisionStore(t *testing.T, backend schema.DatabaseBackend, connStr string) {
	store, err := decision.NewStore(backend, connStr)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() { _ = store.Close() }()

	window := schema.ExclusionWindow{
		WindowID:        "w-000000000abc",
		Start:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		AffectedStreams: []string{"flow", "temp-supply"},
		OverlapDuration: 12 * time.Hour,
		Status:          schema.ProposedWindow,
	}

	// First save inserts, second save is a no-op
	inserted, err := store.SaveProposal(window)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.SaveProposal(window)
	require.NoError(t, err)
	assert.False(t, inserted)

	// Fresh proposal has no decision yet
	status, err := store.GetDecision(window.WindowID)
	require.NoError(t, err)
	assert.Equal(t, schema.ProposedWindow, status)

	// Approve and read back
	require.NoError(t, store.RecordDecision(window.WindowID, schema.ApprovedWindow))
	status, err = store.GetDecision(window.WindowID)
	require.NoError(t, err)
	assert.Equal(t, schema.ApprovedWindow, status)

	// Unknown windows are rejected
	err = store.RecordDecision("w-missing", schema.RejectedWindow)
	assert.Error(t, err)

	windows, err := store.ListWindows()
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, window.AffectedStreams, windows[0].AffectedStreams)
	assert.Equal(t, schema.ApprovedWindow, windows[0].Status)

	// Run history lifecycle
	cfg := &contract.Config{
		Step:        15 * time.Minute,
		Tolerance:   30 * time.Minute,
		AnomalyJump: contract.DefaultAnomalyJump,
	}
	runID, err := store.BeginRun(cfg.ConfigParams())
	require.NoError(t, err)
	require.NotZero(t, runID)

	require.NoError(t, store.EndRun(runID, schema.CompletedState, 960, 875, 0.95))

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, schema.CompletedState, runs[0].State)
	assert.Equal(t, 960, runs[0].RowsTotal)
	assert.Equal(t, 875, runs[0].RowsValid)
	require.NotNil(t, runs[0].FinishedAt)
}
