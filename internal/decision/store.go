// Package decision persists exclusion window proposals, the human
// decisions made on them, and the run history. It is the durable side
// of the engine's approval boundary: a pipeline suspended in one
// process resumes in a later one with the same decisions.
package decision

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mkarlsen/gridsync/internal/contract"
	"github.com/mkarlsen/gridsync/schema"

	_ "github.com/go-sql-driver/mysql"  // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib"  // PostgreSQL driver
	_ "modernc.org/sqlite"              // SQLite driver
)

const windowsTable = "gridsync_windows"

// StoreImpl handles durable storage operations using various database backends.
type StoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.DecisionStore = &StoreImpl{} // Compile-time check

// NewStore initializes and returns a new DecisionStore based on the
// backend type. A nil store (NoneBackend) is returned as nil so callers
// can skip persistence entirely.
func NewStore(backend schema.DatabaseBackend, connStr string) (contract.DecisionStore, error) {
	if backend == schema.NoneBackend {
		return nil, nil
	}

	var db *sql.DB
	var err error

	switch backend {
	case schema.SQLiteBackend:
		dbPath := connStr
		if dbPath == "" {
			dbPath = contract.GetDecisionDBFilePath()
		}
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store at %q: %w. Ensure the directory is writable", dbPath, err)
		}
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)

	case schema.MySQLBackend:
		// connStr should be:
		// user:password@tcp(host:port)/dbname
		db, err = sql.Open("mysql", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL store: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}

	case schema.PostgreSQLBackend:
		// connStr should be:
		// host=localhost port=5432 user=postgres password=secret dbname=gridsync
		db, err = sql.Open("pgx", connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL store: %w. Check connection format: host=localhost port=5432 user=postgres dbname=mydb", err)
		}

	default:
		return nil, fmt.Errorf("unsupported decision backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database. Check that the server is running and connection parameters are valid: %w", backend, err)
	}

	if _, err := db.Exec(createWindowsTableQuery(backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", windowsTable, err)
	}

	// The run-history table is versioned through migrations.
	if err := migrateRunsWithDB(db, backend, -1); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate run history: %w", err)
	}

	return &StoreImpl{db: db, backend: backend}, nil
}

// createWindowsTableQuery builds the windows DDL. Timestamps are kept
// as RFC3339 strings so the three backends scan identically.
func createWindowsTableQuery(schema.DatabaseBackend) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			window_id VARCHAR(64) PRIMARY KEY,
			start_ts VARCHAR(64) NOT NULL,
			end_ts VARCHAR(64) NOT NULL,
			streams TEXT NOT NULL,
			overlap_s BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL,
			proposed_at VARCHAR(64) NOT NULL,
			decided_at VARCHAR(64)
		);
	`, windowsTable)
}

// SaveProposal inserts a proposal unless its window ID is already
// known. Returns true when the row was newly inserted.
func (s *StoreImpl) SaveProposal(w schema.ExclusionWindow) (bool, error) {
	streamsJSON, err := json.Marshal(w.AffectedStreams)
	if err != nil {
		return false, fmt.Errorf("failed to marshal streams: %w", err)
	}

	var query string
	switch s.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT IGNORE INTO %s
			(window_id, start_ts, end_ts, streams, overlap_s, status, proposed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, windowsTable)
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s
			(window_id, start_ts, end_ts, streams, overlap_s, status, proposed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (window_id) DO NOTHING`, windowsTable)
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR IGNORE INTO %s
			(window_id, start_ts, end_ts, streams, overlap_s, status, proposed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, windowsTable)
	}

	result, err := s.db.Exec(query,
		w.WindowID,
		w.Start.UTC().Format(time.RFC3339),
		w.End.UTC().Format(time.RFC3339),
		string(streamsJSON),
		int64(w.OverlapDuration/time.Second),
		string(schema.ProposedWindow),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetDecision returns the stored status for a window, or PROPOSED when
// the window is unknown or undecided.
func (s *StoreImpl) GetDecision(windowID string) (schema.ApprovalStatus, error) {
	query := fmt.Sprintf(`SELECT status FROM %s WHERE window_id = %s`, windowsTable, s.placeholder(1))
	var status string
	err := s.db.QueryRow(query, windowID).Scan(&status)
	if err == sql.ErrNoRows {
		return schema.ProposedWindow, nil
	}
	if err != nil {
		return schema.ProposedWindow, err
	}
	return schema.ApprovalStatus(status), nil
}

// RecordDecision stores an APPROVED or REJECTED decision.
func (s *StoreImpl) RecordDecision(windowID string, status schema.ApprovalStatus) error {
	if _, ok := schema.ValidDecisions[status]; !ok {
		return fmt.Errorf("invalid decision %q", status)
	}
	query := fmt.Sprintf(`UPDATE %s SET status = %s, decided_at = %s WHERE window_id = %s`,
		windowsTable, s.placeholder(1), s.placeholder(2), s.placeholder(3))
	result, err := s.db.Exec(query, string(status), time.Now().UTC().Format(time.RFC3339), windowID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("unknown window %q", windowID)
	}
	return nil
}

// ListWindows returns all known windows, newest first.
func (s *StoreImpl) ListWindows() ([]schema.ExclusionWindow, error) {
	query := fmt.Sprintf(`SELECT window_id, start_ts, end_ts, streams, overlap_s, status
		FROM %s ORDER BY start_ts DESC`, windowsTable)
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []schema.ExclusionWindow
	for rows.Next() {
		var w schema.ExclusionWindow
		var startStr, endStr, streamsJSON, status string
		var overlapS int64
		if err := rows.Scan(&w.WindowID, &startStr, &endStr, &streamsJSON, &overlapS, &status); err != nil {
			return nil, err
		}
		if w.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
			return nil, fmt.Errorf("corrupt start_ts for window %s: %w", w.WindowID, err)
		}
		if w.End, err = time.Parse(time.RFC3339, endStr); err != nil {
			return nil, fmt.Errorf("corrupt end_ts for window %s: %w", w.WindowID, err)
		}
		if err := json.Unmarshal([]byte(streamsJSON), &w.AffectedStreams); err != nil {
			return nil, fmt.Errorf("corrupt streams for window %s: %w", w.WindowID, err)
		}
		w.OverlapDuration = time.Duration(overlapS) * time.Second
		w.Status = schema.ApprovalStatus(status)
		out = append(out, w)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *StoreImpl) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// placeholder returns the positional SQL placeholder for the backend.
func (s *StoreImpl) placeholder(n int) string {
	if s.backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// placeholders returns n comma-separated placeholders starting at 1.
func (s *StoreImpl) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}
