package decision

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkarlsen/gridsync/schema"
)

const runsTable = "gridsync_runs"

// BeginRun opens a run-history record and returns its ID. Run IDs are
// assigned by the application so the insert stays portable across
// backends.
func (s *StoreImpl) BeginRun(params map[string]any) (int64, error) {
	configJSON, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	runID := time.Now().UnixNano()
	query := fmt.Sprintf(`INSERT INTO %s (run_id, started_at, state, rows_total, rows_valid, confidence, config_params)
		VALUES (%s)`, runsTable, s.placeholders(7))
	_, err = s.db.Exec(query,
		runID,
		time.Now().UTC().Format(time.RFC3339),
		string(schema.AwaitingApprovalState),
		0, 0, 0.0,
		string(configJSON),
	)
	if err != nil {
		return 0, err
	}
	return runID, nil
}

// EndRun finalizes a run-history record.
func (s *StoreImpl) EndRun(runID int64, state schema.PipelineState, rowsTotal, rowsValid int, confidence float64) error {
	query := fmt.Sprintf(`UPDATE %s SET finished_at = %s, state = %s, rows_total = %s, rows_valid = %s, confidence = %s
		WHERE run_id = %s`, runsTable,
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5), s.placeholder(6))
	_, err := s.db.Exec(query,
		time.Now().UTC().Format(time.RFC3339),
		string(state),
		rowsTotal, rowsValid, confidence,
		runID,
	)
	return err
}

// ListRuns returns the run history, newest first.
func (s *StoreImpl) ListRuns(limit int) ([]schema.RunSummary, error) {
	query := fmt.Sprintf(`SELECT run_id, started_at, finished_at, state, rows_total, rows_valid, confidence, config_params
		FROM %s ORDER BY run_id DESC LIMIT %s`, runsTable, s.placeholder(1))
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []schema.RunSummary
	for rows.Next() {
		var r schema.RunSummary
		var startedStr, state string
		var finishedStr, configJSON sql.NullString
		if err := rows.Scan(&r.RunID, &startedStr, &finishedStr, &state, &r.RowsTotal, &r.RowsValid, &r.Confidence, &configJSON); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, startedStr); err != nil {
			return nil, fmt.Errorf("corrupt started_at for run %d: %w", r.RunID, err)
		}
		if finishedStr.Valid && finishedStr.String != "" {
			t, err := time.Parse(time.RFC3339, finishedStr.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt finished_at for run %d: %w", r.RunID, err)
			}
			r.FinishedAt = &t
		}
		r.State = schema.PipelineState(state)
		if configJSON.Valid && configJSON.String != "" {
			if err := json.Unmarshal([]byte(configJSON.String), &r.ConfigParams); err != nil {
				return nil, fmt.Errorf("corrupt config_params for run %d: %w", r.RunID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
