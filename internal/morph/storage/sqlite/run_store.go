package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
	"github.com/banshee-data/morphometry/internal/morph/pipeline"
)

// StatusRunning marks a run that has started but not finished.
const StatusRunning = "running"

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted measurement of a label grid.
type Run struct {
	RunID       string          `json:"run_id"`
	CreatedAtNs int64           `json:"created_at_ns"`
	Dims        int             `json:"dims"`
	Nx          int             `json:"nx"`
	Ny          int             `json:"ny"`
	Nz          int             `json:"nz"`
	Spacing     l1grid.Spacing  `json:"spacing"`
	Params      json.RawMessage `json:"params,omitempty"`
	Status      string          `json:"status"`
	Processed   int             `json:"processed"`
	Total       int             `json:"total"`
	RowCount    int             `json:"row_count"`
	DurationMs  int64           `json:"duration_ms"`
}

// RunStore persists run metadata.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore backed by db.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Start records a new run for grid with status running. params is any
// JSON-encodable description of the tuning used; nil stores "{}".
func (s *RunStore) Start(grid *l1grid.LabelGrid, params interface{}) (*Run, error) {
	paramsJSON := []byte("{}")
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		paramsJSON = b
	}
	spacingJSON, err := json.Marshal(grid.Spacing)
	if err != nil {
		return nil, fmt.Errorf("marshal spacing: %w", err)
	}

	run := &Run{
		RunID:       uuid.New().String(),
		CreatedAtNs: time.Now().UnixNano(),
		Dims:        grid.Dims(),
		Nx:          grid.Nx,
		Ny:          grid.Ny,
		Nz:          grid.Nz,
		Spacing:     grid.Spacing,
		Params:      json.RawMessage(paramsJSON),
		Status:      StatusRunning,
	}
	err = retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO morph_runs (
				run_id, created_at_ns, dims, nx, ny, nz, spacing_json, params_json, status
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedAtNs, run.Dims, run.Nx, run.Ny, run.Nz,
			string(spacingJSON), string(paramsJSON), run.Status,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Finish stores the engine's report against runID.
func (s *RunStore) Finish(runID string, report pipeline.RunReport) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`
			UPDATE morph_runs
			SET status = ?, processed = ?, total = ?, row_count = ?, duration_ms = ?
			WHERE run_id = ?`,
			string(report.Status), report.Processed, report.Total, report.Rows,
			report.Duration.Milliseconds(), runID,
		)
		if err != nil {
			return fmt.Errorf("update run: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

const runColumns = `run_id, created_at_ns, dims, nx, ny, nz, spacing_json, params_json,
	status, processed, total, row_count, duration_ms`

// Get returns a single run by id.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM morph_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, err
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (s *RunStore) List(limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM morph_runs ORDER BY created_at_ns DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r           Run
		spacingJSON string
		paramsJSON  string
	)
	err := row.Scan(
		&r.RunID, &r.CreatedAtNs, &r.Dims, &r.Nx, &r.Ny, &r.Nz, &spacingJSON, &paramsJSON,
		&r.Status, &r.Processed, &r.Total, &r.RowCount, &r.DurationMs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if err := json.Unmarshal([]byte(spacingJSON), &r.Spacing); err != nil {
		return nil, fmt.Errorf("decode spacing of run %s: %w", r.RunID, err)
	}
	r.Params = json.RawMessage(paramsJSON)
	return &r, nil
}
