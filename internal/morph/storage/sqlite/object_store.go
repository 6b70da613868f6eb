package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/banshee-data/morphometry/internal/morph/l5measure"
)

// ObjectRow is one persisted measurement. Metrics holds every finite
// column of the record keyed by column name.
type ObjectRow struct {
	RunID         string             `json:"run_id"`
	Label         uint32             `json:"label"`
	VoxelCount    int                `json:"voxel_count"`
	MaxFeret      float64            `json:"max_feret"`
	AspectRatio   *float64           `json:"aspect_ratio,omitempty"`
	SizeClass     int                `json:"size_class"`
	SizeClassName string             `json:"size_class_name"`
	Metrics       map[string]float64 `json:"metrics"`
}

// ClassCount is the number of objects of one run in one size class.
type ClassCount struct {
	SizeClass int    `json:"size_class"`
	Name      string `json:"name"`
	Count     int    `json:"count"`
}

// ObjectStore persists statistics tables.
type ObjectStore struct {
	db *sql.DB
}

// NewObjectStore creates an ObjectStore backed by db.
func NewObjectStore(db *sql.DB) *ObjectStore {
	return &ObjectStore{db: db}
}

// InsertTable writes every row of table under runID in one transaction.
// A failed insert leaves no rows behind.
func (s *ObjectStore) InsertTable(runID string, table *l5measure.StatisticsTable) error {
	if table.Len() == 0 {
		return nil
	}
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		stmt, err := tx.Prepare(`
			INSERT INTO morph_objects (
				run_id, label, voxel_count, max_feret, aspect_ratio,
				size_class, size_class_name, metrics_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range table.Rows() {
			row := newObjectRow(runID, rec)
			metrics, err := json.Marshal(row.Metrics)
			if err != nil {
				return fmt.Errorf("marshal metrics of label %d: %w", row.Label, err)
			}
			var aspect interface{}
			if row.AspectRatio != nil {
				aspect = *row.AspectRatio
			}
			if _, err := stmt.Exec(
				runID, row.Label, row.VoxelCount, row.MaxFeret, aspect,
				row.SizeClass, row.SizeClassName, string(metrics),
			); err != nil {
				return fmt.Errorf("insert label %d: %w", row.Label, err)
			}
		}
		return tx.Commit()
	})
}

// ListByRun returns the rows of runID ordered by label.
func (s *ObjectStore) ListByRun(runID string) ([]*ObjectRow, error) {
	rows, err := s.db.Query(`
		SELECT run_id, label, voxel_count, max_feret, aspect_ratio,
		       size_class, size_class_name, metrics_json
		FROM morph_objects
		WHERE run_id = ?
		ORDER BY label`, runID)
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()

	var out []*ObjectRow
	for rows.Next() {
		var (
			r       ObjectRow
			aspect  sql.NullFloat64
			metrics string
		)
		if err := rows.Scan(&r.RunID, &r.Label, &r.VoxelCount, &r.MaxFeret, &aspect,
			&r.SizeClass, &r.SizeClassName, &metrics); err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		if aspect.Valid {
			v := aspect.Float64
			r.AspectRatio = &v
		}
		if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics of label %d: %w", r.Label, err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// SizeClassCounts returns the populated size classes of runID in
// ascending class order.
func (s *ObjectStore) SizeClassCounts(runID string) ([]ClassCount, error) {
	rows, err := s.db.Query(`
		SELECT size_class, size_class_name, COUNT(*)
		FROM morph_objects
		WHERE run_id = ?
		GROUP BY size_class, size_class_name
		ORDER BY size_class`, runID)
	if err != nil {
		return nil, fmt.Errorf("query size classes: %w", err)
	}
	defer rows.Close()

	var out []ClassCount
	for rows.Next() {
		var c ClassCount
		if err := rows.Scan(&c.SizeClass, &c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scan size class: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func newObjectRow(runID string, rec l5measure.Record) *ObjectRow {
	cols := rec.Columns()
	vals := rec.Values()
	row := &ObjectRow{
		RunID:         runID,
		Label:         rec.ObjectLabel(),
		VoxelCount:    int(vals[1]),
		MaxFeret:      rec.Feret(),
		SizeClass:     int(vals[len(vals)-1]),
		SizeClassName: rec.ClassName(),
		Metrics:       make(map[string]float64, len(cols)),
	}
	if a := rec.Aspect(); !math.IsNaN(a) && !math.IsInf(a, 0) {
		row.AspectRatio = &a
	}
	for i, c := range cols {
		if v := vals[i]; !math.IsNaN(v) && !math.IsInf(v, 0) {
			row.Metrics[c] = v
		}
	}
	return row
}
