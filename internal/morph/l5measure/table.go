package l5measure

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// StatisticsTable is an append-only collection of records. It does not
// deduplicate labels; callers compare Len against the expected object count.
// It is not safe for concurrent use.
type StatisticsTable struct {
	rows []Record
}

// NewStatisticsTable returns an empty table with room for n rows.
func NewStatisticsTable(n int) *StatisticsTable {
	return &StatisticsTable{rows: make([]Record, 0, n)}
}

// Append adds records in the given order.
func (t *StatisticsTable) Append(rows ...Record) {
	t.rows = append(t.rows, rows...)
}

// Len returns the number of rows.
func (t *StatisticsTable) Len() int { return len(t.rows) }

// Rows returns the rows in insertion (or last sorted) order.
func (t *StatisticsTable) Rows() []Record { return t.rows }

// SortByLabel orders rows by ascending label, stable for duplicates.
func (t *StatisticsTable) SortByLabel() {
	sort.SliceStable(t.rows, func(i, j int) bool {
		return t.rows[i].ObjectLabel() < t.rows[j].ObjectLabel()
	})
}

// Columns returns the column names of the table's schema, or nil when the
// table is empty.
func (t *StatisticsTable) Columns() []string {
	if len(t.rows) == 0 {
		return nil
	}
	return t.rows[0].Columns()
}

// WriteCSV writes a header, one line per row, and a trailing class name
// column (pore_size_class_name or grain_size_class_name). NaN values are
// written as empty cells.
func (t *StatisticsTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()
	if cols == nil {
		return nil
	}
	header := append(append([]string(nil), cols...), t.rows[0].ClassColumn()+"_name")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	line := make([]string, len(header))
	for i, r := range t.rows {
		vals := r.Values()
		if len(vals) != len(cols) {
			return fmt.Errorf("row %d has %d values, want %d", i, len(vals), len(cols))
		}
		for j, v := range vals {
			line[j] = formatValue(v)
		}
		line[len(cols)] = r.ClassName()
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ColumnSummary describes one numeric column across all rows.
type ColumnSummary struct {
	Name   string
	N      int
	Mean   float64
	StdDev float64
	Median float64
	Min    float64
	Max    float64
}

// Summary returns per-column statistics for the named columns, skipping
// NaN values. Unknown names are ignored.
func (t *StatisticsTable) Summary(names ...string) []ColumnSummary {
	cols := t.Columns()
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	var out []ColumnSummary
	for _, name := range names {
		ci, ok := index[name]
		if !ok {
			continue
		}
		xs := make([]float64, 0, len(t.rows))
		for _, r := range t.rows {
			if v := r.Values()[ci]; !math.IsNaN(v) {
				xs = append(xs, v)
			}
		}
		s := ColumnSummary{Name: name, N: len(xs)}
		if len(xs) > 0 {
			sort.Float64s(xs)
			s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
			if len(xs) == 1 {
				s.StdDev = 0
			}
			s.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
			s.Min, s.Max = xs[0], xs[len(xs)-1]
		}
		out = append(out, s)
	}
	return out
}

// ClassCounts returns the number of rows per size-class name.
func (t *StatisticsTable) ClassCounts() map[string]int {
	out := make(map[string]int)
	for _, r := range t.rows {
		out[r.ClassName()]++
	}
	return out
}
