package report

import (
	"errors"
	"math"

	"github.com/banshee-data/morphometry/internal/morph/l5measure"
)

// ErrLengthMismatch is returned when names and counts differ in length.
var ErrLengthMismatch = errors.New("report: names and counts differ in length")

// Histogram is the object count per size class, in class order. Every class
// of the table is present, including empty ones.
type Histogram struct {
	Names  []string
	Counts []int
}

// NewHistogram builds a histogram from parallel name and count slices.
func NewHistogram(names []string, counts []int) (*Histogram, error) {
	if len(names) != len(counts) {
		return nil, ErrLengthMismatch
	}
	h := &Histogram{
		Names:  append([]string(nil), names...),
		Counts: append([]int(nil), counts...),
	}
	return h, nil
}

// HistogramFromTable counts the rows of table per class of classes.
// Rows whose class name is not in classes are ignored.
func HistogramFromTable(table *l5measure.StatisticsTable, classes *l5measure.SizeClassTable) *Histogram {
	names := classes.Names()
	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	counts := make([]int, len(names))
	for name, n := range table.ClassCounts() {
		if i, ok := index[name]; ok {
			counts[i] += n
		}
	}
	return &Histogram{Names: names, Counts: counts}
}

// Total returns the number of objects counted.
func (h *Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Point is one object in the Feret/aspect scatter.
type Point struct {
	Label  uint32
	Feret  float64
	Aspect float64
}

// PointsFromTable extracts scatter points from table, skipping rows whose
// aspect ratio is not finite.
func PointsFromTable(table *l5measure.StatisticsTable) []Point {
	pts := make([]Point, 0, table.Len())
	for _, r := range table.Rows() {
		a := r.Aspect()
		if math.IsNaN(a) || math.IsInf(a, 0) {
			continue
		}
		pts = append(pts, Point{Label: r.ObjectLabel(), Feret: r.Feret(), Aspect: a})
	}
	return pts
}
