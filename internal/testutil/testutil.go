// Package testutil provides shared test utilities and synthetic label-grid
// fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertRelClose fails the test unless got is within rel relative
// tolerance of want.
func AssertRelClose(t testing.TB, name string, got, want, rel float64) {
	t.Helper()
	if math.Abs(got-want) > rel*math.Abs(want) {
		t.Errorf("%s = %v, want %v (±%.1f%%)", name, got, want, rel*100)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// PaintDisc labels every pixel of slice z within sqrt(r2) of (cx, cy).
func PaintDisc(g *l1grid.LabelGrid, cx, cy, r2 int, label uint32) {
	for y := 0; y < g.Ny; y++ {
		for x := 0; x < g.Nx; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r2 {
				g.Set(x, y, 0, label)
			}
		}
	}
}

// PaintBall labels every voxel within sqrt(r2) of (cx, cy, cz).
func PaintBall(g *l1grid.LabelGrid, cx, cy, cz, r2 int, label uint32) {
	for z := 0; z < g.Nz; z++ {
		for y := 0; y < g.Ny; y++ {
			for x := 0; x < g.Nx; x++ {
				dx, dy, dz := x-cx, y-cy, z-cz
				if dx*dx+dy*dy+dz*dz <= r2 {
					g.Set(x, y, z, label)
				}
			}
		}
	}
}

// PaintBox labels the half-open box [x0,x1)×[y0,y1)×[z0,z1).
func PaintBox(g *l1grid.LabelGrid, x0, y0, z0, x1, y1, z1 int, label uint32) {
	for z := z0; z < z1; z++ {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				g.Set(x, y, z, label)
			}
		}
	}
}

// CountLabel returns the number of voxels carrying label.
func CountLabel(g *l1grid.LabelGrid, label uint32) int {
	n := 0
	for _, v := range g.Data {
		if v == label {
			n++
		}
	}
	return n
}
