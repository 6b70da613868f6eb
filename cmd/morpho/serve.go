package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/morphometry/internal/config"
	"github.com/banshee-data/morphometry/internal/db"
	"github.com/banshee-data/morphometry/internal/httputil"
	"github.com/banshee-data/morphometry/internal/monitoring"
	"github.com/banshee-data/morphometry/internal/morph/l5measure"
	"github.com/banshee-data/morphometry/internal/morph/report"
	"github.com/banshee-data/morphometry/internal/morph/storage/sqlite"
)

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "morpho.db", "SQLite statistics database")
	listen := fs.String("listen", ":8090", "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *listen == "" {
		return fmt.Errorf("%w: -listen is required", errUsage)
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	mux, err := newServeMux(database)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("serving %s on %s", database.Path(), *listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// resultServer exposes stored runs as JSON and charts.
type resultServer struct {
	runs    *sqlite.RunStore
	objects *sqlite.ObjectStore
}

func newServeMux(database *db.DB) (*http.ServeMux, error) {
	s := &resultServer{
		runs:    sqlite.NewRunStore(database.DB),
		objects: sqlite.NewObjectStore(database.DB),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /api/runs/{id}/objects", s.handleListObjects)
	mux.HandleFunc("GET /api/runs/{id}/classes", s.handleClassCounts)
	mux.HandleFunc("GET /runs/{id}/histogram", s.handleHistogramHTML)
	mux.HandleFunc("GET /runs/{id}/histogram.png", s.handleHistogramPNG)
	if err := database.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

func (s *resultServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := s.runs.List(limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if runs == nil {
		runs = []*sqlite.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

// lookupRun writes the error response itself and returns nil when the run
// cannot be served.
func (s *resultServer) lookupRun(w http.ResponseWriter, r *http.Request) *sqlite.Run {
	run, err := s.runs.Get(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, err, sqlite.ErrRunNotFound)
		return nil
	}
	return run
}

func (s *resultServer) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if run := s.lookupRun(w, r); run != nil {
		httputil.WriteJSONOK(w, run)
	}
}

func (s *resultServer) handleListObjects(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}
	rows, err := s.objects.ListByRun(run.RunID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if rows == nil {
		rows = []*sqlite.ObjectRow{}
	}
	httputil.WriteJSONOK(w, rows)
}

func (s *resultServer) handleClassCounts(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}
	hist, err := s.histogram(run)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSONOK(w, hist)
}

// histogram rebuilds the full size-class histogram of run, including
// empty classes, from the stored counts and the run's tuning.
func (s *resultServer) histogram(run *sqlite.Run) (*report.Histogram, error) {
	var tuning config.TuningConfig
	if len(run.Params) > 0 {
		if err := json.Unmarshal(run.Params, &tuning); err != nil {
			return nil, fmt.Errorf("decode params of run %s: %w", run.RunID, err)
		}
	}
	names := l5measure.OptionsFromTuning(&tuning).SizeClasses().Names()
	counts := make([]int, len(names))
	stored, err := s.objects.SizeClassCounts(run.RunID)
	if err != nil {
		return nil, err
	}
	for _, c := range stored {
		if c.SizeClass >= 0 && c.SizeClass < len(counts) {
			counts[c.SizeClass] += c.Count
		}
	}
	return report.NewHistogram(names, counts)
}

func (s *resultServer) handleHistogramHTML(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}
	hist, err := s.histogram(run)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rows, err := s.objects.ListByRun(run.RunID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	points := make([]report.Point, 0, len(rows))
	for _, row := range rows {
		if row.AspectRatio != nil {
			points = append(points, report.Point{Label: row.Label, Feret: row.MaxFeret, Aspect: *row.AspectRatio})
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = report.RenderHTML(w, hist, points, report.HTMLOptions{
		Title:    fmt.Sprintf("Run %s", run.RunID),
		Subtitle: fmt.Sprintf("%dD %dx%dx%d, %s, %d objects", run.Dims, run.Nx, run.Ny, run.Nz, run.Status, run.RowCount),
	})
	if err != nil {
		monitoring.Logf("render histogram of run %s: %v", run.RunID, err)
	}
}

func (s *resultServer) handleHistogramPNG(w http.ResponseWriter, r *http.Request) {
	run := s.lookupRun(w, r)
	if run == nil {
		return
	}
	hist, err := s.histogram(run)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := hist.WritePNG(w, fmt.Sprintf("Run %s", run.RunID)); err != nil {
		monitoring.Logf("render png of run %s: %v", run.RunID, err)
	}
}
