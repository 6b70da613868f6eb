package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/morphometry/internal/config"
	"github.com/banshee-data/morphometry/internal/db"
	"github.com/banshee-data/morphometry/internal/fsutil"
	"github.com/banshee-data/morphometry/internal/monitoring"
	"github.com/banshee-data/morphometry/internal/morph/l1grid"
	"github.com/banshee-data/morphometry/internal/morph/l2labels"
	"github.com/banshee-data/morphometry/internal/morph/l5measure"
	"github.com/banshee-data/morphometry/internal/morph/pipeline"
	"github.com/banshee-data/morphometry/internal/morph/report"
	"github.com/banshee-data/morphometry/internal/morph/storage/sqlite"
)

type measureFlags struct {
	grid      string
	dims      [3]int
	spacing   l1grid.Spacing
	shard     bool
	normalize int
	config    string
	dbPath    string
	csvPath   string
	plotPath  string
	htmlPath  string
	workers   int
	quiet     bool
}

func parseMeasureFlags(args []string, stderr io.Writer) (*measureFlags, error) {
	fs := flag.NewFlagSet("measure", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &measureFlags{}
	dims := fs.String("dims", "", "Grid dimensions X,Y,Z (Z=1 for a 2D section)")
	spacing := fs.String("spacing", "1,1,1", "Voxel spacing sx,sy,sz in mm")
	fs.StringVar(&f.grid, "grid", "", "Raw little-endian uint32 label grid (required)")
	fs.BoolVar(&f.shard, "shard", false, "Split touching objects with the watershed sharder")
	fs.IntVar(&f.normalize, "normalize", 0, "Relabel densely, dropping objects smaller than N voxels (0 disables)")
	fs.StringVar(&f.config, "config", "", "Tuning config JSON (defaults when empty)")
	fs.StringVar(&f.dbPath, "db", "", "Store the run in this SQLite database")
	fs.StringVar(&f.csvPath, "csv", "", "Write the statistics table as CSV ('-' for stdout)")
	fs.StringVar(&f.plotPath, "plot", "", "Write a size-class histogram image (.png, .svg, .pdf)")
	fs.StringVar(&f.htmlPath, "html", "", "Write an interactive HTML report")
	fs.IntVar(&f.workers, "workers", -1, "Worker goroutines (overrides config; 0 means NumCPU-1)")
	fs.BoolVar(&f.quiet, "quiet", false, "Suppress progress logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if f.grid == "" {
		return nil, fmt.Errorf("%w: -grid is required", errUsage)
	}
	d, err := parseList(*dims, 3, strconv.Atoi)
	if err != nil {
		return nil, fmt.Errorf("%w: -dims: %v", errUsage, err)
	}
	copy(f.dims[:], d)
	s, err := parseList(*spacing, 3, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
	if err != nil {
		return nil, fmt.Errorf("%w: -spacing: %v", errUsage, err)
	}
	copy(f.spacing[:], s)
	if f.normalize < 0 {
		return nil, fmt.Errorf("%w: -normalize must be >= 0", errUsage)
	}
	if f.normalize > 0 && f.shard {
		return nil, fmt.Errorf("%w: -normalize and -shard are exclusive; sharding already relabels", errUsage)
	}
	return f, nil
}

// parseList parses exactly n comma-separated values.
func parseList[T any](s string, n int, parse func(string) (T, error)) ([]T, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %q", n, s)
	}
	out := make([]T, n)
	for i, p := range parts {
		v, err := parse(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func loadTuning(f *measureFlags) (*config.TuningConfig, error) {
	cfg := config.EmptyTuningConfig()
	if f.config != "" {
		loaded, err := config.LoadTuningConfig(f.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if f.workers >= 0 {
		w := f.workers
		cfg.Workers = &w
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// files is where measure reads grids and writes outputs.
var files fsutil.FileSystem = fsutil.OSFileSystem{}

func readGrid(f *measureFlags) (*l1grid.LabelGrid, error) {
	file, err := files.Open(f.grid)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return l1grid.ReadRaw(file, f.dims[0], f.dims[1], f.dims[2], f.spacing)
}

func runMeasure(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseMeasureFlags(args, stderr)
	if err != nil {
		return err
	}
	tuning, err := loadTuning(f)
	if err != nil {
		return err
	}
	grid, err := readGrid(f)
	if err != nil {
		return fmt.Errorf("read grid: %w", err)
	}
	if f.normalize > 0 {
		var survivors []uint32
		grid, survivors = l2labels.NormalizeGrid(grid, f.normalize)
		monitoring.Logf("normalized labels: %d objects of >= %d voxels", len(survivors), f.normalize)
	}

	var (
		database *db.DB
		runs     *sqlite.RunStore
		run      *sqlite.Run
	)
	if f.dbPath != "" {
		database, err = db.NewDB(f.dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close()
		runs = sqlite.NewRunStore(database.DB)
		if run, err = runs.Start(grid, tuning); err != nil {
			return err
		}
	}

	job := pipeline.Job{Grid: grid, Tuning: tuning, Shard: f.shard}
	if !f.quiet {
		job.Progress = monitoring.ProgressLogger("measure", 2*time.Second)
	}
	res, runErr := pipeline.RunJob(ctx, job)
	if res == nil {
		if run != nil {
			if err := runs.Finish(run.RunID, pipeline.RunReport{Status: pipeline.StatusFailed}); err != nil {
				monitoring.Logf("measure: mark run %s failed: %v", run.RunID, err)
			}
		}
		return runErr
	}
	res.Table.SortByLabel()
	monitoring.Logf("measure: %s, %d/%d objects, %d rows in %s",
		res.Report.Status, res.Report.Processed, res.Report.Total, res.Report.Rows,
		res.Report.Duration.Round(time.Millisecond))

	if run != nil {
		if err := sqlite.NewObjectStore(database.DB).InsertTable(run.RunID, res.Table); err != nil {
			return fmt.Errorf("store objects: %w", err)
		}
		if err := runs.Finish(run.RunID, res.Report); err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
		fmt.Fprintf(stdout, "run %s\n", run.RunID)
	}
	if err := writeOutputs(f, res, tuning, stdout); err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}
	if res.Report.Status == pipeline.StatusStalled {
		return errors.New("run stalled; statistics table is partial")
	}
	return nil
}

func writeOutputs(f *measureFlags, res *pipeline.JobResult, tuning *config.TuningConfig, stdout io.Writer) error {
	if f.csvPath == "-" {
		if err := res.Table.WriteCSV(stdout); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	} else if f.csvPath != "" {
		if err := createFile(f.csvPath, res.Table.WriteCSV); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if f.plotPath == "" && f.htmlPath == "" {
		return nil
	}

	classes := l5measure.OptionsFromTuning(tuning).SizeClasses()
	hist := report.HistogramFromTable(res.Table, classes)
	title := fmt.Sprintf("Size classes (%dD, %d objects)", res.Grid.Dims(), hist.Total())
	if f.plotPath != "" {
		format := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.plotPath), "."))
		err := createFile(f.plotPath, func(w io.Writer) error {
			return hist.WriteImage(w, title, format)
		})
		if err != nil {
			return fmt.Errorf("write plot: %w", err)
		}
	}
	if f.htmlPath != "" {
		err := createFile(f.htmlPath, func(w io.Writer) error {
			return report.RenderHTML(w, hist, report.PointsFromTable(res.Table), report.HTMLOptions{
				Title:    title,
				Subtitle: fmt.Sprintf("status %s", res.Report.Status),
			})
		})
		if err != nil {
			return fmt.Errorf("write html: %w", err)
		}
	}
	return nil
}

// createFile creates path on files and closes it after write.
func createFile(path string, write func(io.Writer) error) error {
	out, err := files.Create(path)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
