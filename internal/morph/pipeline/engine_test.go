package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/morphometry/internal/config"
	"github.com/banshee-data/morphometry/internal/morph/l1grid"
	"github.com/banshee-data/morphometry/internal/morph/l5measure"
	"github.com/banshee-data/morphometry/internal/testutil"
	"github.com/banshee-data/morphometry/internal/timeutil"
)

// sliceFinder yields pre-built batches.
type sliceFinder struct {
	batches []l1grid.ObjectBatch
	next    int
}

func newSliceFinder(n, perBatch int) *sliceFinder {
	f := &sliceFinder{}
	for label := 1; label <= n; label += perBatch {
		b := l1grid.ObjectBatch{Marker: label}
		for l := label; l < label+perBatch && l <= n; l++ {
			b.Objects = append(b.Objects, l1grid.Object{Label: uint32(l), Count: 1})
		}
		f.batches = append(f.batches, b)
	}
	return f
}

func (f *sliceFinder) Total() int {
	n := 0
	for _, b := range f.batches {
		n += b.Len()
	}
	return n
}

func (f *sliceFinder) Next() (l1grid.ObjectBatch, bool) {
	if f.next >= len(f.batches) {
		return l1grid.ObjectBatch{}, false
	}
	f.next++
	return f.batches[f.next-1], true
}

// countingOp accepts every label not divisible by five.
type countingOp struct{ calls atomic.Int64 }

func (o *countingOp) Measure(obj l1grid.Object) (l5measure.Record, bool) {
	o.calls.Add(1)
	if obj.Label%5 == 0 {
		return nil, false
	}
	return &l5measure.Measurement2D{Label: obj.Label, Count: obj.Count}, true
}

// blockingOp blocks every call until release is closed.
type blockingOp struct{ release chan struct{} }

func (o *blockingOp) Measure(obj l1grid.Object) (l5measure.Record, bool) {
	<-o.release
	return &l5measure.Measurement2D{Label: obj.Label}, true
}

// panicOp panics on label 3.
type panicOp struct{}

func (panicOp) Measure(obj l1grid.Object) (l5measure.Record, bool) {
	if obj.Label == 3 {
		panic("boom")
	}
	return &l5measure.Measurement2D{Label: obj.Label}, true
}

func testConfig(workers int) EngineConfig {
	return EngineConfig{
		Workers:           workers,
		TaskQueueSize:     4,
		ResultBatchSize:   8,
		InactivityTimeout: 5 * time.Second,
	}
}

type progressRecorder struct {
	mu    sync.Mutex
	calls [][2]int
}

func (p *progressRecorder) record(processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, [2]int{processed, total})
}

func TestEngine_EmptyFinder(t *testing.T) {
	e, err := NewEngine(&countingOp{}, DefaultEngineConfig())
	require.NoError(t, err)

	var prog progressRecorder
	start := time.Now()
	table, report, err := e.Run(context.Background(), newSliceFinder(0, 1), prog.record)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "empty run must not wait for the stall timeout")

	assert.Equal(t, 0, table.Len())
	assert.Equal(t, StatusCompleted, report.Status)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, report.Total)
	assert.True(t, report.Complete())
	assert.Equal(t, [][2]int{{0, 0}}, prog.calls)
}

func TestEngine_CountsAndProgress(t *testing.T) {
	for _, workers := range []int{1, 2, 8} {
		op := &countingOp{}
		e, err := NewEngine(op, testConfig(workers))
		require.NoError(t, err)

		var prog progressRecorder
		table, report, err := e.Run(context.Background(), newSliceFinder(1000, 7), prog.record)
		require.NoError(t, err)

		assert.Equal(t, 800, table.Len(), "workers=%d", workers)
		assert.Equal(t, int64(1000), op.calls.Load())
		assert.Equal(t, 1000, report.Processed)
		assert.Equal(t, 800, report.Rows)
		assert.True(t, report.Complete())

		require.NotEmpty(t, prog.calls)
		for i := 1; i < len(prog.calls); i++ {
			assert.GreaterOrEqual(t, prog.calls[i][0], prog.calls[i-1][0], "progress must not go backwards")
		}
		assert.Equal(t, [2]int{1000, 1000}, prog.calls[len(prog.calls)-1])

		for i, s := range e.WorkerStates() {
			assert.Equal(t, WorkerTerminated, s, "worker %d", i)
		}
	}
}

func TestEngine_Stall(t *testing.T) {
	op := &blockingOp{release: make(chan struct{})}
	t.Cleanup(func() { close(op.release) })

	cfg := testConfig(2)
	cfg.InactivityTimeout = 50 * time.Millisecond
	e, err := NewEngine(op, cfg)
	require.NoError(t, err)

	start := time.Now()
	table, report, err := e.Run(context.Background(), newSliceFinder(10, 2), nil)
	require.NoError(t, err, "a stall is reported through the status")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, StatusStalled, report.Status)
	assert.Equal(t, 0, table.Len())
	assert.False(t, report.Complete())
}

func TestEngine_StallOnMockClock(t *testing.T) {
	op := &blockingOp{release: make(chan struct{})}
	t.Cleanup(func() { close(op.release) })

	clock := timeutil.NewMockClock(time.Unix(0, 0))
	cfg := testConfig(2)
	cfg.InactivityTimeout = time.Hour
	cfg.Clock = clock
	e, err := NewEngine(op, cfg)
	require.NoError(t, err)

	var done atomic.Bool
	go func() {
		// The timer may be armed after the first advance; keep advancing.
		for !done.Load() {
			clock.Advance(time.Hour)
			time.Sleep(time.Millisecond)
		}
	}()

	_, report, err := e.Run(context.Background(), newSliceFinder(10, 2), nil)
	done.Store(true)
	require.NoError(t, err)
	assert.Equal(t, StatusStalled, report.Status)
	assert.GreaterOrEqual(t, report.Duration, time.Hour, "duration comes from the injected clock")
}

func TestEngine_Cancel(t *testing.T) {
	op := &blockingOp{release: make(chan struct{})}
	t.Cleanup(func() { close(op.release) })

	e, err := NewEngine(op, testConfig(2))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		assert.Eventually(t, func() bool {
			for _, s := range e.WorkerStates() {
				if s == WorkerProcessing {
					return true
				}
			}
			return false
		}, 2*time.Second, 5*time.Millisecond)
		cancel()
	}()

	_, report, err := e.Run(ctx, newSliceFinder(10, 2), nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StatusCancelled, report.Status)
}

func TestEngine_AlreadyCancelled(t *testing.T) {
	e, err := NewEngine(&countingOp{}, testConfig(4))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls [][2]int
	_, report, err := e.Run(ctx, newSliceFinder(50, 5), func(p, total int) {
		calls = append(calls, [2]int{p, total})
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, StatusCancelled, report.Status)
	assert.Equal(t, [][2]int{{0, 50}}, calls, "only the final progress call is made")
}

func TestEngine_WorkerPanicFailsRun(t *testing.T) {
	e, err := NewEngine(panicOp{}, testConfig(2))
	require.NoError(t, err)

	table, report, err := e.Run(context.Background(), newSliceFinder(20, 1), nil)
	assert.True(t, errors.Is(err, ErrWorkerFailed), "err = %v", err)
	assert.Equal(t, StatusFailed, report.Status)
	assert.NotNil(t, table)
	assert.Less(t, table.Len(), 20)
}

func TestEngine_RejectsConcurrentRuns(t *testing.T) {
	op := &blockingOp{release: make(chan struct{})}
	e, err := NewEngine(op, testConfig(1))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = e.Run(context.Background(), newSliceFinder(3, 1), nil)
	}()
	require.Eventually(t, func() bool { return e.WorkerStates()[0] == WorkerProcessing }, 2*time.Second, 5*time.Millisecond)

	_, _, err = e.Run(context.Background(), newSliceFinder(1, 1), nil)
	assert.ErrorIs(t, err, ErrEngineBusy)

	close(op.release)
	<-done
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(nil, DefaultEngineConfig())
	assert.Error(t, err)

	cfg := DefaultEngineConfig()
	cfg.InactivityTimeout = 0
	_, err = NewEngine(&countingOp{}, cfg)
	assert.Error(t, err)
}

func TestConfigFromTuning(t *testing.T) {
	cfg := ConfigFromTuning(config.MustLoadDefaultConfig())
	assert.Equal(t, DefaultEngineConfig(), cfg)

	workers := 3
	timeout := "2s"
	cfg = ConfigFromTuning(&config.TuningConfig{Workers: &workers, InactivityTimeout: &timeout})
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 2*time.Second, cfg.InactivityTimeout)
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}

func TestWorkerState_String(t *testing.T) {
	assert.Equal(t, "idle", WorkerIdle.String())
	assert.Equal(t, "processing", WorkerProcessing.String())
	assert.Equal(t, "draining", WorkerDraining.String())
	assert.Equal(t, "terminated", WorkerTerminated.String())
	assert.Equal(t, "unknown", WorkerState(42).String())
}

// squaresGrid paints n 4x4 squares, each with its own label, in rows of five.
func squaresGrid(n int) *l1grid.LabelGrid {
	rows := (n + 4) / 5
	g := l1grid.MustLabelGrid(31, 6*rows+1, 1, l1grid.UnitSpacing)
	for i := 0; i < n; i++ {
		x, y := 1+6*(i%5), 1+6*(i/5)
		testutil.PaintBox(g, x, y, 0, x+4, y+4, 1, uint32(i+1))
	}
	return g
}

func TestRunJob_EmptyGrid(t *testing.T) {
	g := l1grid.MustLabelGrid(16, 16, 4, l1grid.UnitSpacing)
	var prog progressRecorder
	res, err := RunJob(context.Background(), Job{Grid: g, Progress: prog.record})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Table.Len())
	assert.Equal(t, 0, res.Report.Processed)
	assert.Equal(t, 0, res.Report.Total)
	assert.Equal(t, StatusCompleted, res.Report.Status)
	assert.Equal(t, [][2]int{{0, 0}}, prog.calls)
}

func TestRunJob_WorkerCountsAgree(t *testing.T) {
	const n = 20
	for _, workers := range []int{1, 2, 8} {
		w, window, batch := workers, 3, 2
		tuning := &config.TuningConfig{Workers: &w, WindowSize: &window, ResultBatchSize: &batch}
		res, err := RunJob(context.Background(), Job{Grid: squaresGrid(n), Tuning: tuning})
		require.NoError(t, err)
		assert.Equal(t, n, res.Table.Len(), "workers=%d", workers)
		assert.True(t, res.Report.Complete())

		res.Table.SortByLabel()
		for i, r := range res.Table.Rows() {
			assert.Equal(t, uint32(i+1), r.ObjectLabel())
		}
	}
}

func TestRunJob_ShardsTouchingDiscs(t *testing.T) {
	g := l1grid.MustLabelGrid(24, 16, 1, l1grid.UnitSpacing)
	testutil.PaintDisc(g, 8, 8, 25, 1)
	testutil.PaintDisc(g, 16, 8, 25, 1)

	threshold := 10
	res, err := RunJob(context.Background(), Job{
		Grid:   g,
		Tuning: &config.TuningConfig{VolumeThreshold: &threshold},
		Shard:  true,
	})
	require.NoError(t, err)
	assert.Len(t, res.Labels, 2)
	assert.Equal(t, 2, res.Table.Len())
	assert.NotSame(t, g, res.Grid)
}
