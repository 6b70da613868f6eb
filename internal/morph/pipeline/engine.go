package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/banshee-data/morphometry/internal/morph/l1grid"
	"github.com/banshee-data/morphometry/internal/morph/l5measure"
	"github.com/banshee-data/morphometry/internal/timeutil"
)

var (
	// ErrWorkerFailed reports a worker that panicked while measuring.
	ErrWorkerFailed = errors.New("measurement worker failed")
	// ErrEngineBusy reports a Run call while another is in progress.
	ErrEngineBusy = errors.New("engine is already running")
)

// ObjectFinder yields object batches in monotonic scan order. Total must be
// known before the first Next call. l1grid.Finder implements it.
type ObjectFinder interface {
	Total() int
	Next() (l1grid.ObjectBatch, bool)
}

// ProgressFunc receives non-decreasing (processed, total) counts from the
// aggregating goroutine. The final call is always made, including (0, 0)
// for an empty scan.
type ProgressFunc func(processed, total int)

// task is one unit of work, or a close sentinel.
type task struct {
	objects []l1grid.Object
	marker  int
	stop    bool
}

// resultMsg carries records and the number of objects they account for,
// a done sentinel, or a worker failure.
type resultMsg struct {
	worker    int
	records   []l5measure.Record
	processed int
	done      bool
	err       error
}

// Engine measures every object a finder yields with a fixed operator.
type Engine struct {
	cfg     EngineConfig
	op      l5measure.Operator
	states  []atomic.Int32
	running atomic.Bool
}

// NewEngine validates cfg and binds the operator.
func NewEngine(op l5measure.Operator, cfg EngineConfig) (*Engine, error) {
	if op == nil {
		return nil, errors.New("operator is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	cfg.Clock = timeutil.OrReal(cfg.Clock)
	return &Engine{
		cfg:    cfg,
		op:     op,
		states: make([]atomic.Int32, cfg.Workers),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig { return e.cfg }

// WorkerStates returns a snapshot of every worker's state.
func (e *Engine) WorkerStates() []WorkerState {
	out := make([]WorkerState, len(e.states))
	for i := range e.states {
		out[i] = WorkerState(e.states[i].Load())
	}
	return out
}

// Run drains finder through the worker pool and returns the accumulated
// table. The table is always returned, partial when the status is not
// StatusCompleted. A stall is reported through the status only; a worker
// failure returns an error wrapping ErrWorkerFailed and a cancelled
// context returns ctx.Err().
//
// Run returns as soon as the aggregator stops. Workers blocked inside the
// operator exit once their current object finishes.
func (e *Engine) Run(ctx context.Context, finder ObjectFinder, progress ProgressFunc) (*l5measure.StatisticsTable, RunReport, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, RunReport{}, ErrEngineBusy
	}
	defer e.running.Store(false)

	clock := e.cfg.Clock
	start := clock.Now()
	total := finder.Total()
	report := RunReport{Total: total, Workers: e.cfg.Workers}
	table := l5measure.NewStatisticsTable(total)
	if progress == nil {
		progress = func(int, int) {}
	}
	for i := range e.states {
		e.states[i].Store(int32(WorkerIdle))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan task, e.cfg.TaskQueueSize)
	results := make(chan resultMsg, e.cfg.Workers)
	go e.produce(runCtx, finder, tasks)
	for id := 0; id < e.cfg.Workers; id++ {
		go e.work(runCtx, id, tasks, results)
	}
	diagf("run started: %d objects, %d workers, queue %d, batch %d, timeout %s",
		total, e.cfg.Workers, e.cfg.TaskQueueSize, e.cfg.ResultBatchSize, e.cfg.InactivityTimeout)

	timer := clock.NewTimer(e.cfg.InactivityTimeout)
	defer timer.Stop()

	var runErr error
	closed := 0
	report.Status = StatusCompleted
	cancelled := func() {
		report.Status = StatusCancelled
		runErr = ctx.Err()
		diagf("run cancelled with %d/%d objects processed", report.Processed, total)
	}
aggregate:
	for closed < e.cfg.Workers {
		// Cancellation wins over results already queued.
		if ctx.Err() != nil {
			cancelled()
			break
		}
		select {
		case msg := <-results:
			if !timer.Stop() {
				select {
				case <-timer.C():
				default:
				}
			}
			timer.Reset(e.cfg.InactivityTimeout)

			switch {
			case msg.err != nil:
				report.Status = StatusFailed
				runErr = msg.err
				opsf("%v", msg.err)
				break aggregate
			case msg.done:
				closed++
				tracef("worker %d closed (%d/%d)", msg.worker, closed, e.cfg.Workers)
			default:
				table.Append(msg.records...)
				if msg.processed > 0 {
					report.Processed += msg.processed
					progress(report.Processed, total)
				}
			}
		case <-timer.C():
			report.Status = StatusStalled
			opsf("no results for %s; stopping with %d/%d objects processed",
				e.cfg.InactivityTimeout, report.Processed, total)
			break aggregate
		case <-ctx.Done():
			cancelled()
			break aggregate
		}
	}
	cancel()

	progress(report.Processed, total)
	report.Rows = table.Len()
	report.Duration = clock.Since(start)
	diagf("run %s: %d/%d objects, %d rows in %s", report.Status, report.Processed, total, report.Rows, report.Duration)
	return table, report, runErr
}

// produce feeds finder batches to the workers, then one close sentinel
// per worker. Sends block while the queue is full.
func (e *Engine) produce(ctx context.Context, finder ObjectFinder, tasks chan<- task) {
	send := func(t task) bool {
		select {
		case tasks <- t:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for {
		batch, ok := finder.Next()
		if !ok {
			break
		}
		if batch.Len() == 0 {
			continue
		}
		tracef("queued %d objects at marker %d", batch.Len(), batch.Marker)
		if !send(task{objects: batch.Objects, marker: batch.Marker}) {
			return
		}
	}
	for i := 0; i < e.cfg.Workers; i++ {
		if !send(task{stop: true}) {
			return
		}
	}
}

// work measures tasks until it receives a close sentinel, flushing results
// every ResultBatchSize records or objects, and once more before its done
// sentinel. A panic is reported to the aggregator as a failure.
func (e *Engine) work(ctx context.Context, id int, tasks <-chan task, results chan<- resultMsg) {
	state := &e.states[id]
	post := func(m resultMsg) bool {
		select {
		case results <- m:
			return true
		case <-ctx.Done():
			return false
		}
	}
	defer func() {
		if r := recover(); r != nil {
			state.Store(int32(WorkerTerminated))
			err := fmt.Errorf("%w: worker %d: %v", ErrWorkerFailed, id, r)
			opsf("%v\n%s", err, debug.Stack())
			post(resultMsg{worker: id, err: err})
		}
	}()

	limit := e.cfg.ResultBatchSize
	pending := make([]l5measure.Record, 0, limit)
	processed := 0
	flush := func() bool {
		if len(pending) == 0 && processed == 0 {
			return true
		}
		if !post(resultMsg{worker: id, records: pending, processed: processed}) {
			return false
		}
		pending = make([]l5measure.Record, 0, limit)
		processed = 0
		return true
	}

	for {
		state.Store(int32(WorkerIdle))
		var t task
		select {
		case t = <-tasks:
		case <-ctx.Done():
			state.Store(int32(WorkerTerminated))
			return
		}

		if t.stop {
			state.Store(int32(WorkerDraining))
			ok := flush()
			state.Store(int32(WorkerTerminated))
			if ok {
				post(resultMsg{worker: id, done: true})
			}
			return
		}

		state.Store(int32(WorkerProcessing))
		for _, obj := range t.objects {
			if ctx.Err() != nil {
				state.Store(int32(WorkerTerminated))
				return
			}
			if obj.Label != 0 {
				if rec, ok := e.op.Measure(obj); ok {
					pending = append(pending, rec)
				}
			}
			processed++
			if len(pending) >= limit || processed >= limit {
				if !flush() {
					state.Store(int32(WorkerTerminated))
					return
				}
			}
		}
	}
}
