package pipeline

import "time"

// WorkerState is a worker's position in its lifecycle:
// Idle → Processing → (Idle …) → Draining → Terminated.
type WorkerState int32

const (
	WorkerIdle WorkerState = iota
	WorkerProcessing
	WorkerDraining
	WorkerTerminated
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerProcessing:
		return "processing"
	case WorkerDraining:
		return "draining"
	case WorkerTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// RunStatus says how a run ended.
type RunStatus string

const (
	StatusCompleted RunStatus = "completed" // every worker posted its done sentinel
	StatusStalled   RunStatus = "stalled"   // inactivity timeout; table is partial
	StatusCancelled RunStatus = "cancelled" // context cancelled; table is partial
	StatusFailed    RunStatus = "failed"    // a worker panicked; table is partial
)

// RunReport summarises one Engine.Run.
type RunReport struct {
	Status    RunStatus
	Processed int // objects measured or rejected by the operator
	Total     int // objects announced by the finder
	Rows      int // records in the returned table
	Workers   int
	Duration  time.Duration
}

// Complete reports whether every announced object was processed.
func (r RunReport) Complete() bool {
	return r.Status == StatusCompleted && r.Processed == r.Total
}
