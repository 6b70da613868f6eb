package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/morphometry/internal/config"
	"github.com/banshee-data/morphometry/internal/morph/l1grid"
	"github.com/banshee-data/morphometry/internal/morph/l3shard"
	"github.com/banshee-data/morphometry/internal/morph/l5measure"
)

// Job is one end-to-end measurement of a grid.
type Job struct {
	Grid     *l1grid.LabelGrid
	Tuning   *config.TuningConfig // nil uses built-in defaults
	Shard    bool                 // split touching objects before measuring
	Progress ProgressFunc
}

// JobResult holds what a Job produced. Grid is the grid that was measured:
// the sharded grid when Shard was set, otherwise the input.
type JobResult struct {
	Grid   *l1grid.LabelGrid
	Labels []uint32 // surviving shard labels; nil without sharding
	Table  *l5measure.StatisticsTable
	Report RunReport
}

// RunJob optionally shards the grid, then measures every object with the
// operator that fits the grid's dimensionality. The result is returned
// alongside any error so callers can keep partial tables.
func RunJob(ctx context.Context, job Job) (*JobResult, error) {
	tuning := job.Tuning
	if tuning == nil {
		tuning = config.EmptyTuningConfig()
	}
	res := &JobResult{Grid: job.Grid}

	if job.Shard {
		sharded, labels, err := l3shard.Shard(job.Grid, l3shard.ParamsFromTuning(tuning))
		if err != nil {
			return nil, fmt.Errorf("shard: %w", err)
		}
		res.Grid, res.Labels = sharded, labels
		diagf("sharded grid into %d objects", len(labels))
	}

	op, err := l5measure.NewOperator(res.Grid, l5measure.OptionsFromTuning(tuning))
	if err != nil {
		return nil, fmt.Errorf("operator: %w", err)
	}
	engine, err := NewEngine(op, ConfigFromTuning(tuning))
	if err != nil {
		return nil, err
	}
	finder := l1grid.NewFinder(res.Grid, l1grid.FinderOptions{
		WindowSize: tuning.GetWindowSize(),
		BorderOnly: l5measure.BorderOnly(res.Grid),
	})

	res.Table, res.Report, err = engine.Run(ctx, finder, job.Progress)
	return res, err
}
