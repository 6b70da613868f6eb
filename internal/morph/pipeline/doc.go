// Package pipeline provides the concurrent statistics engine.
//
// A producer drains an ObjectFinder into a bounded task channel, a pool of
// workers measures objects with an l5measure.Operator and posts result
// batches, and the calling goroutine aggregates them into a
// StatisticsTable. Shutdown is explicit: one close sentinel per worker on
// the task channel, one done sentinel per worker on the result channel.
// The aggregator also stops on cancellation, on a worker failure, or when
// no message arrives within the inactivity timeout; RunReport says which.
//
// The pipeline does not own domain logic; it delegates to the layer
// packages.
package pipeline
