package monitoring

import (
	"log"
	"sync"
	"time"

	"github.com/banshee-data/morphometry/internal/timeutil"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// ProgressLogger returns a progress callback that logs "name: processed/total"
// through Logf at most once per interval. The first call and the final call
// (processed == total) are always logged.
func ProgressLogger(name string, interval time.Duration) func(processed, total int) {
	return ProgressLoggerWithClock(name, interval, timeutil.RealClock{})
}

// ProgressLoggerWithClock is ProgressLogger measuring the interval on clock.
func ProgressLoggerWithClock(name string, interval time.Duration, clock timeutil.Clock) func(processed, total int) {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func(processed, total int) {
		mu.Lock()
		defer mu.Unlock()
		now := clock.Now()
		if !last.IsZero() && processed != total && now.Sub(last) < interval {
			return
		}
		last = now
		if total == 0 {
			Logf("%s: nothing to process", name)
			return
		}
		Logf("%s: %d/%d objects (%.1f%%)", name, processed, total, 100*float64(processed)/float64(total))
	}
}
