package l5measure

import (
	"io"
	"log"
)

var traceLogger *log.Logger

// SetLogWriter configures the per-object trace stream. Pass nil to disable.
// Call it before any operator runs.
func SetLogWriter(trace io.Writer) {
	if trace == nil {
		traceLogger = nil
		return
	}
	traceLogger = log.New(trace, "[measure] ", log.LstdFlags|log.Lmicroseconds)
}

func tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
