package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// Thresholds above which a timed call is logged as slow
const (
	SlowOperation = 2 * time.Second
	SlowQuery     = 500 * time.Millisecond
)

// OperationTimer starts timing an operation and returns the func that logs it.
//
//	defer utils.OperationTimer("simulate", log)()
func OperationTimer(operation string, log zerolog.Logger) func() {
	start := time.Now()
	return func() {
		logElapsed(log, "operation", operation, time.Since(start), SlowOperation).
			Msg("Operation finished")
	}
}

// MeasureDBQuery starts timing a statement; the returned func logs it with the affected row count.
func MeasureDBQuery(query string, log zerolog.Logger) func(rows int64) {
	start := time.Now()
	return func(rows int64) {
		logElapsed(log, "query", query, time.Since(start), SlowQuery).
			Int64("rows_affected", rows).
			Msg("Query finished")
	}
}

func logElapsed(log zerolog.Logger, key, name string, elapsed, slow time.Duration) *zerolog.Event {
	event := log.Debug()
	if elapsed > slow {
		event = log.Warn().Bool("slow", true)
	}
	return event.Str(key, name).Dur("elapsed", elapsed)
}
