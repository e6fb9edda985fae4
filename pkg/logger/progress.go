package logger

import (
	"fmt"
	"sync"
	"time"
)

// BatchTracker follows a run over many units (one extraction per unit) and
// records which ones failed without stopping the batch.
type BatchTracker struct {
	logger    Logger
	operation string
	total     int
	done      int
	failed    map[string]error
	order     []string
	startTime time.Time
	mutex     sync.Mutex
}

// NewBatchTracker creates a tracker for total units.
func NewBatchTracker(operation string, total int, log Logger) *BatchTracker {
	if log == nil {
		log = GetGlobalLogger()
	}

	bt := &BatchTracker{
		logger:    log.WithComponent("batch"),
		operation: operation,
		total:     total,
		failed:    make(map[string]error),
		startTime: time.Now(),
	}

	bt.logger.WithFields(Fields{
		"operation": operation,
		"total":     total,
	}).Info("Starting batch")

	return bt
}

// Done records the outcome for one unit. A nil err counts as success.
func (b *BatchTracker) Done(unit string, err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.done++
	fields := Fields{
		"operation": b.operation,
		"unit":      unit,
		"progress":  fmt.Sprintf("%d/%d", b.done, b.total),
	}

	if err != nil {
		b.failed[unit] = err
		b.order = append(b.order, unit)
		b.logger.WithError(err).WithFields(fields).Warn("Unit failed")
		return
	}
	b.logger.WithFields(fields).Debug("Unit completed")
}

// Failures returns failed units in the order they were recorded.
func (b *BatchTracker) Failures() []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Err returns the error recorded for unit, if any.
func (b *BatchTracker) Err(unit string) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.failed[unit]
}

// Stats returns current batch statistics
func (b *BatchTracker) Stats() BatchStats {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return BatchStats{
		Operation: b.operation,
		Total:     b.total,
		Done:      b.done,
		Failed:    len(b.order),
		Duration:  time.Since(b.startTime),
	}
}

// Complete logs final statistics
func (b *BatchTracker) Complete() BatchStats {
	stats := b.Stats()
	entry := b.logger.WithFields(Fields{
		"operation": stats.Operation,
		"total":     stats.Total,
		"done":      stats.Done,
		"failed":    stats.Failed,
		"duration":  stats.Duration.String(),
	})
	if stats.Failed > 0 {
		entry.Warn("Batch completed with failures")
	} else {
		entry.Info("Batch completed")
	}
	return stats
}

// BatchStats contains batch statistics
type BatchStats struct {
	Operation string        `json:"operation"`
	Total     int           `json:"total"`
	Done      int           `json:"done"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

func (bs BatchStats) String() string {
	return fmt.Sprintf("%s: %d/%d done, %d failed, elapsed: %v",
		bs.Operation, bs.Done, bs.Total, bs.Failed, bs.Duration.Round(time.Millisecond))
}

// TimedOperation executes a function and logs timing information
func TimedOperation(operation string, log Logger, fn func() error) error {
	if log == nil {
		log = GetGlobalLogger()
	}
	start := time.Now()

	err := fn()

	fields := Fields{
		"operation": operation,
		"duration":  time.Since(start).String(),
	}
	if err != nil {
		fields["status"] = "error"
		log.WithError(err).WithFields(fields).Error("Operation failed")
	} else {
		fields["status"] = "success"
		log.WithFields(fields).Debug("Operation completed")
	}

	return err
}
