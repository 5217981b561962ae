// Package logger provides processing-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// ProcessingLogger provides dedicated logging for date and collection processing.
type ProcessingLogger struct {
	*logrus.Entry
}

// NewProcessingLogger creates a new processing logger.
func NewProcessingLogger(baseLogger *logrus.Logger) *ProcessingLogger {
	return &ProcessingLogger{
		Entry: baseLogger.WithField("component", "processing"),
	}
}

// LogUnitStarted logs the start of a unit of work.
func (pl *ProcessingLogger) LogUnitStarted(unit, id string) {
	pl.WithFields(logrus.Fields{
		"unit": unit,
		"id":   id,
	}).Debug("Processing started")
}

// LogUnitFinished logs a unit of work that completed.
func (pl *ProcessingLogger) LogUnitFinished(unit, id string, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"unit":        unit,
		"id":          id,
		"duration_ms": duration.Milliseconds(),
	}).Info("Processing finished")
}

// LogUnitFailed logs a unit of work that failed and aborted its batch.
func (pl *ProcessingLogger) LogUnitFailed(unit, id string, err error) {
	pl.WithFields(logrus.Fields{
		"unit":     unit,
		"id":       id,
		"severity": "critical",
		"error":    err.Error(),
	}).Error("Processing failed")
}

// LogSubmitRetry logs a task submission retried against a saturated worker pool.
func (pl *ProcessingLogger) LogSubmitRetry(unit string, attempt, maxRetries int) {
	pl.WithFields(logrus.Fields{
		"unit":        unit,
		"attempt":     attempt,
		"max_retries": maxRetries,
	}).Debug("Worker pool saturated, retrying submission")
}
