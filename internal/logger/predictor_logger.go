// Package logger provides predictor-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PredictorLogger provides dedicated logging for predictor training and caching.
type PredictorLogger struct {
	*logrus.Entry
}

// NewPredictorLogger creates a new predictor logger.
func NewPredictorLogger(baseLogger *logrus.Logger) *PredictorLogger {
	return &PredictorLogger{
		Entry: baseLogger.WithField("component", "predictor"),
	}
}

// LogGeneration logs the outcome of generating predictors for a similarity class.
func (pl *PredictorLogger) LogGeneration(similarityKey string, candidates, trained, trainRows, testRows int, durationSeconds float64) {
	pl.WithFields(logrus.Fields{
		"similarity_key":   similarityKey,
		"candidates":       candidates,
		"trained":          trained,
		"train_rows":       trainRows,
		"test_rows":        testRows,
		"duration_seconds": durationSeconds,
	}).Info("Predictors generated")
}

// LogIncrementalFit logs a successful incremental fit.
func (pl *PredictorLogger) LogIncrementalFit(similarityKey, predictorID string, rows int, score float64) {
	pl.WithFields(logrus.Fields{
		"similarity_key": similarityKey,
		"predictor_id":   predictorID,
		"rows":           rows,
		"score":          score,
	}).Debug("Predictor retrained")
}

// LogFitFailure logs a candidate or predictor that was dropped because fitting failed.
func (pl *PredictorLogger) LogFitFailure(similarityKey, kind string, params map[string]string, err error) {
	pl.WithFields(logrus.Fields{
		"similarity_key": similarityKey,
		"kind":           kind,
		"params":         params,
		"error":          err.Error(),
	}).Warn("Predictor fit failed, dropping")
}

// LogCacheClear logs a predictor cache clear at a processing boundary.
func (pl *PredictorLogger) LogCacheClear(classes int, epoch uint64) {
	pl.WithFields(logrus.Fields{
		"classes": classes,
		"epoch":   epoch,
	}).Debug("Predictor cache cleared")
}
