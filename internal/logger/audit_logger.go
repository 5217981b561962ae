// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRecommendation logs a best bet recommendation for a race.
func (al *AuditLogger) LogRecommendation(raceID, betType string, picks [][]int, minimumDividend, roi float64) {
	al.WithFields(logrus.Fields{
		"race_id":          raceID,
		"bet_type":         betType,
		"picks":            picks,
		"minimum_dividend": minimumDividend,
		"roi":              roi,
	}).Info("Bet recommended")
}

// LogBackup logs a successful backup after a processed date.
func (al *AuditLogger) LogBackup(date time.Time) {
	al.WithFields(logrus.Fields{
		"date":      date.Format("2006-01-02"),
		"timestamp": time.Now().Unix(),
	}).Info("Backup taken")
}

// LogRestore logs a rollback to the last backup.
func (al *AuditLogger) LogRestore(date time.Time, reason error) {
	al.WithFields(logrus.Fields{
		"date":      date.Format("2006-01-02"),
		"reason":    reason.Error(),
		"timestamp": time.Now().Unix(),
	}).Warn("State restored from backup")
}
