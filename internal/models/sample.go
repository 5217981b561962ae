package models

import (
	"time"

	"github.com/google/uuid"
)

// Sample is the feature vector and training labels for one runner
type Sample struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	RunnerID            uuid.UUID  `db:"runner_id" json:"runner_id"`
	RaceID              uuid.UUID  `db:"race_id" json:"race_id"`
	RawFeatures         []*float64 `db:"raw_features" json:"raw_features"`
	ImputedFeatures     []float64  `db:"imputed_features" json:"imputed_features,omitempty"`
	NormalizedFeatures  []float64  `db:"normalized_features" json:"normalized_features,omitempty"`
	ClassificationLabel int        `db:"classification_label" json:"classification_label"`
	RegressionLabel     *float64   `db:"regression_label" json:"regression_label"`
	Weight              float64    `db:"weight" json:"weight"`
	SchemaVersion       string     `db:"schema_version" json:"schema_version"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// HasExpired reports whether the sample must be regenerated for the given runner
func (s *Sample) HasExpired(runner *Runner) bool {
	if !IsCompatibleVersion(s.SchemaVersion) {
		return true
	}
	if runner == nil {
		return false
	}
	if runner.UpdatedAt.After(s.CreatedAt) {
		return true
	}
	return runner.Race != nil && runner.Race.UpdatedAt.After(s.CreatedAt)
}

// IsImputed reports whether imputed features have been computed
func (s *Sample) IsImputed() bool {
	return s.ImputedFeatures != nil
}

// IsNormalized reports whether normalized features have been computed
func (s *Sample) IsNormalized() bool {
	return s.NormalizedFeatures != nil
}
