package models

import (
	"time"

	"github.com/google/uuid"
)

// PredictorRecord is the persisted form of a trained estimator serving one similarity class
type PredictorRecord struct {
	ID                uuid.UUID         `db:"id" json:"id"`
	SimilarityKey     string            `db:"similarity_key" json:"similarity_key"`
	Kind              string            `db:"kind" json:"kind"`
	Params            map[string]string `db:"params" json:"params"`
	IsClassifier      bool              `db:"is_classifier" json:"is_classifier"`
	UsesSampleWeights bool              `db:"uses_sample_weights" json:"uses_sample_weights"`
	Score             *float64          `db:"score" json:"score"`
	LastTrainingDate  *time.Time        `db:"last_training_date" json:"last_training_date"`
	SerializedModel   []byte            `db:"serialized_model" json:"-"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// GetScore returns the score or 0 if the predictor has not been evaluated
func (p *PredictorRecord) GetScore() float64 {
	if p.Score == nil {
		return 0
	}
	return *p.Score
}

// IsStale reports whether training data newer than the last training date may exist
func (p *PredictorRecord) IsStale(meetDate time.Time) bool {
	return p.LastTrainingDate == nil || p.LastTrainingDate.Before(meetDate)
}
