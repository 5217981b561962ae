// Package predictor trains, scores, caches and incrementally retrains the
// estimators serving each similarity class of races.
package predictor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/yourusername/predictive-punter/internal/estimator"
	"github.com/yourusername/predictive-punter/internal/models"
)

// Role labels for classifiers and regressors
const (
	RoleClassifier = "classifier"
	RoleRegressor  = "regressor"
)

// Selection modes
const (
	SelectAll  = "all"
	SelectBest = "best"
)

// Predictor pairs a persisted record with its live estimator. Predictions may
// run concurrently; fitting takes the predictor exclusively.
type Predictor struct {
	Record *models.PredictorRecord

	mu        sync.RWMutex
	estimator estimator.Estimator
}

// New wraps a record and its estimator
func New(record *models.PredictorRecord, est estimator.Estimator) *Predictor {
	return &Predictor{Record: record, estimator: est}
}

// ID returns the persisted predictor ID
func (p *Predictor) ID() uuid.UUID {
	return p.Record.ID
}

// IsClassifier reports whether the estimator predicts finishing places
func (p *Predictor) IsClassifier() bool {
	return p.Record.IsClassifier
}

// Role returns RoleClassifier or RoleRegressor
func (p *Predictor) Role() string {
	if p.IsClassifier() {
		return RoleClassifier
	}
	return RoleRegressor
}

// Score returns the held-out score, 0 if never evaluated
func (p *Predictor) Score() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Record.GetScore()
}

// Predict applies the estimator to a single feature vector
func (p *Predictor) Predict(features []float64) (float64, error) {
	if len(features) == 0 {
		return 0, fmt.Errorf("predict: %w", estimator.ErrNoSamples)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	out, err := p.estimator.Predict(mat.NewDense(1, len(features), append([]float64(nil), features...)))
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// labels picks the dataset column this predictor learns
func (p *Predictor) labels(data *dataset) []float64 {
	if p.IsClassifier() {
		return data.classes
	}
	return data.targets
}

func (p *Predictor) weights(data *dataset) []float64 {
	if p.Record.UsesSampleWeights {
		return data.weights
	}
	return nil
}

// fit runs one incremental pass over data
func (p *Predictor) fit(data *dataset) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.estimator.PartialFit(data.x, p.labels(data), p.weights(data))
}

// evaluate scores the estimator on data without fitting it
func (p *Predictor) evaluate(data *dataset) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.estimator.Score(data.x, p.labels(data), p.weights(data))
}

// snapshot serializes the estimator into the record
func (p *Predictor) snapshot() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := estimator.Marshal(p.estimator)
	if err != nil {
		return err
	}
	p.Record.SerializedModel = data
	return nil
}
