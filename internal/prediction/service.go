package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/predictive-punter/internal/metrics"
	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/predictor"
	"github.com/yourusername/predictive-punter/internal/repository"
)

// Modes
const (
	ModePerPredictor = "per_predictor"
	ModeConsensus    = "consensus"
)

// PredictorSource returns the predictors serving a race's similarity class
type PredictorSource interface {
	Get(ctx context.Context, race *models.Race) ([]*predictor.Predictor, error)
}

// FeatureSource returns a runner's race-normalized feature vector
type FeatureSource interface {
	NormalizedFeatures(ctx context.Context, runner *models.Runner) ([]float64, error)
}

// Service generates, stores and ranks predictions
type Service struct {
	predictors  PredictorSource
	features    FeatureSource
	predictions repository.PredictionRepository
	floors      Floors
	logger      *logrus.Entry
}

// NewService creates a prediction service
func NewService(predictors PredictorSource, features FeatureSource, predictions repository.PredictionRepository, floors Floors, logger *logrus.Logger) *Service {
	return &Service{
		predictors:  predictors,
		features:    features,
		predictions: predictions,
		floors:      floors,
		logger:      logger.WithField("component", "prediction"),
	}
}

// GeneratePredictions returns one prediction per predictor serving the race.
// Stored predictions are reused while none of them has expired; otherwise
// the race's predictions are replaced.
func (s *Service) GeneratePredictions(ctx context.Context, race *models.Race) ([]*models.Prediction, error) {
	predictors, err := s.predictors.Get(ctx, race)
	if err != nil {
		return nil, fmt.Errorf("failed to get predictors for race %s: %w", race.ID, err)
	}

	stored, err := s.predictions.GetByRaceID(ctx, race.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions for race %s: %w", race.ID, err)
	}
	if reused, ok := reusable(stored, predictors, race); ok {
		return reused, nil
	}

	if len(stored) > 0 {
		if err := s.predictions.DeleteByRaceID(ctx, race.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to delete predictions for race %s: %w", race.ID, err)
		}
	}

	rows, err := s.featureRows(ctx, race)
	if err != nil {
		return nil, err
	}

	predictions := make([]*models.Prediction, 0, len(predictors))
	for _, p := range predictors {
		prediction := s.predict(race, p, rows)
		if err := s.predictions.Create(ctx, prediction); err != nil {
			return nil, fmt.Errorf("failed to save prediction for race %s: %w", race.ID, err)
		}
		metrics.RecordPrediction(ModePerPredictor)
		predictions = append(predictions, prediction)
	}

	s.logger.WithFields(logrus.Fields{
		"race_id":        race.ID,
		"similarity_key": race.SimilarityKey(),
		"predictions":    len(predictions),
	}).Debug("Predictions generated")

	return predictions, nil
}

// GenerateConsensus blends every predictor's picks into one prediction. Each
// runner's expected place is averaged with the predictors' scores as weights,
// unpicked runners counting as unplaced, and runners are ranked on it.
func (s *Service) GenerateConsensus(ctx context.Context, race *models.Race) (*models.Prediction, error) {
	predictions, err := s.GeneratePredictions(ctx, race)
	if err != nil {
		return nil, err
	}

	stored, err := s.predictions.GetByRaceID(ctx, race.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load predictions for race %s: %w", race.ID, err)
	}
	for _, prediction := range stored {
		if prediction.IsConsensus() && !prediction.HasExpired(race) {
			return prediction, nil
		}
	}

	consensus := s.newPrediction(race, nil)
	consensus.Picks, consensus.Score = blend(race, predictions)
	consensus.Values = Values(race, consensus.Picks, s.floors)

	if err := s.predictions.Create(ctx, consensus); err != nil {
		return nil, fmt.Errorf("failed to save consensus for race %s: %w", race.ID, err)
	}
	metrics.RecordPrediction(ModeConsensus)

	return consensus, nil
}

// featureRows maps runner numbers to normalized features. Runners without
// the mandatory fields for a sample are left out.
func (s *Service) featureRows(ctx context.Context, race *models.Race) (map[int][]float64, error) {
	rows := make(map[int][]float64)
	for _, runner := range race.ActiveRunners() {
		features, err := s.features.NormalizedFeatures(ctx, runner)
		if errors.Is(err, models.ErrMissingField) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get features for runner %s: %w", runner.ID, err)
		}
		rows[runner.Number] = features
	}
	return rows, nil
}

// predict applies one predictor to the race. Runners the estimator rejects
// are left unpicked.
func (s *Service) predict(race *models.Race, p *predictor.Predictor, rows map[int][]float64) *models.Prediction {
	results := newEstimations()
	for _, runner := range race.ActiveRunners() {
		features, ok := rows[runner.Number]
		if !ok {
			continue
		}
		estimation, err := p.Predict(features)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"predictor_id": p.ID(),
				"runner_id":    runner.ID,
			}).Debug("Estimation failed")
			continue
		}
		results.add(estimation, runner.Number)
	}

	id := p.ID()
	prediction := s.newPrediction(race, &id)
	prediction.Score = p.Score()
	if p.IsClassifier() {
		prediction.Picks = classifierPicks(results)
	} else {
		prediction.Picks = rankedPicks(results)
	}
	prediction.Values = Values(race, prediction.Picks, s.floors)
	return prediction
}

func (s *Service) newPrediction(race *models.Race, predictorID *uuid.UUID) *models.Prediction {
	now := time.Now().UTC()
	return &models.Prediction{
		ID:            uuid.New(),
		RaceID:        race.ID,
		PredictorID:   predictorID,
		SimilarityKey: race.SimilarityKey(),
		StartTime:     race.StartTime,
		SchemaVersion: models.SchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// reusable returns the stored prediction of every predictor when all exist
// and none has expired.
func reusable(stored []*models.Prediction, predictors []*predictor.Predictor, race *models.Race) ([]*models.Prediction, bool) {
	if len(stored) == 0 && len(predictors) > 0 {
		return nil, false
	}

	byPredictor := make(map[uuid.UUID]*models.Prediction, len(stored))
	for _, prediction := range stored {
		if prediction.HasExpired(race) {
			return nil, false
		}
		if !prediction.IsConsensus() {
			byPredictor[*prediction.PredictorID] = prediction
		}
	}

	reused := make([]*models.Prediction, 0, len(predictors))
	for _, p := range predictors {
		prediction, ok := byPredictor[p.ID()]
		if !ok {
			return nil, false
		}
		reused = append(reused, prediction)
	}
	return reused, true
}

// blend ranks runners by their score-weighted mean place. Negative scores
// count as zero; when no prediction has a positive score all count equally.
// Runners no counted prediction picked are left out.
func blend(race *models.Race, predictions []*models.Prediction) ([][]int, float64) {
	if len(predictions) == 0 {
		return emptyPicks(), 0
	}

	weights := make([]float64, len(predictions))
	total := 0.0
	for i, prediction := range predictions {
		weights[i] = max(prediction.Score, 0)
		total += weights[i]
	}
	if total == 0 {
		for i := range weights {
			weights[i] = 1
		}
		total = float64(len(weights))
	}

	score := 0.0
	for i, prediction := range predictions {
		score += weights[i] * prediction.Score
	}

	results := newEstimations()
	for _, runner := range race.ActiveRunners() {
		place := 0.0
		for i, prediction := range predictions {
			place += weights[i] * float64(placeOf(prediction.Picks, runner.Number))
		}
		if mean := place / total; mean < float64(models.MaxPlaces+1) {
			results.add(mean, runner.Number)
		}
	}

	return rankedPicks(results), score / total
}
