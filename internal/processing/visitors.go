package processing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/predictive-punter/internal/logger"
	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/prediction"
)

// FeatureSource normalizes a runner's sample within its race
type FeatureSource interface {
	NormalizedFeatures(ctx context.Context, runner *models.Runner) ([]float64, error)
}

// Predictions generates and ranks predictions for a race
type Predictions interface {
	GeneratePredictions(ctx context.Context, race *models.Race) ([]*models.Prediction, error)
	GenerateConsensus(ctx context.Context, race *models.Race) (*models.Prediction, error)
	BestPredictions(ctx context.Context, race *models.Race) (*prediction.BestBets, error)
}

// SeedVisitor builds and normalizes the sample of every active runner
type SeedVisitor struct {
	NopVisitor
	features FeatureSource
}

// NewSeedVisitor creates a seed visitor
func NewSeedVisitor(features FeatureSource) *SeedVisitor {
	return &SeedVisitor{features: features}
}

func (v *SeedVisitor) PostProcessRunner(ctx context.Context, runner *models.Runner) error {
	if runner.Scratched {
		return nil
	}
	if _, err := v.features.NormalizedFeatures(ctx, runner); err != nil && !errors.Is(err, models.ErrMissingField) {
		return fmt.Errorf("runner %d: %w", runner.Number, err)
	}
	return nil
}

// SimulateVisitor generates and stores predictions for every race so later
// dates have prediction history to rank against
type SimulateVisitor struct {
	NopVisitor
	predictions Predictions
	mode        string
}

// NewSimulateVisitor creates a simulate visitor. In consensus mode the
// blended prediction is stored alongside the per-predictor ones.
func NewSimulateVisitor(predictions Predictions, mode string) *SimulateVisitor {
	return &SimulateVisitor{predictions: predictions, mode: mode}
}

func (v *SimulateVisitor) PostProcessRace(ctx context.Context, race *models.Race) error {
	if v.mode == prediction.ModeConsensus {
		_, err := v.predictions.GenerateConsensus(ctx, race)
		return err
	}
	_, err := v.predictions.GeneratePredictions(ctx, race)
	return err
}

// PredictVisitor reports a prediction for every race
type PredictVisitor struct {
	NopVisitor
	predictions Predictions
	report      *ReportWriter
	mode        string
	audit       *logger.AuditLogger
}

// NewPredictVisitor creates a predict visitor. Consensus mode reports the
// blended prediction; otherwise the best bets for each race are reported.
func NewPredictVisitor(predictions Predictions, report *ReportWriter, mode string, log *logrus.Logger) *PredictVisitor {
	return &PredictVisitor{
		predictions: predictions,
		report:      report,
		mode:        mode,
		audit:       logger.NewAuditLogger(log),
	}
}

func (v *PredictVisitor) PostProcessRace(ctx context.Context, race *models.Race) error {
	if v.mode == prediction.ModeConsensus {
		consensus, err := v.predictions.GenerateConsensus(ctx, race)
		if err != nil || consensus == nil {
			return err
		}
		return v.report.WriteConsensus(race, consensus)
	}

	best, err := v.predictions.BestPredictions(ctx, race)
	if err != nil {
		return err
	}
	for _, betType := range models.BetTypes {
		if rec := best.Get(betType); rec != nil {
			v.audit.LogRecommendation(race.ID.String(), string(betType), rec.Picks, rec.MinimumDividend, rec.ROI)
		}
	}
	return v.report.WriteBestBets(best)
}

// SampleDeleter removes a runner's stored sample
type SampleDeleter interface {
	DeleteByRunnerID(ctx context.Context, runnerID uuid.UUID) error
}

// PredictionDeleter removes a race's stored predictions
type PredictionDeleter interface {
	DeleteByRaceID(ctx context.Context, raceID uuid.UUID) error
}

// DeleteVisitor removes the samples and predictions derived for every race.
// Meets, races and runners are left in place.
type DeleteVisitor struct {
	NopVisitor
	samples     SampleDeleter
	predictions PredictionDeleter
}

// NewDeleteVisitor creates a delete visitor
func NewDeleteVisitor(samples SampleDeleter, predictions PredictionDeleter) *DeleteVisitor {
	return &DeleteVisitor{samples: samples, predictions: predictions}
}

func (v *DeleteVisitor) PostProcessRunner(ctx context.Context, runner *models.Runner) error {
	if err := v.samples.DeleteByRunnerID(ctx, runner.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("runner %d: %w", runner.Number, err)
	}
	return nil
}

func (v *DeleteVisitor) PostProcessRace(ctx context.Context, race *models.Race) error {
	return v.predictions.DeleteByRaceID(ctx, race.ID)
}
