package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/predictive-punter/internal/models"
)

// RaceRepository defines read access to meets, races and their runners.
// Returned races carry their meet and runners with back references set.
type RaceRepository interface {
	GetMeetsByDate(ctx context.Context, date time.Time) ([]*models.Meet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error)
	// FindSimilar returns races sharing race's similarity key that started in
	// [since, before). A nil since means no lower bound.
	FindSimilar(ctx context.Context, race *models.Race, since *time.Time, before time.Time) ([]*models.Race, error)
}

// RunnerRepository loads the runners of a set of races
type RunnerRepository interface {
	GetByRaceIDs(ctx context.Context, raceIDs []uuid.UUID) (map[uuid.UUID][]*models.Runner, error)
}

// SampleRepository defines the interface for sample data access
type SampleRepository interface {
	GetByRunnerID(ctx context.Context, runnerID uuid.UUID) (*models.Sample, error)
	// Upsert creates the sample or replaces the existing one for the same runner
	Upsert(ctx context.Context, sample *models.Sample) error
	DeleteByRunnerID(ctx context.Context, runnerID uuid.UUID) error
}

// PredictorRepository defines the interface for trained predictor data access
type PredictorRepository interface {
	FindByKey(ctx context.Context, similarityKey string) ([]*models.PredictorRecord, error)
	Create(ctx context.Context, predictor *models.PredictorRecord) error
	Update(ctx context.Context, predictor *models.PredictorRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PredictionRepository defines the interface for prediction data access
type PredictionRepository interface {
	GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Prediction, error)
	Create(ctx context.Context, prediction *models.Prediction) error
	DeleteByRaceID(ctx context.Context, raceID uuid.UUID) error
	// GetHistory returns a predictor's predictions for a similarity class that started before the given time
	GetHistory(ctx context.Context, predictorID uuid.UUID, similarityKey string, before time.Time) ([]*models.Prediction, error)
}

// Backuper snapshots and restores the state written during processing
type Backuper interface {
	Backup(ctx context.Context) error
	Restore(ctx context.Context) error
}
