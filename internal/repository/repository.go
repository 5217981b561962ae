package repository

import (
	"fmt"

	"github.com/yourusername/predictive-punter/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Race       RaceRepository
	Sample     SampleRepository
	Predictor  PredictorRepository
	Prediction PredictionRepository
	Backup     Backuper
}

// NewRepositories creates and returns all PostgreSQL repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Race:       NewPostgresRaceRepository(db, NewPostgresRunnerRepository(db)),
		Sample:     NewPostgresSampleRepository(db),
		Predictor:  NewPostgresPredictorRepository(db),
		Prediction: NewPostgresPredictionRepository(db),
		Backup:     database.NewSchemaBackup(db, database.ManagedTables...),
	}, nil
}

// NewMemoryRepositories exposes a memory store through the repository interfaces
func NewMemoryRepositories(store *MemoryStore) *Repositories {
	return &Repositories{
		Race:       store,
		Sample:     store.Samples(),
		Predictor:  store.Predictors(),
		Prediction: store.Predictions(),
		Backup:     store,
	}
}
