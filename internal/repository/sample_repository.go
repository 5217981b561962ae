package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/predictive-punter/internal/database"
	"github.com/yourusername/predictive-punter/internal/models"
)

// PostgresSampleRepository implements SampleRepository for PostgreSQL
type PostgresSampleRepository struct {
	db *database.DB
}

// NewPostgresSampleRepository creates a new sample repository
func NewPostgresSampleRepository(db *database.DB) SampleRepository {
	return &PostgresSampleRepository{db: db}
}

// GetByRunnerID retrieves the sample owned by a runner
func (s *PostgresSampleRepository) GetByRunnerID(ctx context.Context, runnerID uuid.UUID) (*models.Sample, error) {
	query := `
		SELECT id, runner_id, race_id, raw_features, imputed_features, normalized_features,
		       classification_label, regression_label, weight, schema_version, created_at, updated_at
		FROM samples WHERE runner_id = $1
	`

	sample := &models.Sample{}
	err := s.db.GetPool().QueryRow(ctx, query, runnerID).Scan(
		&sample.ID, &sample.RunnerID, &sample.RaceID, &sample.RawFeatures, &sample.ImputedFeatures,
		&sample.NormalizedFeatures, &sample.ClassificationLabel, &sample.RegressionLabel, &sample.Weight,
		&sample.SchemaVersion, &sample.CreatedAt, &sample.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}

	return sample, nil
}

// Upsert inserts a sample or replaces the one already stored for its runner
func (s *PostgresSampleRepository) Upsert(ctx context.Context, sample *models.Sample) error {
	query := `
		INSERT INTO samples (id, runner_id, race_id, raw_features, imputed_features, normalized_features,
		                     classification_label, regression_label, weight, schema_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (runner_id) DO UPDATE SET
			id = EXCLUDED.id,
			race_id = EXCLUDED.race_id,
			raw_features = EXCLUDED.raw_features,
			imputed_features = EXCLUDED.imputed_features,
			normalized_features = EXCLUDED.normalized_features,
			classification_label = EXCLUDED.classification_label,
			regression_label = EXCLUDED.regression_label,
			weight = EXCLUDED.weight,
			schema_version = EXCLUDED.schema_version,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.GetPool().Exec(ctx, query,
		sample.ID, sample.RunnerID, sample.RaceID, sample.RawFeatures, sample.ImputedFeatures,
		sample.NormalizedFeatures, sample.ClassificationLabel, sample.RegressionLabel, sample.Weight,
		sample.SchemaVersion, sample.CreatedAt, sample.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert sample: %w", err)
	}

	return nil
}

// DeleteByRunnerID removes a runner's sample
func (s *PostgresSampleRepository) DeleteByRunnerID(ctx context.Context, runnerID uuid.UUID) error {
	result, err := s.db.GetPool().Exec(ctx, `DELETE FROM samples WHERE runner_id = $1`, runnerID)
	if err != nil {
		return fmt.Errorf("failed to delete sample: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
