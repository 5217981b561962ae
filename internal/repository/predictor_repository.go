package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/predictive-punter/internal/database"
	"github.com/yourusername/predictive-punter/internal/models"
)

// PostgresPredictorRepository implements PredictorRepository for PostgreSQL
type PostgresPredictorRepository struct {
	db *database.DB
}

// NewPostgresPredictorRepository creates a new predictor repository
func NewPostgresPredictorRepository(db *database.DB) PredictorRepository {
	return &PostgresPredictorRepository{db: db}
}

// FindByKey retrieves every predictor serving a similarity class in creation order
func (p *PostgresPredictorRepository) FindByKey(ctx context.Context, similarityKey string) ([]*models.PredictorRecord, error) {
	query := `
		SELECT id, similarity_key, kind, params, is_classifier, uses_sample_weights, score,
		       last_training_date, serialized_model, created_at, updated_at
		FROM predictors
		WHERE similarity_key = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := p.db.GetPool().Query(ctx, query, similarityKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictors: %w", err)
	}
	defer rows.Close()

	var predictors []*models.PredictorRecord
	for rows.Next() {
		predictor := &models.PredictorRecord{}
		err := rows.Scan(
			&predictor.ID, &predictor.SimilarityKey, &predictor.Kind, &predictor.Params, &predictor.IsClassifier,
			&predictor.UsesSampleWeights, &predictor.Score, &predictor.LastTrainingDate, &predictor.SerializedModel,
			&predictor.CreatedAt, &predictor.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan predictor: %w", err)
		}
		predictors = append(predictors, predictor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictors: %w", err)
	}

	return predictors, nil
}

// Create inserts a new predictor
func (p *PostgresPredictorRepository) Create(ctx context.Context, predictor *models.PredictorRecord) error {
	query := `
		INSERT INTO predictors (id, similarity_key, kind, params, is_classifier, uses_sample_weights, score,
		                        last_training_date, serialized_model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := p.db.GetPool().Exec(ctx, query,
		predictor.ID, predictor.SimilarityKey, predictor.Kind, predictor.Params, predictor.IsClassifier,
		predictor.UsesSampleWeights, predictor.Score, predictor.LastTrainingDate, predictor.SerializedModel,
		predictor.CreatedAt, predictor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create predictor: %w", err)
	}

	return nil
}

// Update persists a predictor's score, training date and model state
func (p *PostgresPredictorRepository) Update(ctx context.Context, predictor *models.PredictorRecord) error {
	query := `
		UPDATE predictors
		SET score = $2, last_training_date = $3, serialized_model = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := p.db.GetPool().Exec(ctx, query,
		predictor.ID, predictor.Score, predictor.LastTrainingDate, predictor.SerializedModel, predictor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update predictor: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes a predictor
func (p *PostgresPredictorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := p.db.GetPool().Exec(ctx, `DELETE FROM predictors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete predictor: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
