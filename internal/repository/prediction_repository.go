package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/predictive-punter/internal/database"
	"github.com/yourusername/predictive-punter/internal/models"
)

const predictionColumns = `
	id, race_id, predictor_id, similarity_key, start_time, picks, bet_values, score,
	schema_version, created_at, updated_at`

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// GetByRaceID retrieves all predictions for a race
func (p *PostgresPredictionRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE race_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := p.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}

	return scanPredictions(rows)
}

// Create inserts a new prediction
func (p *PostgresPredictionRepository) Create(ctx context.Context, prediction *models.Prediction) error {
	query := `
		INSERT INTO predictions (` + predictionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := p.db.GetPool().Exec(ctx, query,
		prediction.ID, prediction.RaceID, prediction.PredictorID, prediction.SimilarityKey, prediction.StartTime,
		prediction.Picks, prediction.Values, prediction.Score, prediction.SchemaVersion,
		prediction.CreatedAt, prediction.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}

	return nil
}

// DeleteByRaceID removes every prediction for a race
func (p *PostgresPredictionRepository) DeleteByRaceID(ctx context.Context, raceID uuid.UUID) error {
	if _, err := p.db.GetPool().Exec(ctx, `DELETE FROM predictions WHERE race_id = $1`, raceID); err != nil {
		return fmt.Errorf("failed to delete predictions: %w", err)
	}
	return nil
}

// GetHistory retrieves a predictor's earlier predictions for a similarity class
func (p *PostgresPredictionRepository) GetHistory(ctx context.Context, predictorID uuid.UUID, similarityKey string, before time.Time) ([]*models.Prediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM predictions
		WHERE predictor_id = $1 AND similarity_key = $2 AND start_time < $3
		ORDER BY start_time ASC
	`

	rows, err := p.db.GetPool().Query(ctx, query, predictorID, similarityKey, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction history: %w", err)
	}

	return scanPredictions(rows)
}

func scanPredictions(rows pgx.Rows) ([]*models.Prediction, error) {
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		prediction := &models.Prediction{}
		err := rows.Scan(
			&prediction.ID, &prediction.RaceID, &prediction.PredictorID, &prediction.SimilarityKey,
			&prediction.StartTime, &prediction.Picks, &prediction.Values, &prediction.Score,
			&prediction.SchemaVersion, &prediction.CreatedAt, &prediction.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, prediction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return predictions, nil
}
