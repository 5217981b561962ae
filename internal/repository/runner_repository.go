package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/yourusername/predictive-punter/internal/database"
	"github.com/yourusername/predictive-punter/internal/models"
)

// PostgresRunnerRepository implements RunnerRepository for PostgreSQL
type PostgresRunnerRepository struct {
	db *database.DB
}

// NewPostgresRunnerRepository creates a new runner repository
func NewPostgresRunnerRepository(db *database.DB) RunnerRepository {
	return &PostgresRunnerRepository{db: db}
}

// GetByRaceIDs retrieves the runners of several races keyed by race ID, ordered by number
func (r *PostgresRunnerRepository) GetByRaceIDs(ctx context.Context, raceIDs []uuid.UUID) (map[uuid.UUID][]*models.Runner, error) {
	query := `
		SELECT id, race_id, number, barrier, weight, scratched, result, starting_price,
		       age, carrying, spell, up, slices, created_at, updated_at
		FROM runners
		WHERE race_id = ANY($1)
		ORDER BY race_id, number ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query runners: %w", err)
	}
	defer rows.Close()

	runners := make(map[uuid.UUID][]*models.Runner, len(raceIDs))
	for rows.Next() {
		runner := &models.Runner{}
		err := rows.Scan(
			&runner.ID, &runner.RaceID, &runner.Number, &runner.Barrier, &runner.Weight, &runner.Scratched,
			&runner.Result, &runner.StartingPrice, &runner.Age, &runner.Carrying, &runner.Spell, &runner.Up,
			&runner.Slices, &runner.CreatedAt, &runner.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan runner: %w", err)
		}
		runners[runner.RaceID] = append(runners[runner.RaceID], runner)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runners: %w", err)
	}

	return runners, nil
}
