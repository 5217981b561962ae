package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/predictive-punter/internal/database"
	"github.com/yourusername/predictive-punter/internal/models"
)

const errScanRace = "failed to scan race: %w"

const raceColumns = `
	r.id, r.meet_id, r.number, r.entry_conditions, r.grade, r.track_condition, r.distance,
	r.start_time, r.created_at, r.updated_at,
	m.id, m.date, m.track, m.created_at, m.updated_at`

// PostgresRaceRepository implements RaceRepository for PostgreSQL
type PostgresRaceRepository struct {
	db      *database.DB
	runners RunnerRepository
}

// NewPostgresRaceRepository creates a new race repository
func NewPostgresRaceRepository(db *database.DB, runners RunnerRepository) RaceRepository {
	return &PostgresRaceRepository{db: db, runners: runners}
}

// GetMeetsByDate retrieves every meet on a date with its races and runners
func (r *PostgresRaceRepository) GetMeetsByDate(ctx context.Context, date time.Time) ([]*models.Meet, error) {
	query := `
		SELECT ` + raceColumns + `
		FROM races r
		JOIN meets m ON m.id = r.meet_id
		WHERE m.date = $1
		ORDER BY m.track ASC, r.number ASC
	`

	races, err := r.queryRaces(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get meets by date: %w", err)
	}

	var meets []*models.Meet
	for _, race := range races {
		if len(meets) == 0 || meets[len(meets)-1].ID != race.MeetID {
			meets = append(meets, race.Meet)
		}
		meet := meets[len(meets)-1]
		race.Meet = meet
		meet.Races = append(meet.Races, race)
	}

	return meets, nil
}

// GetByID retrieves a race by ID
func (r *PostgresRaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	query := `
		SELECT ` + raceColumns + `
		FROM races r
		JOIN meets m ON m.id = r.meet_id
		WHERE r.id = $1
	`

	races, err := r.queryRaces(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}
	if len(races) == 0 {
		return nil, models.ErrNotFound
	}

	return races[0], nil
}

// FindSimilar retrieves races in the same similarity class within a start time window
func (r *PostgresRaceRepository) FindSimilar(ctx context.Context, race *models.Race, since *time.Time, before time.Time) ([]*models.Race, error) {
	query := `
		SELECT ` + raceColumns + `
		FROM races r
		JOIN meets m ON m.id = r.meet_id
		WHERE r.entry_conditions = $1 AND r.grade = $2 AND r.track_condition = $3
		  AND r.start_time < $4 AND ($5::timestamptz IS NULL OR r.start_time >= $5)
		ORDER BY r.start_time ASC
	`

	races, err := r.queryRaces(ctx, query, race.EntryConditions, race.Grade, race.TrackCondition, before, since)
	if err != nil {
		return nil, fmt.Errorf("failed to find similar races: %w", err)
	}

	key := race.SimilarityKey()
	similar := races[:0]
	for _, candidate := range races {
		if candidate.SimilarityKey() == key {
			similar = append(similar, candidate)
		}
	}

	return similar, nil
}

// queryRaces scans races with their meets and attaches runners
func (r *PostgresRaceRepository) queryRaces(ctx context.Context, query string, args ...interface{}) ([]*models.Race, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var races []*models.Race
	var ids []uuid.UUID
	meets := make(map[uuid.UUID]*models.Meet)
	for rows.Next() {
		race := &models.Race{}
		meet := &models.Meet{}
		err := rows.Scan(
			&race.ID, &race.MeetID, &race.Number, &race.EntryConditions, &race.Grade, &race.TrackCondition,
			&race.Distance, &race.StartTime, &race.CreatedAt, &race.UpdatedAt,
			&meet.ID, &meet.Date, &meet.Track, &meet.CreatedAt, &meet.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanRace, err)
		}
		if existing, ok := meets[meet.ID]; ok {
			meet = existing
		} else {
			meets[meet.ID] = meet
		}
		race.Meet = meet
		races = append(races, race)
		ids = append(ids, race.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating races: %w", err)
	}
	if len(races) == 0 {
		return nil, nil
	}

	runners, err := r.runners.GetByRaceIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, race := range races {
		race.Runners = runners[race.ID]
		for _, runner := range race.Runners {
			runner.Race = race
		}
	}

	return races, nil
}
