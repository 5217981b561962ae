package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction is a ranked set of picks for a race produced by one predictor or a consensus
type Prediction struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	RaceID        uuid.UUID           `db:"race_id" json:"race_id"`
	PredictorID   *uuid.UUID          `db:"predictor_id" json:"predictor_id"`
	SimilarityKey string              `db:"similarity_key" json:"similarity_key"`
	StartTime     time.Time           `db:"start_time" json:"start_time"`
	Picks         [][]int             `db:"picks" json:"picks"`
	Values        map[BetType]float64 `db:"bet_values" json:"values"`
	Score         float64             `db:"score" json:"score"`
	SchemaVersion string              `db:"schema_version" json:"schema_version"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// HasExpired reports whether the prediction predates the race's last update or the current schema
func (p *Prediction) HasExpired(race *Race) bool {
	if !IsCompatibleVersion(p.SchemaVersion) {
		return true
	}
	return race != nil && race.UpdatedAt.After(p.CreatedAt)
}

// HasBet reports whether every place the bet type requires has at least one pick
func (p *Prediction) HasBet(betType BetType) bool {
	places := betType.Places()
	if places == 0 || len(p.Picks) < places {
		return false
	}
	for _, pick := range p.Picks[:places] {
		if len(pick) == 0 {
			return false
		}
	}
	return true
}

// Value returns the stored value for a bet type, 0 when absent
func (p *Prediction) Value(betType BetType) float64 {
	return p.Values[betType]
}

// IsConsensus reports whether the prediction blends every predictor for the race
func (p *Prediction) IsConsensus() bool {
	return p.PredictorID == nil
}
