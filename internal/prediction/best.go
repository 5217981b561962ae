package prediction

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/predictive-punter/internal/models"
)

// Recommendation is the most reliable prediction offering a bet type
type Recommendation struct {
	BetType    models.BetType
	Prediction *models.Prediction
	// Picks are the prediction's picks for the places the bet needs
	Picks           [][]int
	StrikeRate      float64
	MinimumDividend float64
	ROI             float64
	History         int
}

// BestBets holds at most one recommendation per bet type and the runners
// picked to win by any recommended win predictor.
type BestBets struct {
	Race  *models.Race
	Bets  map[models.BetType]*Recommendation
	Multi []int
}

// Get returns the recommendation for a bet type, or nil
func (b *BestBets) Get(betType models.BetType) *Recommendation {
	if b == nil {
		return nil
	}
	return b.Bets[betType]
}

// BestPredictions scores each predictor's prediction for the race on its
// history over earlier similar races and keeps, per bet type, the one with
// the lowest minimum dividend. Consensus predictions have no predictor
// history and are not ranked.
func (s *Service) BestPredictions(ctx context.Context, race *models.Race) (*BestBets, error) {
	predictions, err := s.GeneratePredictions(ctx, race)
	if err != nil {
		return nil, err
	}

	best := &BestBets{Race: race, Bets: make(map[models.BetType]*Recommendation)}
	histories := make(map[uuid.UUID][]*models.Prediction)
	multi := make(map[int]bool)

	for _, betType := range models.BetTypes {
		for _, prediction := range predictions {
			if prediction.IsConsensus() || !prediction.HasBet(betType) {
				continue
			}

			history, ok := histories[*prediction.PredictorID]
			if !ok {
				history, err = s.predictions.GetHistory(ctx, *prediction.PredictorID, race.SimilarityKey(), race.StartTime)
				if err != nil {
					return nil, fmt.Errorf("failed to load history for predictor %s: %w", *prediction.PredictorID, err)
				}
				histories[*prediction.PredictorID] = history
			}

			recommendation := recommend(betType, prediction, history)
			if recommendation == nil {
				continue
			}

			if betType == models.BetTypeWin {
				for _, number := range recommendation.Picks[0] {
					multi[number] = true
				}
			}

			current := best.Bets[betType]
			if current == nil || recommendation.MinimumDividend < current.MinimumDividend {
				best.Bets[betType] = recommendation
			}
		}
	}

	for number := range multi {
		best.Multi = append(best.Multi, number)
	}
	sort.Ints(best.Multi)

	return best, nil
}

// recommend summarizes a predictor's non-zero historical values for the bet
// type. It returns nil without history or when nothing ever paid.
func recommend(betType models.BetType, prediction *models.Prediction, history []*models.Prediction) *Recommendation {
	var values []float64
	for _, past := range history {
		if value := past.Value(betType); value != 0 {
			values = append(values, value)
		}
	}
	if len(values) == 0 {
		return nil
	}

	hits := 0
	for _, value := range values {
		if value > 0 {
			hits++
		}
	}
	if hits == 0 {
		return nil
	}

	strikeRate := float64(hits) / float64(len(values))
	return &Recommendation{
		BetType:         betType,
		Prediction:      prediction,
		Picks:           prediction.Picks[:betType.Places()],
		StrikeRate:      strikeRate,
		MinimumDividend: 1 / strikeRate,
		ROI:             stat.Mean(values, nil),
		History:         len(values),
	}
}
