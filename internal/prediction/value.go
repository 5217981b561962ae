// Package prediction turns predictor outputs into ranked picks, values each
// bet type against the race result and recommends the best bets.
package prediction

import (
	"fmt"

	"github.com/yourusername/predictive-punter/internal/combination"
	"github.com/yourusername/predictive-punter/internal/models"
)

// Floors are the minimum implied price per leg when valuing a prediction
type Floors struct {
	Win    float64
	Exotic float64
}

// DefaultFloors prices every leg at no less than 2.0
func DefaultFloors() Floors {
	return Floors{Win: 2.0, Exotic: 2.0}
}

// For returns the floor for a bet type
func (f Floors) For(betType models.BetType) float64 {
	if betType.IsExotic() {
		return f.Exotic
	}
	return f.Win
}

// Value replays picks against the race's actual result for one bet type.
// Winning combinations covered by the picks are paid at their implied price;
// win bets then subtract one unit per candidate combination, exotic bets
// divide by the candidate count and subtract one. Picks that cannot form a
// bet are worth 0.
func Value(race *models.Race, picks [][]int, betType models.BetType, floors Floors) float64 {
	places := betType.Places()
	if places == 0 || len(picks) < places {
		return 0
	}

	candidates := combination.Get(picks[:places])
	if len(candidates) == 0 {
		return 0
	}

	covered := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		covered[combinationKey(candidate)] = true
	}

	value := 0.0
	for _, winners := range race.WinningCombinations(places) {
		numbers := make([]int, len(winners))
		for i, runner := range winners {
			numbers[i] = runner.Number
		}
		if covered[combinationKey(numbers)] {
			value += models.CombinationPayoff(winners, places, floors.For(betType))
		}
	}

	if places > 1 {
		return value/float64(len(candidates)) - 1
	}
	return value - float64(len(candidates))
}

// Values computes Value for every bet type
func Values(race *models.Race, picks [][]int, floors Floors) map[models.BetType]float64 {
	values := make(map[models.BetType]float64, len(models.BetTypes))
	for _, betType := range models.BetTypes {
		values[betType] = Value(race, picks, betType, floors)
	}
	return values
}

func combinationKey(numbers []int) string {
	return fmt.Sprint(numbers)
}
