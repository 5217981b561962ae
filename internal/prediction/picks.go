package prediction

import (
	"sort"

	"github.com/yourusername/predictive-punter/internal/models"
)

// estimations groups runner numbers by the value an estimator gave them,
// keeping the order runners were added.
type estimations struct {
	order  []float64
	groups map[float64][]int
}

func newEstimations() *estimations {
	return &estimations{groups: make(map[float64][]int)}
}

func (e *estimations) add(value float64, number int) {
	if _, ok := e.groups[value]; !ok {
		e.order = append(e.order, value)
	}
	e.groups[value] = append(e.groups[value], number)
}

// classifierPicks buckets runners by predicted place 1..4
func classifierPicks(e *estimations) [][]int {
	picks := emptyPicks()
	for place := 1; place <= models.MaxPlaces; place++ {
		picks[place-1] = append(picks[place-1], e.groups[float64(place)]...)
	}
	return picks
}

// rankedPicks orders groups by ascending value. A group of tied runners fills
// one place per runner, and filling stops at four places.
func rankedPicks(e *estimations) [][]int {
	values := append([]float64(nil), e.order...)
	sort.Float64s(values)

	picks := make([][]int, 0, models.MaxPlaces)
	for _, value := range values {
		group := e.groups[value]
		for range group {
			if len(picks) < models.MaxPlaces {
				picks = append(picks, append([]int(nil), group...))
			}
		}
	}
	for len(picks) < models.MaxPlaces {
		picks = append(picks, []int{})
	}
	return picks
}

func emptyPicks() [][]int {
	picks := make([][]int, models.MaxPlaces)
	for i := range picks {
		picks[i] = []int{}
	}
	return picks
}

// placeOf returns the 1-based place a runner was picked for, or the
// unplaced position when it was not picked.
func placeOf(picks [][]int, number int) int {
	for i, pick := range picks {
		for _, n := range pick {
			if n == number {
				return i + 1
			}
		}
	}
	return models.MaxPlaces + 1
}
