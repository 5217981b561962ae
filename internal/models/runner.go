package models

import (
	"time"

	"github.com/google/uuid"
)

// Runner represents a horse entered in a race
type Runner struct {
	ID            uuid.UUID                  `db:"id" json:"id"`
	RaceID        uuid.UUID                  `db:"race_id" json:"race_id"`
	Race          *Race                      `db:"-" json:"-"`
	Number        int                        `db:"number" json:"number"`
	Barrier       *int                       `db:"barrier" json:"barrier"`
	Weight        *float64                   `db:"weight" json:"weight"`
	Scratched     bool                       `db:"scratched" json:"scratched"`
	Result        *int                       `db:"result" json:"result"`
	StartingPrice *float64                   `db:"starting_price" json:"starting_price"`
	Age           *float64                   `db:"age" json:"age"`
	Carrying      *float64                   `db:"carrying" json:"carrying"`
	Spell         *float64                   `db:"spell" json:"spell"`
	Up            *float64                   `db:"up" json:"up"`
	Slices        map[Slice]*PerformanceList `db:"slices" json:"slices"`
	CreatedAt     time.Time                  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time                  `db:"updated_at" json:"updated_at"`
}

// Slice returns the named performance slice, or an empty list if it was not resolved
func (r *Runner) Slice(name Slice) *PerformanceList {
	if list, ok := r.Slices[name]; ok && list != nil {
		return list
	}
	return &PerformanceList{}
}

// ActualDistance returns the race distance in metres, or nil if unknown
func (r *Runner) ActualDistance() *float64 {
	if r.Race == nil || r.Race.Distance <= 0 {
		return nil
	}
	distance := float64(r.Race.Distance)
	return &distance
}

// ActualWeight is the weight carried, falling back to the allocated weight
func (r *Runner) ActualWeight() *float64 {
	if r.Carrying != nil && *r.Carrying > 0 {
		return r.Carrying
	}
	if r.Weight != nil && *r.Weight > 0 {
		return r.Weight
	}
	return nil
}

// ExpectedTimes converts a slice's momentum statistics into expected race times
// for this runner: distance / (momentum / actual weight).
func (r *Runner) ExpectedTimes(name Slice) [3]*float64 {
	var times [3]*float64

	distance := r.ActualDistance()
	weight := r.ActualWeight()
	if distance == nil || weight == nil {
		return times
	}

	for index, momentum := range r.Slice(name).Momentums() {
		if momentum == nil || *momentum <= 0 {
			continue
		}
		expected := *distance / (*momentum / *weight)
		times[index] = &expected
	}
	return times
}

// RacesPerYear is career starts divided by age
func (r *Runner) RacesPerYear() *float64 {
	if r.Age == nil || *r.Age <= 0 {
		return nil
	}
	perYear := float64(r.Slice(SliceCareer).Starts()) / *r.Age
	return &perYear
}

// Placed reports whether the runner finished in a place between 1 and places
func (r *Runner) Placed(places int) bool {
	return r.Result != nil && *r.Result >= 1 && *r.Result <= places
}
