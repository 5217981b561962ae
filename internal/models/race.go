package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/predictive-punter/internal/combination"
)

// RaceValueFloor is the minimum implied price of each leg when valuing a race's
// own winning combinations.
const RaceValueFloor = 1.0

// similarityNamespace scopes the name-based UUIDs used as similarity keys.
var similarityNamespace = uuid.MustParse("6c1f7d8e-3a52-4b8e-9d0a-5e2f4c7b9a10")

// Meet represents a race meeting at a track on a given date
type Meet struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	Track     string    `db:"track" json:"track"`
	Races     []*Race   `db:"-" json:"races,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Race represents a single race within a meet
type Race struct {
	ID              uuid.UUID `db:"id" json:"id"`
	MeetID          uuid.UUID `db:"meet_id" json:"meet_id"`
	Meet            *Meet     `db:"-" json:"-"`
	Number          int       `db:"number" json:"number"`
	EntryConditions []string  `db:"entry_conditions" json:"entry_conditions"`
	Grade           string    `db:"grade" json:"grade"`
	TrackCondition  string    `db:"track_condition" json:"track_condition"`
	Distance        int       `db:"distance" json:"distance"`
	StartTime       time.Time `db:"start_time" json:"start_time"`
	Runners         []*Runner `db:"-" json:"runners,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// ActiveRunners returns the non-scratched runners in their original order
func (r *Race) ActiveRunners() []*Runner {
	active := make([]*Runner, 0, len(r.Runners))
	for _, runner := range r.Runners {
		if !runner.Scratched {
			active = append(active, runner)
		}
	}
	return active
}

// MeetDate returns the date of the owning meet, falling back to the start time's day.
func (r *Race) MeetDate() time.Time {
	if r.Meet != nil && !r.Meet.Date.IsZero() {
		return r.Meet.Date
	}
	y, m, d := r.StartTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.StartTime.Location())
}

// SimilarityKey identifies the class of races sharing entry conditions, grade and
// track condition. Entry conditions are hashed in their stored order.
func (r *Race) SimilarityKey() string {
	parts := make([]string, 0, len(r.EntryConditions)+2)
	parts = append(parts, r.EntryConditions...)
	parts = append(parts, r.Grade, r.TrackCondition)
	return uuid.NewSHA1(similarityNamespace, []byte(strings.Join(parts, "\x1f"))).String()
}

// IsSimilarTo reports whether other belongs to the same class and started before this race's meet date.
func (r *Race) IsSimilarTo(other *Race) bool {
	return r.SimilarityKey() == other.SimilarityKey() && other.StartTime.Before(r.MeetDate())
}

// WinningCombinations returns every duplicate-free ordering of active runners that
// fills the first places finishing positions. Dead heats yield more than one.
func (r *Race) WinningCombinations(places int) [][]*Runner {
	if places <= 0 {
		return nil
	}

	results := make([][]*Runner, places)
	for _, runner := range r.ActiveRunners() {
		if runner.Result != nil && *runner.Result >= 1 && *runner.Result <= places {
			results[*runner.Result-1] = append(results[*runner.Result-1], runner)
		}
	}

	return combination.Get(results)
}

// CalculateValue sums the implied payoff of every winning combination for the given number of places
func (r *Race) CalculateValue(places int) float64 {
	value := 0.0
	for _, winners := range r.WinningCombinations(places) {
		value += CombinationPayoff(winners, places, RaceValueFloor)
	}
	return value
}

// WinValue returns the race value for the winner
func (r *Race) WinValue() float64 {
	return r.CalculateValue(BetTypeWin.Places())
}

// ExactaValue returns the race value for the first two places
func (r *Race) ExactaValue() float64 {
	return r.CalculateValue(BetTypeExacta.Places())
}

// TrifectaValue returns the race value for the first three places
func (r *Race) TrifectaValue() float64 {
	return r.CalculateValue(BetTypeTrifecta.Places())
}

// FirstFourValue returns the race value for the first four places
func (r *Race) FirstFourValue() float64 {
	return r.CalculateValue(BetTypeFirstFour.Places())
}

// TotalValue is the sum of all four bet type values. Races without results are worth nothing.
func (r *Race) TotalValue() float64 {
	return r.WinValue() + r.ExactaValue() + r.TrifectaValue() + r.FirstFourValue()
}

// CombinationPayoff discounts each runner's win price into an implied price for its
// position in the combination and multiplies the legs together. Runners without a
// starting price contribute a factor of one.
func CombinationPayoff(runners []*Runner, places int, floor float64) float64 {
	payoff := 1.0
	for index, runner := range runners {
		if runner.StartingPrice == nil {
			continue
		}
		leg := *runner.StartingPrice * float64(places-index) / float64(places)
		if leg < floor {
			leg = floor
		}
		payoff *= leg
	}
	return payoff
}
