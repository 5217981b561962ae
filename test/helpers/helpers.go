// Package helpers builds race data and contexts shared by package tests.
package helpers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/repository"
)

// ScenarioResults and ScenarioPrices describe the five runner scenario race.
var (
	ScenarioResults = []int{3, 1, 5, 2, 4}
	ScenarioPrices  = []float64{4.0, 2.0, 10.0, 6.0, 8.0}
)

// RaceOptions shapes races produced by NewRace
type RaceOptions struct {
	EntryConditions []string
	Grade           string
	TrackCondition  string
	Distance        int
	Runners         int
	// WithResults sets a finish order and starting prices
	WithResults bool
}

// DefaultRaceOptions returns a six runner maiden with results
func DefaultRaceOptions() RaceOptions {
	return RaceOptions{
		EntryConditions: []string{"3YO+", "Maiden"},
		Grade:           "Maiden",
		TrackCondition:  "Good 4",
		Distance:        1200,
		Runners:         6,
		WithResults:     true,
	}
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// NewMeet returns a meet on the given day with no races
func NewMeet(date time.Time, track string) *models.Meet {
	return &models.Meet{
		ID:    uuid.New(),
		Date:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Track: track,
	}
}

// AddRace appends a race to the meet. Runner attributes and histories are
// drawn from rng; a runner's ability decides both its history and its result.
func AddRace(meet *models.Meet, opts RaceOptions, rng *rand.Rand) *models.Race {
	number := len(meet.Races) + 1
	race := &models.Race{
		ID:              uuid.New(),
		MeetID:          meet.ID,
		Meet:            meet,
		Number:          number,
		EntryConditions: append([]string(nil), opts.EntryConditions...),
		Grade:           opts.Grade,
		TrackCondition:  opts.TrackCondition,
		Distance:        opts.Distance,
		StartTime:       meet.Date.Add(time.Duration(11+number) * time.Hour),
	}

	abilities := rng.Perm(opts.Runners)
	for i := 0; i < opts.Runners; i++ {
		ability := abilities[i]
		runner := &models.Runner{
			ID:       uuid.New(),
			RaceID:   race.ID,
			Race:     race,
			Number:   i + 1,
			Barrier:  intPtr(rng.IntN(opts.Runners) + 1),
			Weight:   floatPtr(54 + float64(rng.IntN(6))),
			Age:      floatPtr(float64(3 + rng.IntN(4))),
			Carrying: floatPtr(54 + float64(rng.IntN(6))),
			Spell:    floatPtr(float64(14 + rng.IntN(60))),
			Up:       floatPtr(float64(1 + rng.IntN(5))),
			Slices: map[models.Slice]*models.PerformanceList{
				models.SliceCareer:  history(ability, opts, 8, rng),
				models.SliceLast10:  history(ability, opts, 5, rng),
				models.SliceOnTrack: history(ability, opts, 2, rng),
			},
		}
		if opts.WithResults {
			runner.Result = intPtr(ability + 1)
			runner.StartingPrice = floatPtr(1.5 + float64(ability)*2 + rng.Float64())
		}
		race.Runners = append(race.Runners, runner)
	}

	meet.Races = append(meet.Races, race)
	return race
}

func history(ability int, opts RaceOptions, starts int, rng *rand.Rand) *models.PerformanceList {
	performances := make([]models.Performance, 0, starts)
	for i := 0; i < starts; i++ {
		result := 1 + (ability+rng.IntN(3))%opts.Runners
		starters := opts.Runners + 2
		distance := float64(opts.Distance)
		performances = append(performances, models.Performance{
			Date:           time.Date(2023, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC),
			Track:          "Flemington",
			TrackCondition: opts.TrackCondition,
			Distance:       &distance,
			Weight:         floatPtr(56),
			Time:           floatPtr(distance/16.5 + float64(ability)*0.2 + rng.Float64()*0.1),
			Result:         &result,
			Starters:       &starters,
			Prize:          floatPtr(float64(starters-result) * 1000),
			PrizePool:      floatPtr(20000),
			StartingPrice:  floatPtr(1.5 + float64(ability)*2),
		})
	}
	return models.NewPerformanceList(performances...)
}

// NewScenarioRace builds a standalone race of five runners numbered 1..5 that
// finished 3,1,5,2,4 at starting prices 4,2,10,6,8.
func NewScenarioRace(date time.Time) *models.Race {
	meet := NewMeet(date, "Flemington")
	opts := DefaultRaceOptions()
	opts.Runners = len(ScenarioResults)
	race := AddRace(meet, opts, rand.New(rand.NewPCG(1, 2)))
	for i, runner := range race.Runners {
		runner.Result = intPtr(ScenarioResults[i])
		runner.StartingPrice = floatPtr(ScenarioPrices[i])
	}
	return race
}

// BuildHistory adds one meet per day from start, each with racesPerDay races
// of the same similarity class, and returns the meets in date order.
func BuildHistory(store *repository.MemoryStore, start time.Time, days, racesPerDay int, opts RaceOptions, seed uint64) []*models.Meet {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	meets := make([]*models.Meet, 0, days)
	for day := 0; day < days; day++ {
		meet := NewMeet(start.AddDate(0, 0, day), fmt.Sprintf("Track %d", day%3))
		for i := 0; i < racesPerDay; i++ {
			AddRace(meet, opts, rng)
		}
		store.AddMeet(meet)
		meets = append(meets, meet)
	}
	return meets
}

// WaitForCondition waits for a condition to become true or times out.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Fail(t, "condition not met within timeout", message)
}

// CreateTestContext creates a context with a timeout for testing.
func CreateTestContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)

	return ctx
}

// SkipIfShort skips long running tests in short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
}
