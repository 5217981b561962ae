package repository_test

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/repository"
	"github.com/yourusername/predictive-punter/test/helpers"
)

var day = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func TestMemoryStore_GetMeetsByDate(t *testing.T) {
	store := repository.NewMemoryStore()
	helpers.BuildHistory(store, day, 3, 2, helpers.DefaultRaceOptions(), 1)

	meets, err := store.GetMeetsByDate(context.Background(), day.AddDate(0, 0, 1).Add(15*time.Hour))
	require.NoError(t, err)
	require.Len(t, meets, 1)
	assert.Len(t, meets[0].Races, 2)

	race := meets[0].Races[0]
	assert.Same(t, meets[0], race.Meet)
	assert.Same(t, race, race.Runners[0].Race)

	found, err := store.GetByID(context.Background(), race.ID)
	require.NoError(t, err)
	assert.Same(t, race, found)

	_, err = store.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryStore_FindSimilar(t *testing.T) {
	store := repository.NewMemoryStore()
	meets := helpers.BuildHistory(store, day, 4, 2, helpers.DefaultRaceOptions(), 1)

	other := helpers.DefaultRaceOptions()
	other.TrackCondition = "Heavy 8"
	helpers.AddRace(meets[0], other, rand.New(rand.NewPCG(3, 4)))

	target := meets[3].Races[0]
	ctx := context.Background()

	similar, err := store.FindSimilar(ctx, target, nil, target.MeetDate())
	require.NoError(t, err)
	assert.Len(t, similar, 6)
	for i := 1; i < len(similar); i++ {
		assert.False(t, similar[i].StartTime.Before(similar[i-1].StartTime))
	}

	since := day.AddDate(0, 0, 2)
	similar, err = store.FindSimilar(ctx, target, &since, target.MeetDate())
	require.NoError(t, err)
	assert.Len(t, similar, 2)
}

func TestMemoryStore_SamplesAreCopied(t *testing.T) {
	store := repository.NewMemoryStore()
	samples := store.Samples()
	ctx := context.Background()

	value := 1.5
	sample := &models.Sample{
		ID:            uuid.New(),
		RunnerID:      uuid.New(),
		RawFeatures:   []*float64{&value, nil},
		SchemaVersion: models.SchemaVersion,
	}
	require.NoError(t, samples.Upsert(ctx, sample))
	value = 9

	loaded, err := samples.GetByRunnerID(ctx, sample.RunnerID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, *loaded.RawFeatures[0])
	assert.Nil(t, loaded.RawFeatures[1])

	loaded.NormalizedFeatures = []float64{1, 0}
	require.NoError(t, samples.Upsert(ctx, loaded))
	reloaded, err := samples.GetByRunnerID(ctx, sample.RunnerID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsNormalized())

	require.NoError(t, samples.DeleteByRunnerID(ctx, sample.RunnerID))
	_, err = samples.GetByRunnerID(ctx, sample.RunnerID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryStore_Predictors(t *testing.T) {
	store := repository.NewMemoryStore()
	predictors := store.Predictors()
	ctx := context.Background()

	first := &models.PredictorRecord{ID: uuid.New(), SimilarityKey: "a", CreatedAt: day}
	second := &models.PredictorRecord{ID: uuid.New(), SimilarityKey: "a", CreatedAt: day.Add(time.Minute)}
	elsewhere := &models.PredictorRecord{ID: uuid.New(), SimilarityKey: "b", CreatedAt: day}
	for _, record := range []*models.PredictorRecord{second, first, elsewhere} {
		require.NoError(t, predictors.Create(ctx, record))
	}
	assert.ErrorIs(t, predictors.Create(ctx, first), models.ErrDuplicateKey)

	found, err := predictors.FindByKey(ctx, "a")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, first.ID, found[0].ID)
	assert.Equal(t, second.ID, found[1].ID)

	score := 0.5
	first.Score = &score
	require.NoError(t, predictors.Update(ctx, first))
	found, err = predictors.FindByKey(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0.5, found[0].GetScore())

	require.NoError(t, predictors.Delete(ctx, first.ID))
	assert.ErrorIs(t, predictors.Delete(ctx, first.ID), models.ErrNotFound)
	assert.ErrorIs(t, predictors.Update(ctx, first), models.ErrNotFound)
}

func TestMemoryStore_PredictionHistory(t *testing.T) {
	store := repository.NewMemoryStore()
	predictions := store.Predictions()
	ctx := context.Background()

	predictorID := uuid.New()
	raceID := uuid.New()
	newPrediction := func(start time.Time, key string, predictor *uuid.UUID) *models.Prediction {
		return &models.Prediction{
			ID:            uuid.New(),
			RaceID:        raceID,
			PredictorID:   predictor,
			SimilarityKey: key,
			StartTime:     start,
		}
	}

	later := newPrediction(day.Add(2*time.Hour), "a", &predictorID)
	earlier := newPrediction(day.Add(time.Hour), "a", &predictorID)
	for _, p := range []*models.Prediction{
		later,
		earlier,
		newPrediction(day.Add(time.Hour), "b", &predictorID),
		newPrediction(day.Add(time.Hour), "a", nil),
		newPrediction(day.Add(5*time.Hour), "a", &predictorID),
	} {
		require.NoError(t, predictions.Create(ctx, p))
	}

	history, err := predictions.GetHistory(ctx, predictorID, "a", day.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, earlier.ID, history[0].ID)
	assert.Equal(t, later.ID, history[1].ID)

	byRace, err := predictions.GetByRaceID(ctx, raceID)
	require.NoError(t, err)
	assert.Len(t, byRace, 5)

	require.NoError(t, predictions.DeleteByRaceID(ctx, raceID))
	byRace, err = predictions.GetByRaceID(ctx, raceID)
	require.NoError(t, err)
	assert.Empty(t, byRace)
}

func TestMemoryStore_BackupRestore(t *testing.T) {
	store := repository.NewMemoryStore()
	predictors := store.Predictors()
	ctx := context.Background()

	kept := &models.PredictorRecord{ID: uuid.New(), SimilarityKey: "a"}
	lost := &models.PredictorRecord{ID: uuid.New(), SimilarityKey: "a"}

	require.NoError(t, store.Restore(ctx))
	require.NoError(t, predictors.Create(ctx, kept))
	require.NoError(t, store.Backup(ctx))
	require.NoError(t, predictors.Create(ctx, lost))
	require.NoError(t, store.Restore(ctx))

	found, err := predictors.FindByKey(ctx, "a")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, kept.ID, found[0].ID)
}

func TestLoadFixtures(t *testing.T) {
	meet := helpers.NewMeet(day, "Randwick")
	helpers.AddRace(meet, helpers.DefaultRaceOptions(), rand.New(rand.NewPCG(1, 2)))

	data, err := json.Marshal([]*models.Meet{meet})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "meets.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	store, err := repository.LoadFixtures(path)
	require.NoError(t, err)

	meets, err := store.GetMeetsByDate(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, meets, 1)
	race := meets[0].Races[0]
	assert.Equal(t, meet.Races[0].SimilarityKey(), race.SimilarityKey())
	require.Len(t, race.Runners, 6)
	assert.Same(t, race, race.Runners[0].Race)
	assert.Equal(t, meet.Races[0].Runners[0].Slice(models.SliceCareer).Starts(), race.Runners[0].Slice(models.SliceCareer).Starts())

	_, err = repository.LoadFixtures(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewRepositories_RequiresDatabase(t *testing.T) {
	_, err := repository.NewRepositories(nil)
	assert.Error(t, err)
}
