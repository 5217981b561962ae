package predictor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/predictive-punter/internal/estimator"
	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/repository"
	"github.com/yourusername/predictive-punter/internal/sample"
	"github.com/yourusername/predictive-punter/test/helpers"
)

var historyStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store   *repository.MemoryStore
	records repository.PredictorRepository
	cache   *Cache
	meets   []*models.Meet
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newFixture(t *testing.T, days int, mode string) *fixture {
	t.Helper()

	store := repository.NewMemoryStore()
	meets := helpers.BuildHistory(store, historyStart, days, 2, helpers.DefaultRaceOptions(), 7)

	log := quietLogger()
	opts := Options{
		Candidates:    estimator.CompactGrid(),
		TestFraction:  0.25,
		Seed:          1,
		SelectionMode: mode,
	}
	records := store.Predictors()
	return &fixture{
		store:   store,
		records: records,
		cache:   NewCache(store, records, sample.NewService(store.Samples(), log), opts, log),
		meets:   meets,
	}
}

func (f *fixture) race(day int) *models.Race {
	return f.meets[day].Races[0]
}

func (f *fixture) stored(t *testing.T, race *models.Race) []*models.PredictorRecord {
	t.Helper()
	records, err := f.records.FindByKey(context.Background(), race.SimilarityKey())
	require.NoError(t, err)
	return records
}

func TestCache_GeneratesAndCaches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, SelectAll)
	race := f.race(9)

	predictors, err := f.cache.Get(ctx, race)
	require.NoError(t, err)
	require.NotEmpty(t, predictors)
	assert.LessOrEqual(t, len(predictors), len(estimator.CompactGrid()))

	for _, p := range predictors {
		require.NotNil(t, p.Record.LastTrainingDate)
		assert.True(t, p.Record.LastTrainingDate.Equal(race.MeetDate()))
		assert.NotEmpty(t, p.Record.SerializedModel)
		assert.NotNil(t, p.Record.Score)
		assert.Equal(t, race.SimilarityKey(), p.Record.SimilarityKey)
	}
	assert.Len(t, f.stored(t, race), len(predictors))

	again, err := f.cache.Get(ctx, race)
	require.NoError(t, err)
	require.Len(t, again, len(predictors))
	for i := range again {
		assert.Same(t, predictors[i], again[i])
	}
}

func TestCache_PredictorsPredictPlaces(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, SelectAll)
	race := f.race(9)
	features := sample.NewService(f.store.Samples(), quietLogger())

	predictors, err := f.cache.Get(ctx, race)
	require.NoError(t, err)

	row, err := features.NormalizedFeatures(ctx, race.Runners[0])
	require.NoError(t, err)

	for _, p := range predictors {
		value, err := p.Predict(row)
		require.NoError(t, err)
		if p.IsClassifier() {
			assert.Contains(t, estimator.DefaultClasses, value)
		}
	}
}

func TestCache_SelectBest(t *testing.T) {
	f := newFixture(t, 10, SelectBest)

	predictors, err := f.cache.Get(context.Background(), f.race(9))
	require.NoError(t, err)
	require.Len(t, predictors, 2)

	assert.True(t, predictors[0].IsClassifier())
	assert.False(t, predictors[1].IsClassifier())
}

func TestCache_ConcurrentGetGeneratesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 8, SelectAll)
	race := f.race(7)

	var wg sync.WaitGroup
	results := make([][]*Predictor, 6)
	errs := make([]error, 6)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.cache.Get(ctx, race)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Len(t, results[i], len(results[0]))
	}
	assert.Len(t, f.stored(t, race), len(results[0]))
}

func TestCache_DifferentClassesTrainIndependently(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 8, SelectAll)

	heavy := helpers.DefaultRaceOptions()
	heavy.TrackCondition = "Heavy 8"
	heavyMeets := helpers.BuildHistory(f.store, historyStart, 8, 1, heavy, 11)

	good := f.race(7)
	wet := heavyMeets[7].Races[0]
	require.NotEqual(t, good.SimilarityKey(), wet.SimilarityKey())

	var wg sync.WaitGroup
	var goodErr, wetErr error
	var goodPredictors, wetPredictors []*Predictor
	wg.Add(2)
	go func() { defer wg.Done(); goodPredictors, goodErr = f.cache.Get(ctx, good) }()
	go func() { defer wg.Done(); wetPredictors, wetErr = f.cache.Get(ctx, wet) }()
	wg.Wait()

	require.NoError(t, goodErr)
	require.NoError(t, wetErr)
	for _, p := range goodPredictors {
		assert.Equal(t, good.SimilarityKey(), p.Record.SimilarityKey)
	}
	for _, p := range wetPredictors {
		assert.Equal(t, wet.SimilarityKey(), p.Record.SimilarityKey)
	}
}

func TestCache_NoHistoryCachesEmpty(t *testing.T) {
	f := newFixture(t, 3, SelectAll)
	first := f.race(0)

	predictors, err := f.cache.Get(context.Background(), first)
	require.NoError(t, err)
	assert.Empty(t, predictors)
	assert.Empty(t, f.stored(t, first))
}

func TestCache_ClearReloadsAndRetrains(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 12, SelectAll)

	early, err := f.cache.Get(ctx, f.race(8))
	require.NoError(t, err)
	require.NotEmpty(t, early)
	ids := make(map[uuid.UUID]bool)
	for _, p := range early {
		ids[p.ID()] = true
	}

	f.cache.Clear()
	assert.Equal(t, uint64(1), f.cache.Epoch())

	later := f.race(11)
	reloaded, err := f.cache.Get(ctx, later)
	require.NoError(t, err)
	require.NotEmpty(t, reloaded)
	for _, p := range reloaded {
		assert.True(t, ids[p.ID()], "predictor %s was not reloaded", p.ID())
		require.NotNil(t, p.Record.LastTrainingDate)
		assert.True(t, p.Record.LastTrainingDate.Equal(later.MeetDate()))
	}

	for _, record := range f.stored(t, later) {
		require.NotNil(t, record.LastTrainingDate)
		assert.True(t, record.LastTrainingDate.Equal(later.MeetDate()))
	}
}

func TestCache_DeletesUndecodableRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 8, SelectAll)
	race := f.race(7)

	broken := &models.PredictorRecord{
		ID:              uuid.New(),
		SimilarityKey:   race.SimilarityKey(),
		Kind:            estimator.KindRegressor,
		SerializedModel: []byte("not a model"),
	}
	require.NoError(t, f.records.Create(ctx, broken))

	predictors, err := f.cache.Get(ctx, race)
	require.NoError(t, err)
	require.NotEmpty(t, predictors)
	for _, p := range predictors {
		assert.NotEqual(t, broken.ID, p.ID())
	}
	for _, record := range f.stored(t, race) {
		assert.NotEqual(t, broken.ID, record.ID)
	}
}

func scored(isClassifier bool, score float64) *Predictor {
	return New(&models.PredictorRecord{ID: uuid.New(), IsClassifier: isClassifier, Score: &score}, nil)
}

func TestSelectBestPerRole(t *testing.T) {
	first := scored(true, 0.5)
	tied := scored(true, 0.5)
	worse := scored(true, 0.1)
	regressor := scored(false, -0.2)
	better := scored(false, 0.3)

	selected := SelectBestPerRole([]*Predictor{first, tied, worse, regressor, better})
	require.Len(t, selected, 2)
	assert.Same(t, first, selected[0])
	assert.Same(t, better, selected[1])

	assert.Empty(t, SelectBestPerRole(nil))
	assert.Equal(t, []*Predictor{regressor}, SelectBestPerRole([]*Predictor{regressor}))
}

func TestSplitRaces(t *testing.T) {
	races := make([]*models.Race, 8)
	for i := range races {
		races[i] = &models.Race{ID: uuid.New()}
	}
	key := uuid.New().String()

	train, test := splitRaces(races, 0.25, 1, key)
	assert.Len(t, train, 6)
	assert.Len(t, test, 2)

	train2, test2 := splitRaces(races, 0.25, 1, key)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)

	train, test = splitRaces(races[:2], 0.01, 1, key)
	assert.Len(t, train, 1)
	assert.Len(t, test, 1)

	train, test = splitRaces(races[:1], 0.25, 1, key)
	assert.Len(t, train, 1)
	assert.Empty(t, test)
}

// narrowFeatures cuts feature rows for races run on or after cutoff, so
// predictors fitted on the full width can no longer score or fit them.
type narrowFeatures struct {
	*sample.Service
	cutoff time.Time
}

func (n *narrowFeatures) NormalizedFeatures(ctx context.Context, runner *models.Runner) ([]float64, error) {
	features, err := n.Service.NormalizedFeatures(ctx, runner)
	if err != nil || n.cutoff.IsZero() || runner.Race.MeetDate().Before(n.cutoff) {
		return features, err
	}
	return features[:10], nil
}

func TestCache_FailedRetrainDeletesPredictors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 12, SelectAll)
	features := &narrowFeatures{Service: sample.NewService(f.store.Samples(), quietLogger())}
	cache := NewCache(f.store, f.records, features, f.cache.opts, quietLogger())

	generated, err := cache.Get(ctx, f.race(8))
	require.NoError(t, err)
	require.NotEmpty(t, generated)
	require.Len(t, f.stored(t, f.race(8)), len(generated))

	features.cutoff = f.race(8).MeetDate()
	cache.Clear()

	later := f.race(11)
	retrained, err := cache.Get(ctx, later)
	require.NoError(t, err)
	assert.Empty(t, retrained)
	assert.Empty(t, f.stored(t, later))
}
