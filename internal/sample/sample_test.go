package sample

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/repository"
	"github.com/yourusername/predictive-punter/test/helpers"
)

var scenarioDate = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func newTestService() (*Service, repository.SampleRepository) {
	repo := repository.NewMemoryStore().Samples()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewService(repo, logger), repo
}

func TestColumns_Layout(t *testing.T) {
	assert.Equal(t, 233, ColumnCount)
	assert.Equal(t, "barrier", Columns[0].Name)
	assert.Equal(t, "up", Columns[7].Name)
	assert.Equal(t, "at_distance.expected_time_min", Columns[8].Name)
	assert.Equal(t, "at_distance.earnings", Columns[11].Name)
	assert.Equal(t, ImputeMin, Columns[11].Policy)
	assert.Equal(t, "at_distance.starts", Columns[17].Name)
	assert.Equal(t, ImputeMax, Columns[17].Policy)
	assert.Equal(t, "with_jockey.starting_price_avg", Columns[ColumnCount-1].Name)
}

func TestGenerateSample_MissingMandatoryFields(t *testing.T) {
	race := helpers.NewScenarioRace(scenarioDate)

	tests := []struct {
		name   string
		runner *models.Runner
	}{
		{"nil runner", nil},
		{"no id", &models.Runner{Number: 1, Race: race}},
		{"no number", &models.Runner{ID: uuid.New(), Race: race}},
		{"no race", &models.Runner{ID: uuid.New(), Number: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateSample(tt.runner)
			assert.ErrorIs(t, err, models.ErrMissingField)
		})
	}
}

func TestGenerateSample_Labels(t *testing.T) {
	race := helpers.NewScenarioRace(scenarioDate)

	first, err := GenerateSample(race.Runners[0])
	require.NoError(t, err)

	assert.Len(t, first.RawFeatures, ColumnCount)
	assert.Equal(t, 3, first.ClassificationLabel)
	require.NotNil(t, first.RegressionLabel)
	assert.InDelta(t, 3/math.Sqrt(55), *first.RegressionLabel, 1e-12)
	assert.InDelta(t, race.TotalValue(), first.Weight, 1e-12)
	assert.Equal(t, models.SchemaVersion, first.SchemaVersion)

	fifth, err := GenerateSample(race.Runners[2])
	require.NoError(t, err)
	assert.Equal(t, UnplacedLabel, fifth.ClassificationLabel)

	race.Runners[1].Result = nil
	unknown, err := GenerateSample(race.Runners[1])
	require.NoError(t, err)
	assert.Equal(t, UnplacedLabel, unknown.ClassificationLabel)
	assert.Nil(t, unknown.RegressionLabel)
}

func TestGenerateSample_Idempotent(t *testing.T) {
	race := helpers.NewScenarioRace(scenarioDate)

	a, err := GenerateSample(race.Runners[3])
	require.NoError(t, err)
	b, err := GenerateSample(race.Runners[3])
	require.NoError(t, err)

	assert.Equal(t, a.RawFeatures, b.RawFeatures)
	assert.Equal(t, a.ClassificationLabel, b.ClassificationLabel)
	assert.Equal(t, a.RegressionLabel, b.RegressionLabel)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestGenerateSample_OptionalValues(t *testing.T) {
	race := helpers.NewScenarioRace(scenarioDate)
	runner := race.Runners[0]
	runner.Barrier = nil
	runner.Up = floatPtr(math.NaN())
	runner.Spell = floatPtr(math.Inf(1))
	delete(runner.Slices, models.SliceCareer)

	sample, err := GenerateSample(runner)
	require.NoError(t, err)

	assert.Nil(t, sample.RawFeatures[0])
	require.NotNil(t, sample.RawFeatures[1])
	assert.Equal(t, 1.0, *sample.RawFeatures[1])
	assert.Nil(t, sample.RawFeatures[6])
	assert.Nil(t, sample.RawFeatures[7])
	// races_per_year needs career starts
	require.NotNil(t, sample.RawFeatures[5])
	assert.Equal(t, 0.0, *sample.RawFeatures[5])
}

func TestImpute(t *testing.T) {
	own := make([]*float64, ColumnCount)
	own[0] = floatPtr(7)

	a := make([]*float64, ColumnCount)
	b := make([]*float64, ColumnCount)
	// barrier column, max policy: own value wins
	a[0], b[0] = floatPtr(1), floatPtr(9)
	// number column, max policy
	a[1], b[1] = floatPtr(2), floatPtr(5)
	// at_distance.earnings, min policy
	a[11], b[11] = floatPtr(300), floatPtr(100)
	b[12] = floatPtr(0.4)

	imputed, err := Impute(own, [][]*float64{a, b})
	require.NoError(t, err)
	require.Len(t, imputed, ColumnCount)

	assert.Equal(t, 7.0, imputed[0])
	assert.Equal(t, 5.0, imputed[1])
	assert.Equal(t, 100.0, imputed[11])
	assert.Equal(t, 0.4, imputed[12])
	assert.Equal(t, 0.0, imputed[2])

	_, err = Impute(own, [][]*float64{make([]*float64, 3)})
	assert.ErrorIs(t, err, ErrColumnMismatch)
}

func TestNormalize(t *testing.T) {
	normalized, err := Normalize([][]float64{
		{3, 0, 1},
		{4, 0, 1},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.6, normalized[0], 1e-12)
	assert.Equal(t, 0.0, normalized[1])
	assert.InDelta(t, 1/math.Sqrt2, normalized[2], 1e-12)

	_, err = Normalize([][]float64{{1, 2}, {1}})
	assert.ErrorIs(t, err, ErrColumnMismatch)
}

func TestService_GetSample(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService()
	race := helpers.NewScenarioRace(scenarioDate)
	runner := race.Runners[0]

	first, err := service.GetSample(ctx, runner)
	require.NoError(t, err)

	stored, err := repo.GetByRunnerID(ctx, runner.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)

	again, err := service.GetSample(ctx, runner)
	require.NoError(t, err)
	assert.Same(t, first, again)

	service.Clear()
	loaded, err := service.GetSample(ctx, runner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, loaded.ID)
}

func TestService_GetSample_RegeneratesExpired(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService()
	race := helpers.NewScenarioRace(scenarioDate)
	runner := race.Runners[0]

	old := &models.Sample{
		ID:            uuid.New(),
		RunnerID:      runner.ID,
		RaceID:        race.ID,
		SchemaVersion: "0.9.0",
		CreatedAt:     time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Upsert(ctx, old))

	sample, err := service.GetSample(ctx, runner)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, sample.ID)
	assert.Equal(t, models.SchemaVersion, sample.SchemaVersion)

	stored, err := repo.GetByRunnerID(ctx, runner.ID)
	require.NoError(t, err)
	assert.Equal(t, sample.ID, stored.ID)
}

func TestService_NormalizedFeatures(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService()
	race := helpers.NewScenarioRace(scenarioDate)
	race.Runners[4].Scratched = true

	var wg sync.WaitGroup
	results := make([][]float64, len(race.Runners))
	errs := make([]error, len(race.Runners))
	for i, runner := range race.ActiveRunners() {
		wg.Add(1)
		go func(i int, runner *models.Runner) {
			defer wg.Done()
			results[i], errs[i] = service.NormalizedFeatures(ctx, runner)
		}(i, runner)
	}
	wg.Wait()

	for i := range race.ActiveRunners() {
		require.NoError(t, errs[i])
		require.Len(t, results[i], ColumnCount)
		for _, value := range results[i] {
			assert.False(t, math.IsNaN(value))
		}
	}

	// runner numbers 1..4 over the active field
	assert.InDelta(t, 1/math.Sqrt(30), results[0][1], 1e-12)
	assert.InDelta(t, 4/math.Sqrt(30), results[3][1], 1e-12)

	stored, err := repo.GetByRunnerID(ctx, race.Runners[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.IsImputed())
	assert.True(t, stored.IsNormalized())
	assert.Equal(t, results[0], stored.NormalizedFeatures)
}

func TestService_ImputedFeatures_NoNulls(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	race := helpers.NewScenarioRace(scenarioDate)
	race.Runners[0].Barrier = nil
	race.Runners[0].Age = nil

	imputed, err := service.ImputedFeatures(ctx, race.Runners[0])
	require.NoError(t, err)
	require.Len(t, imputed, ColumnCount)

	maxBarrier := 0
	maxAge := 0.0
	for _, other := range race.Runners[1:] {
		maxBarrier = max(maxBarrier, *other.Barrier)
		maxAge = math.Max(maxAge, *other.Age)
	}
	assert.Equal(t, float64(maxBarrier), imputed[0])
	assert.Equal(t, maxAge, imputed[3])
}
