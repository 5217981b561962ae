//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/predictive-punter/internal/estimator"
	"github.com/yourusername/predictive-punter/internal/prediction"
	"github.com/yourusername/predictive-punter/internal/predictor"
	"github.com/yourusername/predictive-punter/internal/processing"
	"github.com/yourusername/predictive-punter/internal/repository"
	"github.com/yourusername/predictive-punter/internal/sample"
	"github.com/yourusername/predictive-punter/test/helpers"
)

const historyDays = 14

var historyStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type pipeline struct {
	store       *repository.MemoryStore
	samples     *sample.Service
	predictors  *predictor.Cache
	predictions *prediction.Service
	logger      *logrus.Logger
}

func newPipeline(t *testing.T, mode string) *pipeline {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := repository.NewMemoryStore()
	helpers.BuildHistory(store, historyStart, historyDays, 2, helpers.DefaultRaceOptions(), 11)

	samples := sample.NewService(store.Samples(), log)
	predictors := predictor.NewCache(store, store.Predictors(), samples, predictor.Options{
		Candidates:    estimator.CompactGrid(),
		TestFraction:  0.25,
		Seed:          3,
		SelectionMode: mode,
	}, log)

	return &pipeline{
		store:       store,
		samples:     samples,
		predictors:  predictors,
		predictions: prediction.NewService(predictors, samples, store.Predictions(), prediction.DefaultFloors(), log),
		logger:      log,
	}
}

func (p *pipeline) run(t *testing.T, visitor processing.Visitor, from, to time.Time) {
	t.Helper()

	processor := processing.NewProcessor(p.store, p.store, visitor, processing.Options{
		Workers:       4,
		QueueSize:     16,
		SubmitRetries: 20,
		SubmitBackoff: 5 * time.Millisecond,
		BackupEnabled: true,
	}, p.logger, p.predictors, p.samples)

	ctx := helpers.CreateTestContext(t, 2*time.Minute)
	require.NoError(t, processor.ProcessDates(ctx, from, to))
}

func TestSeedSimulatePredict(t *testing.T) {
	helpers.SkipIfShort(t)

	p := newPipeline(t, predictor.SelectAll)
	lastDay := historyStart.AddDate(0, 0, historyDays-1)

	p.run(t, processing.NewSeedVisitor(p.samples), historyStart, lastDay)
	meets := p.store.Meets()
	runner := meets[0].Races[0].Runners[0]
	stored, err := p.store.Samples().GetByRunnerID(context.Background(), runner.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsNormalized())

	p.run(t, processing.NewSimulateVisitor(p.predictions, prediction.ModePerPredictor), historyStart.AddDate(0, 0, 4), lastDay.AddDate(0, 0, -1))

	var buf bytes.Buffer
	report, err := processing.NewReportWriter(&buf)
	require.NoError(t, err)
	p.run(t, processing.NewPredictVisitor(p.predictions, report, prediction.ModePerPredictor, p.logger), lastDay, lastDay)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Date", rows[0][0])
	for _, row := range rows[1:] {
		assert.Equal(t, lastDay.Format("2006-01-02"), row[0])
	}

	race := meets[historyDays-1].Races[0]
	predictions, err := p.store.Predictions().GetByRaceID(context.Background(), race.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, predictions)

	records, err := p.store.Predictors().FindByKey(context.Background(), race.SimilarityKey())
	require.NoError(t, err)
	require.NotEmpty(t, records)
	for _, record := range records {
		require.NotNil(t, record.LastTrainingDate)
		assert.True(t, record.LastTrainingDate.Equal(lastDay))
	}
}

func TestPredictConsensus(t *testing.T) {
	helpers.SkipIfShort(t)

	p := newPipeline(t, predictor.SelectBest)
	lastDay := historyStart.AddDate(0, 0, historyDays-1)

	var buf bytes.Buffer
	report, err := processing.NewReportWriter(&buf)
	require.NoError(t, err)
	p.run(t, processing.NewPredictVisitor(p.predictions, report, prediction.ModeConsensus, p.logger), lastDay, lastDay)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows[1:] {
		assert.Equal(t, "consensus", row[4])
		assert.NotEmpty(t, row[5])
	}

	meets := p.store.Meets()
	stored, err := p.store.Predictions().GetByRaceID(context.Background(), meets[historyDays-1].Races[0].ID)
	require.NoError(t, err)
	consensus := 0
	for _, prediction := range stored {
		if prediction.IsConsensus() {
			consensus++
		}
	}
	assert.Equal(t, 1, consensus)
	assert.LessOrEqual(t, len(stored), 3)
}
