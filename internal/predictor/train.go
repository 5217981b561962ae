package predictor

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/predictive-punter/internal/estimator"
	"github.com/yourusername/predictive-punter/internal/metrics"
	"github.com/yourusername/predictive-punter/internal/models"
)

const (
	phaseGenerate = "generate"
	phaseRetrain  = "retrain"
)

// generate trains every candidate on the similar races run before the
// race's meet date. Each candidate is persisted as a placeholder before
// fitting and deleted if fitting fails.
func (c *Cache) generate(ctx context.Context, race *models.Race, key string) ([]*Predictor, error) {
	start := time.Now()
	meetDate := race.MeetDate()

	similar, err := c.races.FindSimilar(ctx, race, nil, meetDate)
	if err != nil {
		return nil, fmt.Errorf("failed to find races similar to %s: %w", race.ID, err)
	}

	trainRaces, testRaces := splitRaces(similar, c.opts.TestFraction, c.opts.Seed, key)
	train, err := buildDataset(ctx, c.features, trainRaces)
	if err != nil {
		return nil, err
	}
	test, err := buildDataset(ctx, c.features, testRaces)
	if err != nil {
		return nil, err
	}

	predictors := make([]*Predictor, 0, len(c.opts.Candidates))
	for _, candidate := range c.opts.Candidates {
		candidateStart := time.Now()

		p, err := c.generateCandidate(ctx, candidate, key, meetDate, train, test)
		if err != nil {
			c.logger.LogFitFailure(key, candidate.Kind, candidate.Params.Map(), err)
			metrics.RecordPredictorTraining(roleOf(candidate.IsClassifier()), phaseGenerate, "failed", elapsedSeconds(candidateStart))
			continue
		}

		metrics.RecordPredictorTraining(p.Role(), phaseGenerate, "success", elapsedSeconds(candidateStart))
		predictors = append(predictors, p)
	}

	c.logger.LogGeneration(key, len(c.opts.Candidates), len(predictors), train.rows(), test.rows(), elapsedSeconds(start))
	return predictors, ctx.Err()
}

func (c *Cache) generateCandidate(ctx context.Context, candidate estimator.Candidate, key string, meetDate time.Time, train, test *dataset) (*Predictor, error) {
	est, err := candidate.New()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &models.PredictorRecord{
		ID:                uuid.New(),
		SimilarityKey:     key,
		Kind:              candidate.Kind,
		Params:            candidate.Params.Map(),
		IsClassifier:      candidate.IsClassifier(),
		UsesSampleWeights: candidate.UsesSampleWeights,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := c.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create predictor: %w", err)
	}

	p := New(record, est)
	if err := c.trainCandidate(p, meetDate, train, test); err != nil {
		if deleteErr := c.records.Delete(ctx, record.ID); deleteErr != nil {
			return nil, fmt.Errorf("%w (and failed to delete placeholder: %v)", err, deleteErr)
		}
		return nil, err
	}

	if err := c.records.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save predictor %s: %w", record.ID, err)
	}
	return p, nil
}

// trainCandidate fits the training rows, scores the test rows, then fits the
// test rows as well.
func (c *Cache) trainCandidate(p *Predictor, meetDate time.Time, train, test *dataset) error {
	if train.rows() == 0 {
		return estimator.ErrNoSamples
	}
	if err := p.fit(train); err != nil {
		return err
	}

	if test.rows() > 0 {
		score, err := p.evaluate(test)
		if err != nil {
			return err
		}
		p.Record.Score = &score

		if err := p.fit(test); err != nil {
			return err
		}
	}

	return c.finishTraining(p, meetDate)
}

// retrain incrementally fits stale predictors on similar races run since the
// oldest last training date. Each predictor is scored on the new rows before
// it fits them. Predictors that fail are deleted.
func (c *Cache) retrain(ctx context.Context, race *models.Race, key string, predictors []*Predictor) ([]*Predictor, error) {
	meetDate := race.MeetDate()

	stale := false
	for _, p := range predictors {
		if p.Record.IsStale(meetDate) {
			stale = true
			break
		}
	}
	if !stale {
		return predictors, nil
	}

	since := oldestTrainingDate(predictors)
	similar, err := c.races.FindSimilar(ctx, race, since, meetDate)
	if err != nil {
		return nil, fmt.Errorf("failed to find races similar to %s: %w", race.ID, err)
	}
	data, err := buildDataset(ctx, c.features, similar)
	if err != nil {
		return nil, err
	}
	if data.rows() == 0 {
		return predictors, nil
	}

	kept := make([]*Predictor, 0, len(predictors))
	for _, p := range predictors {
		if !p.Record.IsStale(meetDate) {
			kept = append(kept, p)
			continue
		}

		start := time.Now()
		if err := c.retrainPredictor(p, meetDate, data); err != nil {
			c.logger.LogFitFailure(key, p.Record.Kind, p.Record.Params, err)
			metrics.RecordPredictorTraining(p.Role(), phaseRetrain, "failed", elapsedSeconds(start))
			if err := c.records.Delete(ctx, p.ID()); err != nil {
				return nil, fmt.Errorf("failed to delete predictor %s: %w", p.ID(), err)
			}
			continue
		}
		if err := c.records.Update(ctx, p.Record); err != nil {
			return nil, fmt.Errorf("failed to save predictor %s: %w", p.ID(), err)
		}

		metrics.RecordPredictorTraining(p.Role(), phaseRetrain, "success", elapsedSeconds(start))
		c.logger.LogIncrementalFit(key, p.ID().String(), data.rows(), p.Score())
		kept = append(kept, p)
	}
	return kept, nil
}

func (c *Cache) retrainPredictor(p *Predictor, meetDate time.Time, data *dataset) error {
	score, err := p.evaluate(data)
	if err != nil {
		return err
	}
	if err := p.fit(data); err != nil {
		return err
	}

	p.mu.Lock()
	p.Record.Score = &score
	p.mu.Unlock()

	return c.finishTraining(p, meetDate)
}

func (c *Cache) finishTraining(p *Predictor, meetDate time.Time) error {
	if err := p.snapshot(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	trainedTo := meetDate
	p.Record.LastTrainingDate = &trainedTo
	p.Record.UpdatedAt = time.Now().UTC()
	return nil
}

// splitRaces shuffles races with a generator seeded from seed and the class
// key and holds out testFraction of them. With two or more races both sides
// get at least one race.
func splitRaces(races []*models.Race, testFraction float64, seed uint64, key string) (train, test []*models.Race) {
	if len(races) < 2 || testFraction <= 0 {
		return races, nil
	}

	shuffled := append([]*models.Race(nil), races...)
	rng := rand.New(rand.NewPCG(seed, keySeed(key)))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testCount := int(math.Round(float64(len(shuffled)) * testFraction))
	testCount = min(max(testCount, 1), len(shuffled)-1)

	return shuffled[testCount:], shuffled[:testCount]
}

// oldestTrainingDate is nil when any predictor has never been trained
func oldestTrainingDate(predictors []*Predictor) *time.Time {
	var oldest *time.Time
	for _, p := range predictors {
		last := p.Record.LastTrainingDate
		if last == nil {
			return nil
		}
		if oldest == nil || last.Before(*oldest) {
			oldest = last
		}
	}
	return oldest
}

func keySeed(key string) uint64 {
	id, err := uuid.Parse(key)
	if err != nil {
		id = uuid.NewSHA1(uuid.Nil, []byte(key))
	}
	return binary.BigEndian.Uint64(id[:8])
}

func roleOf(isClassifier bool) string {
	if isClassifier {
		return RoleClassifier
	}
	return RoleRegressor
}
