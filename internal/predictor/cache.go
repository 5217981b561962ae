package predictor

import (
	"context"
	"fmt"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/predictive-punter/internal/estimator"
	"github.com/yourusername/predictive-punter/internal/logger"
	"github.com/yourusername/predictive-punter/internal/metrics"
	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/repository"
)

// Options configures candidate generation and selection
type Options struct {
	Candidates    []estimator.Candidate
	TestFraction  float64
	Seed          uint64
	SelectionMode string
}

// DefaultOptions returns the full grid with a quarter of similar races held out
func DefaultOptions() Options {
	return Options{
		Candidates:    estimator.FullGrid(),
		TestFraction:  0.25,
		Seed:          1,
		SelectionMode: SelectAll,
	}
}

// Cache holds the predictors of every similarity class seen during a
// processing session. Each class has its own lock so classes train
// concurrently while a class is generated at most once per epoch.
type Cache struct {
	races    repository.RaceRepository
	records  repository.PredictorRepository
	features FeatureSource
	opts     Options
	logger   *logger.PredictorLogger

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	entries *cache.Cache
	epoch   uint64
}

// NewCache creates an empty predictor cache
func NewCache(races repository.RaceRepository, records repository.PredictorRepository, features FeatureSource, opts Options, log *logrus.Logger) *Cache {
	if len(opts.Candidates) == 0 {
		opts.Candidates = estimator.FullGrid()
	}
	if opts.SelectionMode == "" {
		opts.SelectionMode = SelectAll
	}
	return &Cache{
		races:    races,
		records:  records,
		features: features,
		opts:     opts,
		logger:   logger.NewPredictorLogger(log),
		locks:    make(map[string]*sync.Mutex),
		entries:  cache.New(cache.NoExpiration, 0),
	}
}

// Get returns the predictors serving the race's similarity class, loading,
// generating or retraining them as needed. An empty slice means nothing
// could be trained for the class.
func (c *Cache) Get(ctx context.Context, race *models.Race) ([]*Predictor, error) {
	key := race.SimilarityKey()

	lock := c.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	var (
		predictors []*Predictor
		generated  bool
	)
	if cached, found := c.entries.Get(key); found {
		predictors = cached.([]*Predictor)
		metrics.RecordPredictorCache("hit")
	} else {
		metrics.RecordPredictorCache("miss")

		loaded, err := c.load(ctx, key)
		if err != nil {
			return nil, err
		}
		predictors = loaded

		if len(predictors) == 0 {
			predictors, err = c.generate(ctx, race, key)
			if err != nil {
				return nil, err
			}
			generated = true
		}
	}

	if !generated {
		retrained, err := c.retrain(ctx, race, key, predictors)
		if err != nil {
			return nil, err
		}
		predictors = retrained
	}

	c.entries.SetDefault(key, predictors)
	metrics.SetCachedSimilarityClasses(c.entries.ItemCount())

	return c.selectPredictors(predictors), nil
}

// Clear discards every cached class and its lock and starts a new epoch.
// It must not run while a Get is in progress.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	classes := c.entries.ItemCount()
	c.entries.Flush()
	c.locks = make(map[string]*sync.Mutex)
	c.epoch++

	metrics.SetCachedSimilarityClasses(0)
	c.logger.LogCacheClear(classes, c.epoch)
}

// Epoch counts the clears since the cache was created
func (c *Cache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *Cache) keyLock(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}
	return lock
}

// load restores persisted predictors. Records whose model cannot be decoded
// are deleted.
func (c *Cache) load(ctx context.Context, key string) ([]*Predictor, error) {
	records, err := c.records.FindByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load predictors for %s: %w", key, err)
	}

	predictors := make([]*Predictor, 0, len(records))
	for _, record := range records {
		est, err := estimator.Unmarshal(record.SerializedModel)
		if err != nil {
			c.logger.LogFitFailure(key, record.Kind, record.Params, err)
			if err := c.records.Delete(ctx, record.ID); err != nil {
				return nil, fmt.Errorf("failed to delete predictor %s: %w", record.ID, err)
			}
			continue
		}
		predictors = append(predictors, New(record, est))
	}
	return predictors, nil
}

func (c *Cache) selectPredictors(predictors []*Predictor) []*Predictor {
	if c.opts.SelectionMode != SelectBest {
		return append([]*Predictor(nil), predictors...)
	}
	return SelectBestPerRole(predictors)
}

// SelectBestPerRole keeps the highest scoring classifier and regressor. The
// first predictor wins a tie.
func SelectBestPerRole(predictors []*Predictor) []*Predictor {
	var bestClassifier, bestRegressor *Predictor
	for _, p := range predictors {
		if p.IsClassifier() {
			if bestClassifier == nil || p.Score() > bestClassifier.Score() {
				bestClassifier = p
			}
			continue
		}
		if bestRegressor == nil || p.Score() > bestRegressor.Score() {
			bestRegressor = p
		}
	}

	var selected []*Predictor
	for _, p := range []*Predictor{bestClassifier, bestRegressor} {
		if p != nil {
			selected = append(selected, p)
		}
	}
	return selected
}

func elapsedSeconds(start time.Time) float64 {
	return time.Since(start).Seconds()
}
