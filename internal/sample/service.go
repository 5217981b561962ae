package sample

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/predictive-punter/internal/metrics"
	"github.com/yourusername/predictive-punter/internal/models"
	"github.com/yourusername/predictive-punter/internal/repository"
)

// Service finds, generates and persists samples. Samples are cached by runner
// for the life of a processing session; Clear drops them at date boundaries.
type Service struct {
	repo   repository.SampleRepository
	cache  *cache.Cache
	logger *logrus.Entry

	mu        sync.Mutex
	raceLocks map[uuid.UUID]*sync.Mutex
}

// NewService creates a sample service backed by the given repository
func NewService(repo repository.SampleRepository, logger *logrus.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache.New(cache.NoExpiration, 0),
		logger:    logger.WithField("component", "sample"),
		raceLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

// GetSample returns the runner's sample, generating and persisting a new one
// when none exists or the stored one has expired.
func (s *Service) GetSample(ctx context.Context, runner *models.Runner) (*models.Sample, error) {
	if err := checkMandatory(runner); err != nil {
		return nil, err
	}

	if cached, found := s.cache.Get(runner.ID.String()); found {
		if sample, ok := cached.(*models.Sample); ok && !sample.HasExpired(runner) {
			metrics.RecordSample("cached")
			return sample, nil
		}
	}

	stored, err := s.repo.GetByRunnerID(ctx, runner.ID)
	switch {
	case err == nil && !stored.HasExpired(runner):
		s.cache.SetDefault(runner.ID.String(), stored)
		metrics.RecordSample("loaded")
		return stored, nil
	case err != nil && !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("failed to load sample for runner %s: %w", runner.ID, err)
	}

	sample, err := GenerateSample(runner)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, sample); err != nil {
		return nil, fmt.Errorf("failed to save sample for runner %s: %w", runner.ID, err)
	}
	s.cache.SetDefault(runner.ID.String(), sample)

	outcome := "generated"
	if stored != nil {
		outcome = "regenerated"
	}
	metrics.RecordSample(outcome)
	s.logger.WithFields(logrus.Fields{
		"runner_id": runner.ID,
		"race_id":   runner.Race.ID,
		"outcome":   outcome,
	}).Debug("Sample generated")

	return sample, nil
}

// ImputedFeatures returns the runner's imputed feature vector, computing and
// persisting it on first use.
func (s *Service) ImputedFeatures(ctx context.Context, runner *models.Runner) ([]float64, error) {
	if err := checkMandatory(runner); err != nil {
		return nil, err
	}

	unlock := s.lockRace(runner.Race.ID)
	defer unlock()

	return s.imputed(ctx, runner)
}

// NormalizedFeatures returns the runner's feature vector normalized against the
// race's active runners. The race stays locked while the cohort is read.
func (s *Service) NormalizedFeatures(ctx context.Context, runner *models.Runner) ([]float64, error) {
	if err := checkMandatory(runner); err != nil {
		return nil, err
	}

	unlock := s.lockRace(runner.Race.ID)
	defer unlock()

	sample, err := s.GetSample(ctx, runner)
	if err != nil {
		return nil, err
	}
	if sample.IsNormalized() {
		return sample.NormalizedFeatures, nil
	}

	own, err := s.imputed(ctx, runner)
	if err != nil {
		return nil, err
	}

	cohort := [][]float64{own}
	for _, other := range otherActiveRunners(runner) {
		features, err := s.imputed(ctx, other)
		if err != nil {
			return nil, err
		}
		cohort = append(cohort, features)
	}

	normalized, err := Normalize(cohort)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize runner %s: %w", runner.ID, err)
	}

	sample.NormalizedFeatures = normalized
	sample.UpdatedAt = time.Now().UTC()
	if err := s.repo.Upsert(ctx, sample); err != nil {
		return nil, fmt.Errorf("failed to save normalized sample for runner %s: %w", runner.ID, err)
	}
	return normalized, nil
}

// Clear drops cached samples and race locks. Call only between dates.
func (s *Service) Clear() {
	s.cache.Flush()

	s.mu.Lock()
	s.raceLocks = make(map[uuid.UUID]*sync.Mutex)
	s.mu.Unlock()
}

// imputed expects the runner's race lock to be held.
func (s *Service) imputed(ctx context.Context, runner *models.Runner) ([]float64, error) {
	sample, err := s.GetSample(ctx, runner)
	if err != nil {
		return nil, err
	}
	if sample.IsImputed() {
		return sample.ImputedFeatures, nil
	}

	var others [][]*float64
	for _, other := range otherActiveRunners(runner) {
		otherSample, err := s.GetSample(ctx, other)
		if err != nil {
			return nil, err
		}
		others = append(others, otherSample.RawFeatures)
	}

	imputed, err := Impute(sample.RawFeatures, others)
	if err != nil {
		return nil, fmt.Errorf("failed to impute runner %s: %w", runner.ID, err)
	}

	sample.ImputedFeatures = imputed
	sample.UpdatedAt = time.Now().UTC()
	if err := s.repo.Upsert(ctx, sample); err != nil {
		return nil, fmt.Errorf("failed to save imputed sample for runner %s: %w", runner.ID, err)
	}
	return imputed, nil
}

func (s *Service) lockRace(raceID uuid.UUID) func() {
	s.mu.Lock()
	lock, ok := s.raceLocks[raceID]
	if !ok {
		lock = &sync.Mutex{}
		s.raceLocks[raceID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func otherActiveRunners(runner *models.Runner) []*models.Runner {
	var others []*models.Runner
	for _, other := range runner.Race.ActiveRunners() {
		if other.ID != runner.ID {
			others = append(others, other)
		}
	}
	return others
}
