package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/predictive-punter/internal/models"
)

// MemoryStore keeps meets and derived records in process. It backs tests and
// offline runs over fixture files. Stored records are copied on the way in and
// out so callers never share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	meets       []*models.Meet
	races       map[uuid.UUID]*models.Race
	samples     map[uuid.UUID]*models.Sample
	predictors  map[uuid.UUID]*models.PredictorRecord
	predictions map[uuid.UUID]*models.Prediction
	snapshot    *memorySnapshot
}

type memorySnapshot struct {
	samples     map[uuid.UUID]*models.Sample
	predictors  map[uuid.UUID]*models.PredictorRecord
	predictions map[uuid.UUID]*models.Prediction
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		races:       make(map[uuid.UUID]*models.Race),
		samples:     make(map[uuid.UUID]*models.Sample),
		predictors:  make(map[uuid.UUID]*models.PredictorRecord),
		predictions: make(map[uuid.UUID]*models.Prediction),
	}
}

// AddMeet registers a meet with its races and runners, assigning missing IDs
// and setting back references.
func (s *MemoryStore) AddMeet(meet *models.Meet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if meet.ID == uuid.Nil {
		meet.ID = uuid.New()
	}
	for _, race := range meet.Races {
		if race.ID == uuid.Nil {
			race.ID = uuid.New()
		}
		race.MeetID = meet.ID
		race.Meet = meet
		for _, runner := range race.Runners {
			if runner.ID == uuid.Nil {
				runner.ID = uuid.New()
			}
			runner.RaceID = race.ID
			runner.Race = race
		}
		s.races[race.ID] = race
	}
	s.meets = append(s.meets, meet)
}

// Meets returns every registered meet
func (s *MemoryStore) Meets() []*models.Meet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Meet(nil), s.meets...)
}

// GetMeetsByDate implements RaceRepository
func (s *MemoryStore) GetMeetsByDate(ctx context.Context, date time.Time) ([]*models.Meet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var meets []*models.Meet
	for _, meet := range s.meets {
		if sameDay(meet.Date, date) {
			meets = append(meets, meet)
		}
	}
	return meets, nil
}

// GetByID implements RaceRepository
func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	race, ok := s.races[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return race, nil
}

// FindSimilar implements RaceRepository
func (s *MemoryStore) FindSimilar(ctx context.Context, race *models.Race, since *time.Time, before time.Time) ([]*models.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := race.SimilarityKey()
	var similar []*models.Race
	for _, candidate := range s.races {
		if !candidate.StartTime.Before(before) {
			continue
		}
		if since != nil && candidate.StartTime.Before(*since) {
			continue
		}
		if candidate.SimilarityKey() == key {
			similar = append(similar, candidate)
		}
	}
	sort.Slice(similar, func(i, j int) bool {
		if similar[i].StartTime.Equal(similar[j].StartTime) {
			return similar[i].ID.String() < similar[j].ID.String()
		}
		return similar[i].StartTime.Before(similar[j].StartTime)
	})
	return similar, nil
}

// Backup snapshots samples, predictors and predictions
func (s *MemoryStore) Backup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = &memorySnapshot{
		samples:     copyMap(s.samples),
		predictors:  copyMap(s.predictors),
		predictions: copyMap(s.predictions),
	}
	return nil
}

// Restore returns derived records to the last snapshot, or empties them if none was taken
func (s *MemoryStore) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil {
		s.samples = make(map[uuid.UUID]*models.Sample)
		s.predictors = make(map[uuid.UUID]*models.PredictorRecord)
		s.predictions = make(map[uuid.UUID]*models.Prediction)
		return nil
	}
	s.samples = copyMap(s.snapshot.samples)
	s.predictors = copyMap(s.snapshot.predictors)
	s.predictions = copyMap(s.snapshot.predictions)
	return nil
}

// Samples returns the store's SampleRepository
func (s *MemoryStore) Samples() SampleRepository { return &memorySamples{store: s} }

// Predictors returns the store's PredictorRepository
func (s *MemoryStore) Predictors() PredictorRepository { return &memoryPredictors{store: s} }

// Predictions returns the store's PredictionRepository
func (s *MemoryStore) Predictions() PredictionRepository { return &memoryPredictions{store: s} }

type memorySamples struct {
	store *MemoryStore
}

func (m *memorySamples) GetByRunnerID(ctx context.Context, runnerID uuid.UUID) (*models.Sample, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	sample, ok := m.store.samples[runnerID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneSample(sample), nil
}

func (m *memorySamples) Upsert(ctx context.Context, sample *models.Sample) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	m.store.samples[sample.RunnerID] = cloneSample(sample)
	return nil
}

func (m *memorySamples) DeleteByRunnerID(ctx context.Context, runnerID uuid.UUID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if _, ok := m.store.samples[runnerID]; !ok {
		return models.ErrNotFound
	}
	delete(m.store.samples, runnerID)
	return nil
}

type memoryPredictors struct {
	store *MemoryStore
}

func (m *memoryPredictors) FindByKey(ctx context.Context, similarityKey string) ([]*models.PredictorRecord, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	var predictors []*models.PredictorRecord
	for _, predictor := range m.store.predictors {
		if predictor.SimilarityKey == similarityKey {
			predictors = append(predictors, clonePredictor(predictor))
		}
	}
	sort.Slice(predictors, func(i, j int) bool {
		if predictors[i].CreatedAt.Equal(predictors[j].CreatedAt) {
			return predictors[i].ID.String() < predictors[j].ID.String()
		}
		return predictors[i].CreatedAt.Before(predictors[j].CreatedAt)
	})
	return predictors, nil
}

func (m *memoryPredictors) Create(ctx context.Context, predictor *models.PredictorRecord) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if _, ok := m.store.predictors[predictor.ID]; ok {
		return models.ErrDuplicateKey
	}
	m.store.predictors[predictor.ID] = clonePredictor(predictor)
	return nil
}

func (m *memoryPredictors) Update(ctx context.Context, predictor *models.PredictorRecord) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if _, ok := m.store.predictors[predictor.ID]; !ok {
		return models.ErrNotFound
	}
	m.store.predictors[predictor.ID] = clonePredictor(predictor)
	return nil
}

func (m *memoryPredictors) Delete(ctx context.Context, id uuid.UUID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if _, ok := m.store.predictors[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.store.predictors, id)
	return nil
}

type memoryPredictions struct {
	store *MemoryStore
}

func (m *memoryPredictions) GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Prediction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	return m.filter(func(p *models.Prediction) bool { return p.RaceID == raceID }), nil
}

func (m *memoryPredictions) Create(ctx context.Context, prediction *models.Prediction) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	if _, ok := m.store.predictions[prediction.ID]; ok {
		return models.ErrDuplicateKey
	}
	m.store.predictions[prediction.ID] = clonePrediction(prediction)
	return nil
}

func (m *memoryPredictions) DeleteByRaceID(ctx context.Context, raceID uuid.UUID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for id, prediction := range m.store.predictions {
		if prediction.RaceID == raceID {
			delete(m.store.predictions, id)
		}
	}
	return nil
}

func (m *memoryPredictions) GetHistory(ctx context.Context, predictorID uuid.UUID, similarityKey string, before time.Time) ([]*models.Prediction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	history := m.filter(func(p *models.Prediction) bool {
		return p.PredictorID != nil && *p.PredictorID == predictorID &&
			p.SimilarityKey == similarityKey && p.StartTime.Before(before)
	})
	sort.SliceStable(history, func(i, j int) bool { return history[i].StartTime.Before(history[j].StartTime) })
	return history, nil
}

// filter must be called with the store lock held
func (m *memoryPredictions) filter(keep func(*models.Prediction) bool) []*models.Prediction {
	var out []*models.Prediction
	for _, prediction := range m.store.predictions {
		if keep(prediction) {
			out = append(out, clonePrediction(prediction))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func copyMap[V any](in map[uuid.UUID]*V) map[uuid.UUID]*V {
	out := make(map[uuid.UUID]*V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneSample(s *models.Sample) *models.Sample {
	c := *s
	c.RawFeatures = append([]*float64(nil), s.RawFeatures...)
	if s.ImputedFeatures != nil {
		c.ImputedFeatures = append([]float64{}, s.ImputedFeatures...)
	}
	if s.NormalizedFeatures != nil {
		c.NormalizedFeatures = append([]float64{}, s.NormalizedFeatures...)
	}
	return &c
}

func clonePredictor(p *models.PredictorRecord) *models.PredictorRecord {
	c := *p
	c.SerializedModel = append([]byte(nil), p.SerializedModel...)
	if p.Params != nil {
		c.Params = make(map[string]string, len(p.Params))
		for k, v := range p.Params {
			c.Params[k] = v
		}
	}
	return &c
}

func clonePrediction(p *models.Prediction) *models.Prediction {
	c := *p
	c.Picks = make([][]int, len(p.Picks))
	for i, pick := range p.Picks {
		c.Picks[i] = append([]int{}, pick...)
	}
	if p.Values != nil {
		c.Values = make(map[models.BetType]float64, len(p.Values))
		for k, v := range p.Values {
			c.Values[k] = v
		}
	}
	return &c
}
