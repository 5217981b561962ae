package sample

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/predictive-punter/internal/models"
)

// UnplacedLabel is the classification label for any result outside the first four
const UnplacedLabel = models.MaxPlaces + 1

// GenerateSample builds a new sample for the runner. It fails only when the
// runner's ID, number or race is missing.
func GenerateSample(runner *models.Runner) (*models.Sample, error) {
	if err := checkMandatory(runner); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &models.Sample{
		ID:                  uuid.New(),
		RunnerID:            runner.ID,
		RaceID:              runner.Race.ID,
		RawFeatures:         rawFeatures(runner),
		ClassificationLabel: classificationLabel(runner),
		RegressionLabel:     regressionLabel(runner),
		Weight:              raceWeight(runner.Race),
		SchemaVersion:       models.SchemaVersion,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

func checkMandatory(runner *models.Runner) error {
	switch {
	case runner == nil:
		return fmt.Errorf("runner: %w", models.ErrMissingField)
	case runner.ID == uuid.Nil:
		return fmt.Errorf("runner id: %w", models.ErrMissingField)
	case runner.Number == 0:
		return fmt.Errorf("runner %s number: %w", runner.ID, models.ErrMissingField)
	case runner.Race == nil:
		return fmt.Errorf("runner %s race: %w", runner.ID, models.ErrMissingField)
	}
	return nil
}

func classificationLabel(runner *models.Runner) int {
	if runner.Placed(models.MaxPlaces) {
		return *runner.Result
	}
	return UnplacedLabel
}

// regressionLabel is the runner's result divided by the L2 norm of its own
// result and every other active runner's known result.
func regressionLabel(runner *models.Runner) *float64 {
	if runner.Result == nil {
		return nil
	}

	results := []float64{float64(*runner.Result)}
	for _, other := range runner.Race.ActiveRunners() {
		if other.ID != runner.ID && other.Result != nil {
			results = append(results, float64(*other.Result))
		}
	}

	norm := floats.Norm(results, 2)
	if norm == 0 {
		return nil
	}
	label := results[0] / norm
	return finite(&label)
}

func raceWeight(race *models.Race) (weight float64) {
	defer func() {
		if recover() != nil {
			weight = 0
		}
	}()
	total := race.TotalValue()
	if finite(&total) == nil {
		return 0
	}
	return total
}
