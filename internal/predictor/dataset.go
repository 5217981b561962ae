package predictor

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/yourusername/predictive-punter/internal/models"
)

// FeatureSource supplies samples and normalized features for runners
type FeatureSource interface {
	GetSample(ctx context.Context, runner *models.Runner) (*models.Sample, error)
	NormalizedFeatures(ctx context.Context, runner *models.Runner) ([]float64, error)
}

// dataset holds training rows from finished races
type dataset struct {
	x       *mat.Dense
	classes []float64
	targets []float64
	weights []float64
}

func (d *dataset) rows() int {
	if d == nil || d.x == nil {
		return 0
	}
	r, _ := d.x.Dims()
	return r
}

// buildDataset collects a row for every active runner with a known result.
// Runners whose samples cannot be generated, or whose vectors differ in
// width from the first row, are skipped.
func buildDataset(ctx context.Context, source FeatureSource, races []*models.Race) (*dataset, error) {
	var (
		data  []float64
		width int
		out   dataset
	)

	for _, race := range races {
		for _, runner := range race.ActiveRunners() {
			if runner.Result == nil {
				continue
			}

			sample, err := source.GetSample(ctx, runner)
			if errors.Is(err, models.ErrMissingField) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to get sample for runner %s: %w", runner.ID, err)
			}
			if sample.RegressionLabel == nil {
				continue
			}

			features, err := source.NormalizedFeatures(ctx, runner)
			if err != nil {
				return nil, fmt.Errorf("failed to get features for runner %s: %w", runner.ID, err)
			}
			if width == 0 {
				width = len(features)
			}
			if width == 0 || len(features) != width {
				continue
			}

			data = append(data, features...)
			out.classes = append(out.classes, float64(sample.ClassificationLabel))
			out.targets = append(out.targets, *sample.RegressionLabel)
			out.weights = append(out.weights, sample.Weight)
		}
	}

	if len(out.classes) > 0 {
		out.x = mat.NewDense(len(out.classes), width, data)
	}
	return &out, nil
}
