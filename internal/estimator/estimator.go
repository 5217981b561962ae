// Package estimator provides incrementally trained linear models fitted by
// stochastic gradient descent, with a versioned serialized form.
package estimator

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	KindRegressor  = "sgd_regressor"
	KindClassifier = "sgd_classifier"
)

// Penalties
const (
	PenaltyNone       = "none"
	PenaltyL1         = "l1"
	PenaltyL2         = "l2"
	PenaltyElasticNet = "elasticnet"
)

// ClassWeightBalanced reweights each batch inversely to class frequency
const ClassWeightBalanced = "balanced"

// Estimator is a model that can be fitted incrementally and scored
type Estimator interface {
	Kind() string
	IsClassifier() bool
	Params() Params
	// PartialFit runs one pass of stochastic gradient descent over the rows of x.
	// weights may be nil.
	PartialFit(x *mat.Dense, y, weights []float64) error
	Predict(x *mat.Dense) ([]float64, error)
	// Score returns a higher-is-better goodness of fit: R² for regressors and
	// accuracy for classifiers.
	Score(x *mat.Dense, y, weights []float64) (float64, error)
}

// Params configures an SGD estimator
type Params struct {
	Loss        string  `msgpack:"loss" json:"loss"`
	Penalty     string  `msgpack:"penalty" json:"penalty"`
	ClassWeight string  `msgpack:"class_weight" json:"class_weight"`
	Alpha       float64 `msgpack:"alpha" json:"alpha"`
	L1Ratio     float64 `msgpack:"l1_ratio" json:"l1_ratio"`
	Eta0        float64 `msgpack:"eta0" json:"eta0"`
	PowerT      float64 `msgpack:"power_t" json:"power_t"`
	Epsilon     float64 `msgpack:"epsilon" json:"epsilon"`
	RandomState uint64  `msgpack:"random_state" json:"random_state"`
}

// DefaultParams returns the shared hyperparameters for a loss and penalty
func DefaultParams(loss, penalty string) Params {
	return Params{
		Loss:        loss,
		Penalty:     penalty,
		Alpha:       0.0001,
		L1Ratio:     0.15,
		Eta0:        0.01,
		PowerT:      0.25,
		Epsilon:     0.1,
		RandomState: 1,
	}
}

// Map flattens the parameters for storage alongside a predictor record
func (p Params) Map() map[string]string {
	m := map[string]string{
		"loss":         p.Loss,
		"penalty":      p.Penalty,
		"alpha":        strconv.FormatFloat(p.Alpha, 'g', -1, 64),
		"l1_ratio":     strconv.FormatFloat(p.L1Ratio, 'g', -1, 64),
		"eta0":         strconv.FormatFloat(p.Eta0, 'g', -1, 64),
		"power_t":      strconv.FormatFloat(p.PowerT, 'g', -1, 64),
		"epsilon":      strconv.FormatFloat(p.Epsilon, 'g', -1, 64),
		"random_state": strconv.FormatUint(p.RandomState, 10),
	}
	if p.ClassWeight != "" {
		m["class_weight"] = p.ClassWeight
	}
	return m
}

// New constructs an unfitted estimator of the given kind
func New(kind string, params Params) (Estimator, error) {
	switch kind {
	case KindRegressor:
		return NewRegressor(params)
	case KindClassifier:
		return NewClassifier(params)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

func validatePenalty(penalty string) error {
	switch penalty {
	case PenaltyNone, PenaltyL1, PenaltyL2, PenaltyElasticNet:
		return nil
	default:
		return fmt.Errorf("%w: penalty %q", ErrInvalidParams, penalty)
	}
}

// checkInput validates dimensions and rejects NaN values
func checkInput(x *mat.Dense, y, weights []float64) (rows, cols int, err error) {
	if x == nil {
		return 0, 0, ErrNoSamples
	}
	rows, cols = x.Dims()
	if rows == 0 {
		return 0, 0, ErrNoSamples
	}
	if y != nil && len(y) != rows {
		return 0, 0, fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, rows, len(y))
	}
	if weights != nil && len(weights) != rows {
		return 0, 0, fmt.Errorf("%w: %d rows, %d weights", ErrShapeMismatch, rows, len(weights))
	}
	for i := 0; i < rows; i++ {
		if floats.HasNaN(x.RawRowView(i)) {
			return 0, 0, fmt.Errorf("%w: row %d", ErrNaNInput, i)
		}
	}
	if y != nil && floats.HasNaN(y) {
		return 0, 0, fmt.Errorf("%w: labels", ErrNaNInput)
	}
	return rows, cols, nil
}

func isFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func weightAt(weights []float64, i int) float64 {
	if weights == nil {
		return 1
	}
	return weights[i]
}
