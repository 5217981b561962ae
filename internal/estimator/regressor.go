package estimator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Regressor is a linear regression model fitted by SGD
type Regressor struct {
	params Params
	loss   lossFunc
	model  linearModel
}

// NewRegressor validates params and returns an unfitted regressor
func NewRegressor(params Params) (*Regressor, error) {
	loss, err := regressionLoss(params.Loss, params.Epsilon)
	if err != nil {
		return nil, err
	}
	if err := validatePenalty(params.Penalty); err != nil {
		return nil, err
	}
	return &Regressor{params: params, loss: loss}, nil
}

func (r *Regressor) Kind() string       { return KindRegressor }
func (r *Regressor) IsClassifier() bool { return false }
func (r *Regressor) Params() Params     { return r.params }

// PartialFit implements Estimator
func (r *Regressor) PartialFit(x *mat.Dense, y, weights []float64) error {
	rows, cols, err := checkInput(x, y, weights)
	if err != nil {
		return err
	}
	if y == nil {
		return fmt.Errorf("%w: labels required", ErrShapeMismatch)
	}
	if err := r.model.ensure(cols); err != nil {
		return fmt.Errorf("%w: model has %d features, input has %d", err, len(r.model.Coef), cols)
	}

	order := shuffledOrder(rows, r.params.RandomState, r.model.Updates)
	r.model.epoch(x, y, weights, r.loss, r.params, order)

	if !r.model.finite() {
		return ErrDiverged
	}
	return nil
}

// Predict implements Estimator
func (r *Regressor) Predict(x *mat.Dense) ([]float64, error) {
	if !r.model.fitted() {
		return nil, ErrNotFitted
	}
	_, cols, err := checkInput(x, nil, nil)
	if err != nil {
		return nil, err
	}
	if cols != len(r.model.Coef) {
		return nil, fmt.Errorf("%w: model has %d features, input has %d", ErrShapeMismatch, len(r.model.Coef), cols)
	}
	return r.model.decision(x), nil
}

// Score returns the coefficient of determination. A constant target scores 0.
func (r *Regressor) Score(x *mat.Dense, y, weights []float64) (float64, error) {
	if _, _, err := checkInput(x, y, weights); err != nil {
		return 0, err
	}
	estimates, err := r.Predict(x)
	if err != nil {
		return 0, err
	}
	score := stat.RSquaredFrom(estimates, y, weights)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, nil
	}
	return score, nil
}
