package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultClasses are finishing places 1 to 4 plus 5 for every other outcome
var DefaultClasses = []float64{1, 2, 3, 4, 5}

// Classifier is a one-vs-rest linear classifier fitted by SGD
type Classifier struct {
	params  Params
	loss    lossFunc
	classes []float64
	models  []linearModel
}

// NewClassifier validates params and returns an unfitted classifier over DefaultClasses
func NewClassifier(params Params) (*Classifier, error) {
	loss, err := classificationLoss(params.Loss)
	if err != nil {
		return nil, err
	}
	if err := validatePenalty(params.Penalty); err != nil {
		return nil, err
	}
	if params.ClassWeight != "" && params.ClassWeight != ClassWeightBalanced {
		return nil, fmt.Errorf("%w: class weight %q", ErrInvalidParams, params.ClassWeight)
	}
	classes := append([]float64(nil), DefaultClasses...)
	return &Classifier{
		params:  params,
		loss:    loss,
		classes: classes,
		models:  make([]linearModel, len(classes)),
	}, nil
}

func (c *Classifier) Kind() string       { return KindClassifier }
func (c *Classifier) IsClassifier() bool { return true }
func (c *Classifier) Params() Params     { return c.params }

// PartialFit implements Estimator
func (c *Classifier) PartialFit(x *mat.Dense, y, weights []float64) error {
	rows, cols, err := checkInput(x, y, weights)
	if err != nil {
		return err
	}
	if y == nil {
		return fmt.Errorf("%w: labels required", ErrShapeMismatch)
	}
	for _, label := range y {
		if c.classIndex(label) < 0 {
			return fmt.Errorf("%w: unknown class %v", ErrShapeMismatch, label)
		}
	}

	combined := weights
	if c.params.ClassWeight == ClassWeightBalanced {
		combined = c.balancedWeights(y, weights)
	}

	targets := make([]float64, rows)
	for k := range c.models {
		model := &c.models[k]
		if err := model.ensure(cols); err != nil {
			return fmt.Errorf("%w: model has %d features, input has %d", err, len(model.Coef), cols)
		}
		for i, label := range y {
			targets[i] = -1
			if label == c.classes[k] {
				targets[i] = 1
			}
		}
		order := shuffledOrder(rows, c.params.RandomState, model.Updates)
		model.epoch(x, targets, combined, c.loss, c.params, order)
		if !model.finite() {
			return ErrDiverged
		}
	}
	return nil
}

// balancedWeights scales each row by rows / (classes present * class count)
func (c *Classifier) balancedWeights(y, weights []float64) []float64 {
	counts := make(map[float64]int, len(c.classes))
	for _, label := range y {
		counts[label]++
	}
	out := make([]float64, len(y))
	for i, label := range y {
		out[i] = float64(len(y)) / float64(len(counts)*counts[label]) * weightAt(weights, i)
	}
	return out
}

// Predict returns the class with the highest decision value for each row
func (c *Classifier) Predict(x *mat.Dense) ([]float64, error) {
	if !c.models[0].fitted() {
		return nil, ErrNotFitted
	}
	rows, cols, err := checkInput(x, nil, nil)
	if err != nil {
		return nil, err
	}
	if cols != len(c.models[0].Coef) {
		return nil, fmt.Errorf("%w: model has %d features, input has %d", ErrShapeMismatch, len(c.models[0].Coef), cols)
	}

	decisions := make([][]float64, len(c.models))
	for k := range c.models {
		decisions[k] = c.models[k].decision(x)
	}

	predictions := make([]float64, rows)
	row := make([]float64, len(c.models))
	for i := range predictions {
		for k := range decisions {
			row[k] = decisions[k][i]
		}
		predictions[i] = c.classes[floats.MaxIdx(row)]
	}
	return predictions, nil
}

// Score returns the (weighted) fraction of rows classified correctly
func (c *Classifier) Score(x *mat.Dense, y, weights []float64) (float64, error) {
	if _, _, err := checkInput(x, y, weights); err != nil {
		return 0, err
	}
	predictions, err := c.Predict(x)
	if err != nil {
		return 0, err
	}
	var correct, total float64
	for i := range predictions {
		w := weightAt(weights, i)
		total += w
		if predictions[i] == y[i] {
			correct += w
		}
	}
	if total == 0 {
		return 0, nil
	}
	return correct / total, nil
}

func (c *Classifier) classIndex(label float64) int {
	for k, class := range c.classes {
		if class == label {
			return k
		}
	}
	return -1
}
