package estimator

import (
	"fmt"
	"math"
)

// dlossMax bounds the loss derivative so a single outlier cannot blow up the weights
const dlossMax = 1e12

// lossFunc returns d(loss)/d(prediction) for a prediction p and target y.
// Classification targets are encoded as -1 or +1.
type lossFunc func(p, y float64) float64

func regressionLoss(name string, epsilon float64) (lossFunc, error) {
	switch name {
	case "squared_loss":
		return func(p, y float64) float64 { return p - y }, nil
	case "huber":
		return func(p, y float64) float64 {
			r := p - y
			if math.Abs(r) <= epsilon {
				return r
			}
			return math.Copysign(epsilon, r)
		}, nil
	case "epsilon_insensitive":
		return func(p, y float64) float64 {
			r := p - y
			if math.Abs(r) <= epsilon {
				return 0
			}
			return math.Copysign(1, r)
		}, nil
	case "squared_epsilon_insensitive":
		return func(p, y float64) float64 {
			r := p - y
			if math.Abs(r) <= epsilon {
				return 0
			}
			return 2 * (r - math.Copysign(epsilon, r))
		}, nil
	default:
		return nil, fmt.Errorf("%w: regression loss %q", ErrInvalidParams, name)
	}
}

func classificationLoss(name string) (lossFunc, error) {
	switch name {
	case "hinge":
		return func(p, y float64) float64 {
			if p*y <= 1 {
				return -y
			}
			return 0
		}, nil
	case "perceptron":
		return func(p, y float64) float64 {
			if p*y <= 0 {
				return -y
			}
			return 0
		}, nil
	case "squared_hinge":
		return func(p, y float64) float64 {
			z := p * y
			if z < 1 {
				return -2 * y * (1 - z)
			}
			return 0
		}, nil
	case "log":
		return func(p, y float64) float64 {
			z := p * y
			switch {
			case z > 18:
				return -y * math.Exp(-z)
			case z < -18:
				return -y
			default:
				return -y / (1 + math.Exp(z))
			}
		}, nil
	case "modified_huber":
		return func(p, y float64) float64 {
			z := p * y
			switch {
			case z >= 1:
				return 0
			case z >= -1:
				return -2 * (1 - z) * y
			default:
				return -4 * y
			}
		}, nil
	default:
		return nil, fmt.Errorf("%w: classification loss %q", ErrInvalidParams, name)
	}
}

func clip(v float64) float64 {
	return math.Max(-dlossMax, math.Min(dlossMax, v))
}
