package estimator

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// linearModel holds the coefficients of a single linear decision function
type linearModel struct {
	Coef      []float64 `msgpack:"coef"`
	Intercept float64   `msgpack:"intercept"`
	// Updates counts samples seen and drives the learning rate schedule
	Updates int `msgpack:"updates"`
}

func (m *linearModel) fitted() bool {
	return m.Coef != nil
}

func (m *linearModel) ensure(cols int) error {
	if m.Coef == nil {
		m.Coef = make([]float64, cols)
		return nil
	}
	if len(m.Coef) != cols {
		return ErrShapeMismatch
	}
	return nil
}

// decision computes x·coef + intercept for every row
func (m *linearModel) decision(x *mat.Dense) []float64 {
	rows, _ := x.Dims()
	out := mat.NewVecDense(rows, nil)
	out.MulVec(x, mat.NewVecDense(len(m.Coef), m.Coef))
	values := make([]float64, rows)
	for i := range values {
		values[i] = out.AtVec(i) + m.Intercept
	}
	return values
}

// epoch performs one shuffled SGD pass. targets and weights are indexed by row.
func (m *linearModel) epoch(x *mat.Dense, targets, weights []float64, loss lossFunc, params Params, order []int) {
	for _, i := range order {
		row := x.RawRowView(i)
		m.Updates++
		eta := params.Eta0 / math.Pow(float64(m.Updates), params.PowerT)

		p := floats.Dot(row, m.Coef) + m.Intercept
		dloss := clip(loss(p, targets[i])) * weightAt(weights, i)

		m.shrink(eta, params)
		if dloss != 0 {
			floats.AddScaled(m.Coef, -eta*dloss, row)
			m.Intercept -= eta * dloss
		}
		m.truncate(eta, params)
	}
}

// shrink applies the L2 part of the penalty
func (m *linearModel) shrink(eta float64, params Params) {
	var l2 float64
	switch params.Penalty {
	case PenaltyL2:
		l2 = params.Alpha
	case PenaltyElasticNet:
		l2 = params.Alpha * (1 - params.L1Ratio)
	default:
		return
	}
	scale := 1 - eta*l2
	if scale < 0 {
		scale = 0
	}
	floats.Scale(scale, m.Coef)
}

// truncate applies the L1 part of the penalty as a soft threshold
func (m *linearModel) truncate(eta float64, params Params) {
	var l1 float64
	switch params.Penalty {
	case PenaltyL1:
		l1 = params.Alpha
	case PenaltyElasticNet:
		l1 = params.Alpha * params.L1Ratio
	default:
		return
	}
	threshold := eta * l1
	for j, w := range m.Coef {
		switch {
		case w > threshold:
			m.Coef[j] = w - threshold
		case w < -threshold:
			m.Coef[j] = w + threshold
		default:
			m.Coef[j] = 0
		}
	}
}

func (m *linearModel) finite() bool {
	return isFinite(m.Coef) && isFinite([]float64{m.Intercept})
}

// shuffledOrder returns a permutation of rows that is reproducible for a
// given seed and number of prior updates.
func shuffledOrder(rows int, seed uint64, updates int) []int {
	rng := rand.New(rand.NewPCG(seed, uint64(updates)))
	return rng.Perm(rows)
}
