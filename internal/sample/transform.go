package sample

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrColumnMismatch is returned when cohort vectors have different lengths
var ErrColumnMismatch = errors.New("feature vectors have different lengths")

// Impute fills the nil slots of own from the other runners' raw vectors using
// each column's policy. A column nobody else fills becomes 0. Every result is
// computed from the raw values only.
func Impute(own []*float64, others [][]*float64) ([]float64, error) {
	for _, other := range others {
		if len(other) != len(own) {
			return nil, fmt.Errorf("impute %d columns against %d: %w", len(own), len(other), ErrColumnMismatch)
		}
	}

	imputed := make([]float64, len(own))
	for col, value := range own {
		if value != nil {
			imputed[col] = *value
			continue
		}

		policy := ImputeMax
		if col < len(Columns) {
			policy = Columns[col].Policy
		}

		var found bool
		for _, other := range others {
			candidate := other[col]
			if candidate == nil {
				continue
			}
			switch {
			case !found:
				imputed[col] = *candidate
			case policy == ImputeMax && *candidate > imputed[col]:
				imputed[col] = *candidate
			case policy == ImputeMin && *candidate < imputed[col]:
				imputed[col] = *candidate
			}
			found = true
		}
	}
	return imputed, nil
}

// Normalize scales each column of the cohort by its L2 norm and returns the
// first row. Columns with a zero norm stay 0.
func Normalize(cohort [][]float64) ([]float64, error) {
	if len(cohort) == 0 {
		return nil, nil
	}
	width := len(cohort[0])
	if width == 0 {
		return []float64{}, nil
	}

	data := make([]float64, 0, len(cohort)*width)
	for _, row := range cohort {
		if len(row) != width {
			return nil, fmt.Errorf("normalize %d columns against %d: %w", width, len(row), ErrColumnMismatch)
		}
		data = append(data, row...)
	}
	m := mat.NewDense(len(cohort), width, data)

	normalized := make([]float64, width)
	column := make([]float64, len(cohort))
	for j := 0; j < width; j++ {
		mat.Col(column, j, m)
		if norm := floats.Norm(column, 2); norm > 0 {
			normalized[j] = column[0] / norm
		}
	}
	return normalized, nil
}
