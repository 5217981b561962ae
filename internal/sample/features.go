// Package sample builds per-runner feature vectors and their race-level
// imputed and normalized forms.
package sample

import (
	"fmt"
	"math"

	"github.com/yourusername/predictive-punter/internal/models"
)

// ImputePolicy chooses how a missing value is filled from the rest of the field
type ImputePolicy int

const (
	// ImputeMax fills with the largest value among the other active runners
	ImputeMax ImputePolicy = iota
	// ImputeMin fills with the smallest value among the other active runners
	ImputeMin
)

func (p ImputePolicy) String() string {
	if p == ImputeMin {
		return "min"
	}
	return "max"
}

// Column describes one position of the raw feature vector
type Column struct {
	Name   string
	Policy ImputePolicy
}

type runnerFeature struct {
	name string
	read func(*models.Runner) *float64
}

// runnerFeatures come first, in this order.
var runnerFeatures = []runnerFeature{
	{"barrier", func(r *models.Runner) *float64 { return intValue(r.Barrier) }},
	{"number", func(r *models.Runner) *float64 { n := float64(r.Number); return &n }},
	{"weight", func(r *models.Runner) *float64 { return r.Weight }},
	{"age", func(r *models.Runner) *float64 { return r.Age }},
	{"carrying", func(r *models.Runner) *float64 { return r.Carrying }},
	{"races_per_year", func(r *models.Runner) *float64 { return r.RacesPerYear() }},
	{"spell", func(r *models.Runner) *float64 { return r.Spell }},
	{"up", func(r *models.Runner) *float64 { return r.Up }},
}

type sliceStat struct {
	name   string
	policy ImputePolicy
	read   func(*models.PerformanceList) *float64
}

// sliceStats follow the three expected times of every slice.
var sliceStats = []sliceStat{
	{"earnings", ImputeMin, (*models.PerformanceList).Earnings},
	{"earnings_potential", ImputeMin, (*models.PerformanceList).EarningsPotential},
	{"fourth_pct", ImputeMin, (*models.PerformanceList).FourthPct},
	{"result_potential", ImputeMin, (*models.PerformanceList).ResultPotential},
	{"roi", ImputeMin, (*models.PerformanceList).ROI},
	{"second_pct", ImputeMin, (*models.PerformanceList).SecondPct},
	{"starts", ImputeMax, func(l *models.PerformanceList) *float64 { n := float64(l.Starts()); return &n }},
	{"third_pct", ImputeMin, (*models.PerformanceList).ThirdPct},
	{"win_pct", ImputeMin, (*models.PerformanceList).WinPct},
}

var summaryNames = [3]string{"min", "max", "avg"}

// Columns is the fixed layout of every raw feature vector
var Columns = buildColumns()

// ColumnCount is the length of every feature vector
var ColumnCount = len(Columns)

func buildColumns() []Column {
	columns := make([]Column, 0, len(runnerFeatures)+len(models.Slices)*(len(sliceStats)+6))
	for _, feature := range runnerFeatures {
		columns = append(columns, Column{Name: feature.name, Policy: ImputeMax})
	}
	for _, slice := range models.Slices {
		for _, summary := range summaryNames {
			columns = append(columns, Column{Name: fmt.Sprintf("%s.expected_time_%s", slice, summary), Policy: ImputeMax})
		}
		for _, stat := range sliceStats {
			columns = append(columns, Column{Name: fmt.Sprintf("%s.%s", slice, stat.name), Policy: stat.policy})
		}
		for _, summary := range summaryNames {
			columns = append(columns, Column{Name: fmt.Sprintf("%s.starting_price_%s", slice, summary), Policy: ImputeMax})
		}
	}
	return columns
}

// rawFeatures reads every column for the runner. Optional reads that fail or
// produce a non-finite number leave the slot nil.
func rawFeatures(runner *models.Runner) []*float64 {
	features := make([]*float64, 0, ColumnCount)

	for _, feature := range runnerFeatures {
		read := feature.read
		features = append(features, optional(func() *float64 { return read(runner) }))
	}

	for _, slice := range models.Slices {
		name := slice
		times := optionalTriple(func() [3]*float64 { return runner.ExpectedTimes(name) })
		features = append(features, times[:]...)

		list := runner.Slice(name)
		for _, stat := range sliceStats {
			read := stat.read
			features = append(features, optional(func() *float64 { return read(list) }))
		}

		prices := optionalTriple(list.StartingPrices)
		features = append(features, prices[:]...)
	}

	return features
}

func optional(read func() *float64) (value *float64) {
	defer func() {
		if recover() != nil {
			value = nil
		}
	}()
	return finite(read())
}

func optionalTriple(read func() [3]*float64) (values [3]*float64) {
	defer func() {
		if recover() != nil {
			values = [3]*float64{}
		}
	}()
	values = read()
	for i := range values {
		values[i] = finite(values[i])
	}
	return values
}

func finite(value *float64) *float64 {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return nil
	}
	v := *value
	return &v
}

func intValue(value *int) *float64 {
	if value == nil {
		return nil
	}
	v := float64(*value)
	return &v
}
