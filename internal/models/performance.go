package models

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Slice names a filtered view of a runner's performance history
type Slice string

const (
	SliceAtDistance        Slice = "at_distance"
	SliceAtDistanceOnTrack Slice = "at_distance_on_track"
	SliceAtUp              Slice = "at_up"
	SliceCareer            Slice = "career"
	SliceLast10            Slice = "last_10"
	SliceLast12Months      Slice = "last_12_months"
	SliceOnFirm            Slice = "on_firm"
	SliceOnGood            Slice = "on_good"
	SliceOnHeavy           Slice = "on_heavy"
	SliceOnSoft            Slice = "on_soft"
	SliceOnSynthetic       Slice = "on_synthetic"
	SliceOnTrack           Slice = "on_track"
	SliceOnTurf            Slice = "on_turf"
	SliceSinceRest         Slice = "since_rest"
	SliceWithJockey        Slice = "with_jockey"
)

// Slices is the fixed order in which performance slices contribute feature columns.
var Slices = []Slice{
	SliceAtDistance,
	SliceAtDistanceOnTrack,
	SliceAtUp,
	SliceCareer,
	SliceLast10,
	SliceLast12Months,
	SliceOnFirm,
	SliceOnGood,
	SliceOnHeavy,
	SliceOnSoft,
	SliceOnSynthetic,
	SliceOnTrack,
	SliceOnTurf,
	SliceSinceRest,
	SliceWithJockey,
}

// Performance is a single historical run by a horse
type Performance struct {
	Date           time.Time `json:"date"`
	Track          string    `json:"track"`
	TrackCondition string    `json:"track_condition"`
	Distance       *float64  `json:"distance"`
	Weight         *float64  `json:"weight"`
	Time           *float64  `json:"time"`
	Result         *int      `json:"result"`
	Starters       *int      `json:"starters"`
	Prize          *float64  `json:"prize"`
	PrizePool      *float64  `json:"prize_pool"`
	StartingPrice  *float64  `json:"starting_price"`
}

// Momentum is weight times distance over time, or nil when any input is missing
func (p Performance) Momentum() *float64 {
	if p.Weight == nil || p.Distance == nil || p.Time == nil || *p.Time <= 0 {
		return nil
	}
	momentum := *p.Weight * *p.Distance / *p.Time
	return &momentum
}

// PerformanceList is an ordered sequence of performances with aggregate statistics
type PerformanceList struct {
	Performances []Performance `json:"performances"`
}

// NewPerformanceList wraps performances in a list
func NewPerformanceList(performances ...Performance) *PerformanceList {
	return &PerformanceList{Performances: performances}
}

// Starts returns the number of performances
func (l *PerformanceList) Starts() int {
	if l == nil {
		return 0
	}
	return len(l.Performances)
}

// Earnings is the total prize money won, nil without starts
func (l *PerformanceList) Earnings() *float64 {
	if l.Starts() == 0 {
		return nil
	}
	total := 0.0
	for _, p := range l.Performances {
		if p.Prize != nil {
			total += *p.Prize
		}
	}
	return &total
}

// EarningsPotential is earnings as a share of the prize pools contested
func (l *PerformanceList) EarningsPotential() *float64 {
	earnings := l.Earnings()
	if earnings == nil {
		return nil
	}
	pool := 0.0
	for _, p := range l.Performances {
		if p.PrizePool != nil {
			pool += *p.PrizePool
		}
	}
	if pool <= 0 {
		return nil
	}
	potential := *earnings / pool
	return &potential
}

// WinPct is the fraction of starts finishing first
func (l *PerformanceList) WinPct() *float64 { return l.placePct(1) }

// SecondPct is the fraction of starts finishing second
func (l *PerformanceList) SecondPct() *float64 { return l.placePct(2) }

// ThirdPct is the fraction of starts finishing third
func (l *PerformanceList) ThirdPct() *float64 { return l.placePct(3) }

// FourthPct is the fraction of starts finishing fourth
func (l *PerformanceList) FourthPct() *float64 { return l.placePct(4) }

func (l *PerformanceList) placePct(place int) *float64 {
	starts := l.Starts()
	if starts == 0 {
		return nil
	}
	count := 0
	for _, p := range l.Performances {
		if p.Result != nil && *p.Result == place {
			count++
		}
	}
	pct := float64(count) / float64(starts)
	return &pct
}

// ResultPotential averages 1-(result-1)/(starters-1) over runs with a known result and field size
func (l *PerformanceList) ResultPotential() *float64 {
	var potentials []float64
	for _, p := range l.performances() {
		if p.Result == nil || p.Starters == nil || *p.Starters < 2 {
			continue
		}
		potentials = append(potentials, 1-float64(*p.Result-1)/float64(*p.Starters-1))
	}
	if len(potentials) == 0 {
		return nil
	}
	mean := stat.Mean(potentials, nil)
	return &mean
}

// ROI treats each start as a unit stake returning the starting price on a win
func (l *PerformanceList) ROI() *float64 {
	starts := l.Starts()
	if starts == 0 {
		return nil
	}
	returns := 0.0
	for _, p := range l.Performances {
		if p.Result != nil && *p.Result == 1 && p.StartingPrice != nil {
			returns += *p.StartingPrice
		}
	}
	roi := (returns - float64(starts)) / float64(starts)
	return &roi
}

// StartingPrices returns the minimum, maximum and mean starting price
func (l *PerformanceList) StartingPrices() [3]*float64 {
	var prices []float64
	for _, p := range l.performances() {
		if p.StartingPrice != nil {
			prices = append(prices, *p.StartingPrice)
		}
	}
	return summarize(prices)
}

// Momentums returns the minimum, maximum and mean momentum
func (l *PerformanceList) Momentums() [3]*float64 {
	var momentums []float64
	for _, p := range l.performances() {
		if m := p.Momentum(); m != nil {
			momentums = append(momentums, *m)
		}
	}
	return summarize(momentums)
}

func (l *PerformanceList) performances() []Performance {
	if l == nil {
		return nil
	}
	return l.Performances
}

func summarize(values []float64) [3]*float64 {
	if len(values) == 0 {
		return [3]*float64{}
	}
	minimum := floats.Min(values)
	maximum := floats.Max(values)
	mean := stat.Mean(values, nil)
	return [3]*float64{&minimum, &maximum, &mean}
}
