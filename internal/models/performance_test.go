package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePerformances() *PerformanceList {
	return NewPerformanceList(
		Performance{Distance: floatPtr(1200), Weight: floatPtr(56), Time: floatPtr(70), Result: intPtr(1), Starters: intPtr(9), Prize: floatPtr(30000), PrizePool: floatPtr(50000), StartingPrice: floatPtr(4.0)},
		Performance{Distance: floatPtr(1400), Weight: floatPtr(58), Time: floatPtr(84), Result: intPtr(3), Starters: intPtr(11), Prize: floatPtr(5000), PrizePool: floatPtr(50000), StartingPrice: floatPtr(6.0)},
		Performance{Distance: floatPtr(1200), Weight: floatPtr(57), Result: intPtr(9), Starters: intPtr(9), PrizePool: floatPtr(40000)},
	)
}

func TestPerformance_Momentum(t *testing.T) {
	p := Performance{Distance: floatPtr(1200), Weight: floatPtr(56), Time: floatPtr(70)}
	require.NotNil(t, p.Momentum())
	assert.InDelta(t, 56.0*1200.0/70.0, *p.Momentum(), 1e-9)

	assert.Nil(t, Performance{Distance: floatPtr(1200), Weight: floatPtr(56)}.Momentum())
	assert.Nil(t, Performance{Distance: floatPtr(1200), Weight: floatPtr(56), Time: floatPtr(0)}.Momentum())
}

func TestPerformanceList_Aggregates(t *testing.T) {
	list := samplePerformances()

	assert.Equal(t, 3, list.Starts())
	assert.InDelta(t, 35000.0, *list.Earnings(), 1e-9)
	assert.InDelta(t, 35000.0/140000.0, *list.EarningsPotential(), 1e-9)
	assert.InDelta(t, 1.0/3.0, *list.WinPct(), 1e-9)
	assert.InDelta(t, 0.0, *list.SecondPct(), 1e-9)
	assert.InDelta(t, 1.0/3.0, *list.ThirdPct(), 1e-9)
	assert.InDelta(t, 0.0, *list.FourthPct(), 1e-9)
	assert.InDelta(t, (1.0+0.8+0.0)/3.0, *list.ResultPotential(), 1e-9)
	assert.InDelta(t, (4.0-3.0)/3.0, *list.ROI(), 1e-9)

	prices := list.StartingPrices()
	assert.InDelta(t, 4.0, *prices[0], 1e-9)
	assert.InDelta(t, 6.0, *prices[1], 1e-9)
	assert.InDelta(t, 5.0, *prices[2], 1e-9)

	momentums := list.Momentums()
	require.NotNil(t, momentums[2])
	assert.InDelta(t, 56.0*1200.0/70.0, *momentums[0], 1e-9)
	assert.InDelta(t, 58.0*1400.0/84.0, *momentums[1], 1e-9)
}

func TestPerformanceList_Empty(t *testing.T) {
	var list *PerformanceList

	assert.Equal(t, 0, list.Starts())
	assert.Nil(t, list.Earnings())
	assert.Nil(t, list.WinPct())
	assert.Nil(t, list.ROI())
	assert.Nil(t, list.ResultPotential())
	assert.Equal(t, [3]*float64{}, list.StartingPrices())
	assert.Equal(t, [3]*float64{}, list.Momentums())
}

func TestSlices_FixedOrder(t *testing.T) {
	require.Len(t, Slices, 15)
	assert.Equal(t, SliceAtDistance, Slices[0])
	assert.Equal(t, SliceCareer, Slices[3])
	assert.Equal(t, SliceWithJockey, Slices[14])
}
