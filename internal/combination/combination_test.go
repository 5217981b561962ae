package combination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		picks    [][]int
		expected [][]int
	}{
		{
			name:     "duplicates across positions removed",
			picks:    [][]int{{1, 2}, {2, 3}},
			expected: [][]int{{1, 2}, {1, 3}, {2, 3}},
		},
		{
			name:     "single position",
			picks:    [][]int{{4, 7}},
			expected: [][]int{{4}, {7}},
		},
		{
			name:     "empty leading bucket",
			picks:    [][]int{{}, {1}},
			expected: nil,
		},
		{
			name:     "empty intermediate bucket",
			picks:    [][]int{{1}, {}, {3}},
			expected: nil,
		},
		{
			name:     "no input",
			picks:    nil,
			expected: nil,
		},
		{
			name:     "every tuple repeats",
			picks:    [][]int{{5}, {5}},
			expected: nil,
		},
		{
			name:     "three places preserve order",
			picks:    [][]int{{1}, {2, 1}, {3}},
			expected: [][]int{{1, 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Get(tt.picks))
		})
	}
}

func TestGet_ResultsDoNotAlias(t *testing.T) {
	combos := Get([][]string{{"a", "b"}, {"c", "d"}})
	assert.Len(t, combos, 4)
	combos[0][0] = "z"
	assert.Equal(t, []string{"a", "d"}, combos[1])
}
