// Package combination enumerates ordered selections across ranked pick lists.
package combination

// Get returns the Cartesian product of picks, keeping position significance
// (index 0 is first place), with every tuple that repeats an element removed.
// Empty input yields no combinations, and so does an empty bucket at any position.
func Get[T comparable](picks [][]T) [][]T {
	if len(picks) == 0 {
		return nil
	}

	var results [][]T
	current := make([]T, 0, len(picks))
	var walk func(position int)
	walk = func(position int) {
		if position == len(picks) {
			results = append(results, append([]T(nil), current...))
			return
		}
		for _, item := range picks[position] {
			if contains(current, item) {
				continue
			}
			current = append(current, item)
			walk(position + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)

	return results
}

func contains[T comparable](items []T, item T) bool {
	for _, existing := range items {
		if existing == item {
			return true
		}
	}
	return false
}
