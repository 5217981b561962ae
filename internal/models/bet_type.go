package models

// BetType identifies a bet by the number of places it must rank correctly.
type BetType string

const (
	BetTypeWin       BetType = "win"
	BetTypeExacta    BetType = "exacta"
	BetTypeTrifecta  BetType = "trifecta"
	BetTypeFirstFour BetType = "first_four"
)

// BetTypes lists every supported bet type in ascending order of places.
var BetTypes = []BetType{BetTypeWin, BetTypeExacta, BetTypeTrifecta, BetTypeFirstFour}

// MaxPlaces is the deepest finishing place any bet type needs.
const MaxPlaces = 4

// Places returns the number of finishing places the bet type requires, or 0 if unknown.
func (b BetType) Places() int {
	switch b {
	case BetTypeWin:
		return 1
	case BetTypeExacta:
		return 2
	case BetTypeTrifecta:
		return 3
	case BetTypeFirstFour:
		return 4
	default:
		return 0
	}
}

// IsExotic reports whether the bet type needs more than one place.
func (b BetType) IsExotic() bool {
	return b.Places() > 1
}
