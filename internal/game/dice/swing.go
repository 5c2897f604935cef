package dice

import "sort"

// SwingRange is the inclusive range of side counts a player may choose for a
// swing die of one letter.
type SwingRange struct {
	Min int
	Max int
}

// Contains reports whether sides is a legal choice for the range.
func (r SwingRange) Contains(sides int) bool {
	return sides >= r.Min && sides <= r.Max
}

var swingRanges = map[string]SwingRange{
	"R": {Min: 2, Max: 16},
	"S": {Min: 6, Max: 20},
	"T": {Min: 2, Max: 12},
	"U": {Min: 8, Max: 30},
	"V": {Min: 6, Max: 12},
	"W": {Min: 4, Max: 12},
	"X": {Min: 4, Max: 20},
	"Y": {Min: 1, Max: 20},
	"Z": {Min: 4, Max: 30},
}

// SwingRangeFor returns the legal range for swing type letter.
//
// Postcondition: ok is false when letter is not a swing type.
func SwingRangeFor(letter string) (SwingRange, bool) {
	r, ok := swingRanges[letter]
	return r, ok
}

// SwingTypes returns all known swing letters in ascending order.
func SwingTypes() []string {
	out := make([]string, 0, len(swingRanges))
	for k := range swingRanges {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
