package rhythm

import (
	"github.com/FocuswithJustin/musictext/core/score"
)

// BeatDuration is the length of one beat: a quarter note.
var BeatDuration = score.NewFraction(1, 4)

// commonRatios holds the conventional tuplet for each division count.
var commonRatios = map[int]int{
	3:  2,
	5:  4,
	6:  4,
	7:  4,
	9:  8,
	10: 8,
	11: 8,
	12: 8,
}

// IsPowerOfTwo reports whether n is 1, 2, 4, 8 and so on.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Ratio returns the tuplet ratio for a beat of n divisions. The boolean is
// false when n is a power of two and the beat is not a tuplet.
func Ratio(n int) (score.TupletRatio, bool) {
	if n <= 0 || IsPowerOfTwo(n) {
		return score.TupletRatio{}, false
	}
	if normal, ok := commonRatios[n]; ok {
		return score.TupletRatio{Actual: n, Normal: normal}, true
	}
	normal := 1
	for normal*2 <= n {
		normal *= 2
	}
	return score.TupletRatio{Actual: n, Normal: normal}, true
}

// Unit returns the duration of one division in a beat of n divisions.
func Unit(n int) score.Fraction {
	return score.NewFraction(1, int64(4*n))
}
