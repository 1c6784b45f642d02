package calibration

import "sort"

// Bracket is the pair of measured grid values enclosing a requested value
// along one axis. An exact grid hit collapses to Lo == Hi.
type Bracket struct {
	Lo float64
	Hi float64
}

// Exact reports whether the bracket degenerated to a single grid value.
func (b Bracket) Exact() bool { return b.Lo == b.Hi }

// locate finds the bracket for v in keys, which must be ascending, distinct
// and non-empty. Lo is the greatest key not exceeding v and Hi its immediate
// successor. The second return is false when v falls outside
// [keys[0], keys[len(keys)-1]]; the caller decides which side was missed.
func locate(keys []float64, v float64) (Bracket, bool) {
	if v < keys[0] || v > keys[len(keys)-1] {
		return Bracket{}, false
	}
	i := sort.SearchFloat64s(keys, v)
	if keys[i] == v {
		return Bracket{Lo: v, Hi: v}, true
	}
	// keys[i-1] < v < keys[i]
	return Bracket{Lo: keys[i-1], Hi: keys[i]}, true
}
