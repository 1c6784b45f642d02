package calibration

import "sort"

// Division is a frequency band excluded from direct interpolation because
// the response inside it is not reliably characterized.
type Division struct {
	Lower float64
	Upper float64
}

// Divisions holds the excluded bands ordered by lower bound.
type Divisions []Division

func newDivisions(divs []Division) Divisions {
	out := make(Divisions, len(divs))
	copy(out, divs)
	sort.Slice(out, func(i, j int) bool { return out[i].Lower < out[j].Lower })
	return out
}

// Resolve maps a frequency landing strictly inside a division to that
// division's lower bound, forcing interpolation to use the edge value.
// Frequencies exactly on a boundary, or outside every division, pass
// through unchanged.
func (ds Divisions) Resolve(freq float64) float64 {
	for _, d := range ds {
		if freq > d.Lower && freq < d.Upper {
			return d.Lower
		}
	}
	return freq
}
