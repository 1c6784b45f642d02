package calibration

import (
	"fmt"
	"math"
	"sort"
)

// Point is a single measured calibration record: the correction factors
// captured at one exact (sample rate, frequency, reference level) triple.
type Point struct {
	SampleRate     float64
	Frequency      float64
	ReferenceLevel float64
	Factors        map[string]float64
}

// Table organizes calibration points for bracket search. Sample rates are
// matched exactly on their rounded integer-Hz value; frequencies and
// reference levels are kept as sorted raw float keys per rate.
type Table struct {
	rates map[int64]*rateGrid
}

type rateGrid struct {
	sampleRate float64
	freqs      []float64
	columns    map[float64]*levelColumn
}

type levelColumn struct {
	levels  []float64
	factors map[float64]map[string]float64
}

// roundHz normalizes a sample rate to the table's comparison granularity.
// Only sample rates are rounded; frequency and reference level keys stay
// raw floats. The same rule applies at build time and query time.
func roundHz(f float64) int64 {
	return int64(math.Round(f))
}

// NewTable builds a table from measured points. Two points sharing the same
// (sample rate, frequency, reference level) triple are rejected. An empty
// point set yields a valid table on which every lookup misses.
func NewTable(points []Point) (*Table, error) {
	t := &Table{rates: make(map[int64]*rateGrid)}
	for _, p := range points {
		sr := roundHz(p.SampleRate)
		grid, ok := t.rates[sr]
		if !ok {
			grid = &rateGrid{
				sampleRate: p.SampleRate,
				columns:    make(map[float64]*levelColumn),
			}
			t.rates[sr] = grid
		}
		col, ok := grid.columns[p.Frequency]
		if !ok {
			col = &levelColumn{factors: make(map[float64]map[string]float64)}
			grid.columns[p.Frequency] = col
			grid.freqs = append(grid.freqs, p.Frequency)
		}
		if _, dup := col.factors[p.ReferenceLevel]; dup {
			return nil, fmt.Errorf("duplicate calibration point at sample rate %v, frequency %v, reference level %v",
				p.SampleRate, p.Frequency, p.ReferenceLevel)
		}
		// The table owns its factor maps; callers may reuse the input.
		factors := make(map[string]float64, len(p.Factors))
		for name, value := range p.Factors {
			factors[name] = value
		}
		col.factors[p.ReferenceLevel] = factors
		col.levels = append(col.levels, p.ReferenceLevel)
	}
	for _, grid := range t.rates {
		sort.Float64s(grid.freqs)
		for _, col := range grid.columns {
			sort.Float64s(col.levels)
		}
	}
	return t, nil
}

// corner returns the measured factors at one exact grid position. A missing
// position means the four bracketing corners do not form a full rectangle,
// which is a data-integrity defect in the loaded table.
func (g *rateGrid) corner(freq, level float64) (map[string]float64, error) {
	col, ok := g.columns[freq]
	if !ok {
		return nil, fmt.Errorf("no calibration data at frequency %v", freq)
	}
	factors, ok := col.factors[level]
	if !ok {
		return nil, fmt.Errorf("no calibration data at frequency %v, reference level %v", freq, level)
	}
	return factors, nil
}
