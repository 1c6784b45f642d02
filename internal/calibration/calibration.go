// Package calibration implements the interpolated lookup engine for
// signal-analyzer correction factors. A Calibration holds a sparse grid of
// measured points over (sample rate, frequency, reference level) and
// produces a continuously-varying correction estimate for any operating
// point inside the calibrated envelope.
package calibration

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// MissReason explains why a lookup returned no calibration data.
type MissReason string

const (
	MissSampleRate    MissReason = "sample rate not calibrated"
	MissFrequencyLow  MissReason = "frequency below calibrated range"
	MissFrequencyHigh MissReason = "frequency above calibrated range"
	MissRefLevelLow   MissReason = "reference level below calibrated range"
	MissRefLevelHigh  MissReason = "reference level above calibrated range"
)

// Result is the outcome of one lookup: interpolated factors on a hit, a
// reason and no factors on a miss. A miss never carries partial data.
type Result struct {
	Factors map[string]float64
	Miss    MissReason
}

// Hit reports whether the lookup produced calibration data.
func (r Result) Hit() bool { return r.Miss == "" }

// Calibration is one loaded calibration: an immutable table of measured
// points, the frequency divisions to avoid interpolating within, and the
// opaque timestamp the data was captured at. Immutable after construction
// and safe for concurrent lookups without locking.
type Calibration struct {
	timestamp string
	divisions Divisions
	table     *Table
}

// New builds a Calibration from already-deserialized points and divisions.
// The timestamp is carried through uninterpreted.
func New(timestamp string, points []Point, divisions []Division) (*Calibration, error) {
	table, err := NewTable(points)
	if err != nil {
		return nil, err
	}
	return &Calibration{
		timestamp: timestamp,
		divisions: newDivisions(divisions),
		table:     table,
	}, nil
}

// Timestamp returns the calibration capture time string as loaded.
func (c *Calibration) Timestamp() string { return c.timestamp }

// Divisions returns the excluded frequency bands, ordered by lower bound.
func (c *Calibration) Divisions() []Division {
	return append([]Division(nil), c.divisions...)
}

// Get interpolates the correction factors for one operating point. The
// sample rate must match a calibrated rate exactly after rounding;
// frequency and reference level are bracketed against the measured grid
// and blended bilinearly, with the reference-level bracket chosen from the
// lower frequency neighbor's grid. Out-of-range requests return a Miss.
// A non-nil error means the loaded table itself is malformed: a bracketing
// corner is missing, or missing a factor key another corner has.
func (c *Calibration) Get(sampleRate, frequency, referenceLevel float64) (Result, error) {
	grid, ok := c.table.rates[roundHz(sampleRate)]
	if !ok {
		return c.miss(MissSampleRate, sampleRate, frequency, referenceLevel), nil
	}

	f := c.divisions.Resolve(frequency)
	if f != frequency {
		log.Warn().
			Float64("requested", frequency).
			Float64("assumed", f).
			Msg("Tuned frequency within a division, snapping to its lower bound")
	}

	fb, ok := locate(grid.freqs, f)
	if !ok {
		reason := MissFrequencyHigh
		if f < grid.freqs[0] {
			reason = MissFrequencyLow
		}
		return c.miss(reason, sampleRate, frequency, referenceLevel), nil
	}

	// The lower frequency neighbor's reference-level grid decides the level
	// bracket for both frequency corners.
	levels := grid.columns[fb.Lo].levels
	lb, ok := locate(levels, referenceLevel)
	if !ok {
		reason := MissRefLevelHigh
		if referenceLevel < levels[0] {
			reason = MissRefLevelLow
		}
		return c.miss(reason, sampleRate, frequency, referenceLevel), nil
	}

	z11, err := grid.corner(fb.Lo, lb.Lo)
	if err != nil {
		return Result{}, err
	}
	z21, err := grid.corner(fb.Hi, lb.Lo)
	if err != nil {
		return Result{}, err
	}
	z12, err := grid.corner(fb.Lo, lb.Hi)
	if err != nil {
		return Result{}, err
	}
	z22, err := grid.corner(fb.Hi, lb.Hi)
	if err != nil {
		return Result{}, err
	}

	// The (lower frequency, lower level) corner defines the factor set;
	// every other corner must supply each of its keys.
	factors := make(map[string]float64, len(z11))
	for name, v11 := range z11 {
		v21, ok := z21[name]
		if !ok {
			return Result{}, cornerKeyError(name, fb.Hi, lb.Lo)
		}
		v12, ok := z12[name]
		if !ok {
			return Result{}, cornerKeyError(name, fb.Lo, lb.Hi)
		}
		v22, ok := z22[name]
		if !ok {
			return Result{}, cornerKeyError(name, fb.Hi, lb.Hi)
		}
		factors[name] = interpolate2D(f, referenceLevel, fb.Lo, fb.Hi, lb.Lo, lb.Hi, v11, v21, v12, v22)
	}

	return Result{Factors: factors}, nil
}

func cornerKeyError(name string, freq, level float64) error {
	return fmt.Errorf("calibration factor %q missing at frequency %v, reference level %v", name, freq, level)
}

func (c *Calibration) miss(reason MissReason, sampleRate, frequency, referenceLevel float64) Result {
	log.Warn().
		Float64("sample_rate", sampleRate).
		Float64("frequency", frequency).
		Float64("reference_level", referenceLevel).
		Str("reason", string(reason)).
		Msg("Calibration lookup miss")
	return Result{Miss: reason}
}

// GridSummary describes the calibrated envelope for one sample rate.
type GridSummary struct {
	SampleRate        float64
	FrequencyMin      float64
	FrequencyMax      float64
	ReferenceLevelMin float64
	ReferenceLevelMax float64
	Points            int
}

// Grids summarizes the calibrated envelope per sample rate, ascending.
func (c *Calibration) Grids() []GridSummary {
	out := make([]GridSummary, 0, len(c.table.rates))
	for _, grid := range c.table.rates {
		gs := GridSummary{
			SampleRate:   grid.sampleRate,
			FrequencyMin: grid.freqs[0],
			FrequencyMax: grid.freqs[len(grid.freqs)-1],
		}
		first := true
		for _, col := range grid.columns {
			lo, hi := col.levels[0], col.levels[len(col.levels)-1]
			if first || lo < gs.ReferenceLevelMin {
				gs.ReferenceLevelMin = lo
			}
			if first || hi > gs.ReferenceLevelMax {
				gs.ReferenceLevelMax = hi
			}
			first = false
			gs.Points += len(col.levels)
		}
		out = append(out, gs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SampleRate < out[j].SampleRate })
	return out
}
