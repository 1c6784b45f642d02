package models

// CalibrationDocument is the calibration file produced by a lab sweep. The
// payload nests sample rates, then frequencies, then reference levels, with
// the measured correction factors as a flat object at each leaf.
type CalibrationDocument struct {
	CalibrationDatetime string              `json:"calibration_datetime" required:"true" example:"2023-01-05T14:07:10.000Z" doc:"ISO 8601 timestamp of the lab sweep"`
	FrequencyDivisions  []FrequencyDivision `json:"calibration_frequency_divisions,omitempty" doc:"Frequency bands inside which the analyzer switches hardware mode"`
	Data                SampleRateList      `json:"calibration_data" required:"true" doc:"Measured calibration grid"`
}

// FrequencyDivision marks a band whose interior frequencies are calibrated
// at the band's lower bound.
type FrequencyDivision struct {
	LowerBound float64 `json:"lower_bound" required:"true" doc:"Division lower bound in Hz"`
	UpperBound float64 `json:"upper_bound" required:"true" doc:"Division upper bound in Hz"`
}

// SampleRateList groups the per-sample-rate calibration grids.
type SampleRateList struct {
	SampleRates []SampleRateEntry `json:"sample_rates" required:"true" doc:"One grid per calibrated sample rate"`
}

// SampleRateEntry is the calibration grid measured at one sample rate.
type SampleRateEntry struct {
	SampleRate float64       `json:"sample_rate" required:"true" example:"14000000" doc:"Sample rate in samples per second"`
	Data       FrequencyList `json:"calibration_data" required:"true"`
}

// FrequencyList groups the per-frequency reference level sweeps.
type FrequencyList struct {
	Frequencies []FrequencyEntry `json:"frequencies" required:"true"`
}

// FrequencyEntry is the reference level sweep measured at one frequency.
type FrequencyEntry struct {
	Frequency float64      `json:"frequency" required:"true" example:"1000000000" doc:"Center frequency in Hz"`
	Data      RefLevelList `json:"calibration_data" required:"true"`
}

// RefLevelList groups the measured points at one frequency.
type RefLevelList struct {
	RefLevels []RefLevelEntry `json:"ref_levels" required:"true"`
}

// RefLevelEntry holds the correction factors measured at a single
// (sample rate, frequency, reference level) grid point.
type RefLevelEntry struct {
	ReferenceLevel float64            `json:"reference_level" required:"true" example:"-20" doc:"Reference level in dBm"`
	Factors        map[string]float64 `json:"calibration_data" required:"true" doc:"Correction factors measured at this point, keyed by factor name"`
}
