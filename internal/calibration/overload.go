package calibration

import "math"

// MeanPower returns the time-domain average power of IQ samples in dBm,
// assuming volt-scaled samples into a 50 ohm load.
func MeanPower(samples []complex128) float64 {
	var sum float64
	for _, s := range samples {
		re, im := real(s), imag(s)
		sum += re*re + im*im
	}
	mean := sum / float64(len(samples))
	// Convert log(V^2) to dBm.
	return 10*math.Log10(mean) + 10*math.Log10(1.0/(2*50)) + 30
}

// Overloaded reports whether the average power of the samples exceeds the
// sensor 1 dB compression point, along with the computed power.
func Overloaded(samples []complex128, compressionDBm float64) (bool, float64) {
	power := MeanPower(samples)
	return power > compressionDBm, power
}
