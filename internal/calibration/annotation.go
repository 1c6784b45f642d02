package calibration

// Annotation builds the SigMF CalibrationAnnotation metadata block from a
// resolved factor set. ResolveFactors guarantees every referenced key, so
// all values are defined.
func Annotation(factors map[string]float64) map[string]any {
	return map[string]any{
		"ntia-core:annotation_type":                "CalibrationAnnotation",
		"ntia-sensor:gain_sigan":                   factors[FactorGainSigan],
		"ntia-sensor:noise_figure_sigan":           factors[FactorNoiseFigureSigan],
		"ntia-sensor:1db_compression_point_sigan":  factors[FactorCompressionSigan],
		"ntia-sensor:enbw_sigan":                   factors[FactorENBWSigan],
		"ntia-sensor:gain_preselector":             factors[FactorGainPreselector],
		"ntia-sensor:noise_figure_sensor":          factors[FactorNoiseFigureSensor],
		"ntia-sensor:1db_compression_point_sensor": factors[FactorCompressionSensor],
		"ntia-sensor:enbw_sensor":                  factors[FactorENBWSensor],
	}
}
