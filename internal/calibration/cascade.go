package calibration

// Factor keys the default cascade is configured to produce.
const (
	FactorGainSigan              = "gain_sigan"
	FactorENBWSigan              = "enbw_sigan"
	FactorNoiseFigureSigan       = "noise_figure_sigan"
	FactorCompressionSigan       = "1db_compression_sigan"
	FactorGainSensor             = "gain_sensor"
	FactorENBWSensor             = "enbw_sensor"
	FactorNoiseFigureSensor      = "noise_figure_sensor"
	FactorCompressionSensor      = "1db_compression_sensor"
	FactorGainPreselector        = "gain_preselector"
	FactorNoiseFigurePreselector = "noise_figure_preselector"
	FactorCompressionPreselector = "1db_compression_preselector"
)

// FactorKeys lists every key ResolveFactors guarantees in its output.
var FactorKeys = []string{
	FactorGainSigan,
	FactorENBWSigan,
	FactorNoiseFigureSigan,
	FactorCompressionSigan,
	FactorGainSensor,
	FactorENBWSensor,
	FactorNoiseFigureSensor,
	FactorCompressionSensor,
	FactorGainPreselector,
	FactorNoiseFigurePreselector,
	FactorCompressionPreselector,
}

// Defaults carries the constant fallback values the cascade fills gaps
// with. The signal-analyzer ENBW has no constant here: its fallback is the
// sample rate of the query being resolved. Sensor-level fields likewise
// have no constants; they derive from the resolved signal-analyzer and
// preselector fields.
type Defaults struct {
	SiganGain              float64
	SiganNoiseFigure       float64
	SiganCompression       float64
	PreselectorGain        float64
	PreselectorNoiseFigure float64
	PreselectorCompression float64
}

// StandardDefaults is the stock fallback set: gains and noise figures fall
// back to 0 dB, compression points to +100 dBm.
var StandardDefaults = Defaults{
	SiganGain:              0,
	SiganNoiseFigure:       0,
	SiganCompression:       100,
	PreselectorGain:        0,
	PreselectorNoiseFigure: 0,
	PreselectorCompression: 100,
}

// ResolveFactors merges the signal-analyzer and sensor lookup results with
// the configured defaults into the final correction set. Interpolated
// values are never overwritten; only gaps are filled. The sensor
// compression fallback derives from the resolved preselector gain plus the
// resolved signal-analyzer compression, and the signal-analyzer ENBW
// fallback is the caller-supplied sample rate. Factor keys beyond the
// configured set pass through untouched.
func ResolveFactors(sigan, sensor Result, sampleRate float64, d Defaults) map[string]float64 {
	out := make(map[string]float64, len(FactorKeys))
	for name, value := range sigan.Factors {
		out[name] = value
	}
	for name, value := range sensor.Factors {
		out[name] = value
	}

	fill := func(name string, value float64) {
		if _, ok := out[name]; !ok {
			out[name] = value
		}
	}

	fill(FactorGainSigan, d.SiganGain)
	fill(FactorENBWSigan, sampleRate)
	fill(FactorNoiseFigureSigan, d.SiganNoiseFigure)
	fill(FactorCompressionSigan, d.SiganCompression)

	fill(FactorGainPreselector, d.PreselectorGain)
	fill(FactorNoiseFigurePreselector, d.PreselectorNoiseFigure)
	fill(FactorCompressionPreselector, d.PreselectorCompression)

	// Sensor-level fields fall back to the already-resolved fields above.
	fill(FactorGainSensor, out[FactorGainSigan])
	fill(FactorENBWSensor, out[FactorENBWSigan])
	fill(FactorNoiseFigureSensor, out[FactorNoiseFigureSigan])
	fill(FactorCompressionSensor, out[FactorGainPreselector]+out[FactorCompressionSigan])

	return out
}
