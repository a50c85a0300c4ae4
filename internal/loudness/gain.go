package loudness

import "math"

// NoMeasurementLUFS stands in for the loudness of a file without audio.
// It is a placeholder, never a reading; check Measurement.Valid instead.
const NoMeasurementLUFS = -60.0

// Measurement is an integrated loudness reading that may be absent.
type Measurement struct {
	Valid bool
	LUFS  float64
}

// Measured wraps a real reading.
func Measured(lufs float64) Measurement {
	return Measurement{Valid: true, LUFS: lufs}
}

// Absent is the measurement of a file with no usable audio.
func Absent() Measurement {
	return Measurement{LUFS: NoMeasurementLUFS}
}

// Value returns the reading, or NoMeasurementLUFS when absent.
func (m Measurement) Value() float64 {
	if !m.Valid {
		return NoMeasurementLUFS
	}
	return m.LUFS
}

// Difference returns target minus the measurement: positive means playback
// volume should be raised. An absent measurement yields 0. Rounding is half
// to even.
func Difference(m Measurement, target float64, rounded bool) float64 {
	if !m.Valid || math.IsNaN(m.LUFS) || math.IsInf(m.LUFS, 0) {
		return 0
	}
	delta := target - m.LUFS
	if rounded {
		delta = math.RoundToEven(delta)
	}
	// Avoid reporting -0.
	if delta == 0 {
		return 0
	}
	return delta
}

// Level is the rounded Difference as an integer playback level.
func Level(m Measurement, target float64) int {
	return int(Difference(m, target, true))
}

// GainFactor converts a dB delta into a linear amplitude factor.
func GainFactor(deltaDB float64) float64 {
	return math.Pow(10, deltaDB/20)
}
