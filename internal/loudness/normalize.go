package loudness

import (
	"math"

	"remaster/internal/audio"
)

// NormalizeStats describes what Normalize applied.
type NormalizeStats struct {
	GainDB  float64
	Clipped int
}

// Normalize returns a copy of buf scaled so its loudness moves from
// measured to target. Samples reaching full scale are counted as clipped;
// they are limited when the buffer is later written as PCM.
func Normalize(buf *audio.Buffer, measured, target float64) (*audio.Buffer, NormalizeStats) {
	stats := NormalizeStats{GainDB: target - measured}
	if buf == nil {
		return nil, stats
	}
	out := buf.Clone()
	factor := GainFactor(stats.GainDB)
	for _, samples := range out.Channels {
		for i, v := range samples {
			v *= factor
			if math.Abs(v) >= 1 {
				stats.Clipped++
			}
			samples[i] = v
		}
	}
	return out, stats
}
