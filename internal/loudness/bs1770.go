package loudness

import (
	"context"
	"math"

	"remaster/internal/audio"
)

const (
	blockSeconds   = 0.4
	blockOverlap   = 0.75
	absoluteGate   = -70.0
	relativeGateLU = -10.0
	loudnessOffset = -0.691
)

// channelWeights follow the L, R, C, Ls, Rs ordering. Channels past the
// fifth are weighted 1.0.
var channelWeights = []float64{1.0, 1.0, 1.0, 1.41, 1.41}

// BS1770Meter computes ITU-R BS.1770-4 gated integrated loudness.
type BS1770Meter struct{}

// Integrated implements Meter.
func (BS1770Meter) Integrated(ctx context.Context, buf *audio.Buffer) (float64, error) {
	if buf == nil || buf.Empty() || buf.SampleRate <= 0 {
		return 0, ErrSilent
	}
	rate := float64(buf.SampleRate)
	frames := buf.Frames()
	if float64(frames)/rate < blockSeconds {
		return 0, ErrTooShort
	}

	step := 1 - blockOverlap
	numBlocks := int(math.Round((float64(frames)/rate-blockSeconds)/(blockSeconds*step))) + 1
	windowSamples := blockSeconds * rate

	// z[ch][j] is the mean square of K-weighted channel ch over block j.
	z := make([][]float64, buf.NumChannels())
	for ch, samples := range buf.Channels {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		weighted := kWeight(samples, rate)
		z[ch] = make([]float64, numBlocks)
		for j := range numBlocks {
			lower := int(blockSeconds * float64(j) * step * rate)
			upper := int(blockSeconds * (float64(j)*step + 1) * rate)
			upper = min(upper, len(weighted))
			var sum float64
			for i := lower; i < upper; i++ {
				sum += weighted[i] * weighted[i]
			}
			z[ch][j] = sum / windowSamples
		}
	}

	blockLoudness := make([]float64, numBlocks)
	for j := range numBlocks {
		var sum float64
		for ch := range z {
			sum += weight(ch) * z[ch][j]
		}
		blockLoudness[j] = loudnessOffset + 10*math.Log10(sum)
	}

	absGated := gatedMean(z, blockLoudness, func(l float64) bool { return l >= absoluteGate })
	if absGated == nil {
		return 0, ErrSilent
	}
	relativeGate := loudnessOffset + 10*math.Log10(weightedSum(absGated)) + relativeGateLU

	relGated := gatedMean(z, blockLoudness, func(l float64) bool { return l > relativeGate && l > absoluteGate })
	if relGated == nil {
		return 0, ErrSilent
	}
	lufs := loudnessOffset + 10*math.Log10(weightedSum(relGated))
	if math.IsInf(lufs, 0) || math.IsNaN(lufs) {
		return 0, ErrSilent
	}
	return lufs, nil
}

func weight(ch int) float64 {
	if ch < len(channelWeights) {
		return channelWeights[ch]
	}
	return 1.0
}

// gatedMean averages z per channel over blocks whose loudness passes keep.
// It returns nil when no block passes.
func gatedMean(z [][]float64, loudness []float64, keep func(float64) bool) []float64 {
	count := 0
	means := make([]float64, len(z))
	for j, l := range loudness {
		if !keep(l) {
			continue
		}
		count++
		for ch := range z {
			means[ch] += z[ch][j]
		}
	}
	if count == 0 {
		return nil
	}
	for ch := range means {
		means[ch] /= float64(count)
	}
	return means
}

func weightedSum(means []float64) float64 {
	var sum float64
	for ch, m := range means {
		sum += weight(ch) * m
	}
	return sum
}

// biquad holds normalized direct-form coefficients.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func (f biquad) apply(in []float64) []float64 {
	out := make([]float64, len(in))
	var x1, x2, y1, y2 float64
	for i, x := range in {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// highShelf is the pre-filter modelling the acoustic effect of the head.
func highShelf(rate float64) biquad {
	const (
		gainDB = 4.0
		q      = 1 / math.Sqrt2
		fc     = 1500.0
	)
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * fc / rate
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)
	sqrtA := math.Sqrt(a)

	b0 := a * ((a + 1) + (a-1)*cosw + 2*sqrtA*alpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosw)
	b2 := a * ((a + 1) + (a-1)*cosw - 2*sqrtA*alpha)
	a0 := (a + 1) - (a-1)*cosw + 2*sqrtA*alpha
	a1 := 2 * ((a - 1) - (a+1)*cosw)
	a2 := (a + 1) - (a-1)*cosw - 2*sqrtA*alpha
	return biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

// highPass is the RLB weighting curve.
func highPass(rate float64) biquad {
	const (
		q  = 0.5
		fc = 38.0
	)
	w0 := 2 * math.Pi * fc / rate
	alpha := math.Sin(w0) / (2 * q)
	cosw := math.Cos(w0)

	b0 := (1 + cosw) / 2
	b1 := -(1 + cosw)
	b2 := (1 + cosw) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw
	a2 := 1 - alpha
	return biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func kWeight(samples []float64, rate float64) []float64 {
	return highPass(rate).apply(highShelf(rate).apply(samples))
}
