// Package analysis measures rendered audio: pitch, zero crossings and level.
package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ZeroCrossings counts sign changes in x. Exact zeros carry the previous
// sign.
func ZeroCrossings(x []float32) int {
	n := 0
	var prev float32
	for _, s := range x {
		if s == 0 {
			continue
		}
		if prev != 0 && (s > 0) != (prev > 0) {
			n++
		}
		prev = s
	}
	return n
}

// Peak returns the largest absolute sample.
func Peak(x []float32) float32 {
	var p float32
	for _, s := range x {
		if s < 0 {
			s = -s
		}
		if s > p {
			p = s
		}
	}
	return p
}

func RMS(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, s := range x {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Finite reports whether x holds no NaN or infinite samples.
func Finite(x []float32) bool {
	for _, s := range x {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Spectrum returns the magnitude of the Hann-windowed real FFT of x, with
// bin i at i*sampleRate/len(x) Hz.
func Spectrum(x []float32) []float64 {
	n := len(x)
	if n < 2 {
		return nil
	}
	seq := make([]float64, n)
	for i, s := range x {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		seq[i] = float64(s) * w
	}
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, seq)
	mag := make([]float64, len(coeffs))
	for i, c := range coeffs {
		mag[i] = cmplx.Abs(c)
	}
	return mag
}

// DominantFrequency returns the frequency in Hz of the strongest spectral
// peak, refined by parabolic interpolation. Silence returns 0.
func DominantFrequency(x []float32, sampleRate int) float64 {
	mag := Spectrum(x)
	if len(mag) < 3 {
		return 0
	}
	best := 1
	for i := 2; i < len(mag); i++ {
		if mag[i] > mag[best] {
			best = i
		}
	}
	if mag[best] == 0 {
		return 0
	}
	offset := 0.0
	if best+1 < len(mag) {
		a, b, c := mag[best-1], mag[best], mag[best+1]
		if d := a - 2*b + c; d != 0 {
			offset = 0.5 * (a - c) / d
		}
	}
	return (float64(best) + offset) * float64(sampleRate) / float64(len(x))
}

// BandEnergy sums the squared magnitude of the bins between lo and hi Hz.
func BandEnergy(x []float32, sampleRate int, lo, hi float64) float64 {
	mag := Spectrum(x)
	binHz := float64(sampleRate) / float64(len(x))
	var e float64
	for i, m := range mag {
		f := float64(i) * binHz
		if f >= lo && f < hi {
			e += m * m
		}
	}
	return e
}
