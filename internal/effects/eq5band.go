package effects

import (
	"math"
	"sync/atomic"
)

const Bands = 5

// EQ5Band is a 5-band equalizer split at 200Hz, 800Hz, 2.5kHz and 8kHz.
// Gains are float32 bit patterns so any goroutine can set them while the
// audio thread reads.
type EQ5Band struct {
	gains  [Bands]atomic.Uint32
	alphas [Bands - 1]float32
	lp     [Bands - 1]float32
}

var crossovers = [Bands - 1]float64{200, 800, 2500, 8000}

// NewEQ5Band creates a 5-band EQ with all gains at unity.
func NewEQ5Band(sampleRate int) *EQ5Band {
	eq := &EQ5Band{}
	for i, freq := range crossovers {
		eq.alphas[i] = onePole(freq, sampleRate)
	}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1))
	}
	return eq
}

// SetGain sets the linear gain of band 0..4. Out of range bands and
// negative gains are ignored.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band >= 0 && band < Bands && gain >= 0 {
		eq.gains[band].Store(math.Float32bits(gain))
	}
}

func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < Bands {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1
}

// Process peels each band off the remainder with a cascade of one-pole
// lowpasses; at unity gains the bands sum back to the input.
func (eq *EQ5Band) Process(x float32) float32 {
	var out float32
	rem := x
	for i := range eq.lp {
		eq.lp[i] += eq.alphas[i] * (rem - eq.lp[i])
		out += eq.lp[i] * math.Float32frombits(eq.gains[i].Load())
		rem -= eq.lp[i]
	}
	return out + rem*math.Float32frombits(eq.gains[Bands-1].Load())
}

func (eq *EQ5Band) Reset() {
	clear(eq.lp[:])
}
