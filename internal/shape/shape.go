// Package shape implements the phase and amplitude waveshaping curves used
// by the operators. Every shaper is a pure function of (x, amount) with x in
// [-1,1] and amount >= 1.
package shape

import (
	"fmt"
	"math"
	"strings"
)

type Waveshaper uint8

const (
	None Waveshaper = iota
	Power
	InversePower
	BiasedPower
	BiasedInversePower
	Sync
	Sine
	Quantize
	numShapers
)

var shaperNames = [numShapers]string{
	"none",
	"power",
	"inverse-power",
	"biased-power",
	"biased-inverse-power",
	"sync",
	"sine",
	"quantize",
}

func (w Waveshaper) String() string {
	if w < numShapers {
		return shaperNames[w]
	}
	return fmt.Sprintf("waveshaper(%d)", uint8(w))
}

// Valid reports whether w names a known shaper.
func (w Waveshaper) Valid() bool { return w < numShapers }

// ParseWaveshaper maps a name from String back to its shaper.
func ParseWaveshaper(name string) (Waveshaper, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range shaperNames {
		if s == n {
			return Waveshaper(i), nil
		}
	}
	return None, fmt.Errorf("unknown waveshaper %q", name)
}

// Shape applies w to x. Unknown shapers pass x through.
func (w Waveshaper) Shape(x, amount float32) float32 {
	switch w {
	case Power:
		return signedPow(x, amount)
	case InversePower:
		return signedPow(x, 1/amount)
	case BiasedPower:
		return biasedPow(x, amount)
	case BiasedInversePower:
		return biasedPow(x, 1/amount)
	case Sync:
		return wrapBipolar(x * amount)
	case Sine:
		return float32(math.Sin(float64(x * amount)))
	case Quantize:
		// Whole steps so the levels land on -1 and 1 exactly.
		steps := max(math.Floor(float64(100/amount)), 1)
		return float32(math.Round(float64(x)*steps) / steps)
	default:
		return x
	}
}

// Shape8 applies one shaper per lane.
func Shape8(dst *[8]float32, shapers *[8]Waveshaper, x, amount *[8]float32) {
	for i := range dst {
		dst[i] = shapers[i].Shape(x[i], amount[i])
	}
}

func signedPow(x, e float32) float32 {
	if x == 0 {
		return 0
	}
	m := float32(math.Pow(math.Abs(float64(x)), float64(e)))
	if x < 0 {
		return -m
	}
	return m
}

func biasedPow(x, e float32) float32 {
	u := (x + 1) * 0.5
	if u <= 0 {
		return -1
	}
	u = float32(math.Pow(float64(u), float64(e)))
	return 2*u - 1
}

// wrapBipolar folds x into [-1,1).
func wrapBipolar(x float32) float32 {
	return x - 2*float32(math.Floor(float64((x+1)*0.5)))
}
