package osc

import (
	"github.com/cbegin/octofm-go/internal/envelope"
	"github.com/cbegin/octofm-go/internal/shape"
)

// Operators is the number of oscillators evaluated in lock-step per voice.
const Operators = 8

// OscParams is the smoothed parameter set of one operator.
type OscParams struct {
	Gain float32 // output level into the voice mix

	Coarse        float32 // semitones
	Fine          float32 // cents
	OctaveStretch float32 // 1 = equal temperament
	FreqMult      float32
	HzDetune      float32

	PhaseOffset float32 // cycles
	Feedback    float32 // -1..1, negative feeds back the squared wave

	Delay, Attack, Hold, Decay float32 // seconds
	Sustain                    float32 // level 0..1
	Release                    float32 // seconds

	VelocitySensitivity float32 // 0..1
	KeyScaling          float32 // gain exponent per octave away from A4

	PhaseShaper      shape.Waveshaper
	PhaseShapeAmount float32 // 0..1
	WaveShaper       shape.Waveshaper
	WaveShapeAmount  float32 // 0..1
}

// DefaultOscParams is a full-level sine with an instant, held envelope.
func DefaultOscParams() OscParams {
	return OscParams{
		Gain:          1,
		OctaveStretch: 1,
		FreqMult:      1,
		Sustain:       1,
		Release:       0.2,
	}
}

// OscParamsBatch is the lane-parallel form of 8 OscParams.
type OscParamsBatch struct {
	Gain          [Operators]float32
	Coarse        [Operators]float32
	Fine          [Operators]float32
	OctaveStretch [Operators]float32
	FreqMult      [Operators]float32
	HzDetune      [Operators]float32
	PhaseOffset   [Operators]float32
	Feedback      [Operators]float32

	Env     envelope.Lanes
	Release [Operators]float32

	VelocitySensitivity [Operators]float32
	KeyScaling          [Operators]float32

	PhaseShaper      [Operators]shape.Waveshaper
	PhaseShapeAmount [Operators]float32 // already scaled to [1,101]
	WaveShaper       [Operators]shape.Waveshaper
	WaveShapeAmount  [Operators]float32 // already scaled to [1,100]
}

// Transpose turns 8 per-operator parameter sets into one batch. Callers do
// this once per block.
func Transpose(ops *[Operators]OscParams) OscParamsBatch {
	var b OscParamsBatch
	TransposeInto(&b, ops)
	return b
}

// TransposeInto is Transpose without the copy of the result.
func TransposeInto(b *OscParamsBatch, ops *[Operators]OscParams) {
	for i := range ops {
		o := &ops[i]
		b.Gain[i] = o.Gain
		b.Coarse[i] = o.Coarse
		b.Fine[i] = o.Fine
		b.OctaveStretch[i] = o.OctaveStretch
		b.FreqMult[i] = o.FreqMult
		b.HzDetune[i] = o.HzDetune
		b.PhaseOffset[i] = o.PhaseOffset
		b.Feedback[i] = clamp(o.Feedback, -1, 1)

		b.Env.Delay[i] = nonNeg(o.Delay)
		b.Env.Attack[i] = nonNeg(o.Attack)
		b.Env.Hold[i] = nonNeg(o.Hold)
		b.Env.Decay[i] = nonNeg(o.Decay)
		b.Env.Sustain[i] = clamp(o.Sustain, 0, 1)
		b.Release[i] = nonNeg(o.Release)

		b.VelocitySensitivity[i] = clamp(o.VelocitySensitivity, 0, 1)
		b.KeyScaling[i] = o.KeyScaling

		b.PhaseShaper[i] = o.PhaseShaper
		b.PhaseShapeAmount[i] = 1 + 100*clamp(o.PhaseShapeAmount, 0, 1)
		b.WaveShaper[i] = o.WaveShaper
		b.WaveShapeAmount[i] = 1 + 99*clamp(o.WaveShapeAmount, 0, 1)
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNeg(v float32) float32 {
	if v < 0 {
		return 0
	}
	return v
}
