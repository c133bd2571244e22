// Package osc runs the 8 operators of one voice as parallel lanes.
package osc

import (
	"math"

	"github.com/cbegin/octofm-go/internal/envelope"
	"github.com/cbegin/octofm-go/internal/shape"
)

const twoPi = 2 * math.Pi

// Batch is the lane state for the 8 operators of one voice.
type Batch struct {
	note     uint8
	velocity float32

	freq  [Operators]float32
	phase [Operators]float32 // [0,1)

	time         [Operators]uint32
	releaseTime  [Operators]uint32
	released     bool
	releaseLevel [Operators]float32

	// prev is the latest output, prev2 the one before it.
	prev  [Operators]float32
	prev2 [Operators]float32

	gain [Operators]float32 // velocity sensitivity x keyscaling
}

// Start resets the batch for a new note.
func (b *Batch) Start(note uint8, velocity float32, p *OscParamsBatch) {
	*b = Batch{note: note, velocity: clamp(velocity, 0, 1)}
	b.UpdateGain(p)
	b.UpdatePitch(p)
}

// UpdatePitch recomputes the lane frequencies from the pitch parameters.
func (b *Batch) UpdatePitch(p *OscParamsBatch) {
	n := float32(b.note)
	for i := range b.freq {
		b.freq[i] = Pitch(n, p.Coarse[i], p.Fine[i], p.OctaveStretch[i], p.FreqMult[i], p.HzDetune[i])
	}
}

// UpdateGain recomputes the static lane gain.
func (b *Batch) UpdateGain(p *OscParamsBatch) {
	octaves := (float64(b.note) - 69) / 12
	for i := range b.gain {
		vel := 1 - p.VelocitySensitivity[i]*(1-b.velocity)
		key := float32(math.Exp2(octaves * float64(p.KeyScaling[i])))
		b.gain[i] = vel * key
	}
}

// Pitch returns the operator frequency in Hz, never negative.
func Pitch(note, coarse, fine, octaveStretch, freqMult, hzDetune float32) float32 {
	semis := float64(note + coarse + fine/100 - 69)
	hz := 440*math.Exp2(semis/(12/float64(octaveStretch)))*float64(freqMult) + float64(hzDetune)
	if !(hz > 0) || math.IsInf(hz, 0) {
		return 0
	}
	return float32(hz)
}

// Envelope writes the current lane envelope values into dst.
func (b *Batch) Envelope(dst *[Operators]float32, p *OscParamsBatch, sampleRate float32) {
	var t [Operators]float32
	if !b.released {
		for i := range t {
			t[i] = float32(b.time[i]) / sampleRate
		}
		envelope.ADS8(dst, &t, &p.Env)
		return
	}
	for i := range t {
		t[i] = float32(b.time[i]-b.releaseTime[i]) / sampleRate
	}
	envelope.Release8(dst, &t, &p.Release, &b.releaseLevel)
}

// Step advances every lane by one sample. pm holds the phase modulation
// each lane receives, in cycles. The returned lanes are already scaled by
// the operator output level.
func (b *Batch) Step(dst *[Operators]float32, p *OscParamsBatch, pm *[Operators]float32, sampleRate float32) {
	var env, x, shaped [Operators]float32
	b.Envelope(&env, p, sampleRate)

	for i := range x {
		avg := (b.prev[i] + b.prev2[i]) * 0.5
		fb := p.Feedback[i]
		var feed float32
		if fb < 0 {
			feed = avg * avg * -fb
		} else {
			feed = avg * fb
		}
		x[i] = 2*wrap(b.phase[i]+feed+pm[i]) - 1
	}
	shape.Shape8(&shaped, &p.PhaseShaper, &x, &p.PhaseShapeAmount)

	for i := range x {
		ph := (shaped[i] + 1) * 0.5
		x[i] = float32(math.Sin(twoPi * float64(ph+p.PhaseOffset[i])))
	}
	shape.Shape8(&shaped, &p.WaveShaper, &x, &p.WaveShapeAmount)

	inv := 1 / sampleRate
	for i := range dst {
		out := shaped[i] * env[i] * b.gain[i]
		b.prev2[i] = b.prev[i]
		b.prev[i] = out
		dst[i] = out * p.Gain[i]

		b.phase[i] = wrap(b.phase[i] + b.freq[i]*inv)
		b.time[i]++
	}
}

// Release snapshots every lane's envelope level and starts the release
// segment. Releasing twice has no effect.
func (b *Batch) Release(p *OscParamsBatch, sampleRate float32) {
	if b.released {
		return
	}
	b.Envelope(&b.releaseLevel, p, sampleRate)
	b.releaseTime = b.time
	b.released = true
}

// IsDone reports whether every lane has run past its release length.
func (b *Batch) IsDone(p *OscParamsBatch, sampleRate float32) bool {
	if !b.released {
		return false
	}
	for i := range b.time {
		if float32(b.time[i]-b.releaseTime[i]) < p.Release[i]*sampleRate {
			return false
		}
	}
	return true
}

// Prev returns the latest lane outputs, before the operator output level.
func (b *Batch) Prev() *[Operators]float32 { return &b.prev }

func (b *Batch) Phase() [Operators]float32 { return b.phase }

func (b *Batch) Frequency() [Operators]float32 { return b.freq }

func (b *Batch) Released() bool { return b.released }

// wrap returns x modulo 1 in [0,1).
func wrap(x float32) float32 {
	w := x - float32(math.Floor(float64(x)))
	if w >= 1 || w < 0 || w != w {
		return 0
	}
	return w
}
