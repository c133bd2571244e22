// Package voice owns the sounding notes: per-voice envelopes, the optional
// filter and the fixed 32-slot pool with its stealing policy.
package voice

import (
	"math"

	"github.com/tphakala/simd/f32"

	"github.com/cbegin/octofm-go/internal/envelope"
	"github.com/cbegin/octofm-go/internal/filter"
	"github.com/cbegin/octofm-go/internal/osc"
)

// Voice is one sounding note.
type Voice struct {
	osc      osc.Batch
	note     uint8
	velocity float32

	filter   filter.SvfSimper
	filterOn bool
	cutoff   float32

	time        uint32
	releaseTime uint32
	released    bool

	ampReleaseLevel    float32
	filterReleaseLevel float32
}

func (v *Voice) start(note uint8, params *osc.OscParamsBatch, velocity float32, vp *Params) {
	*v = Voice{note: note, velocity: velocity}
	v.osc.Start(note, velocity, params)
	v.filterOn = vp.FilterOn
	v.cutoff = v.filterCutoff(vp)
	v.filter = filter.New(vp.FilterType, v.cutoff, vp.Resonance, vp.SampleRate)
}

// Play renders one sample. Operators see the previous sample of every
// operator as phase modulation, never the current one.
func (v *Voice) Play(params *osc.OscParamsBatch, vp *Params, pm *Matrix) float32 {
	v.time++

	var in, lanes [osc.Operators]float32
	prev := v.osc.Prev()
	for i := range in {
		in[i] = f32.DotProductUnsafe(pm[i][:], prev[:])
	}
	v.osc.Step(&lanes, params, &in, vp.SampleRate)

	s := f32.Sum(lanes[:])
	if v.filterOn {
		s = v.filter.Process(s)
	}
	return s * v.ampEnvelope(vp)
}

// Release starts the release segments from wherever the envelopes are now.
func (v *Voice) Release(params *osc.OscParamsBatch, vp *Params) {
	if v.released {
		return
	}
	v.ampReleaseLevel = v.ampEnvelope(vp)
	v.filterReleaseLevel = v.filterEnvelope(vp)
	v.osc.Release(params, vp.SampleRate)
	v.releaseTime = v.time
	v.released = true
}

// IsDone is true once the operators have all finished their releases or
// the voice release has run out, whichever comes first.
func (v *Voice) IsDone(params *osc.OscParamsBatch, vp *Params) bool {
	if v.osc.IsDone(params, vp.SampleRate) {
		return true
	}
	return v.released && float32(v.time-v.releaseTime) >= vp.releaseSamples()
}

func (v *Voice) blockUpdate(params *osc.OscParamsBatch, vp *Params) {
	v.osc.UpdatePitch(params)
	v.filterOn = vp.FilterOn
	v.filter.Type = vp.FilterType
	_, res, rate := v.filter.Params()
	if res != clamp01(vp.Resonance) || rate != vp.SampleRate {
		v.filter.SetParams(v.cutoff, vp.Resonance, vp.SampleRate)
	}
}

func (v *Voice) sampleUpdate(vp *Params) {
	if !v.filterOn {
		return
	}
	c := v.filterCutoff(vp)
	if c != v.cutoff {
		v.cutoff = c
		v.filter.SetParams(c, vp.Resonance, vp.SampleRate)
	}
}

func (v *Voice) seconds(samples uint32, vp *Params) float32 {
	return float32(samples) / vp.SampleRate
}

func (v *Voice) ampEnvelope(vp *Params) float32 {
	if v.released {
		return envelope.Release(v.seconds(v.time-v.releaseTime, vp), vp.Release, v.ampReleaseLevel)
	}
	return envelope.ADS(v.seconds(v.time, vp), 0, vp.Attack, 0, vp.Decay, vp.Sustain)
}

func (v *Voice) filterEnvelope(vp *Params) float32 {
	if v.released {
		return envelope.Release(v.seconds(v.time-v.releaseTime, vp), vp.FilterRelease, v.filterReleaseLevel)
	}
	return envelope.ADS(v.seconds(v.time, vp), 0, vp.FilterAttack, 0, vp.FilterDecay, vp.FilterSustain)
}

// filterCutoff adds the keytracked base cutoff and the envelope sweep, then
// clamps the sum to the audible range.
func (v *Voice) filterCutoff(vp *Params) float32 {
	env := v.filterEnvelope(vp)
	key := float32(math.Exp2(float64((float32(v.note) - 69) * vp.Keytrack / 12)))
	return filter.ClampCutoff(vp.Cutoff*key + vp.FilterEnvAmount*filter.MaxCutoff*env*env)
}

func (v *Voice) Note() uint8 { return v.note }

func (v *Voice) Time() uint32 { return v.time }

func (v *Voice) Released() bool { return v.released }

func (v *Voice) Cutoff() float32 { return v.cutoff }

func (v *Voice) FilterOn() bool { return v.filterOn }

func (v *Voice) Velocity() float32 { return v.velocity }

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
