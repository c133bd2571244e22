package voice

import (
	"github.com/cbegin/octofm-go/internal/filter"
	"github.com/cbegin/octofm-go/internal/osc"
)

// Matrix holds the phase modulation weights: row i lists, in cycles, how
// much each operator's previous output moves operator i's phase.
type Matrix [osc.Operators][osc.Operators]float32

// Params is the per-voice parameter snapshot shared by every voice.
type Params struct {
	SampleRate float32

	// Amplitude envelope, seconds and level.
	Attack, Decay, Sustain, Release float32

	FilterOn        bool
	FilterType      filter.FilterType
	Cutoff          float32 // Hz
	Resonance       float32 // 0..1
	Keytrack        float32 // 1 = cutoff follows the key exactly
	FilterEnvAmount float32 // added as amount * 22000Hz * env^2

	FilterAttack, FilterDecay, FilterSustain, FilterRelease float32
}

func DefaultParams(sampleRate float32) Params {
	return Params{
		SampleRate:    sampleRate,
		Sustain:       1,
		Release:       0.2,
		FilterType:    filter.Lowpass,
		Cutoff:        filter.MaxCutoff,
		FilterSustain: 1,
		FilterRelease: 0.2,
	}
}

func (p *Params) releaseSamples() float32 {
	if p.Release <= 0 {
		return 0
	}
	return p.Release * p.SampleRate
}
