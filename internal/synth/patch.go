package synth

import (
	"errors"
	"fmt"
	"math"

	"github.com/cbegin/octofm-go/internal/filter"
	"github.com/cbegin/octofm-go/internal/interp"
	"github.com/cbegin/octofm-go/internal/osc"
	"github.com/cbegin/octofm-go/internal/shape"
	"github.com/cbegin/octofm-go/internal/voice"
)

var ErrInvalidPatch = errors.New("invalid patch")

// Knob curves. Envelope times and filter cutoff are set as 0..1 knobs and
// mapped through these.
var (
	timeCurve   = interp.NewCurve(0, 0.004, 0.04, 0.25, 1, 3, 10)
	cutoffCurve = interp.NewCurve(filter.MinCutoff, 120, 500, 1500, 4000, 9000, filter.MaxCutoff)
)

// KnobSeconds maps an envelope time knob to seconds.
func KnobSeconds(knob float32) float32 {
	return max(0, timeCurve.At(knob))
}

// KnobCutoff maps a cutoff knob to Hz.
func KnobCutoff(knob float32) float32 {
	return filter.ClampCutoff(cutoffCurve.At(knob))
}

// Operator holds the knobs of one operator.
type Operator struct {
	Level float32 // 0..1 output into the voice mix

	Coarse        float32 // semitones
	Fine          float32 // cents
	OctaveStretch float32
	Ratio         float32
	Detune        float32 // Hz

	PhaseOffset float32
	Feedback    float32

	// Time knobs, 0..1.
	Delay, Attack, Hold, Decay float32
	Sustain                    float32
	Release                    float32

	VelocitySensitivity float32
	KeyScaling          float32

	PhaseShaper      shape.Waveshaper
	PhaseShapeAmount float32
	WaveShaper       shape.Waveshaper
	WaveShapeAmount  float32
}

// VoiceSection is the voice amplitude envelope and filter.
type VoiceSection struct {
	Attack, Decay float32 // knobs
	Sustain       float32
	Release       float32 // knob

	FilterOn        bool
	FilterType      filter.FilterType
	Cutoff          float32 // knob
	Resonance       float32
	Keytrack        float32
	FilterEnvAmount float32

	FilterAttack, FilterDecay float32 // knobs
	FilterSustain             float32
	FilterRelease             float32 // knob
}

// Vibrato is a global pitch LFO. Depth is in semitones.
type Vibrato struct {
	Depth float32
	Rate  float32
}

type Patch struct {
	Operators [osc.Operators]Operator
	// ModDepth[i][j] is how far operator j's output pushes operator i's
	// phase, in cycles. The diagonal is ignored; use Feedback.
	ModDepth   [osc.Operators][osc.Operators]float32
	Voice      VoiceSection
	Vibrato    Vibrato
	MasterGain float32
}

// DefaultPatch is operator 0 as a plain sine with every other operator
// silent and unmodulated.
func DefaultPatch() Patch {
	var p Patch
	for i := range p.Operators {
		p.Operators[i] = Operator{
			OctaveStretch: 1,
			Ratio:         1,
			Sustain:       1,
			Release:       0.5,
		}
	}
	p.Operators[0].Level = 1
	p.Voice = VoiceSection{
		Sustain:       1,
		Release:       0.5,
		FilterType:    filter.Lowpass,
		Cutoff:        1,
		FilterSustain: 1,
		FilterRelease: 0.5,
	}
	p.MasterGain = 0.5
	return p
}

// Validate rejects non-finite values, knobs outside 0..1 and unknown
// shaper or filter kinds.
func (p *Patch) Validate() error {
	for i := range p.Operators {
		op := &p.Operators[i]
		if err := op.validate(); err != nil {
			return fmt.Errorf("%w: operator %d: %v", ErrInvalidPatch, i, err)
		}
	}
	for i := range p.ModDepth {
		for j, d := range p.ModDepth[i] {
			if !finite(d) {
				return fmt.Errorf("%w: mod depth [%d][%d] is %v", ErrInvalidPatch, i, j, d)
			}
		}
	}
	if err := p.Voice.validate(); err != nil {
		return fmt.Errorf("%w: voice: %v", ErrInvalidPatch, err)
	}
	if !finite(p.Vibrato.Depth) || !finite(p.Vibrato.Rate) || p.Vibrato.Rate < 0 {
		return fmt.Errorf("%w: vibrato depth %v rate %v", ErrInvalidPatch, p.Vibrato.Depth, p.Vibrato.Rate)
	}
	if !finite(p.MasterGain) || p.MasterGain < 0 {
		return fmt.Errorf("%w: master gain %v", ErrInvalidPatch, p.MasterGain)
	}
	return nil
}

func (op *Operator) validate() error {
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"coarse", op.Coarse},
		{"fine", op.Fine},
		{"octave stretch", op.OctaveStretch},
		{"ratio", op.Ratio},
		{"detune", op.Detune},
		{"phase offset", op.PhaseOffset},
		{"key scaling", op.KeyScaling},
	} {
		if !finite(f.v) {
			return fmt.Errorf("%s is %v", f.name, f.v)
		}
	}
	if op.OctaveStretch <= 0 {
		return fmt.Errorf("octave stretch %v must be positive", op.OctaveStretch)
	}
	if op.Ratio < 0 {
		return fmt.Errorf("ratio %v is negative", op.Ratio)
	}
	if op.Feedback < -1 || op.Feedback > 1 || !finite(op.Feedback) {
		return fmt.Errorf("feedback %v outside -1..1", op.Feedback)
	}
	if !op.PhaseShaper.Valid() || !op.WaveShaper.Valid() {
		return fmt.Errorf("unknown shaper %v/%v", op.PhaseShaper, op.WaveShaper)
	}
	return knobs(map[string]float32{
		"level":                op.Level,
		"delay":                op.Delay,
		"attack":               op.Attack,
		"hold":                 op.Hold,
		"decay":                op.Decay,
		"sustain":              op.Sustain,
		"release":              op.Release,
		"velocity sensitivity": op.VelocitySensitivity,
		"phase shape amount":   op.PhaseShapeAmount,
		"wave shape amount":    op.WaveShapeAmount,
	})
}

func (v *VoiceSection) validate() error {
	if !v.FilterType.Valid() {
		return fmt.Errorf("unknown filter type %v", v.FilterType)
	}
	if !finite(v.Keytrack) || !finite(v.FilterEnvAmount) {
		return fmt.Errorf("keytrack %v env amount %v", v.Keytrack, v.FilterEnvAmount)
	}
	return knobs(map[string]float32{
		"attack":         v.Attack,
		"decay":          v.Decay,
		"sustain":        v.Sustain,
		"release":        v.Release,
		"cutoff":         v.Cutoff,
		"resonance":      v.Resonance,
		"filter attack":  v.FilterAttack,
		"filter decay":   v.FilterDecay,
		"filter sustain": v.FilterSustain,
		"filter release": v.FilterRelease,
	})
}

func knobs(m map[string]float32) error {
	for name, v := range m {
		if !(v >= 0 && v <= 1) {
			return fmt.Errorf("%s %v outside 0..1", name, v)
		}
	}
	return nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// oscParams maps the operator knobs to the parameters the oscillators run on.
func (op *Operator) oscParams() osc.OscParams {
	return osc.OscParams{
		Gain:                op.Level,
		Coarse:              op.Coarse,
		Fine:                op.Fine,
		OctaveStretch:       op.OctaveStretch,
		FreqMult:            op.Ratio,
		HzDetune:            op.Detune,
		PhaseOffset:         op.PhaseOffset,
		Feedback:            op.Feedback,
		Delay:               KnobSeconds(op.Delay),
		Attack:              KnobSeconds(op.Attack),
		Hold:                KnobSeconds(op.Hold),
		Decay:               KnobSeconds(op.Decay),
		Sustain:             op.Sustain,
		Release:             KnobSeconds(op.Release),
		VelocitySensitivity: op.VelocitySensitivity,
		KeyScaling:          op.KeyScaling,
		PhaseShaper:         op.PhaseShaper,
		PhaseShapeAmount:    op.PhaseShapeAmount,
		WaveShaper:          op.WaveShaper,
		WaveShapeAmount:     op.WaveShapeAmount,
	}
}

func (v *VoiceSection) voiceParams(sampleRate float32) voice.Params {
	return voice.Params{
		SampleRate:      sampleRate,
		Attack:          KnobSeconds(v.Attack),
		Decay:           KnobSeconds(v.Decay),
		Sustain:         v.Sustain,
		Release:         KnobSeconds(v.Release),
		FilterOn:        v.FilterOn,
		FilterType:      v.FilterType,
		Cutoff:          KnobCutoff(v.Cutoff),
		Resonance:       v.Resonance,
		Keytrack:        v.Keytrack,
		FilterEnvAmount: v.FilterEnvAmount,
		FilterAttack:    KnobSeconds(v.FilterAttack),
		FilterDecay:     KnobSeconds(v.FilterDecay),
		FilterSustain:   v.FilterSustain,
		FilterRelease:   KnobSeconds(v.FilterRelease),
	}
}
