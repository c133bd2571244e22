package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cbegin/octofm-go/internal/filter"
	"github.com/cbegin/octofm-go/internal/shape"
)

var presets = map[string]func() Patch{
	"sine":   DefaultPatch,
	"epiano": epiano,
	"bass":   bass,
	"bell":   bell,
	"pad":    pad,
}

// Preset returns the named factory patch.
func Preset(name string) (Patch, error) {
	fn, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Patch{}, fmt.Errorf("unknown preset %q (expected %s)", name, strings.Join(PresetNames(), "|"))
	}
	return fn(), nil
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// epiano: two carrier/modulator pairs, the upper one a bright tine.
func epiano() Patch {
	p := DefaultPatch()
	p.Operators[0].Decay = 0.7
	p.Operators[0].Sustain = 0.3
	p.Operators[0].VelocitySensitivity = 0.6
	p.Operators[1] = Operator{Ratio: 1, OctaveStretch: 1, Decay: 0.55, Sustain: 0.2, Release: 0.4, VelocitySensitivity: 0.8}
	p.Operators[2] = Operator{Level: 0.3, Ratio: 1, OctaveStretch: 1, Fine: 4, Decay: 0.6, Sustain: 0.1, Release: 0.4}
	p.Operators[3] = Operator{Ratio: 14, OctaveStretch: 1, Decay: 0.35, Release: 0.3, VelocitySensitivity: 1, KeyScaling: -0.3}
	p.ModDepth[0][1] = 0.25
	p.ModDepth[2][3] = 0.08
	p.Voice.Release = 0.55
	p.MasterGain = 0.4
	return p
}

func bass() Patch {
	p := DefaultPatch()
	p.Operators[0].Decay = 0.6
	p.Operators[0].Sustain = 0.7
	p.Operators[1] = Operator{Ratio: 0.5, OctaveStretch: 1, Feedback: 0.3, Decay: 0.45, Sustain: 0.3, Release: 0.3}
	p.ModDepth[0][1] = 0.35
	p.Voice.FilterOn = true
	p.Voice.FilterType = filter.Lowpass
	p.Voice.Cutoff = 0.35
	p.Voice.Resonance = 0.4
	p.Voice.Keytrack = 0.5
	p.Voice.FilterEnvAmount = 0.2
	p.Voice.FilterDecay = 0.5
	p.Voice.FilterSustain = 0
	p.Voice.Release = 0.35
	p.MasterGain = 0.5
	return p
}

func bell() Patch {
	p := DefaultPatch()
	p.Operators[0].Decay = 0.85
	p.Operators[0].Sustain = 0
	p.Operators[0].Release = 0.75
	p.Operators[1] = Operator{Ratio: 3.5, OctaveStretch: 1, Decay: 0.8, Release: 0.7}
	p.Operators[2] = Operator{Level: 0.4, Ratio: 2, Detune: 1.5, OctaveStretch: 1, Decay: 0.8, Release: 0.7}
	p.Operators[3] = Operator{Ratio: 5.19, OctaveStretch: 1, Decay: 0.7, Release: 0.6}
	p.ModDepth[0][1] = 0.4
	p.ModDepth[2][3] = 0.3
	p.Voice.Release = 0.8
	p.MasterGain = 0.35
	return p
}

// pad shapes its carriers instead of modulating them.
func pad() Patch {
	p := DefaultPatch()
	for i := 0; i < 3; i++ {
		p.Operators[i] = Operator{
			Level:            0.3,
			Ratio:            1,
			OctaveStretch:    1,
			Fine:             float32(i-1) * 7,
			Attack:           0.7,
			Sustain:          1,
			Release:          0.75,
			PhaseShaper:      shape.BiasedPower,
			PhaseShapeAmount: 0.02,
			WaveShaper:       shape.Sine,
			WaveShapeAmount:  0.01,
		}
	}
	p.Voice.Attack = 0.7
	p.Voice.Release = 0.75
	p.Voice.FilterOn = true
	p.Voice.Cutoff = 0.55
	p.Vibrato = Vibrato{Depth: 0.08, Rate: 5}
	p.MasterGain = 0.4
	return p
}
