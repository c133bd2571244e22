// Package filter implements the per-voice two-pole state-variable filter
// (Simper/Cytomic trapezoidal topology).
package filter

import (
	"fmt"
	"math"
	"strings"
)

type FilterType uint8

const (
	Lowpass FilterType = iota
	Bandpass
	Highpass
)

func (t FilterType) String() string {
	switch t {
	case Lowpass:
		return "lowpass"
	case Bandpass:
		return "bandpass"
	case Highpass:
		return "highpass"
	}
	return fmt.Sprintf("filter(%d)", uint8(t))
}

func (t FilterType) Valid() bool { return t <= Highpass }

// ParseFilterType accepts the String names plus lp/bp/hp.
func ParseFilterType(name string) (FilterType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lowpass", "lp", "low":
		return Lowpass, nil
	case "bandpass", "bp", "band":
		return Bandpass, nil
	case "highpass", "hp", "high":
		return Highpass, nil
	}
	return Lowpass, fmt.Errorf("unknown filter type %q", name)
}

const (
	MinCutoff = 20
	MaxCutoff = 22000
)

// SvfSimper keeps both integrator states across coefficient changes, so a
// moving cutoff never clicks.
type SvfSimper struct {
	Type FilterType

	a1, a2, a3, k float32
	ic1eq, ic2eq  float32

	cutoff, resonance, sampleRate float32
}

func New(t FilterType, cutoff, resonance, sampleRate float32) SvfSimper {
	f := SvfSimper{Type: t}
	f.SetParams(cutoff, resonance, sampleRate)
	return f
}

// SetParams recomputes the coefficients. The cutoff is kept inside
// (0, 0.49*fs] so tan stays finite.
func (f *SvfSimper) SetParams(cutoff, resonance, sampleRate float32) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	maxCut := 0.49 * sampleRate
	if cutoff > maxCut {
		cutoff = maxCut
	}
	if cutoff < 1 {
		cutoff = 1
	}
	resonance = clamp(resonance, 0, 1)
	f.cutoff, f.resonance, f.sampleRate = cutoff, resonance, sampleRate

	g := float32(math.Tan(math.Pi * float64(cutoff) / float64(sampleRate)))
	f.k = 2 - 1.9*resonance
	f.a1 = 1 / (1 + g*(g+f.k))
	f.a2 = g * f.a1
	f.a3 = g * f.a2
}

// Params returns the values the coefficients were last derived from.
func (f *SvfSimper) Params() (cutoff, resonance, sampleRate float32) {
	return f.cutoff, f.resonance, f.sampleRate
}

func (f *SvfSimper) Process(x float32) float32 {
	v3 := x - f.ic2eq
	v1 := f.a1*f.ic1eq + f.a2*v3
	v2 := f.ic2eq + f.a2*f.ic1eq + f.a3*v3
	f.ic1eq = 2*v1 - f.ic1eq
	f.ic2eq = 2*v2 - f.ic2eq
	switch f.Type {
	case Bandpass:
		return v1
	case Highpass:
		return x - f.k*v1 - v2
	default:
		return v2
	}
}

func (f *SvfSimper) Reset() {
	f.ic1eq = 0
	f.ic2eq = 0
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

// ClampCutoff limits a cutoff to the audible range.
func ClampCutoff(hz float32) float32 {
	if hz != hz {
		return MinCutoff
	}
	return clamp(hz, MinCutoff, MaxCutoff)
}
