package lfo

import "math"

// Shape selects the LFO waveform.
type Shape uint8

const (
	ShapeSine Shape = iota
	ShapeTriangle
	ShapeSaw
	ShapeSquare
	ShapeRandom
)

// LFO is a global low-frequency oscillator. The synth advances it once per
// block, so it costs nothing per sample.
type LFO struct {
	depth   float32 // semitones for vibrato
	rateHz  float32
	shape   Shape
	phase   float64 // [0, 1)
	held    float32 // sample-and-hold value for ShapeRandom
	seed    uint32
	current float32
}

// Set configures the LFO. Unknown shapes fall back to sine.
func (l *LFO) Set(depth, rateHz float32, shape Shape) {
	l.depth = depth
	l.rateHz = rateHz
	if shape > ShapeRandom {
		shape = ShapeSine
	}
	l.shape = shape
}

// Advance moves the LFO forward by frames samples and returns its value in
// [-depth, +depth] at the start of those frames.
func (l *LFO) Advance(frames int, sampleRate float32) float32 {
	if !l.Active() || sampleRate <= 0 {
		l.current = 0
		return 0
	}
	l.current = l.value() * l.depth

	old := l.phase
	l.phase += float64(l.rateHz) * float64(frames) / float64(sampleRate)
	l.phase -= math.Floor(l.phase)
	if l.shape == ShapeRandom && (l.phase < old || float64(l.rateHz)*float64(frames)/float64(sampleRate) >= 1) {
		l.held = l.nextRandom()
	}
	return l.current
}

func (l *LFO) value() float32 {
	p := l.phase
	switch l.shape {
	case ShapeTriangle:
		if p < 0.5 {
			return float32(4*p - 1)
		}
		return float32(3 - 4*p)
	case ShapeSaw:
		return float32(1 - 2*p)
	case ShapeSquare:
		if p < 0.5 {
			return 1
		}
		return -1
	case ShapeRandom:
		return l.held
	default:
		return float32(math.Sin(2 * math.Pi * p))
	}
}

// nextRandom is a xorshift generator mapped to [-1, 1).
func (l *LFO) nextRandom() float32 {
	if l.seed == 0 {
		l.seed = 0x9E3779B9
	}
	l.seed ^= l.seed << 13
	l.seed ^= l.seed >> 17
	l.seed ^= l.seed << 5
	return float32(l.seed)/float32(math.MaxUint32)*2 - 1
}

// Value returns the value computed by the last Advance.
func (l *LFO) Value() float32 { return l.current }

// Active is true when the LFO has non-zero depth and rate.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset zeros the phase and the held value.
func (l *LFO) Reset() {
	l.phase = 0
	l.held = 0
	l.current = 0
}
