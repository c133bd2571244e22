package effects

import "math"

// Limiter keeps the master bus under a ceiling. The envelope follower
// attacks instantly and releases exponentially.
type Limiter struct {
	ceiling float32
	release float32 // coefficient
	makeup  float32
	env     float32
}

// NewLimiter creates a peak limiter.
// ceilingDB: maximum output level in dBFS, e.g. -1
// releaseMs: release time in ms
// makeupDB: gain applied before limiting
func NewLimiter(sampleRate int, ceilingDB, releaseMs, makeupDB float32) *Limiter {
	if releaseMs <= 0 {
		releaseMs = 1
	}
	return &Limiter{
		ceiling: dbToGain(min(ceilingDB, 0)),
		release: float32(1 - math.Exp(-1/(float64(releaseMs)*float64(sampleRate)/1000))),
		makeup:  dbToGain(makeupDB),
	}
}

func (l *Limiter) Process(x float32) float32 {
	x *= l.makeup
	a := x
	if a < 0 {
		a = -a
	}
	if a > l.env {
		l.env = a
	} else {
		l.env += l.release * (a - l.env)
	}
	if l.env > l.ceiling {
		x *= l.ceiling / l.env
	}
	return x
}

// GainReduction returns the current attenuation factor, 1 when idle.
func (l *Limiter) GainReduction() float32 {
	if l.env <= l.ceiling {
		return 1
	}
	return l.ceiling / l.env
}

func (l *Limiter) Reset() { l.env = 0 }

func dbToGain(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}
