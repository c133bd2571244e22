// Package envelope evaluates the delay/attack/hold/decay/sustain and release
// segments as pure functions of elapsed time. Times are in seconds.
package envelope

// ADS returns the held envelope at time t. Zero-length segments are skipped.
// Attack rises linearly from 0 to 1; decay falls from 1 to sustain along
// sustain + (1-sustain)*(1-u)^2.
func ADS(t, delay, attack, hold, decay, sustain float32) float32 {
	sustain = clamp01(sustain)
	if t < delay {
		return 0
	}
	t -= delay
	if t < attack {
		return t / attack
	}
	t -= attack
	if t < hold {
		return 1
	}
	t -= hold
	if t < decay {
		u := 1 - t/decay
		return sustain + (1-sustain)*u*u
	}
	return sustain
}

// Release returns the release curve t seconds after note-off, starting at
// level and reaching 0 at t == release.
func Release(t, release, level float32) float32 {
	if release <= 0 || t >= release || level <= 0 {
		return 0
	}
	if t < 0 {
		t = 0
	}
	u := 1 - t/release
	return level * u * u
}

// Lanes holds one ADS description per operator.
type Lanes struct {
	Delay, Attack, Hold, Decay, Sustain [8]float32
}

// ADS8 evaluates ADS on every lane. Each segment is computed for all lanes
// and chosen with a mask, so lanes can sit in different segments.
func ADS8(dst *[8]float32, t *[8]float32, l *Lanes) {
	for i := range dst {
		tt := t[i]
		d := l.Delay[i]
		a := l.Attack[i]
		h := l.Hold[i]
		dc := l.Decay[i]
		s := clamp01(l.Sustain[i])

		aEnd := d + a
		hEnd := aEnd + h
		dEnd := hEnd + dc

		attack := (tt - d) / nonZero(a)
		u := 1 - (tt-hEnd)/nonZero(dc)
		decay := s + (1-s)*u*u

		v := s
		v = sel(tt < dEnd, decay, v)
		v = sel(tt < hEnd, 1, v)
		v = sel(tt < aEnd, attack, v)
		v = sel(tt < d, 0, v)
		dst[i] = v
	}
}

// Release8 evaluates Release on every lane.
func Release8(dst *[8]float32, t, release, level *[8]float32) {
	for i := range dst {
		u := 1 - t[i]/nonZero(release[i])
		v := level[i] * u * u
		v = sel(t[i] >= release[i] || level[i] <= 0, 0, v)
		dst[i] = v
	}
}

func sel(mask bool, a, b float32) float32 {
	if mask {
		return a
	}
	return b
}

func nonZero(v float32) float32 {
	if v <= 0 {
		return 1
	}
	return v
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
