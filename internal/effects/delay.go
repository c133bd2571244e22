package effects

// Delay is a feedback delay line with a damped repeat path.
type Delay struct {
	buf      []float32
	pos      int
	feedback float32
	damp     float32
	lp       float32
	wet      float32
}

// NewDelay creates a delay effect.
// delayMs: delay time in milliseconds
// feedback: feedback amount 0..0.95
// damp: lowpass on the repeats, 0 = bright, 1 = dark
// wet: wet/dry mix 0..1
func NewDelay(sampleRate int, delayMs float64, feedback, damp, wet float32) *Delay {
	samples := int(delayMs * float64(sampleRate) / 1000.0)
	if samples < 1 {
		samples = 1
	}
	return &Delay{
		buf:      make([]float32, samples),
		feedback: clamp(feedback, 0, 0.95),
		damp:     clamp(damp, 0, 0.99),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) Process(x float32) float32 {
	del := d.buf[d.pos]
	d.lp += (1 - d.damp) * (del - d.lp)
	d.buf[d.pos] = x + d.lp*d.feedback
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
	return x*(1-d.wet) + del*d.wet
}

func (d *Delay) Reset() {
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.pos = 0
	d.lp = 0
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
