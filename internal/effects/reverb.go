package effects

// Reverb is a mono Schroeder reverb: four damped combs in parallel feeding
// two allpasses in series.
type Reverb struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
	wet     float32
}

type combFilter struct {
	buf  []float32
	pos  int
	fb   float32
	damp float32
	lp   float32
}

type allpassFilter struct {
	buf []float32
	pos int
	fb  float32
}

var (
	combRatios    = [4]int{1000, 1117, 1271, 1437}
	allpassRatios = [2]int{347, 213}
)

// NewReverb creates a reverb effect.
// roomSize: 0..1 scales the delay lengths
// feedback: 0..0.95 sets the decay time
// damp: 0..1 high frequency loss inside the combs
// wet: wet/dry mix 0..1
func NewReverb(sampleRate int, roomSize, feedback, damp, wet float32) *Reverb {
	base := max(int(float32(sampleRate)*clamp(roomSize, 0, 1)*0.05), 10)
	r := &Reverb{wet: clamp(wet, 0, 1)}
	for i := range r.combs {
		r.combs[i] = combFilter{
			buf:  make([]float32, base*combRatios[i]/1000),
			fb:   clamp(feedback, 0, 0.95),
			damp: clamp(damp, 0, 0.99),
		}
	}
	for i := range r.allpass {
		r.allpass[i] = allpassFilter{
			buf: make([]float32, max(base*allpassRatios[i]/1000, 1)),
			fb:  0.5,
		}
	}
	return r
}

func (r *Reverb) Process(x float32) float32 {
	var out float32
	for i := range r.combs {
		out += r.combs[i].process(x)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].process(out)
	}
	return x*(1-r.wet) + out*r.wet
}

func (r *Reverb) Reset() {
	for i := range r.combs {
		clear(r.combs[i].buf)
		r.combs[i].pos = 0
		r.combs[i].lp = 0
	}
	for i := range r.allpass {
		clear(r.allpass[i].buf)
		r.allpass[i].pos = 0
	}
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.lp += (1 - c.damp) * (out - c.lp)
	c.buf[c.pos] = in + c.lp*c.fb
	if c.pos++; c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	a.buf[a.pos] = in + bufOut*a.fb
	if a.pos++; a.pos >= len(a.buf) {
		a.pos = 0
	}
	return bufOut - in
}
