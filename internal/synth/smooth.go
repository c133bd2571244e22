package synth

// ramp moves linearly to its target over a fixed number of samples.
type ramp struct {
	value  float32
	target float32
	step   float32
	left   int
}

func (r *ramp) jump(v float32) {
	r.value, r.target, r.step, r.left = v, v, 0, 0
}

func (r *ramp) set(target float32, samples int) {
	if target == r.target && r.left == 0 {
		return
	}
	r.target = target
	if samples <= 0 {
		r.jump(target)
		return
	}
	r.left = samples
	r.step = (target - r.value) / float32(samples)
}

func (r *ramp) next() float32 {
	if r.left > 0 {
		r.left--
		if r.left == 0 {
			r.value = r.target
		} else {
			r.value += r.step
		}
	}
	return r.value
}

func (r *ramp) settled() bool { return r.left == 0 }
