package effects

import "math"

// Distortion is tanh saturation with pre and post gain and an optional
// one-pole lowpass on the output.
type Distortion struct {
	preGain  float32
	postGain float32
	lpfAlpha float32
	lp       float32
}

// NewDistortion creates a distortion effect.
// preGain: input drive, higher is dirtier
// postGain: output level
// lpfCutoff: lowpass cutoff in Hz, 0 disables it
func NewDistortion(sampleRate int, preGain, postGain, lpfCutoff float32) *Distortion {
	d := &Distortion{
		preGain:  preGain,
		postGain: postGain,
	}
	if lpfCutoff > 0 && lpfCutoff < float32(sampleRate)/2 {
		d.lpfAlpha = onePole(float64(lpfCutoff), sampleRate)
	}
	return d
}

func (d *Distortion) Process(x float32) float32 {
	y := float32(math.Tanh(float64(x*d.preGain))) * d.postGain
	if d.lpfAlpha > 0 {
		d.lp += d.lpfAlpha * (y - d.lp)
		y = d.lp
	}
	return y
}

func (d *Distortion) Reset() { d.lp = 0 }

// onePole returns the smoothing coefficient of an RC lowpass at cutoff Hz.
func onePole(cutoff float64, sampleRate int) float32 {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	dt := 1.0 / float64(sampleRate)
	return float32(dt / (rc + dt))
}
