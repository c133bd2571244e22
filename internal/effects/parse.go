package effects

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse builds a chain from a description such as
//
//	"dist 4,0.5,8000; delay 250,0.4,0.3,0.25; limit -1,80"
//
// Each entry is an effect name followed by comma separated parameters.
// Missing parameters take their defaults. An empty description is an
// empty chain.
func Parse(desc string, sampleRate int) (*Chain, error) {
	chain := NewChain()
	for _, entry := range strings.Split(desc, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, rest, _ := strings.Cut(entry, " ")
		var params []float64
		if rest = strings.TrimSpace(rest); rest != "" {
			for _, p := range strings.Split(rest, ",") {
				v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
				if err != nil {
					return nil, fmt.Errorf("effect %q: %w", name, err)
				}
				params = append(params, v)
			}
		}
		eff, err := create(strings.ToLower(name), params, sampleRate)
		if err != nil {
			return nil, err
		}
		chain.Add(eff)
	}
	return chain, nil
}

func create(name string, params []float64, sampleRate int) (Effector, error) {
	param := func(idx int, def float64) float32 {
		if idx < len(params) {
			return float32(params[idx])
		}
		return float32(def)
	}
	switch name {
	case "delay":
		ms := 250.0
		if len(params) > 0 {
			ms = params[0]
		}
		return NewDelay(sampleRate, ms,
			param(1, 0.4),  // feedback
			param(2, 0.3),  // damp
			param(3, 0.25), // wet
		), nil
	case "reverb":
		return NewReverb(sampleRate,
			param(0, 0.5),  // room size
			param(1, 0.7),  // feedback
			param(2, 0.3),  // damp
			param(3, 0.25), // wet
		), nil
	case "dist", "distortion":
		return NewDistortion(sampleRate,
			param(0, 4),    // pre gain
			param(1, 0.5),  // post gain
			param(2, 8000), // lpf cutoff
		), nil
	case "limit", "limiter":
		return NewLimiter(sampleRate,
			param(0, -1), // ceiling dB
			param(1, 80), // release ms
			param(2, 0),  // makeup dB
		), nil
	case "eq":
		eq := NewEQ5Band(sampleRate)
		for i := range params {
			eq.SetGain(i, float32(params[i]))
		}
		return eq, nil
	}
	return nil, fmt.Errorf("unknown effect %q", name)
}
