package osc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/octofm-go/internal/shape"
)

const sr = 44100

func sineBatch() OscParamsBatch {
	var ops [Operators]OscParams
	for i := range ops {
		ops[i] = DefaultOscParams()
		ops[i].Gain = 0
	}
	ops[0].Gain = 1
	return Transpose(&ops)
}

func TestPitch(t *testing.T) {
	assert.InDelta(t, 440, Pitch(69, 0, 0, 1, 1, 0), 1e-3)
	assert.InDelta(t, 880, Pitch(69, 12, 0, 1, 1, 0), 1e-2)
	assert.InDelta(t, 440, Pitch(57, 0, 0, 1, 2, 0), 1e-2)
	assert.InDelta(t, 880, Pitch(69, 0, 0, 1, 2, 0), 1e-2)
	assert.InDelta(t, 440*math.Exp2(0.5/12), Pitch(69, 0, 50, 1, 1, 0), 1e-2)
	// Octave stretch 2 makes 12 semitones two octaves.
	assert.InDelta(t, 1760, Pitch(81, 0, 0, 2, 1, 0), 0.05)
	assert.InDelta(t, 445, Pitch(69, 0, 0, 1, 1, 5), 1e-3)
	assert.Equal(t, float32(0), Pitch(69, 0, 0, 1, 1, -10000))
	assert.Equal(t, float32(0), Pitch(69, 0, 0, 1, 0, 0))
}

func TestTransposeMovesFieldsIntoLanes(t *testing.T) {
	var ops [Operators]OscParams
	for i := range ops {
		ops[i] = DefaultOscParams()
		ops[i].Coarse = float32(i)
		ops[i].Feedback = 3
		ops[i].Attack = -1
		ops[i].PhaseShaper = shape.Power
		ops[i].PhaseShapeAmount = 0.5
		ops[i].WaveShapeAmount = 1
	}
	b := Transpose(&ops)
	for i := 0; i < Operators; i++ {
		assert.Equal(t, float32(i), b.Coarse[i])
		assert.Equal(t, float32(1), b.Feedback[i], "feedback clamps")
		assert.Equal(t, float32(0), b.Env.Attack[i], "negative times clamp")
		assert.Equal(t, shape.Power, b.PhaseShaper[i])
		assert.InDelta(t, 51, b.PhaseShapeAmount[i], 1e-5)
		assert.InDelta(t, 100, b.WaveShapeAmount[i], 1e-5)
		assert.Equal(t, float32(1), b.Env.Sustain[i])
	}
}

func TestPhaseStaysInUnitInterval(t *testing.T) {
	p := sineBatch()
	for i := range p.Feedback {
		p.Feedback[i] = float32(i%3) - 1
		p.Gain[i] = 1
		p.Coarse[i] = float32(i * 7)
	}
	var b Batch
	b.Start(100, 1, &p)
	pm := [Operators]float32{-3.7, 12.2, 0.5, -0.0000001, 1e-9, 7, -100.25, 0.999999}
	var out [Operators]float32
	for n := 0; n < 20000; n++ {
		b.Step(&out, &p, &pm, sr)
		for i, ph := range b.Phase() {
			require.GreaterOrEqual(t, ph, float32(0), "lane %d", i)
			require.Less(t, ph, float32(1), "lane %d", i)
		}
	}
}

func TestWrap(t *testing.T) {
	for _, x := range []float32{0, 0.5, 1, 2.25, -0.25, -1e-9, -7.5, 1e7 + 0.5} {
		w := wrap(x)
		assert.GreaterOrEqual(t, w, float32(0), "x=%v", x)
		assert.Less(t, w, float32(1), "x=%v", x)
	}
	assert.InDelta(t, 0.75, wrap(-0.25), 1e-6)
	assert.InDelta(t, 0.25, wrap(2.25), 1e-6)
}

func TestSingleOperatorIsSine(t *testing.T) {
	p := sineBatch()
	var b Batch
	b.Start(69, 1, &p)
	var pm, out [Operators]float32
	for n := 0; n < 1000; n++ {
		b.Step(&out, &p, &pm, sr)
		want := math.Sin(2 * math.Pi * 440 * float64(n) / sr)
		require.InDelta(t, want, out[0], 1e-3, "sample %d", n)
		for i := 1; i < Operators; i++ {
			require.Zero(t, out[i])
		}
	}
}

func TestFeedbackChangesWaveButStaysFinite(t *testing.T) {
	for _, fb := range []float32{-1, -0.5, 0.5, 1} {
		p := sineBatch()
		p.Feedback[0] = fb
		ref := sineBatch()
		var a, r Batch
		a.Start(60, 1, &p)
		r.Start(60, 1, &ref)
		var pm, oa, or [Operators]float32
		var diff float64
		for n := 0; n < 4000; n++ {
			a.Step(&oa, &p, &pm, sr)
			r.Step(&or, &ref, &pm, sr)
			require.False(t, math.IsNaN(float64(oa[0])))
			require.LessOrEqual(t, math.Abs(float64(oa[0])), 1.0+1e-6)
			diff += math.Abs(float64(oa[0] - or[0]))
		}
		assert.Greater(t, diff, 1.0, "feedback %v", fb)
	}
}

func TestVelocityAndKeyScaling(t *testing.T) {
	p := sineBatch()
	p.VelocitySensitivity[0] = 1
	p.KeyScaling[0] = -1
	var b Batch
	b.Start(81, 0.5, &p)
	// half velocity, one octave up at -1 per octave
	assert.InDelta(t, 0.25, b.gain[0], 1e-6)

	p.VelocitySensitivity[0] = 0
	b.UpdateGain(&p)
	assert.InDelta(t, 0.5, b.gain[0], 1e-6)
}

func TestReleaseIsContinuousAndFinishes(t *testing.T) {
	p := sineBatch()
	for i := range p.Env.Attack {
		p.Env.Attack[i] = 0.01
		p.Env.Decay[i] = 0.05
		p.Env.Sustain[i] = 0.6
		p.Release[i] = 0.1
	}
	var b Batch
	b.Start(69, 1, &p)
	var pm, out, env [Operators]float32
	for n := 0; n < 900; n++ {
		b.Step(&out, &p, &pm, sr)
	}
	b.Envelope(&env, &p, sr)
	before := env[0]
	b.Release(&p, sr)
	assert.True(t, b.Released())
	b.Envelope(&env, &p, sr)
	assert.InDelta(t, before, env[0], 1e-6)

	// releasing again keeps the first snapshot
	b.Step(&out, &p, &pm, sr)
	b.Release(&p, sr)
	assert.InDelta(t, before, b.releaseLevel[0], 1e-6)

	assert.False(t, b.IsDone(&p, sr))
	for n := 0; n < int(0.1*sr); n++ {
		b.Step(&out, &p, &pm, sr)
	}
	assert.True(t, b.IsDone(&p, sr))
	b.Envelope(&env, &p, sr)
	for i := range env {
		assert.Zero(t, env[i])
	}
}

func TestIsDoneWaitsForSlowestLane(t *testing.T) {
	p := sineBatch()
	p.Release[3] = 0.5
	var b Batch
	b.Start(69, 1, &p)
	var pm, out [Operators]float32
	b.Release(&p, sr)
	for n := 0; n < int(0.2*sr)+1; n++ {
		b.Step(&out, &p, &pm, sr)
	}
	assert.False(t, b.IsDone(&p, sr))
	for n := 0; n < int(0.3*sr); n++ {
		b.Step(&out, &p, &pm, sr)
	}
	assert.True(t, b.IsDone(&p, sr))
}

func TestZeroFrequencyIsStable(t *testing.T) {
	p := sineBatch()
	p.FreqMult[0] = 0
	var b Batch
	b.Start(69, 1, &p)
	var pm, out [Operators]float32
	for n := 0; n < 100; n++ {
		b.Step(&out, &p, &pm, sr)
		require.Zero(t, out[0])
	}
	assert.Zero(t, b.Frequency()[0])
}

func BenchmarkBatchStep(b *testing.B) {
	var ops [Operators]OscParams
	for i := range ops {
		ops[i] = DefaultOscParams()
		ops[i].Feedback = 0.3
		ops[i].WaveShaper = shape.Power
	}
	p := Transpose(&ops)
	var batch Batch
	batch.Start(60, 1, &p)
	var pm, out [Operators]float32
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		batch.Step(&out, &p, &pm, sr)
	}
}
