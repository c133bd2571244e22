package synth

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/octofm-go/internal/analysis"
	"github.com/cbegin/octofm-go/internal/shape"
)

const sr = 44100

func newEngine(t testing.TB, p Patch) *Engine {
	t.Helper()
	e, err := New(sr, p)
	require.NoError(t, err)
	return e
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(0, DefaultPatch())
	assert.ErrorIs(t, err, ErrInvalidSampleRate)

	p := DefaultPatch()
	p.MasterGain = -1
	_, err = New(sr, p)
	assert.ErrorIs(t, err, ErrInvalidPatch)
}

func TestValidate(t *testing.T) {
	nan := float32(math.NaN())
	cases := []struct {
		name   string
		mutate func(p *Patch)
	}{
		{"nan coarse", func(p *Patch) { p.Operators[3].Coarse = nan }},
		{"attack knob above one", func(p *Patch) { p.Operators[0].Attack = 1.5 }},
		{"negative level", func(p *Patch) { p.Operators[1].Level = -0.1 }},
		{"feedback out of range", func(p *Patch) { p.Operators[0].Feedback = 2 }},
		{"unknown shaper", func(p *Patch) { p.Operators[0].WaveShaper = shape.Waveshaper(200) }},
		{"zero octave stretch", func(p *Patch) { p.Operators[0].OctaveStretch = 0 }},
		{"inf mod depth", func(p *Patch) { p.ModDepth[1][0] = float32(math.Inf(1)) }},
		{"resonance above one", func(p *Patch) { p.Voice.Resonance = 1.2 }},
		{"negative vibrato rate", func(p *Patch) { p.Vibrato.Rate = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPatch()
			tc.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPatch))
		})
	}

	p := DefaultPatch()
	assert.NoError(t, p.Validate())
}

func TestKnobCurves(t *testing.T) {
	assert.Zero(t, KnobSeconds(0))
	assert.InDelta(t, 0.25, KnobSeconds(0.5), 1e-6)
	assert.InDelta(t, 10, KnobSeconds(1), 1e-6)
	for k := float32(0); k <= 1; k += 0.01 {
		assert.GreaterOrEqual(t, KnobSeconds(k), float32(0))
		c := KnobCutoff(k)
		assert.GreaterOrEqual(t, c, float32(20))
		assert.LessOrEqual(t, c, float32(22000))
	}
}

func TestDefaultPatchPlays440(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	e.NoteOn(69, 1)

	out := make([]float32, sr)
	e.Process(out)

	assert.InDelta(t, 880, analysis.ZeroCrossings(out), 2)
	assert.InDelta(t, 440, analysis.DominantFrequency(out[:16384], sr), 1.5)
	assert.InDelta(t, 0.5, analysis.Peak(out), 1e-3)
	assert.True(t, analysis.Finite(out))
}

func TestModulationAddsSidebands(t *testing.T) {
	pure := newEngine(t, DefaultPatch())

	p := DefaultPatch()
	p.Operators[1].Ratio = 2
	p.ModDepth[0][1] = 1
	fm := newEngine(t, p)

	a := make([]float32, 8192)
	b := make([]float32, 8192)
	pure.NoteOn(69, 1)
	fm.NoteOn(69, 1)
	pure.Process(a)
	fm.Process(b)

	pureBand := analysis.BandEnergy(a, sr, 1200, 6000)
	fmBand := analysis.BandEnergy(b, sr, 1200, 6000)
	assert.Greater(t, fmBand, 10*pureBand+1)
	assert.True(t, analysis.Finite(b))
}

func TestScheduledEventsAreSampleAccurate(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	require.NoError(t, e.Schedule(Event{Offset: 100, Kind: NoteOn, Note: 69, Velocity: 1}))

	out := make([]float32, 256)
	e.Process(out)
	for i := 0; i < 100; i++ {
		require.Zerof(t, out[i], "sample %d before the note", i)
	}
	assert.Greater(t, analysis.Peak(out[100:]), float32(0))
}

func TestScheduledEventsCarryAcrossCalls(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	require.NoError(t, e.Schedule(Event{Offset: 300, Kind: NoteOn, Note: 60, Velocity: 1}))

	out := make([]float32, 256)
	e.Process(out)
	assert.Zero(t, analysis.Peak(out))
	assert.Equal(t, 1, e.PendingEvents())

	e.Process(out)
	assert.Zero(t, analysis.Peak(out[:44]))
	assert.Greater(t, analysis.Peak(out[45:]), float32(0))
	assert.Zero(t, e.PendingEvents())
}

func TestScheduleKeepsOffsetOrder(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	require.NoError(t, e.Schedule(Event{Offset: 50, Kind: NoteOff, Note: 64}))
	require.NoError(t, e.Schedule(Event{Offset: 10, Kind: NoteOn, Note: 64, Velocity: 0.8}))

	out := make([]float32, 64)
	e.Process(out)

	v := e.Voices().Voice(0)
	require.NotNil(t, v)
	assert.True(t, v.Released())
	assert.Equal(t, uint32(54), v.Time())
}

func TestScheduleQueueFull(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	for i := 0; i < maxEvents; i++ {
		require.NoError(t, e.Schedule(Event{Offset: i, Kind: NoteOff, Note: 1}))
	}
	assert.ErrorIs(t, e.Schedule(Event{Kind: NoteOff}), ErrQueueFull)
	assert.Equal(t, uint64(1), e.Stats().Dropped)
}

func TestNoteOffCullsAfterRelease(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	e.NoteOn(60, 1)
	buf := make([]float32, 1000)
	e.Process(buf)
	require.Equal(t, 1, e.ActiveVoiceCount())

	e.NoteOff(60)
	assert.Equal(t, 1, e.ActiveVoiceCount(), "note off only starts the release")

	tail := make([]float32, int(0.25*sr)+128)
	e.Process(tail)
	assert.Zero(t, e.ActiveVoiceCount())
}

func TestZeroVelocityNoteOnReleases(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	e.NoteOn(60, 1)
	require.NoError(t, e.Schedule(Event{Kind: NoteOn, Note: 60}))
	e.Process(make([]float32, 8))
	v := e.Voices().Voice(0)
	require.NotNil(t, v)
	assert.True(t, v.Released())
}

func TestAllNotesOff(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	for n := uint8(60); n < 64; n++ {
		e.NoteOn(n, 1)
	}
	e.AllNotesOff()
	for i := 0; i < 4; i++ {
		assert.True(t, e.Voices().Voice(i).Released())
	}
}

func TestStatsCountSteals(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	for n := 0; n < 33; n++ {
		e.NoteOn(uint8(30+n), 1)
	}
	e.Process(make([]float32, 128))
	s := e.Stats()
	assert.Equal(t, 32, s.ActiveVoices)
	assert.Equal(t, uint64(1), s.Steals)
	assert.Equal(t, uint64(2), s.Blocks)
	assert.Equal(t, uint64(128), s.Frames)
}

func TestMasterGainRampsToSilence(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	e.NoteOn(69, 1)
	e.Process(make([]float32, 512))

	e.SetMasterGain(0)
	ramp := make([]float32, int(SmoothingSeconds*sr))
	e.Process(ramp)
	assert.Greater(t, analysis.Peak(ramp[:100]), analysis.Peak(ramp[len(ramp)-100:]))

	out := make([]float32, 256)
	e.Process(out)
	assert.Zero(t, analysis.Peak(out))
	assert.Zero(t, e.MasterGain())
}

func TestModDepthIsSmoothed(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	p := DefaultPatch()
	p.ModDepth[0][1] = 0.5
	p.ModDepth[2][2] = 1
	require.NoError(t, e.SetPatch(p))

	e.Process(make([]float32, 1))
	m := e.Matrix()
	assert.Greater(t, m[0][1], float32(0))
	assert.Less(t, m[0][1], float32(0.5))

	e.Process(make([]float32, int(SmoothingSeconds*sr)))
	m = e.Matrix()
	assert.InDelta(t, 0.5, m[0][1], 1e-6)
	assert.Zero(t, m[2][2], "diagonal is feedback, not matrix")
}

func TestNewAppliesDepthsWithoutRamp(t *testing.T) {
	p := DefaultPatch()
	p.ModDepth[0][1] = 0.5
	e := newEngine(t, p)
	m := e.Matrix()
	assert.Equal(t, float32(0.5), m[0][1])
}

func TestSetPatchRejectsInvalid(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	bad := DefaultPatch()
	bad.Voice.Cutoff = 2
	assert.ErrorIs(t, e.SetPatch(bad), ErrInvalidPatch)
	assert.Equal(t, float32(1), e.Patch().Voice.Cutoff)
}

func TestVibratoRaisesPitch(t *testing.T) {
	p := DefaultPatch()
	p.Vibrato = Vibrato{Depth: 12, Rate: 0.25}
	e := newEngine(t, p)
	e.NoteOn(69, 1)

	out := make([]float32, sr)
	e.Process(out)
	f := analysis.DominantFrequency(out[len(out)-4096:], sr)
	assert.InDelta(t, 877, f, 20)
}

func TestRenderFrameMatchesProcess(t *testing.T) {
	a := newEngine(t, DefaultPatch())
	b := newEngine(t, DefaultPatch())
	a.NoteOn(57, 0.7)
	b.NoteOn(57, 0.7)

	block := make([]float32, 500)
	a.Process(block)
	for i := range block {
		require.InDelta(t, block[i], b.RenderFrame(), 1e-6, "sample %d", i)
	}
}

func TestSetBlockSizeClamps(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	e.SetBlockSize(0)
	assert.Equal(t, 1, e.BlockSize())
	e.SetBlockSize(1 << 20)
	assert.Equal(t, MaxBlockSize, e.BlockSize())
}

func TestResetSilences(t *testing.T) {
	e := newEngine(t, DefaultPatch())
	e.NoteOn(60, 1)
	require.NoError(t, e.Schedule(Event{Offset: 10, Kind: NoteOn, Note: 62, Velocity: 1}))
	e.Reset()
	out := make([]float32, 64)
	e.Process(out)
	assert.Zero(t, analysis.Peak(out))
	assert.Zero(t, e.ActiveVoiceCount())
}

func BenchmarkEngineProcess8Voices(b *testing.B) {
	p := DefaultPatch()
	for i := range p.Operators {
		p.Operators[i].Level = 0.2
		p.Operators[i].Ratio = float32(i + 1)
		if i > 0 {
			p.ModDepth[i-1][i] = 0.3
		}
	}
	e := newEngine(b, p)
	for n := uint8(48); n < 56; n++ {
		e.NoteOn(n, 1)
	}
	buf := make([]float32, 512)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Process(buf)
	}
}
