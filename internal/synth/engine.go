// Package synth drives the voice pool: it owns the patch, smooths the
// modulation depths and master gain, schedules note events inside a block
// and renders mono audio.
package synth

import (
	"errors"
	"fmt"

	"github.com/tphakala/simd/f32"

	"github.com/cbegin/octofm-go/internal/lfo"
	"github.com/cbegin/octofm-go/internal/osc"
	"github.com/cbegin/octofm-go/internal/voice"
)

const (
	DefaultBlockSize = 64
	MaxBlockSize     = 4096

	// SmoothingSeconds is how long mod depth and master gain changes ramp.
	SmoothingSeconds = 0.01

	maxEvents = 512
)

var (
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrQueueFull         = errors.New("event queue full")
)

type EventKind uint8

const (
	NoteOn EventKind = iota
	NoteOff
	AllNotesOff
)

// Event is a note event Offset samples into the next Process call.
type Event struct {
	Offset   int
	Kind     EventKind
	Note     uint8
	Velocity float32
}

// Stats is a snapshot of engine counters.
type Stats struct {
	ActiveVoices int
	Steals       uint64
	Blocks       uint64
	Frames       uint64
	Dropped      uint64
}

type Engine struct {
	sampleRate float32
	blockSize  int
	smoothing  int

	patch Patch
	ops   [osc.Operators]osc.OscParams
	batch osc.OscParamsBatch
	vp    voice.Params

	voices voice.List
	depth  [osc.Operators][osc.Operators]ramp
	pm     voice.Matrix
	gain   ramp

	vibrato lfo.LFO

	events []Event

	blocks  uint64
	frames  uint64
	dropped uint64
}

// New returns an engine rendering patch at sampleRate.
func New(sampleRate int, patch Patch) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		sampleRate: float32(sampleRate),
		blockSize:  DefaultBlockSize,
		smoothing:  int(SmoothingSeconds * float32(sampleRate)),
		events:     make([]Event, 0, maxEvents),
	}
	e.applyPatch(&patch)
	for i := range e.depth {
		for j := range e.depth[i] {
			e.depth[i][j].jump(e.depthTarget(i, j))
		}
	}
	e.gain.jump(patch.MasterGain)
	e.buildMatrix()
	return e, nil
}

// SetPatch swaps in a new patch. Operator and voice parameters apply from
// the next block; modulation depths and master gain ramp over
// SmoothingSeconds.
func (e *Engine) SetPatch(patch Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	e.applyPatch(&patch)
	for i := range e.depth {
		for j := range e.depth[i] {
			e.depth[i][j].set(e.depthTarget(i, j), e.smoothing)
		}
	}
	e.gain.set(patch.MasterGain, e.smoothing)
	return nil
}

func (e *Engine) applyPatch(p *Patch) {
	e.patch = *p
	for i := range p.Operators {
		e.ops[i] = p.Operators[i].oscParams()
	}
	osc.TransposeInto(&e.batch, &e.ops)
	e.vp = p.Voice.voiceParams(e.sampleRate)
	e.vibrato.Set(p.Vibrato.Depth, p.Vibrato.Rate, lfo.ShapeSine)
}

func (e *Engine) depthTarget(i, j int) float32 {
	if i == j {
		return 0
	}
	return e.patch.ModDepth[i][j]
}

func (e *Engine) Patch() Patch { return e.patch }

// SetMasterGain ramps the output gain to gain.
func (e *Engine) SetMasterGain(gain float32) {
	if gain < 0 || gain != gain {
		gain = 0
	}
	e.patch.MasterGain = gain
	e.gain.set(gain, e.smoothing)
}

func (e *Engine) MasterGain() float32 { return e.patch.MasterGain }

// SetBlockSize sets how many samples share one parameter transpose and
// block update. It is clamped to 1..MaxBlockSize.
func (e *Engine) SetBlockSize(n int) {
	e.blockSize = max(1, min(n, MaxBlockSize))
}

func (e *Engine) BlockSize() int { return e.blockSize }

func (e *Engine) SampleRate() int { return int(e.sampleRate) }

// NoteOn starts note immediately. Velocity is 0..1.
func (e *Engine) NoteOn(note uint8, velocity float32) {
	e.voices.AddVoice(note, &e.batch, velocity, &e.vp)
}

// NoteOff releases every voice playing note.
func (e *Engine) NoteOff(note uint8) {
	e.voices.ReleaseVoice(note, &e.batch, &e.vp)
}

// AllNotesOff releases every sounding voice.
func (e *Engine) AllNotesOff() {
	for i := 0; i < voice.Capacity; i++ {
		if v := e.voices.Voice(i); v != nil {
			v.Release(&e.batch, &e.vp)
		}
	}
}

// Reset silences the engine at once and drops pending events.
func (e *Engine) Reset() {
	e.voices.Reset()
	e.vibrato.Reset()
	e.events = e.events[:0]
}

// Schedule queues ev for the next Process call. Events keep their order
// within the same offset. Negative offsets mean the first sample.
func (e *Engine) Schedule(ev Event) error {
	if len(e.events) == cap(e.events) {
		e.dropped++
		return ErrQueueFull
	}
	if ev.Offset < 0 {
		ev.Offset = 0
	}
	i := len(e.events)
	e.events = append(e.events, ev)
	for i > 0 && e.events[i-1].Offset > ev.Offset {
		e.events[i] = e.events[i-1]
		i--
	}
	e.events[i] = ev
	return nil
}

// PendingEvents is the number of scheduled events not yet applied.
func (e *Engine) PendingEvents() int { return len(e.events) }

func (e *Engine) apply(ev Event) {
	switch ev.Kind {
	case NoteOn:
		if ev.Velocity <= 0 {
			e.NoteOff(ev.Note)
			return
		}
		e.NoteOn(ev.Note, ev.Velocity)
	case NoteOff:
		e.NoteOff(ev.Note)
	case AllNotesOff:
		e.AllNotesOff()
	}
}

// Process renders len(dst) mono samples.
func (e *Engine) Process(dst []float32) {
	for len(dst) > 0 {
		n := min(len(dst), e.blockSize)
		e.processBlock(dst[:n])
		dst = dst[n:]
	}
}

// RenderFrame renders one sample as a block of its own.
func (e *Engine) RenderFrame() float32 {
	var buf [1]float32
	e.processBlock(buf[:])
	return buf[0]
}

func (e *Engine) processBlock(dst []float32) {
	osc.TransposeInto(&e.batch, &e.ops)
	if vib := e.vibrato.Advance(len(dst), e.sampleRate); vib != 0 {
		for i := range e.batch.Coarse {
			e.batch.Coarse[i] += vib
		}
	}
	e.voices.BlockUpdate(&e.batch, &e.vp)

	constGain := e.gain.settled()
	next := 0
	for i := range dst {
		for next < len(e.events) && e.events[next].Offset <= i {
			e.apply(e.events[next])
			next++
		}
		e.stepMatrix()
		e.voices.SampleUpdate(&e.batch, &e.vp)
		s := e.voices.Play(&e.batch, &e.vp, &e.pm)
		if !constGain {
			s *= e.gain.next()
		}
		dst[i] = s
	}
	if constGain {
		f32.Scale(dst, dst, e.gain.value)
	}
	e.consumeEvents(next, len(dst))

	e.voices.RemoveVoices(&e.batch, &e.vp)
	e.blocks++
	e.frames += uint64(len(dst))
}

// consumeEvents drops the applied events and moves the rest n samples
// closer.
func (e *Engine) consumeEvents(applied, n int) {
	rest := copy(e.events, e.events[applied:])
	e.events = e.events[:rest]
	for i := range e.events {
		e.events[i].Offset -= n
	}
}

// stepMatrix advances the depth ramps by a sample and rebuilds the phase
// modulation matrix from them.
func (e *Engine) stepMatrix() {
	for i := range e.depth {
		for j := range e.depth[i] {
			e.pm[i][j] = e.depth[i][j].next()
		}
	}
}

func (e *Engine) buildMatrix() {
	for i := range e.depth {
		for j := range e.depth[i] {
			e.pm[i][j] = e.depth[i][j].value
		}
	}
}

// Matrix returns the phase modulation matrix used for the latest sample.
func (e *Engine) Matrix() voice.Matrix { return e.pm }

func (e *Engine) ActiveVoiceCount() int { return e.voices.ActiveVoices() }

// Voices exposes the pool for inspection.
func (e *Engine) Voices() *voice.List { return &e.voices }

func (e *Engine) Stats() Stats {
	return Stats{
		ActiveVoices: e.voices.ActiveVoices(),
		Steals:       e.voices.Steals(),
		Blocks:       e.blocks,
		Frames:       e.frames,
		Dropped:      e.dropped,
	}
}
