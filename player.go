// Package octofm is a polyphonic 8-operator FM and phase distortion
// synthesizer. Player plays it live; Render and WriteWAV render offline.
package octofm

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tphakala/simd/cpu"

	intaudio "github.com/cbegin/octofm-go/internal/audio"
	intfx "github.com/cbegin/octofm-go/internal/effects"
	"github.com/cbegin/octofm-go/internal/metrics"
	"github.com/cbegin/octofm-go/internal/synth"
)

type (
	Patch        = synth.Patch
	Operator     = synth.Operator
	VoiceSection = synth.VoiceSection
	Vibrato      = synth.Vibrato
)

// DefaultPatch returns a single sine operator.
func DefaultPatch() Patch { return synth.DefaultPatch() }

var (
	ErrInvalidSampleRate = synth.ErrInvalidSampleRate
	ErrInvalidPatch      = synth.ErrInvalidPatch
	ErrNotStarted        = errors.New("player not started")
)

const defaultQueueSize = 256

type PlayerOption func(*playerConfig)

type playerConfig struct {
	patch      Patch
	logger     *logrus.Logger
	metrics    *metrics.Metrics
	sampleTap  func([]float32)
	blockSize  int
	effects    *intfx.Chain
	bufferSize time.Duration
	queueSize  int
}

func defaultPlayerConfig() playerConfig {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return playerConfig{
		patch:     synth.DefaultPatch(),
		logger:    logger,
		blockSize: synth.DefaultBlockSize,
		queueSize: defaultQueueSize,
	}
}

func WithPatch(p Patch) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.patch = p
	}
}

// WithLogger routes lifecycle logging to logger. The default discards it.
func WithLogger(logger *logrus.Logger) PlayerOption {
	return func(cfg *playerConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMetrics records engine stats after every rendered buffer.
func WithMetrics(m *metrics.Metrics) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.metrics = m
	}
}

// WithSampleTap installs a callback invoked with each generated mono buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

// WithBlockSize sets how many samples share one parameter update.
func WithBlockSize(n int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.blockSize = n
	}
}

// WithEffects inserts chain on the master bus ahead of the EQ.
func WithEffects(chain *intfx.Chain) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.effects = chain
	}
}

// WithBufferSize sets the audio driver buffer, trading latency for safety.
func WithBufferSize(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.bufferSize = d
	}
}

// WithQueueSize sets how many note events may wait for the audio thread.
func WithQueueSize(n int) PlayerOption {
	return func(cfg *playerConfig) {
		if n > 0 {
			cfg.queueSize = n
		}
	}
}

// Player plays the synth live. NoteOn, NoteOff, SetPatch and the gain
// setters are safe from any goroutine; events reach the engine at the
// start of the next rendered buffer.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	cfg        playerConfig
	log        *logrus.Entry
	audio      *intaudio.Player

	// Owned by the audio thread.
	engine      *synth.Engine
	appliedGain uint32

	events   chan synth.Event
	patches  chan Patch
	gain     atomic.Uint32
	dropped  atomic.Uint64
	masterEQ *intfx.EQ5Band
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	engine, err := synth.New(sampleRate, cfg.patch)
	if err != nil {
		return nil, err
	}
	engine.SetBlockSize(cfg.blockSize)

	p := &Player{
		sampleRate: sampleRate,
		cfg:        cfg,
		log:        cfg.logger.WithField("component", "player"),
		engine:     engine,
		events:     make(chan synth.Event, cfg.queueSize),
		patches:    make(chan Patch, 1),
		masterEQ:   intfx.NewEQ5Band(sampleRate),
	}
	p.appliedGain = math.Float32bits(cfg.patch.MasterGain)
	p.gain.Store(p.appliedGain)
	p.log.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"block_size":  engine.BlockSize(),
		"simd":        cpu.Info(),
	}).Debug("player created")
	return p, nil
}

// Process renders len(dst) mono samples. The audio stream calls it; call it
// directly only when the player was never started.
func (p *Player) Process(dst []float32) {
	start := time.Now()
	p.drain()
	p.engine.Process(dst)
	if p.cfg.effects != nil {
		p.cfg.effects.ProcessBlock(dst)
	}
	for i, x := range dst {
		dst[i] = p.masterEQ.Process(x)
	}
	if p.cfg.sampleTap != nil {
		p.cfg.sampleTap(dst)
	}
	if p.cfg.metrics != nil {
		p.cfg.metrics.Observe(p.engine.Stats(), time.Since(start))
	}
}

// drain applies everything the control side queued since the last buffer.
func (p *Player) drain() {
	select {
	case patch := <-p.patches:
		if err := p.engine.SetPatch(patch); err != nil {
			p.log.WithError(err).Warn("patch rejected by engine")
		} else {
			p.appliedGain = math.Float32bits(patch.MasterGain)
		}
	default:
	}
	if g := p.gain.Load(); g != p.appliedGain {
		p.appliedGain = g
		p.engine.SetMasterGain(math.Float32frombits(g))
	}
	for {
		select {
		case ev := <-p.events:
			if err := p.engine.Schedule(ev); err != nil {
				p.dropped.Add(1)
			}
		default:
			return
		}
	}
}

func (p *Player) send(ev synth.Event) bool {
	select {
	case p.events <- ev:
		return true
	default:
		if n := p.dropped.Add(1); n == 1 || n%100 == 0 {
			p.log.WithField("dropped", n).Warn("event queue full, dropping note events")
		}
		if p.cfg.metrics != nil {
			p.cfg.metrics.AddDropped(1)
		}
		return false
	}
}

// NoteOn queues a note start. Velocity is 0..1; zero releases the note. It
// reports false when the queue was full and the event was dropped.
func (p *Player) NoteOn(note uint8, velocity float32) bool {
	return p.send(synth.Event{Kind: synth.NoteOn, Note: note, Velocity: velocity})
}

// NoteOff queues the release of every voice playing note.
func (p *Player) NoteOff(note uint8) bool {
	return p.send(synth.Event{Kind: synth.NoteOff, Note: note})
}

func (p *Player) AllNotesOff() bool {
	return p.send(synth.Event{Kind: synth.AllNotesOff})
}

// Dropped counts note events lost to a full queue.
func (p *Player) Dropped() uint64 { return p.dropped.Load() }

// SetPatch validates patch and hands it to the audio thread. A patch not
// yet picked up is replaced.
func (p *Player) SetPatch(patch Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	// The gain goes first so drain never sees the new patch with the old gain.
	p.gain.Store(math.Float32bits(patch.MasterGain))
	for {
		select {
		case p.patches <- patch:
			return nil
		default:
		}
		select {
		case <-p.patches:
		default:
		}
	}
}

// SetMasterGain sets the output gain. Changes ramp in over a few
// milliseconds.
func (p *Player) SetMasterGain(gain float32) {
	if gain < 0 || gain != gain {
		gain = 0
	}
	p.gain.Store(math.Float32bits(gain))
}

func (p *Player) MasterGain() float32 {
	return math.Float32frombits(p.gain.Load())
}

// SetEQBand sets the gain for a master EQ band (0-4). 1.0 = unity.
// Band frequencies: 0=<200Hz, 1=200-800Hz, 2=800-2.5kHz, 3=2.5-8kHz, 4=>8kHz.
func (p *Player) SetEQBand(band int, gain float32) {
	p.masterEQ.SetGain(band, gain)
}

func (p *Player) EQBand(band int) float32 {
	return p.masterEQ.Gain(band)
}

func (p *Player) SampleRate() int { return p.sampleRate }

// Start opens the audio device and begins playback.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
		return nil
	}
	backend, err := intaudio.NewPlayer(p.sampleRate, p, p.cfg.bufferSize)
	if err != nil {
		p.log.WithError(err).Error("open audio output")
		return err
	}
	p.audio = backend
	p.audio.Play()
	p.log.WithFields(logrus.Fields{
		"sample_rate": p.sampleRate,
		"buffer":      p.cfg.bufferSize,
	}).Info("playback started")
	return nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return ErrNotStarted
	}
	p.audio.Pause()
	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	entry := p.log.WithField("dropped", p.dropped.Load())
	if err != nil {
		entry.WithError(err).Warn("playback stopped with error")
	} else {
		entry.Info("playback stopped")
	}
	return err
}

// PlaybackPosition returns the current output position of the audio driver
// in frames. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(p.sampleRate))
}
