// Package metrics exports engine counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cbegin/octofm-go/internal/synth"
)

const namespace = "octofm"

// Metrics owns its registry so several players, or tests, never collide
// on the default one.
type Metrics struct {
	registry *prometheus.Registry

	activeVoices  prometheus.Gauge
	steals        prometheus.Counter
	blocks        prometheus.Counter
	frames        prometheus.Counter
	dropped       prometheus.Counter
	renderSeconds prometheus.Histogram

	last synth.Stats
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activeVoices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_voices",
			Help:      "Voices currently sounding.",
		}),
		steals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_steals_total",
			Help:      "Voices replaced because the pool was full.",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_total",
			Help:      "Processing blocks rendered.",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Mono frames rendered.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Note events dropped on a full queue.",
		}),
		renderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_seconds",
			Help:      "Wall time spent rendering one audio callback.",
			Buckets:   prometheus.ExponentialBuckets(50e-6, 2, 10),
		}),
	}
	m.registry.MustRegister(m.activeVoices, m.steals, m.blocks, m.frames, m.dropped, m.renderSeconds)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe records a stats snapshot taken after a render that took
// elapsed. Counters advance by the difference to the previous snapshot; a
// snapshot lower than the last one means the engine was replaced and
// counts from zero.
func (m *Metrics) Observe(s synth.Stats, elapsed time.Duration) {
	m.activeVoices.Set(float64(s.ActiveVoices))
	m.steals.Add(delta(s.Steals, m.last.Steals))
	m.blocks.Add(delta(s.Blocks, m.last.Blocks))
	m.frames.Add(delta(s.Frames, m.last.Frames))
	m.dropped.Add(delta(s.Dropped, m.last.Dropped))
	m.renderSeconds.Observe(elapsed.Seconds())
	m.last = s
}

// AddDropped counts events dropped before they reached the engine.
func (m *Metrics) AddDropped(n int) {
	m.dropped.Add(float64(n))
}

func delta(now, prev uint64) float64 {
	if now < prev {
		return float64(now)
	}
	return float64(now - prev)
}
