// Command octofm-play plays a looping arpeggio through the speakers and
// optionally serves engine metrics for Prometheus.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cbegin/octofm-go"
	intfx "github.com/cbegin/octofm-go/internal/effects"
	"github.com/cbegin/octofm-go/internal/metrics"
	"github.com/cbegin/octofm-go/internal/synth"
)

func main() {
	var (
		sampleRate  = flag.Int("sample-rate", 48000, "output sample rate")
		preset      = flag.String("preset", "epiano", "patch: "+strings.Join(synth.PresetNames(), "|"))
		pattern     = flag.String("notes", "C4 E4 G4 B4 C5 B4 G4 E4", "note names or MIDI numbers to arpeggiate")
		bpm         = flag.Float64("bpm", 120, "tempo in beats per minute; one note per eighth")
		gate        = flag.Float64("gate", 0.8, "fraction of each step the note is held")
		loops       = flag.Int("loops", 4, "pattern repetitions, 0 loops until interrupted")
		velocity    = flag.Float64("velocity", 0.8, "note velocity 0..1")
		gain        = flag.Float64("gain", -1, "master gain override; negative keeps the preset's")
		fx          = flag.String("fx", "reverb 0.5,0.7,0.3,0.2; limit -1", "master effects chain")
		buffer      = flag.Duration("buffer", 0, "audio driver buffer, 0 for the default")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
		verbose     = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	notes, err := parsePattern(*pattern)
	if err != nil {
		log.Fatal(err)
	}
	patch, err := synth.Preset(*preset)
	if err != nil {
		log.Fatal(err)
	}
	if *gain >= 0 {
		patch.MasterGain = float32(*gain)
	}
	chain, err := intfx.Parse(*fx, *sampleRate)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []octofm.PlayerOption{
		octofm.WithPatch(patch),
		octofm.WithLogger(log),
		octofm.WithEffects(chain),
		octofm.WithBufferSize(*buffer),
	}
	if *metricsAddr != "" {
		m := metrics.New()
		opts = append(opts, octofm.WithMetrics(m))
		srv := serveMetrics(*metricsAddr, m, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	pl, err := octofm.NewPlayer(*sampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	if err := pl.Start(); err != nil {
		log.Fatal(err)
	}

	step := time.Duration(float64(time.Minute) / *bpm / 2)
	arp := arpeggio{notes: notes, step: step, gate: *gate, velocity: float32(*velocity), loops: *loops}
	arp.run(ctx, pl, log)

	pl.AllNotesOff()
	time.Sleep(time.Duration(synth.KnobSeconds(patch.Voice.Release) * float32(time.Second)))
	if err := pl.Stop(); err != nil {
		log.WithError(err).Error("stop playback")
	}
}

func serveMetrics(addr string, m *metrics.Metrics, log *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.WithField("addr", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server")
		}
	}()
	return srv
}
