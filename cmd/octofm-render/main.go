// Command octofm-render renders a MIDI file, or a single test note, to a
// WAV file.
package main

import (
	"flag"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tphakala/simd/cpu"

	"github.com/cbegin/octofm-go"
	"github.com/cbegin/octofm-go/internal/analysis"
	intfx "github.com/cbegin/octofm-go/internal/effects"
	"github.com/cbegin/octofm-go/internal/synth"
)

func main() {
	var (
		outPath    = flag.String("out", "out.wav", "output WAV path")
		midiPath   = flag.String("midi", "", "standard MIDI file to render; empty renders -note")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		bitDepth   = flag.Int("bits", 16, "PCM bit depth: 16|24|32")
		preset     = flag.String("preset", "epiano", "patch: "+strings.Join(synth.PresetNames(), "|"))
		note       = flag.Int("note", 69, "test note when no -midi is given")
		velocity   = flag.Float64("velocity", 0.8, "test note velocity 0..1")
		duration   = flag.Float64("duration", 1, "test note length in seconds")
		tail       = flag.Float64("tail", 1.5, "seconds rendered after the last note ends")
		gain       = flag.Float64("gain", -1, "master gain override; negative keeps the preset's")
		fx         = flag.String("fx", "", `master effects, e.g. "reverb 0.6,0.8; limit -1"`)
		analyze    = flag.Bool("analyze", false, "log level and pitch of the render")
		verbose    = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	log.WithField("simd", cpu.Info()).Debug("cpu features")

	patch, err := synth.Preset(*preset)
	if err != nil {
		log.Fatal(err)
	}
	if *gain >= 0 {
		patch.MasterGain = float32(*gain)
	}

	var notes []octofm.Note
	if *midiPath != "" {
		notes, err = loadMIDI(*midiPath)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		if *note < 0 || *note > 127 {
			log.Fatalf("-note %d outside 0..127", *note)
		}
		notes = []octofm.Note{{Note: uint8(*note), Velocity: float32(*velocity), Duration: *duration}}
	}
	seconds := songLength(notes, *tail)
	log.WithFields(logrus.Fields{
		"notes":   len(notes),
		"seconds": seconds,
		"preset":  *preset,
	}).Info("rendering")

	samples, err := octofm.Render(patch, notes, *sampleRate, seconds)
	if err != nil {
		log.Fatal(err)
	}
	chain, err := intfx.Parse(*fx, *sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	chain.ProcessBlock(samples)

	if *analyze {
		log.WithFields(logrus.Fields{
			"peak":           analysis.Peak(samples),
			"rms":            analysis.RMS(samples),
			"dominant_hz":    analysis.DominantFrequency(samples[:min(len(samples), 1<<16)], *sampleRate),
			"zero_crossings": analysis.ZeroCrossings(samples),
		}).Info("analysis")
	}
	if peak := analysis.Peak(samples); peak > 1 {
		log.WithField("peak", peak).Warn("output clips; lower -gain or add a limiter")
	}

	if err := octofm.WriteWAVFile(*outPath, samples, *sampleRate, *bitDepth); err != nil {
		log.WithError(err).Fatal("write wav")
	}
	log.WithField("path", *outPath).Info("done")
}
