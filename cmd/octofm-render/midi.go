package main

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cbegin/octofm-go"
)

type openNote struct {
	start    float64
	velocity float32
}

// loadMIDI reads every note of a standard MIDI file. Overlapping notes on
// the same key and channel close in the order they opened; notes still
// held at the end close on the last event.
func loadMIDI(path string) ([]octofm.Note, error) {
	var (
		notes []octofm.Note
		open  = map[[2]uint8][]openNote{}
		last  float64
	)
	err := smf.ReadTracks(path).Do(func(te smf.TrackEvent) {
		at := float64(te.AbsMicroSeconds) / 1e6
		if at > last {
			last = at
		}
		msg := midi.Message(te.Message)
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			k := [2]uint8{ch, key}
			open[k] = append(open[k], openNote{start: at, velocity: float32(vel) / 127})
		case msg.GetNoteEnd(&ch, &key):
			k := [2]uint8{ch, key}
			held := open[k]
			if len(held) == 0 {
				return
			}
			notes = append(notes, octofm.Note{Note: key, Velocity: held[0].velocity, Start: held[0].start, Duration: at - held[0].start})
			open[k] = held[1:]
		}
	}).Error()
	if err != nil {
		return nil, fmt.Errorf("read midi %q: %w", path, err)
	}
	for k, held := range open {
		for _, n := range held {
			notes = append(notes, octofm.Note{Note: k[1], Velocity: n.velocity, Start: n.start, Duration: last - n.start})
		}
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Start < notes[j].Start })
	return notes, nil
}

// songLength is the end of the last note plus tail seconds.
func songLength(notes []octofm.Note, tail float64) float64 {
	var end float64
	for _, n := range notes {
		end = max(end, n.Start+n.Duration)
	}
	return end + tail
}
