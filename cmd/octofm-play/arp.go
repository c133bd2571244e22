package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// noteSink is the part of the player the arpeggiator drives.
type noteSink interface {
	NoteOn(note uint8, velocity float32) bool
	NoteOff(note uint8) bool
}

type arpeggio struct {
	notes    []uint8
	step     time.Duration
	gate     float64
	velocity float32
	loops    int
}

// run plays the pattern until it has looped loops times or ctx ends.
func (a *arpeggio) run(ctx context.Context, sink noteSink, log *logrus.Logger) {
	hold := time.Duration(float64(a.step) * min(max(a.gate, 0.05), 1))
	ticker := time.NewTicker(a.step)
	defer ticker.Stop()

	for loop := 0; a.loops == 0 || loop < a.loops; loop++ {
		log.WithField("loop", loop+1).Debug("pattern")
		for _, n := range a.notes {
			if !sink.NoteOn(n, a.velocity) {
				log.WithField("note", n).Warn("note dropped")
			}
			off := time.AfterFunc(hold, func() { sink.NoteOff(n) })
			select {
			case <-ctx.Done():
				off.Stop()
				sink.NoteOff(n)
				return
			case <-ticker.C:
			}
		}
	}
}

var noteOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// parseNote accepts MIDI numbers and names like C4, F#3 or Bb5, with C4 = 60.
func parseNote(s string) (uint8, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 127 {
			return 0, fmt.Errorf("note %d outside 0..127", n)
		}
		return uint8(n), nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("bad note %q", s)
	}
	base, ok := noteOffsets[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("bad note %q", s)
	}
	rest := s[1:]
	switch rest[0] {
	case '#':
		base++
		rest = rest[1:]
	case 'b':
		base--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("bad octave in %q", s)
	}
	n := (octave+1)*12 + base
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("note %q outside 0..127", s)
	}
	return uint8(n), nil
}

func parsePattern(s string) ([]uint8, error) {
	var notes []uint8
	for _, f := range strings.Fields(s) {
		n, err := parseNote(f)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("empty note pattern")
	}
	return notes, nil
}
