package main

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNote(t *testing.T) {
	tests := []struct {
		in      string
		want    uint8
		wantErr bool
	}{
		{"C4", 60, false},
		{"A4", 69, false},
		{"c4", 60, false},
		{"F#3", 54, false},
		{"Bb5", 82, false},
		{"C-1", 0, false},
		{"72", 72, false},
		{"128", 0, true},
		{"H2", 0, true},
		{"C", 0, true},
		{"Cx", 0, true},
		{"G9", 127, false},
		{"A9", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseNote(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePattern(t *testing.T) {
	notes, err := parsePattern(" C4  E4 67 ")
	require.NoError(t, err)
	assert.Equal(t, []uint8{60, 64, 67}, notes)

	_, err = parsePattern("   ")
	assert.Error(t, err)
}

type recordingSink struct {
	mu   sync.Mutex
	ons  []uint8
	offs []uint8
}

func (s *recordingSink) NoteOn(n uint8, _ float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ons = append(s.ons, n)
	return true
}

func (s *recordingSink) NoteOff(n uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offs = append(s.offs, n)
	return true
}

func TestArpeggioPlaysEveryLoop(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	sink := &recordingSink{}
	a := arpeggio{notes: []uint8{60, 64}, step: 2 * time.Millisecond, gate: 0.5, velocity: 1, loops: 3}
	a.run(context.Background(), sink, log)

	assert.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.offs) == 6
	}, time.Second, time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, []uint8{60, 64, 60, 64, 60, 64}, sink.ons)
}

func TestArpeggioStopsOnCancel(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	a := arpeggio{notes: []uint8{60}, step: time.Hour, gate: 1, loops: 0}
	a.run(ctx, sink, log)
	assert.Equal(t, []uint8{60}, sink.ons)
	assert.Equal(t, []uint8{60}, sink.offs)
}
