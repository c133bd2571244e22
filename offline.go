package octofm

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cbegin/octofm-go/internal/synth"
)

// Note is one note of an offline render. Times are in seconds.
type Note struct {
	Note     uint8
	Velocity float32
	Start    float64
	Duration float64
}

type renderEvent struct {
	frame int
	off   bool
	note  uint8
	vel   float32
}

// Render plays notes through patch and returns seconds of mono audio.
// Note starts and releases land on the exact sample.
func Render(patch Patch, notes []Note, sampleRate int, seconds float64) ([]float32, error) {
	e, err := synth.New(sampleRate, patch)
	if err != nil {
		return nil, err
	}
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, fmt.Errorf("render length %v seconds", seconds)
	}
	frames := int(seconds * float64(sampleRate))
	out := make([]float32, frames)

	events := make([]renderEvent, 0, 2*len(notes))
	for _, n := range notes {
		on := int(n.Start * float64(sampleRate))
		// Every note is held for at least one sample so its release
		// cannot sort ahead of its own start.
		off := max(on+int(n.Duration*float64(sampleRate)), on+1)
		events = append(events,
			renderEvent{frame: on, note: n.Note, vel: n.Velocity},
			renderEvent{frame: off, off: true, note: n.Note},
		)
	}
	// Releases go first on a shared frame so a repeated note retriggers.
	slices.SortStableFunc(events, func(a, b renderEvent) int {
		if c := cmp.Compare(a.frame, b.frame); c != 0 {
			return c
		}
		switch {
		case a.off && !b.off:
			return -1
		case !a.off && b.off:
			return 1
		}
		return 0
	})

	pos := 0
	for _, ev := range events {
		at := min(max(ev.frame, 0), frames)
		e.Process(out[pos:at])
		pos = at
		if pos == frames {
			break
		}
		if ev.off {
			e.NoteOff(ev.note)
		} else {
			e.NoteOn(ev.note, ev.vel)
		}
	}
	e.Process(out[pos:])
	return out, nil
}

// WriteWAV encodes mono samples as integer PCM. Samples are clipped to
// [-1, 1]. bitDepth is 16, 24 or 32.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate, bitDepth int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	scale := float64(int64(1)<<(bitDepth-1) - 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		v := float64(s)
		if v != v {
			v = 0
		}
		data[i] = int(math.Round(math.Max(-1, math.Min(1, v)) * scale))
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes samples to a new WAV file at path.
func WriteWAVFile(path string, samples []float32, sampleRate, bitDepth int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return WriteWAV(f, samples, sampleRate, bitDepth)
}
