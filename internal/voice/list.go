package voice

import (
	"fmt"

	"github.com/cbegin/octofm-go/internal/osc"
)

// Capacity is the fixed size of the voice pool.
const Capacity = 32

type slot struct {
	used bool
	v    Voice
}

// List is the fixed pool of voice slots. Voices live in the slots by value,
// so nothing here allocates.
type List struct {
	slots  [Capacity]slot
	steals uint64
}

// Play sums every live voice.
func (l *List) Play(params *osc.OscParamsBatch, vp *Params, pm *Matrix) float32 {
	var out float32
	for i := range l.slots {
		if l.slots[i].used {
			out += l.slots[i].v.Play(params, vp, pm)
		}
	}
	return out
}

// AddVoice starts note in a free slot. With no free slot it steals the
// oldest released voice, then the oldest held voice. It returns the slot
// used and whether a sounding voice was replaced.
func (l *List) AddVoice(note uint8, params *osc.OscParamsBatch, velocity float32, vp *Params) (int, bool) {
	idx, stolen := l.pick()
	l.slots[idx].used = true
	l.slots[idx].v.start(note, params, velocity, vp)
	if stolen {
		l.steals++
	}
	return idx, stolen
}

func (l *List) pick() (int, bool) {
	for i := range l.slots {
		if !l.slots[i].used {
			return i, false
		}
	}
	if i := l.oldest(true); i >= 0 {
		return i, true
	}
	if i := l.oldest(false); i >= 0 {
		return i, true
	}
	panic(fmt.Sprintf("voice: no slot to steal in a full pool of %d", Capacity))
}

func (l *List) oldest(released bool) int {
	best := -1
	var bestTime uint32
	for i := range l.slots {
		s := &l.slots[i]
		if !s.used || s.v.released != released {
			continue
		}
		if best < 0 || s.v.time > bestTime {
			best = i
			bestTime = s.v.time
		}
	}
	return best
}

// ReleaseVoice releases every voice playing note and returns how many
// were released.
func (l *List) ReleaseVoice(note uint8, params *osc.OscParamsBatch, vp *Params) int {
	n := 0
	for i := range l.slots {
		s := &l.slots[i]
		if s.used && s.v.note == note && !s.v.released {
			s.v.Release(params, vp)
			n++
		}
	}
	return n
}

// RemoveVoices frees every slot whose voice has finished and returns the
// number freed.
func (l *List) RemoveVoices(params *osc.OscParamsBatch, vp *Params) int {
	n := 0
	for i := range l.slots {
		if l.slots[i].used && l.slots[i].v.IsDone(params, vp) {
			l.slots[i].used = false
			n++
		}
	}
	return n
}

// BlockUpdate applies parameters that only change per processing block:
// operator pitch and filter mode.
func (l *List) BlockUpdate(params *osc.OscParamsBatch, vp *Params) {
	for i := range l.slots {
		if l.slots[i].used {
			l.slots[i].v.blockUpdate(params, vp)
		}
	}
}

// SampleUpdate applies parameters that need sample accuracy: the filter
// envelope and keytracked cutoff.
func (l *List) SampleUpdate(params *osc.OscParamsBatch, vp *Params) {
	for i := range l.slots {
		if l.slots[i].used {
			l.slots[i].v.sampleUpdate(vp)
		}
	}
}

func (l *List) ActiveVoices() int {
	n := 0
	for i := range l.slots {
		if l.slots[i].used {
			n++
		}
	}
	return n
}

// IsNoteActive reports whether any slot, released or not, still holds note.
func (l *List) IsNoteActive(note uint8) bool {
	for i := range l.slots {
		if l.slots[i].used && l.slots[i].v.note == note {
			return true
		}
	}
	return false
}

// Voice returns the voice in slot i, or nil when the slot is empty.
func (l *List) Voice(i int) *Voice {
	if i < 0 || i >= Capacity || !l.slots[i].used {
		return nil
	}
	return &l.slots[i].v
}

// Steals counts voices replaced by AddVoice since the last Reset.
func (l *List) Steals() uint64 { return l.steals }

// Reset empties every slot.
func (l *List) Reset() {
	for i := range l.slots {
		l.slots[i].used = false
	}
	l.steals = 0
}
