package synth

import (
	"errors"
	"fmt"
	"math"

	"aria/audio"
	"aria/composition"
	"aria/sequencer"
)

// ErrDisposed is returned when a note is scheduled on a disposed voice.
var ErrDisposed = errors.New("synth: voice disposed")

// Voice is a stateful per-instrument synthesis unit. ScheduleNote writes
// the note's samples additively into dst at the note's start offset;
// Dispose releases internal state and must be called exactly once, after
// the last scheduled note.
type Voice interface {
	ScheduleNote(n sequencer.Note, dst *audio.Buffer) error
	Dispose()
}

// New builds the voice variant for an instrument. The instrument set is
// closed; anything else is an error.
func New(inst composition.Instrument, sampleRate int, p Params) (Voice, error) {
	base := voice{sampleRate: sampleRate, params: p}
	switch inst {
	case composition.Piano:
		return &pianoVoice{voice: base}, nil
	case composition.Guitar:
		return &guitarVoice{voice: base}, nil
	case composition.Bass:
		return &bassVoice{voice: base}, nil
	case composition.Strings:
		return &stringsVoice{voice: base}, nil
	case composition.Flute:
		return &fluteVoice{voice: base}, nil
	case composition.Drums:
		return &drumsVoice{voice: base}, nil
	default:
		return nil, fmt.Errorf("synth: no voice for instrument %q", inst)
	}
}

// voice carries the state shared by every variant.
type voice struct {
	sampleRate int
	params     Params
	disposed   bool
}

func (v *voice) Dispose() {
	v.disposed = true
}

func (v *voice) check() error {
	if v.disposed {
		return ErrDisposed
	}
	return nil
}

// pitchHz converts a MIDI note number to frequency (A4 = 440).
func pitchHz(pitch int) float64 {
	return 440.0 * math.Pow(2, float64(pitch-69)/12.0)
}

// envelope is a linear attack into an exponential decay, evaluated at
// second t of a note lasting dur seconds with the given release tail.
func envelope(t, attack, dur, release float64) float64 {
	if t < 0 {
		return 0
	}
	if attack > 0 && t < attack {
		return t / attack
	}
	// -60 dB over the remaining sounding time.
	decay := 6.9 / math.Max(dur+release-attack, 0.05)
	return math.Exp(-(t - attack) * decay)
}
