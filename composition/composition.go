package composition

import (
	"fmt"
)

// Instrument is one of the closed set of renderable instruments.
type Instrument string

const (
	Piano   Instrument = "piano"
	Guitar  Instrument = "guitar"
	Bass    Instrument = "bass"
	Strings Instrument = "strings"
	Flute   Instrument = "flute"
	Drums   Instrument = "drums"
)

// Instruments lists every supported instrument in a stable order.
var Instruments = []Instrument{Piano, Guitar, Bass, Strings, Flute, Drums}

// GMProgram maps each instrument to a General-MIDI program number used by
// both the MIDI file encoder and the live preview output.
var GMProgram = map[Instrument]uint8{
	Piano:   0,   // Acoustic Grand
	Guitar:  24,  // Nylon Guitar
	Bass:    33,  // Fingered Bass
	Strings: 48,  // String Ensemble
	Flute:   73,  // Flute
	Drums:   118, // Synth Drum
}

// Valid reports whether i is one of the supported instruments.
func (i Instrument) Valid() bool {
	_, ok := GMProgram[i]
	return ok
}

// Mood selects voice parameters and a reverb preset.
type Mood string

const (
	Calm        Mood = "calm"
	Heroic      Mood = "heroic"
	Melancholic Mood = "melancholic"
	Festive     Mood = "festive"
)

// Motif is the melodic/rhythmic cell the whole piece is built from.
// Pitches are note names ("C4", "F#3"); Rhythm holds relative durations in
// beats. Both cycle with modulo indexing when a section needs more onsets.
type Motif struct {
	Pitches []string  `json:"pitches"`
	Rhythm  []float64 `json:"rhythm"`
}

// Composition is the symbolic structure handed over by the generative
// service. It is treated as opaque input: nothing here mutates it.
type Composition struct {
	Scale             []string              `json:"scale"`
	Motif             Motif                 `json:"motif"`
	Form              []string              `json:"form"`
	InstrumentRoles   map[Instrument]string `json:"instrumentRoles"`
	EuclideanPatterns map[string][]int      `json:"euclideanPatterns"`
}

// Validate checks the structural contract on an incoming composition.
// Pattern/role lookups are not checked here: a missing pattern has a
// defined fallback and belongs to the sequencer.
func (c *Composition) Validate() error {
	if len(c.Scale) == 0 {
		return fmt.Errorf("composition: empty scale")
	}
	if len(c.Motif.Pitches) == 0 {
		return fmt.Errorf("composition: motif has no pitches")
	}
	if len(c.Motif.Rhythm) == 0 {
		return fmt.Errorf("composition: motif has no rhythm")
	}
	if len(c.Form) == 0 {
		return fmt.Errorf("composition: empty form")
	}
	for _, name := range c.Scale {
		if _, err := ParsePitch(name); err != nil {
			return fmt.Errorf("composition: scale: %w", err)
		}
	}
	for _, name := range c.Motif.Pitches {
		if _, err := ParsePitch(name); err != nil {
			return fmt.Errorf("composition: motif: %w", err)
		}
	}
	for i, d := range c.Motif.Rhythm {
		if d <= 0 {
			return fmt.Errorf("composition: motif rhythm[%d] = %v, want > 0", i, d)
		}
	}
	for inst := range c.InstrumentRoles {
		if !inst.Valid() {
			return fmt.Errorf("composition: unknown instrument %q", inst)
		}
	}
	for role, pattern := range c.EuclideanPatterns {
		if len(pattern) == 0 {
			return fmt.Errorf("composition: empty pattern for role %q", role)
		}
		for i, bit := range pattern {
			if bit != 0 && bit != 1 {
				return fmt.Errorf("composition: pattern %q[%d] = %d, want 0 or 1", role, i, bit)
			}
		}
	}
	return nil
}

// Role returns the role name mapped to inst and whether a mapping exists.
func (c *Composition) Role(inst Instrument) (string, bool) {
	role, ok := c.InstrumentRoles[inst]
	return role, ok
}
