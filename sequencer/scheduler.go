package sequencer

import (
	"fmt"

	"aria/composition"
)

// SectionSeconds is the fixed audio length of one form section. Total
// piece duration is len(form) * SectionSeconds, independent of what the
// generative service claims.
const SectionSeconds = 8.0

// DefaultBPM is used when Params leaves the tempo unset.
const DefaultBPM = 72.0

// Note is a single scheduled onset. Times are in seconds from the start
// of the piece; Beats is the motif's relative duration before tempo
// conversion. Notes are immutable once emitted.
type Note struct {
	Pitch    int
	Start    float64
	Duration float64
	Beats    float64
	Velocity float64
}

// Track is the ordered note sequence for one instrument, valid for a
// single render pass.
type Track struct {
	Instrument composition.Instrument
	Notes      []Note
}

// Duration returns the total scheduled length of the piece the track was
// cut from.
func (t *Track) Duration(form []string) float64 {
	return float64(len(form)) * SectionSeconds
}

// Params are the playback knobs the scheduler honors.
type Params struct {
	BPM float64
}

func (p Params) bpm() float64 {
	if p.BPM > 0 {
		return p.BPM
	}
	return DefaultBPM
}

// velocity per role; unknown roles get the default.
var roleVelocity = map[string]float64{
	"melody":        0.92,
	"accompaniment": 0.65,
	"bass":          0.8,
	"percussion":    0.85,
}

const defaultVelocity = 0.7

// Schedule produces one track per requested instrument. An instrument
// that cannot be resolved to any pattern is a hard error: the caller
// asked for it and silence is not an answer.
func Schedule(c *composition.Composition, instruments []composition.Instrument, p Params) (map[composition.Instrument]*Track, error) {
	tracks := make(map[composition.Instrument]*Track, len(instruments))
	for _, inst := range instruments {
		track, err := ScheduleInstrument(c, inst, p)
		if err != nil {
			return nil, err
		}
		tracks[inst] = track
	}
	return tracks, nil
}

// ScheduleInstrument walks the instrument's Euclidean pattern once per
// form section, emitting a note on every onset bit. Pitch cycles through
// the motif's pitches and duration through its rhythm, both with modulo
// indexing; sections after the first are transposed upward per
// SectionTranspose.
func ScheduleInstrument(c *composition.Composition, inst composition.Instrument, p Params) (*Track, error) {
	pattern, ok := ResolvePattern(c, inst)
	if !ok {
		return nil, fmt.Errorf("sequencer: no track resolvable for instrument %q", inst)
	}
	role, _ := c.Role(inst)
	velocity, ok := roleVelocity[role]
	if !ok {
		velocity = defaultVelocity
	}
	secPerBeat := 60.0 / p.bpm()
	stepSeconds := SectionSeconds / float64(len(pattern))

	track := &Track{Instrument: inst}
	onset := 0
	for si := range c.Form {
		transpose := SectionTranspose(c.Form, si)
		sectionStart := float64(si) * SectionSeconds
		for step, bit := range pattern {
			if bit != 1 {
				continue
			}
			name := c.Motif.Pitches[onset%len(c.Motif.Pitches)]
			pitch, err := composition.ParsePitch(name)
			if err != nil {
				return nil, fmt.Errorf("sequencer: %w", err)
			}
			pitch += transpose
			if pitch > 127 {
				pitch = 127
			}
			beats := c.Motif.Rhythm[onset%len(c.Motif.Rhythm)]
			track.Notes = append(track.Notes, Note{
				Pitch:    pitch,
				Start:    sectionStart + float64(step)*stepSeconds,
				Duration: beats * secPerBeat,
				Beats:    beats,
				Velocity: velocity,
			})
			onset++
		}
	}
	return track, nil
}

// TotalDuration is the fixed piece length for a composition, in seconds.
func TotalDuration(c *composition.Composition) float64 {
	return float64(len(c.Form)) * SectionSeconds
}
