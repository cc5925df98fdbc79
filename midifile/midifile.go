// Package midifile serializes a composition straight to a Type-0
// Standard MIDI File. This path bypasses synthesis entirely: it replays
// the same Euclidean-pattern walk as the sequencer, but in MIDI ticks.
package midifile

import (
	"fmt"
	"math"
	"sort"

	"aria/composition"
	"aria/sequencer"
)

const (
	// TicksPerBeat is the SMF division written into the header.
	TicksPerBeat = 480
	// DefaultTempo is used when the caller passes a non-positive BPM.
	DefaultTempo = 72.0
	// sectionBeats is the fixed musical length of one form section on
	// the tick timeline.
	sectionBeats = 16
	// maxChannels caps one-channel-per-instrument assignment.
	maxChannels = 16

	noteOffVelocity = 0x40
)

// channelFor assigns one channel per instrument index, saturating at
// the last channel rather than wrapping.
func channelFor(idx int) int {
	if idx >= maxChannels {
		return maxChannels - 1
	}
	return idx
}

// midiNote is a fully resolved note on the tick timeline.
type midiNote struct {
	pitch    int
	start    int
	duration int
	velocity int
	channel  int
}

// event is raw event bytes at an absolute tick.
type event struct {
	tick int
	data []byte
}

// Encode builds the complete SMF byte stream for the given instruments.
// Identical inputs produce identical bytes.
func Encode(c *composition.Composition, instruments []composition.Instrument, tempo float64) ([]byte, error) {
	if tempo <= 0 {
		tempo = DefaultTempo
	}

	var events []event

	// Tempo meta-event at tick 0.
	usPerBeat := int(math.Round(60_000_000 / tempo))
	events = append(events, event{tick: 0, data: []byte{
		0xFF, 0x51, 0x03,
		byte(usPerBeat >> 16), byte(usPerBeat >> 8), byte(usPerBeat),
	}})

	// All program changes precede the first note.
	for idx, inst := range instruments {
		events = append(events, event{tick: 0, data: []byte{
			byte(0xC0 | channelFor(idx)), composition.GMProgram[inst],
		}})
	}

	endTick := 0
	for idx, inst := range instruments {
		notes, err := instrumentNotes(c, inst, channelFor(idx))
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			events = append(events, event{tick: n.start, data: []byte{
				byte(0x90 | n.channel), byte(n.pitch), byte(n.velocity),
			}})
			off := n.start + n.duration
			events = append(events, event{tick: off, data: []byte{
				byte(0x80 | n.channel), byte(n.pitch), noteOffVelocity,
			}})
			if off > endTick {
				endTick = off
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].tick < events[j].tick
	})
	events = append(events, event{tick: endTick, data: []byte{0xFF, 0x2F, 0x00}})

	// Delta-encode into the track chunk.
	var track []byte
	prev := 0
	for _, ev := range events {
		track = append(track, encodeVarLen(ev.tick-prev)...)
		track = append(track, ev.data...)
		prev = ev.tick
	}

	out := []byte{
		'M', 'T', 'h', 'd',
		0, 0, 0, 6,
		0, 0, // format 0
		0, 1, // one track
		byte(TicksPerBeat >> 8), byte(TicksPerBeat & 0xFF),
	}
	out = append(out, 'M', 'T', 'r', 'k')
	out = append(out,
		byte(len(track)>>24), byte(len(track)>>16),
		byte(len(track)>>8), byte(len(track)))
	out = append(out, track...)
	return out, nil
}

// instrumentNotes replays the sequencer's pattern walk on the tick grid:
// one pattern pass per form section, motif pitches and rhythm cycling
// with modulo indexing, sections transposed as in the audio path.
func instrumentNotes(c *composition.Composition, inst composition.Instrument, channel int) ([]midiNote, error) {
	pattern, ok := sequencer.ResolvePattern(c, inst)
	if !ok {
		return nil, fmt.Errorf("midifile: no track resolvable for instrument %q", inst)
	}
	sectionTicks := sectionBeats * TicksPerBeat
	stepTicks := sectionTicks / len(pattern)

	var notes []midiNote
	onset := 0
	for si := range c.Form {
		transpose := sequencer.SectionTranspose(c.Form, si)
		sectionStart := si * sectionTicks
		for step, bit := range pattern {
			if bit != 1 {
				continue
			}
			name := c.Motif.Pitches[onset%len(c.Motif.Pitches)]
			pitch, err := composition.ParsePitch(name)
			if err != nil {
				return nil, fmt.Errorf("midifile: %w", err)
			}
			pitch += transpose
			if pitch > 127 {
				pitch = 127
			}
			beats := c.Motif.Rhythm[onset%len(c.Motif.Rhythm)]
			duration := int(math.Round(beats * TicksPerBeat))
			if duration < 1 {
				duration = 1
			}
			notes = append(notes, midiNote{
				pitch:    pitch,
				start:    sectionStart + step*stepTicks,
				duration: duration,
				velocity: 96,
				channel:  channel,
			})
			onset++
		}
	}
	return notes, nil
}

// encodeVarLen encodes a value as a big-endian variable-length quantity:
// 7 bits per byte, continuation bit on all but the last byte.
func encodeVarLen(value int) []byte {
	out := []byte{byte(value & 0x7F)}
	value >>= 7
	for value > 0 {
		out = append([]byte{byte(value&0x7F) | 0x80}, out...)
		value >>= 7
	}
	return out
}
