// Package midiout plays scheduled tracks on a hardware MIDI port in
// real time, for previewing a composition on an external synth without
// rendering audio first.
package midiout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver

	"aria/composition"
	"aria/debug"
	"aria/sequencer"
)

// Preview owns one open output port.
type Preview struct {
	port drivers.Out
	send func(gomidi.Message) error
}

// Open connects to the named output port, or the first available port
// when name is empty. Matching is case-insensitive substring, same as
// picking ports by hand.
func Open(name string) (*Preview, error) {
	outs := gomidi.GetOutPorts()
	if len(outs) == 0 {
		return nil, fmt.Errorf("midiout: no MIDI output ports")
	}
	var port drivers.Out
	if name == "" {
		port = outs[0]
	} else {
		for _, o := range outs {
			if strings.Contains(strings.ToLower(o.String()), strings.ToLower(name)) {
				port = o
				break
			}
		}
		if port == nil {
			return nil, fmt.Errorf("midiout: no port matching %q", name)
		}
	}
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("midiout: open %s: %w", port, err)
	}
	debug.Log("midiout", "opened port %s", port)
	return &Preview{port: port, send: send}, nil
}

// Close releases the port and the driver.
func (p *Preview) Close() {
	p.port.Close()
	gomidi.CloseDriver()
}

// event is one wire message at an absolute time offset.
type event struct {
	at  time.Duration
	msg gomidi.Message
}

// Play streams the tracks' notes to the port in real time, blocking
// until the piece ends or ctx is cancelled. Cancellation sends a note
// kill on every used channel so nothing keeps sounding.
func (p *Preview) Play(ctx context.Context, tracks map[composition.Instrument]*sequencer.Track) error {
	var events []event
	channels := make([]uint8, 0, len(tracks))

	// Stable channel assignment: instrument order sorted by name.
	insts := make([]composition.Instrument, 0, len(tracks))
	for inst := range tracks {
		insts = append(insts, inst)
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i] < insts[j] })

	for idx, inst := range insts {
		ch := uint8(idx)
		if ch > 15 {
			ch = 15
		}
		channels = append(channels, ch)
		events = append(events, event{at: 0, msg: gomidi.ProgramChange(ch, composition.GMProgram[inst])})
		for _, n := range tracks[inst].Notes {
			vel := uint8(n.Velocity * 127)
			events = append(events, event{
				at:  time.Duration(n.Start * float64(time.Second)),
				msg: gomidi.NoteOn(ch, uint8(n.Pitch), vel),
			})
			events = append(events, event{
				at:  time.Duration((n.Start + n.Duration) * float64(time.Second)),
				msg: gomidi.NoteOff(ch, uint8(n.Pitch)),
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].at < events[j].at })

	start := time.Now()
	for _, ev := range events {
		wait := ev.at - time.Since(start)
		if wait > 0 {
			select {
			case <-ctx.Done():
				p.allNotesOff(channels)
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := p.send(ev.msg); err != nil {
			p.allNotesOff(channels)
			return fmt.Errorf("midiout: send: %w", err)
		}
	}
	return nil
}

func (p *Preview) allNotesOff(channels []uint8) {
	for _, ch := range channels {
		// CC 123: all notes off
		p.send(gomidi.ControlChange(ch, 123, 0))
	}
}
