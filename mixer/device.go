package mixer

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/oto/v2"
)

// Player is the playable source handle the mixer creates per Play call.
// oto's player satisfies it; tests substitute their own.
type Player interface {
	Play()
	Close() error
}

// Output is the realtime output device the mixer owns. Exactly one
// mixer instance drives an Output at a time.
type Output interface {
	NewPlayer(r io.Reader) Player
	Resume() error
	SampleRate() int
}

// Device adapts an oto context to the Output interface. Creating the
// context is the one fatal device error: without it no track can play.
type Device struct {
	ctx        *oto.Context
	ready      chan struct{}
	sampleRate int
}

// NewDevice opens the host audio device for float32 stereo output.
func NewDevice(sampleRate int) (*Device, error) {
	// bit depth 0 selects 32-bit float little-endian samples
	ctx, ready, err := oto.NewContext(sampleRate, 2, 0)
	if err != nil {
		return nil, fmt.Errorf("mixer: audio device: %w", err)
	}
	return &Device{ctx: ctx, ready: ready, sampleRate: sampleRate}, nil
}

// NewPlayer wraps a sample stream in a fresh hardware player.
func (d *Device) NewPlayer(r io.Reader) Player {
	return d.ctx.NewPlayer(r)
}

// Resume unsuspends the context. Returns nil when the device is still
// warming up; playback then starts as soon as it is ready.
func (d *Device) Resume() error {
	select {
	case <-d.ready:
	default:
	}
	return d.ctx.Resume()
}

// SampleRate returns the device output rate.
func (d *Device) SampleRate() int { return d.sampleRate }
