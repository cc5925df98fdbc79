// Package mixer drives synchronized multi-track playback: transport,
// per-track volume and mute, and partial-failure tolerance on decode.
package mixer

import (
	"errors"
	"sync"
	"time"

	"aria/audio"
	"aria/composition"
	"aria/debug"
	"aria/wav"
)

// settleDelay is how long a seek-while-playing waits before restarting,
// so the just-stopped sources are guaranteed torn down first.
const settleDelay = 50 * time.Millisecond

// pollInterval approximates display-refresh cadence for the transport
// clock loop.
const pollInterval = 16 * time.Millisecond

// ErrNotReady is returned by Play when no track decoded successfully.
var ErrNotReady = errors.New("mixer: no playable tracks")

// TrackInput is one encoded per-instrument payload, normally a WAV
// produced by the offline render engine.
type TrackInput struct {
	Instrument composition.Instrument
	Data       []byte
}

// TrackState is a read-only snapshot of one track's mix state.
type TrackState struct {
	Volume float64
	Muted  bool
	Err    error
}

// track is the mutable per-track state, guarded by Mixer.mu.
type track struct {
	inst   composition.Instrument
	buf    *audio.Buffer // nil when decode failed
	volume float64
	muted  bool
	err    error
}

// effectiveGain honors the mute-wins invariant.
func (t *track) effectiveGain() float64 {
	if t.muted {
		return 0
	}
	return t.volume
}

// Mixer owns one output device and a set of decoded tracks. All state
// transitions are serialized through mu; the output device reads sample
// data on its own thread through the mix stream, which takes the same
// lock per read.
type Mixer struct {
	out   Output
	clock audio.Clock

	mu          sync.Mutex
	tracks      []*track
	byInst      map[composition.Instrument]*track
	duration    float64
	playing     bool
	pauseOffset float64
	ref         time.Time
	player      Player
	pollStop    chan struct{}
	closed      bool
}

// New decodes every input independently. A track that fails to decode is
// recorded with its error and excluded from playback; the mixer is ready
// as long as at least one track decoded.
func New(out Output, clock audio.Clock, inputs []TrackInput) *Mixer {
	m := &Mixer{
		out:    out,
		clock:  clock,
		byInst: make(map[composition.Instrument]*track, len(inputs)),
	}
	for _, in := range inputs {
		tr := &track{inst: in.Instrument, volume: 1}
		buf, err := wav.Decode(in.Data)
		if err != nil {
			tr.err = err
			debug.Log("mixer", "%s: decode failed: %v", in.Instrument, err)
		} else {
			tr.buf = buf
			if d := buf.Duration(); d > m.duration {
				m.duration = d
			}
		}
		m.tracks = append(m.tracks, tr)
		m.byInst[in.Instrument] = tr
	}
	return m
}

// IsReady reports whether at least one track decoded.
func (m *Mixer) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tr := range m.tracks {
		if tr.buf != nil {
			return true
		}
	}
	return false
}

// HasPartialFailure reports whether any track failed to decode.
func (m *Mixer) HasPartialFailure() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tr := range m.tracks {
		if tr.err != nil {
			return true
		}
	}
	return false
}

// Errors returns the per-instrument decode errors.
func (m *Mixer) Errors() map[composition.Instrument]error {
	m.mu.Lock()
	defer m.mu.Unlock()
	errs := make(map[composition.Instrument]error)
	for _, tr := range m.tracks {
		if tr.err != nil {
			errs[tr.inst] = tr.err
		}
	}
	return errs
}

// Duration is the longest decoded track's length in seconds.
func (m *Mixer) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

// IsPlaying reports transport state.
func (m *Mixer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// CurrentTime is the transport position in seconds.
func (m *Mixer) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.positionLocked()
}

func (m *Mixer) positionLocked() float64 {
	pos := m.pauseOffset
	if m.playing {
		pos += m.clock.ElapsedSince(m.ref)
	}
	if pos > m.duration {
		pos = m.duration
	}
	return pos
}

// Play starts all tracks simultaneously at the stored pause offset. Any
// stale source from a previous run is discarded first.
func (m *Mixer) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playing || m.closed {
		return nil
	}
	ready := false
	for _, tr := range m.tracks {
		if tr.buf != nil {
			ready = true
			break
		}
	}
	if !ready {
		return ErrNotReady
	}
	if err := m.out.Resume(); err != nil {
		return err
	}
	// stop-before-start: never leave two source sets alive
	m.discardPlayerLocked()

	start := int(m.pauseOffset * float64(m.out.SampleRate()))
	m.player = m.out.NewPlayer(&mixStream{mixer: m, frame: start})
	m.player.Play()
	m.ref = m.clock.Now()
	m.playing = true
	m.pollStop = make(chan struct{})
	go m.poll(m.pollStop)
	debug.Log("mixer", "play at %.2fs", m.pauseOffset)
	return nil
}

// Pause accumulates elapsed time into the pause offset and tears the
// current sources down.
func (m *Mixer) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseLocked()
}

func (m *Mixer) pauseLocked() {
	if !m.playing {
		return
	}
	m.pauseOffset = m.positionLocked()
	m.playing = false
	m.discardPlayerLocked()
	if m.pollStop != nil {
		close(m.pollStop)
		m.pollStop = nil
	}
	debug.Log("mixer", "paused at %.2fs", m.pauseOffset)
}

func (m *Mixer) discardPlayerLocked() {
	if m.player != nil {
		m.player.Close()
		m.player = nil
	}
}

// TogglePlay flips between playing and paused.
func (m *Mixer) TogglePlay() error {
	if m.IsPlaying() {
		m.Pause()
		return nil
	}
	return m.Play()
}

// Seek moves the transport to t seconds, clamped to [0, duration]. When
// playing, playback pauses and restarts after a short settle delay.
func (m *Mixer) Seek(t float64) {
	m.mu.Lock()
	if t < 0 {
		t = 0
	}
	if t > m.duration {
		t = m.duration
	}
	wasPlaying := m.playing
	m.pauseLocked()
	m.pauseOffset = t
	m.mu.Unlock()

	if wasPlaying {
		time.AfterFunc(settleDelay, func() { m.Play() })
	}
}

// SeekToFraction seeks to a fraction of the total duration, the mapping
// a scrubber click uses.
func (m *Mixer) SeekToFraction(f float64) {
	m.Seek(f * m.Duration())
}

// SetTrackVolume stores a track's volume, clamped to [0,1]. Takes effect
// on the next samples the device pulls.
func (m *Mixer) SetTrackVolume(inst composition.Instrument, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tr, ok := m.byInst[inst]
	if !ok {
		return
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	tr.volume = v
}

// ToggleMute flips a track's mute flag. A muted track contributes zero
// output regardless of its stored volume; unmuting restores the stored
// volume.
func (m *Mixer) ToggleMute(inst composition.Instrument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tr, ok := m.byInst[inst]; ok {
		tr.muted = !tr.muted
	}
}

// TrackStates snapshots every track's mix state.
func (m *Mixer) TrackStates() map[composition.Instrument]TrackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	states := make(map[composition.Instrument]TrackState, len(m.tracks))
	for _, tr := range m.tracks {
		states[tr.inst] = TrackState{Volume: tr.volume, Muted: tr.muted, Err: tr.err}
	}
	return states
}

// Instruments returns the track order as supplied to New.
func (m *Mixer) Instruments() []composition.Instrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	insts := make([]composition.Instrument, len(m.tracks))
	for i, tr := range m.tracks {
		insts[i] = tr.inst
	}
	return insts
}

// Close tears down playback permanently. Safe to call more than once.
func (m *Mixer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseLocked()
	m.closed = true
}

// poll watches the transport clock and auto-stops at the end, resetting
// the position to zero.
func (m *Mixer) poll(stop chan struct{}) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			if !m.playing {
				m.mu.Unlock()
				return
			}
			if m.positionLocked() >= m.duration {
				m.pauseLocked()
				m.pauseOffset = 0
				debug.Log("mixer", "end of piece, transport reset")
				m.mu.Unlock()
				return
			}
			m.mu.Unlock()
		}
	}
}
