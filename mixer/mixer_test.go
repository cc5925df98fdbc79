package mixer

import (
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aria/audio"
	"aria/composition"
	"aria/wav"
)

// stubPlayer and stubOutput stand in for the oto device.
type stubPlayer struct {
	mu      sync.Mutex
	playing bool
	closed  bool
}

func (p *stubPlayer) Play() {
	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()
}

func (p *stubPlayer) Close() error {
	p.mu.Lock()
	p.playing = false
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *stubPlayer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

type stubOutput struct {
	mu      sync.Mutex
	rate    int
	players []*stubPlayer
	resumed int
}

func (o *stubOutput) NewPlayer(r io.Reader) Player {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := &stubPlayer{}
	o.players = append(o.players, p)
	return p
}

func (o *stubOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resumed++
	return nil
}

func (o *stubOutput) SampleRate() int { return o.rate }

func (o *stubOutput) playerCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.players)
}

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) clock() audio.Clock {
	return audio.NewClock(c.now)
}

// payload builds a WAV byte payload of the given length at rate.
func payload(rate int, seconds float64) []byte {
	buf := audio.NewBuffer(rate, int(seconds*float64(rate)))
	for i := range buf.Frames {
		s := 0.4 * math.Sin(2*math.Pi*220*float64(i)/float64(rate))
		buf.Frames[i][0] = s
		buf.Frames[i][1] = s
	}
	return wav.Encode(buf)
}

func newTestMixer(t *testing.T, seconds float64) (*Mixer, *stubOutput, *fakeClock) {
	t.Helper()
	out := &stubOutput{rate: 100}
	clk := newFakeClock()
	m := New(out, clk.clock(), []TrackInput{
		{Instrument: composition.Piano, Data: payload(100, seconds)},
		{Instrument: composition.Bass, Data: payload(100, seconds/2)},
	})
	t.Cleanup(m.Close)
	return m, out, clk
}

func TestPartialDecodeFailure(t *testing.T) {
	out := &stubOutput{rate: 100}
	m := New(out, newFakeClock().clock(), []TrackInput{
		{Instrument: composition.Piano, Data: payload(100, 1)},
		{Instrument: composition.Flute, Data: []byte("definitely not a wav")},
	})
	defer m.Close()

	assert.True(t, m.IsReady())
	assert.True(t, m.HasPartialFailure())
	errs := m.Errors()
	require.Len(t, errs, 1)
	assert.Error(t, errs[composition.Flute])
	assert.Error(t, m.TrackStates()[composition.Flute].Err)
	assert.NoError(t, m.TrackStates()[composition.Piano].Err)
}

func TestAllTracksFailed(t *testing.T) {
	out := &stubOutput{rate: 100}
	m := New(out, newFakeClock().clock(), []TrackInput{
		{Instrument: composition.Piano, Data: nil},
	})
	defer m.Close()

	assert.False(t, m.IsReady())
	assert.ErrorIs(t, m.Play(), ErrNotReady)
}

func TestDurationIsMax(t *testing.T) {
	m, _, _ := newTestMixer(t, 60)
	assert.InDelta(t, 60.0, m.Duration(), 1e-9)
}

func TestSeekClamps(t *testing.T) {
	m, _, _ := newTestMixer(t, 60)

	m.Seek(-10)
	assert.InDelta(t, 0.0, m.CurrentTime(), 1e-9)
	m.Seek(100)
	assert.InDelta(t, 60.0, m.CurrentTime(), 1e-9)
	m.Seek(30)
	assert.InDelta(t, 30.0, m.CurrentTime(), 1e-9)
}

func TestSeekFraction(t *testing.T) {
	m, _, _ := newTestMixer(t, 200)
	m.SeekToFraction(0.25)
	assert.InDelta(t, 50.0, m.CurrentTime(), 1e-9)
}

func TestSetTrackVolumeClamps(t *testing.T) {
	m, _, _ := newTestMixer(t, 10)
	tests := []struct{ in, want float64 }{
		{-0.5, 0}, {1.5, 1}, {0.5, 0.5},
	}
	for _, tt := range tests {
		m.SetTrackVolume(composition.Piano, tt.in)
		assert.InDelta(t, tt.want, m.TrackStates()[composition.Piano].Volume, 1e-9)
	}
	// unknown instrument is ignored
	m.SetTrackVolume(composition.Drums, 0.3)
}

func TestMuteForcesSilence(t *testing.T) {
	m, _, _ := newTestMixer(t, 2)
	m.SetTrackVolume(composition.Piano, 0.7)
	m.SetTrackVolume(composition.Bass, 0)
	m.ToggleMute(composition.Piano)

	st := m.TrackStates()[composition.Piano]
	assert.True(t, st.Muted)
	assert.InDelta(t, 0.7, st.Volume, 1e-9, "stored volume survives mute")

	s := &mixStream{mixer: m}
	buf := make([]byte, 64*bytesPerFrame)
	n, err := s.Read(buf)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.Zero(t, buf[i], "muted mix must be silent")
	}

	m.ToggleMute(composition.Piano)
	assert.False(t, m.TrackStates()[composition.Piano].Muted)
	assert.InDelta(t, 0.7, m.TrackStates()[composition.Piano].Volume, 1e-9)

	s2 := &mixStream{mixer: m}
	n, err = s2.Read(buf)
	require.NoError(t, err)
	silent := true
	for i := 0; i < n; i++ {
		if buf[i] != 0 {
			silent = false
			break
		}
	}
	assert.False(t, silent, "unmuted mix restores output")
}

func TestPlayPauseTiming(t *testing.T) {
	m, out, clk := newTestMixer(t, 60)

	require.NoError(t, m.Play())
	assert.True(t, m.IsPlaying())
	assert.Equal(t, 1, out.playerCount())

	clk.advance(2 * time.Second)
	assert.InDelta(t, 2.0, m.CurrentTime(), 1e-9)

	m.Pause()
	assert.False(t, m.IsPlaying())
	assert.InDelta(t, 2.0, m.CurrentTime(), 1e-9)
	assert.True(t, out.players[0].isClosed(), "pause tears the source down")

	clk.advance(5 * time.Second)
	assert.InDelta(t, 2.0, m.CurrentTime(), 1e-9, "time frozen while paused")

	require.NoError(t, m.Play())
	assert.Equal(t, 2, out.playerCount(), "fresh source per play")
}

func TestStopBeforeStart(t *testing.T) {
	m, out, _ := newTestMixer(t, 60)
	require.NoError(t, m.Play())
	m.Pause()
	require.NoError(t, m.Play())
	require.Equal(t, 2, out.playerCount())
	assert.True(t, out.players[0].isClosed(), "old sources discarded before new ones start")
}

func TestAutoStopAtEnd(t *testing.T) {
	m, _, clk := newTestMixer(t, 1)
	require.NoError(t, m.Play())
	clk.advance(1500 * time.Millisecond)

	// give the poll loop a few ticks
	deadline := time.Now().Add(time.Second)
	for m.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(pollInterval)
	}
	assert.False(t, m.IsPlaying())
	assert.InDelta(t, 0.0, m.CurrentTime(), 1e-9, "transport resets to start")
}

func TestSeekWhilePlayingRestarts(t *testing.T) {
	m, _, _ := newTestMixer(t, 60)
	require.NoError(t, m.Play())
	m.Seek(5)
	assert.False(t, m.IsPlaying(), "seek pauses first")

	deadline := time.Now().Add(time.Second)
	for !m.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, m.IsPlaying(), "restarts after the settle delay")
	assert.InDelta(t, 5.0, m.CurrentTime(), 0.1)
}

func TestTogglePlay(t *testing.T) {
	m, _, _ := newTestMixer(t, 10)
	require.NoError(t, m.TogglePlay())
	assert.True(t, m.IsPlaying())
	require.NoError(t, m.TogglePlay())
	assert.False(t, m.IsPlaying())
}

func TestCloseStopsPlayback(t *testing.T) {
	m, _, _ := newTestMixer(t, 10)
	require.NoError(t, m.Play())
	m.Close()
	assert.False(t, m.IsPlaying())
	assert.NoError(t, m.Play(), "play after close is a no-op")
	assert.False(t, m.IsPlaying())
}

func TestMixStreamEOF(t *testing.T) {
	m, _, _ := newTestMixer(t, 0.5)
	s := &mixStream{mixer: m}
	buf := make([]byte, 1024*bytesPerFrame)
	total := 0
	for {
		n, err := s.Read(buf)
		total += n
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, 50*bytesPerFrame, total, "0.5s at 100Hz")
}

func TestShorterTrackGoesSilent(t *testing.T) {
	// Bass is half the piano's length; past its end it contributes
	// nothing but the mix keeps running.
	m, _, _ := newTestMixer(t, 2)
	s := &mixStream{mixer: m, frame: 150} // 1.5s in
	buf := make([]byte, 16*bytesPerFrame)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 16*bytesPerFrame, n)
}
