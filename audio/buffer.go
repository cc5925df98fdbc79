package audio

// Buffer holds decoded or rendered stereo audio. Frames are [left, right]
// sample pairs in [-1, 1].
type Buffer struct {
	SampleRate int
	Frames     [][2]float64
}

// NewBuffer allocates a silent buffer of the given frame count.
func NewBuffer(sampleRate, frames int) *Buffer {
	return &Buffer{
		SampleRate: sampleRate,
		Frames:     make([][2]float64, frames),
	}
}

// Len returns the frame count.
func (b *Buffer) Len() int {
	return len(b.Frames)
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Frames)) / float64(b.SampleRate)
}

// AddAt mixes left/right into the frame at index i, ignoring out-of-range
// indexes so voices can write their decay tails without bounds juggling.
func (b *Buffer) AddAt(i int, left, right float64) {
	if i < 0 || i >= len(b.Frames) {
		return
	}
	b.Frames[i][0] += left
	b.Frames[i][1] += right
}

// Peak returns the largest absolute sample value across both channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, f := range b.Frames {
		for _, s := range f {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
	}
	return peak
}

// Scale multiplies every sample by g in place.
func (b *Buffer) Scale(g float64) {
	for i := range b.Frames {
		b.Frames[i][0] *= g
		b.Frames[i][1] *= g
	}
}
