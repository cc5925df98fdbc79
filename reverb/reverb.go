package reverb

import (
	"math"
	"math/rand"

	"aria/audio"
	"aria/composition"
)

// Options describe the synthesized room. RoomSize, Damping and Mix are in
// [0,1]; DecayTime is seconds; PreDelayMs is milliseconds.
type Options struct {
	RoomSize   float64
	DecayTime  float64
	Damping    float64
	PreDelayMs float64
	Mix        float64
}

// PresetFor returns the fixed reverb options for a mood. Unknown moods
// get the calm room.
func PresetFor(mood composition.Mood) Options {
	switch mood {
	case composition.Heroic:
		return Options{RoomSize: 0.8, DecayTime: 2.5, Damping: 0.3, PreDelayMs: 30, Mix: 0.45}
	case composition.Melancholic:
		return Options{RoomSize: 0.7, DecayTime: 3.2, Damping: 0.6, PreDelayMs: 40, Mix: 0.5}
	case composition.Festive:
		return Options{RoomSize: 0.4, DecayTime: 1.2, Damping: 0.2, PreDelayMs: 10, Mix: 0.3}
	default: // calm
		return Options{RoomSize: 0.5, DecayTime: 1.8, Damping: 0.5, PreDelayMs: 20, Mix: 0.35}
	}
}

// GenerateImpulseResponse synthesizes a stereo impulse response. The two
// channels are generated independently so they decorrelate.
func GenerateImpulseResponse(sampleRate int, opts Options) *audio.Buffer {
	frames := irLength(sampleRate, opts)
	buf := audio.NewBuffer(sampleRate, frames)
	for ch := 0; ch < 2; ch++ {
		channel := generateChannel(sampleRate, frames, opts)
		for i, s := range channel {
			buf.Frames[i][ch] = s
		}
	}
	return buf
}

func irLength(sampleRate int, opts Options) int {
	n := int(float64(sampleRate) * opts.DecayTime * (0.5 + opts.RoomSize*0.5))
	if n < 1 {
		n = 1
	}
	return n
}

func generateChannel(sampleRate, frames int, opts Options) []float64 {
	out := make([]float64, frames)
	preDelay := int(opts.PreDelayMs / 1000 * float64(sampleRate))
	if preDelay >= frames {
		preDelay = frames - 1
	}

	// Early reflections: sparse signed impulses with geometric falloff
	// inside the first stretch of the room.
	reflections := 6 + int(opts.RoomSize*8)
	earlySpan := int(0.08 * (1 + opts.RoomSize) * float64(sampleRate))
	if earlySpan > frames-preDelay {
		earlySpan = frames - preDelay
	}
	for r := 0; r < reflections && earlySpan > 0; r++ {
		pos := preDelay + rand.Intn(earlySpan)
		sign := 1.0
		if rand.Float64() < 0.5 {
			sign = -1
		}
		out[pos] += sign * math.Pow(0.78, float64(r))
	}

	// Diffuse tail: damped, exponentially enveloped noise. The decay
	// constant targets -60 dB at DecayTime.
	dampingFactor := 1 - opts.Damping*0.8
	decaySamples := opts.DecayTime * float64(sampleRate)
	lp := 0.0
	for i := preDelay; i < frames; i++ {
		env := math.Exp(-6.9 * float64(i-preDelay) / decaySamples)
		noise := (rand.Float64()*2 - 1) * env
		lp += dampingFactor * (noise - lp)
		out[i] += lp
	}

	normalize(out, 0.8)
	return out
}

// normalize scales the channel so its absolute peak hits target. An
// all-zero channel is left alone.
func normalize(samples []float64, target float64) {
	peak := 0.0
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if peak == 0 {
		return
	}
	g := target / peak
	for i := range samples {
		samples[i] *= g
	}
}
