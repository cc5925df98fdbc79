package synth

import (
	"math"
	"math/rand"

	"aria/audio"
	"aria/sequencer"
)

// pianoVoice layers decaying partials with a soft hammer transient.
type pianoVoice struct {
	voice
}

func (v *pianoVoice) ScheduleNote(n sequencer.Note, dst *audio.Buffer) error {
	if err := v.check(); err != nil {
		return err
	}
	rate := float64(v.sampleRate)
	start := int(n.Start * rate)
	frames := int((n.Duration + v.params.Release) * rate)
	freq := pitchHz(n.Pitch)

	// Partial weights thin out as brightness drops.
	partials := 2 + int(v.params.Brightness*4)
	for i := 0; i < frames; i++ {
		t := float64(i) / rate
		env := envelope(t, 0.004, n.Duration, v.params.Release)
		s := 0.0
		for k := 1; k <= partials; k++ {
			amp := 1.0 / math.Pow(float64(k), 1.6)
			// upper partials die faster than the fundamental
			s += amp * math.Exp(-t*float64(k-1)*2.5) * math.Sin(2*math.Pi*freq*float64(k)*t)
		}
		if t < 0.01 {
			s += (rand.Float64()*2 - 1) * (1 - t/0.01) * 0.08
		}
		s *= env * n.Velocity * 0.35
		dst.AddAt(start+i, s, s)
	}
	return nil
}

// guitarVoice is a Karplus-Strong plucked string.
type guitarVoice struct {
	voice
	line []float64 // delay line, reused across notes
}

func (v *guitarVoice) ScheduleNote(n sequencer.Note, dst *audio.Buffer) error {
	if err := v.check(); err != nil {
		return err
	}
	rate := float64(v.sampleRate)
	start := int(n.Start * rate)
	frames := int((n.Duration + v.params.Release) * rate)
	period := int(rate / pitchHz(n.Pitch))
	if period < 2 {
		period = 2
	}
	if cap(v.line) < period {
		v.line = make([]float64, period)
	}
	line := v.line[:period]
	for i := range line {
		line[i] = rand.Float64()*2 - 1
	}
	// String loss: brighter means less damping per round trip.
	damp := 0.5 - 0.004*(1-v.params.Brightness)
	pos := 0
	for i := 0; i < frames; i++ {
		s := line[pos]
		next := line[(pos+1)%period]
		line[pos] = (s + next) * damp
		pos = (pos + 1) % period
		out := s * n.Velocity * 0.5
		dst.AddAt(start+i, out*0.65, out*0.35)
	}
	return nil
}

// bassVoice is a sub-octave sine with gentle saturation.
type bassVoice struct {
	voice
}

func (v *bassVoice) ScheduleNote(n sequencer.Note, dst *audio.Buffer) error {
	if err := v.check(); err != nil {
		return err
	}
	rate := float64(v.sampleRate)
	start := int(n.Start * rate)
	frames := int((n.Duration + v.params.Release) * rate)
	freq := pitchHz(n.Pitch) / 2
	for i := 0; i < frames; i++ {
		t := float64(i) / rate
		env := envelope(t, 0.008, n.Duration, v.params.Release*0.6)
		s := math.Sin(2*math.Pi*freq*t) + 0.25*math.Sin(4*math.Pi*freq*t)
		s = math.Tanh(s*1.5) * env * n.Velocity * 0.45
		dst.AddAt(start+i, s, s)
	}
	return nil
}

// stringsVoice is a detuned saw unison behind a one-pole lowpass, with
// the slow attack doing most of the character.
type stringsVoice struct {
	voice
}

func (v *stringsVoice) ScheduleNote(n sequencer.Note, dst *audio.Buffer) error {
	if err := v.check(); err != nil {
		return err
	}
	rate := float64(v.sampleRate)
	start := int(n.Start * rate)
	frames := int((n.Duration + v.params.Release) * rate)
	base := pitchHz(n.Pitch)
	detune := v.params.Detune
	freqs := []float64{base, base * (1 + detune), base * (1 - detune)}
	attack := math.Max(v.params.Attack, 0.12)
	cutoff := 0.05 + 0.25*v.params.Brightness
	var lpL, lpR float64
	for i := 0; i < frames; i++ {
		t := float64(i) / rate
		env := envelope(t, attack, n.Duration, v.params.Release)
		var l, r float64
		for j, f := range freqs {
			phase := math.Mod(f*t, 1)
			saw := 2*phase - 1
			if j == 1 {
				l += saw
			} else if j == 2 {
				r += saw
			} else {
				l += saw * 0.5
				r += saw * 0.5
			}
		}
		lpL += cutoff * (l - lpL)
		lpR += cutoff * (r - lpR)
		g := env * n.Velocity * 0.3
		dst.AddAt(start+i, lpL*g, lpR*g)
	}
	return nil
}

// fluteVoice is a near-sine with breath noise and mood-scaled vibrato.
type fluteVoice struct {
	voice
	breath float64 // noise lowpass state
}

func (v *fluteVoice) ScheduleNote(n sequencer.Note, dst *audio.Buffer) error {
	if err := v.check(); err != nil {
		return err
	}
	rate := float64(v.sampleRate)
	start := int(n.Start * rate)
	frames := int((n.Duration + v.params.Release) * rate)
	freq := pitchHz(n.Pitch)
	depth := 0.004 * v.params.Vibrato
	phase := 0.0
	for i := 0; i < frames; i++ {
		t := float64(i) / rate
		env := envelope(t, math.Max(v.params.Attack, 0.05), n.Duration, v.params.Release*0.5)
		vib := 1 + depth*math.Sin(2*math.Pi*5*t)
		phase += freq * vib / rate
		s := math.Sin(2*math.Pi*phase) + 0.2*math.Sin(4*math.Pi*phase)
		v.breath += 0.15 * ((rand.Float64()*2 - 1) - v.breath)
		s += v.breath * 0.12
		s *= env * n.Velocity * 0.4
		dst.AddAt(start+i, s*0.45, s*0.55)
	}
	return nil
}

// drumsVoice picks a percussion model by pitch register: low notes are a
// kick sweep, mid notes a snare, high notes a closed hat.
type drumsVoice struct {
	voice
}

func (v *drumsVoice) ScheduleNote(n sequencer.Note, dst *audio.Buffer) error {
	if err := v.check(); err != nil {
		return err
	}
	rate := float64(v.sampleRate)
	start := int(n.Start * rate)
	switch {
	case n.Pitch < 52:
		v.kick(start, n.Velocity, dst, rate)
	case n.Pitch < 70:
		v.snare(start, n.Velocity, dst, rate)
	default:
		v.hat(start, n.Velocity, dst, rate)
	}
	return nil
}

func (v *drumsVoice) kick(start int, vel float64, dst *audio.Buffer, rate float64) {
	frames := int(0.25 * rate)
	for i := 0; i < frames; i++ {
		t := float64(i) / rate
		freq := 40 + 80*math.Exp(-t*30)
		s := math.Sin(2*math.Pi*freq*t) * math.Exp(-t*12) * vel * 0.9
		dst.AddAt(start+i, s, s)
	}
}

func (v *drumsVoice) snare(start int, vel float64, dst *audio.Buffer, rate float64) {
	frames := int(0.18 * rate)
	for i := 0; i < frames; i++ {
		t := float64(i) / rate
		env := math.Exp(-t * 18)
		s := ((rand.Float64()*2-1)*0.7 + 0.3*math.Sin(2*math.Pi*190*t)) * env * vel * 0.6
		dst.AddAt(start+i, s, s)
	}
}

func (v *drumsVoice) hat(start int, vel float64, dst *audio.Buffer, rate float64) {
	frames := int(0.07 * rate)
	prev := 0.0
	for i := 0; i < frames; i++ {
		t := float64(i) / rate
		white := rand.Float64()*2 - 1
		// crude highpass: difference against the previous sample
		s := (white - prev) * math.Exp(-t*45) * vel * 0.35
		prev = white
		dst.AddAt(start+i, s*0.4, s*0.6)
	}
}
