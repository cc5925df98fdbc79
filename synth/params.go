package synth

import "aria/composition"

// Params shape a voice's envelope and timbre. They are derived from the
// composition's mood; Brightness and Vibrato sit in [0,1].
type Params struct {
	Attack     float64 // seconds to full level
	Release    float64 // decay tail after the nominal note end
	Brightness float64 // harmonic content / filter openness
	Vibrato    float64 // pitch modulation depth
	Detune     float64 // unison spread in semitone fractions
}

// ParamsFor returns the voice parameter bundle for a mood. Unknown moods
// fall back to calm.
func ParamsFor(mood composition.Mood) Params {
	switch mood {
	case composition.Heroic:
		return Params{Attack: 0.01, Release: 0.5, Brightness: 0.85, Vibrato: 0.25, Detune: 0.012}
	case composition.Melancholic:
		return Params{Attack: 0.08, Release: 1.2, Brightness: 0.35, Vibrato: 0.5, Detune: 0.006}
	case composition.Festive:
		return Params{Attack: 0.005, Release: 0.3, Brightness: 0.95, Vibrato: 0.15, Detune: 0.015}
	default: // calm
		return Params{Attack: 0.04, Release: 0.9, Brightness: 0.5, Vibrato: 0.3, Detune: 0.008}
	}
}
