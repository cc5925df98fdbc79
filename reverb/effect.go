package reverb

import "aria/audio"

// Effect is the wet/dry chain around an impulse response. The dry path
// passes the input through at 1-mix while the wet path convolves with
// the IR at mix.
type Effect struct {
	ir  *audio.Buffer
	mix float64
	dry float64
	wet float64
}

// NewEffect builds a chain for the given room.
func NewEffect(sampleRate int, opts Options) *Effect {
	e := &Effect{ir: GenerateImpulseResponse(sampleRate, opts)}
	e.SetMix(opts.Mix)
	return e
}

// SetMix sets the wet fraction, clamped to [0,1]. Takes effect on the
// next Process call.
func (e *Effect) SetMix(mix float64) {
	if mix < 0 {
		mix = 0
	}
	if mix > 1 {
		mix = 1
	}
	e.mix = mix
	e.dry = 1 - mix
	e.wet = mix
}

// Mix returns the current wet fraction.
func (e *Effect) Mix() float64 { return e.mix }

// DryGain returns the dry-path gain.
func (e *Effect) DryGain() float64 { return e.dry }

// WetGain returns the wet-path gain.
func (e *Effect) WetGain() float64 { return e.wet }

// Process returns dry*in + wet*(in ∗ ir), truncated to the input length;
// callers leave a guard tail in the buffer for the reverb to land in.
func (e *Effect) Process(in *audio.Buffer) *audio.Buffer {
	out := audio.NewBuffer(in.SampleRate, in.Len())
	if e.wet == 0 {
		for i, f := range in.Frames {
			out.Frames[i][0] = f[0] * e.dry
			out.Frames[i][1] = f[1] * e.dry
		}
		return out
	}
	for ch := 0; ch < 2; ch++ {
		x := make([]float64, in.Len())
		h := make([]float64, e.ir.Len())
		for i := range in.Frames {
			x[i] = in.Frames[i][ch]
		}
		for i := range e.ir.Frames {
			h[i] = e.ir.Frames[i][ch]
		}
		wet := fftConvolve(x, h)
		for i := range out.Frames {
			out.Frames[i][ch] = e.dry*x[i] + e.wet*wet[i]
		}
	}
	return out
}
