// Package render drives non-real-time synthesis: one finished audio
// buffer per instrument, with progress reporting.
package render

import (
	"fmt"

	"aria/audio"
	"aria/composition"
	"aria/debug"
	"aria/reverb"
	"aria/sequencer"
	"aria/synth"
)

// DefaultSampleRate is used when an Engine is built with rate <= 0.
const DefaultSampleRate = 44100

// guardTailSeconds is appended to every render so note releases and the
// reverb tail have room to decay.
const guardTailSeconds = 1.0

// progressStride is how many scheduled notes pass between progress
// callbacks during the scheduling phase.
const progressStride = 50

// Params are the playback knobs for a render pass.
type Params struct {
	BPM  float64
	Mood composition.Mood
}

// Result is one finished per-instrument render.
type Result struct {
	Buffer     *audio.Buffer
	Duration   float64
	Instrument composition.Instrument
}

// ProgressFunc receives percentages in [0,100].
type ProgressFunc func(pct float64)

// masterGain balances instruments against each other at the final stage.
var masterGain = map[composition.Instrument]float64{
	composition.Piano:   0.9,
	composition.Guitar:  0.85,
	composition.Bass:    0.95,
	composition.Strings: 0.7,
	composition.Flute:   0.75,
	composition.Drums:   1.0,
}

// Engine renders compositions offline at a fixed sample rate.
type Engine struct {
	sampleRate int
}

// NewEngine returns an engine at the given sample rate.
func NewEngine(sampleRate int) *Engine {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Engine{sampleRate: sampleRate}
}

// SampleRate returns the engine's output rate.
func (e *Engine) SampleRate() int { return e.sampleRate }

// RenderTrack synthesizes one instrument's track into a finished buffer.
// onProgress (optional) is called at 10% after setup, every
// progressStride notes interpolated up to 80%, at 80% before the final
// render pass, and at 100% on completion. A missing track is fatal.
func (e *Engine) RenderTrack(c *composition.Composition, inst composition.Instrument, p Params, onProgress ProgressFunc) (*Result, error) {
	report := func(pct float64) {
		if onProgress != nil {
			onProgress(pct)
		}
	}

	duration := sequencer.TotalDuration(c)
	frames := int((duration + guardTailSeconds) * float64(e.sampleRate))

	track, err := sequencer.ScheduleInstrument(c, inst, sequencer.Params{BPM: p.BPM})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", inst, err)
	}
	voice, err := synth.New(inst, e.sampleRate, synth.ParamsFor(p.Mood))
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", inst, err)
	}
	debug.Log("render", "%s: %d notes over %.1fs", inst, len(track.Notes), duration)
	report(10)

	dry := audio.NewBuffer(e.sampleRate, frames)
	for i, note := range track.Notes {
		if err := voice.ScheduleNote(note, dry); err != nil {
			return nil, fmt.Errorf("render %s: %w", inst, err)
		}
		if i > 0 && i%progressStride == 0 {
			report(10 + 70*float64(i)/float64(len(track.Notes)))
		}
	}
	report(80)

	// Final pass: reverb chain, master gain, hard limit.
	effect := reverb.NewEffect(e.sampleRate, reverb.PresetFor(p.Mood))
	out := effect.Process(dry)
	out.Scale(masterGain[inst])
	limit(out)

	voice.Dispose()
	report(100)

	return &Result{Buffer: out, Duration: duration, Instrument: inst}, nil
}

// RenderAll renders every requested instrument sequentially. A failure
// on any instrument aborts the whole pass: partial tolerance belongs to
// the playback side, not here.
func (e *Engine) RenderAll(c *composition.Composition, instruments []composition.Instrument, p Params, onProgress func(inst composition.Instrument, pct float64)) (map[composition.Instrument]*Result, error) {
	results := make(map[composition.Instrument]*Result, len(instruments))
	for _, inst := range instruments {
		var perTrack ProgressFunc
		if onProgress != nil {
			inst := inst
			perTrack = func(pct float64) { onProgress(inst, pct) }
		}
		res, err := e.RenderTrack(c, inst, p, perTrack)
		if err != nil {
			return nil, err
		}
		results[inst] = res
	}
	return results, nil
}

// EstimateRenderSeconds is the linear wall-clock heuristic shown to
// users before a render starts; it is not a measurement.
func EstimateRenderSeconds(duration float64, instrumentCount int) float64 {
	return duration * 0.5 * float64(instrumentCount)
}

// limit clamps samples to [-1, 1].
func limit(buf *audio.Buffer) {
	for i := range buf.Frames {
		for ch := 0; ch < 2; ch++ {
			if buf.Frames[i][ch] > 1 {
				buf.Frames[i][ch] = 1
			} else if buf.Frames[i][ch] < -1 {
				buf.Frames[i][ch] = -1
			}
		}
	}
}
