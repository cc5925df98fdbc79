package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"aria/audio"
	"aria/composition"
	"aria/config"
	"aria/debug"
	"aria/midifile"
	"aria/midiout"
	"aria/mixer"
	"aria/render"
	"aria/sequencer"
	"aria/tui"
	"aria/wav"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		outDir      = flag.String("out", cfg.Render.OutputDir, "output directory for WAV/MIDI files")
		instFlag    = flag.String("instruments", "", "comma-separated instruments (default: all with roles)")
		mood        = flag.String("mood", cfg.Render.Mood, "mood: calm, heroic, melancholic, festive")
		tempo       = flag.Float64("tempo", cfg.Render.Tempo, "tempo in BPM")
		rate        = flag.Int("rate", cfg.Render.SampleRate, "sample rate")
		play        = flag.Bool("play", false, "open the interactive player after rendering")
		preview     = flag.Bool("preview", false, "play the composition on a MIDI output port instead of rendering")
		previewPort = flag.String("midi-port", cfg.Preview.PortName, "MIDI output port for -preview")
		debugLog    = flag.Bool("debug", false, "write a debug log to ~/.config/aria/debug.log")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: aria [flags] composition.json")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if *debugLog {
		if err := debug.Enable(); err != nil {
			return err
		}
		defer debug.Disable()
	}

	comp, err := loadComposition(flag.Arg(0))
	if err != nil {
		return err
	}
	instruments, err := pickInstruments(comp, *instFlag)
	if err != nil {
		return err
	}
	params := render.Params{BPM: *tempo, Mood: composition.Mood(*mood)}

	if *preview {
		return runPreview(comp, instruments, *tempo, *previewPort)
	}

	// Offline render, one WAV per instrument plus the MIDI file.
	engine := render.NewEngine(*rate)
	duration := sequencer.TotalDuration(comp)
	fmt.Printf("Rendering %d instruments, %.0fs each (est. %.0fs)\n",
		len(instruments), duration, render.EstimateRenderSeconds(duration, len(instruments)))

	results, err := engine.RenderAll(comp, instruments, params, func(inst composition.Instrument, pct float64) {
		fmt.Printf("\r  %-8s %3.0f%%", inst, pct)
		if pct >= 100 {
			fmt.Println()
		}
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return err
	}
	var inputs []mixer.TrackInput
	for _, inst := range instruments {
		data := wav.Encode(results[inst].Buffer)
		path := filepath.Join(*outDir, fmt.Sprintf("aria_%s.wav", inst))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		inputs = append(inputs, mixer.TrackInput{Instrument: inst, Data: data})
	}

	midiData, err := midifile.Encode(comp, instruments, *tempo)
	if err != nil {
		return err
	}
	midiPath := filepath.Join(*outDir, "aria.mid")
	if err := os.WriteFile(midiPath, midiData, 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", midiPath)

	if !*play {
		return nil
	}
	return runPlayer(inputs, *rate)
}

func loadComposition(path string) (*composition.Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var comp composition.Composition
	if err := json.Unmarshal(data, &comp); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := comp.Validate(); err != nil {
		return nil, err
	}
	return &comp, nil
}

// pickInstruments parses the -instruments flag, defaulting to every
// instrument the composition assigns a role.
func pickInstruments(comp *composition.Composition, csv string) ([]composition.Instrument, error) {
	if csv == "" {
		var insts []composition.Instrument
		for inst := range comp.InstrumentRoles {
			insts = append(insts, inst)
		}
		if len(insts) == 0 {
			return nil, fmt.Errorf("composition assigns no instrument roles")
		}
		sort.Slice(insts, func(i, j int) bool { return insts[i] < insts[j] })
		return insts, nil
	}
	var insts []composition.Instrument
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			inst := composition.Instrument(csv[start:i])
			if !inst.Valid() {
				return nil, fmt.Errorf("unknown instrument %q", inst)
			}
			insts = append(insts, inst)
			start = i + 1
		}
	}
	return insts, nil
}

func runPreview(comp *composition.Composition, instruments []composition.Instrument, tempo float64, port string) error {
	tracks, err := sequencer.Schedule(comp, instruments, sequencer.Params{BPM: tempo})
	if err != nil {
		return err
	}
	p, err := midiout.Open(port)
	if err != nil {
		return err
	}
	defer p.Close()
	fmt.Println("Previewing on MIDI out (ctrl+c to stop)")
	return p.Play(context.Background(), tracks)
}

func runPlayer(inputs []mixer.TrackInput, rate int) error {
	device, err := mixer.NewDevice(rate)
	if err != nil {
		return err
	}
	m := mixer.New(device, audio.SystemClock, inputs)
	defer m.Close()
	for inst, decodeErr := range m.Errors() {
		fmt.Fprintf(os.Stderr, "Warning: %s failed to decode: %v\n", inst, decodeErr)
	}
	if !m.IsReady() {
		return fmt.Errorf("no playable tracks")
	}

	program := tea.NewProgram(tui.NewModel(m, "aria player"))
	_, err = program.Run()
	return err
}
