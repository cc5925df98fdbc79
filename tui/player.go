// Package tui is the interactive playback front end over the mixer's
// transport surface.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"aria/composition"
	"aria/mixer"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	playheadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

const seekStep = 5.0 // seconds per arrow key

// tickMsg drives transport redraws at display cadence.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type Model struct {
	Mixer    *mixer.Mixer
	Title    string
	tracks   []composition.Instrument
	selected int
	quitting bool
}

func NewModel(m *mixer.Mixer, title string) Model {
	return Model{
		Mixer:  m,
		Title:  title,
		tracks: m.Instruments(),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.Mixer.Close()
			return m, tea.Quit

		case " ", "p":
			m.Mixer.TogglePlay()

		case "left":
			m.Mixer.Seek(m.Mixer.CurrentTime() - seekStep)

		case "right":
			m.Mixer.Seek(m.Mixer.CurrentTime() + seekStep)

		case "0":
			m.Mixer.Seek(0)

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.tracks)-1 {
				m.selected++
			}

		case "+", "=":
			m.adjustVolume(0.1)

		case "-", "_":
			m.adjustVolume(-0.1)

		case "m":
			if len(m.tracks) > 0 {
				m.Mixer.ToggleMute(m.tracks[m.selected])
			}
		}

	case tickMsg:
		return m, tick()
	}
	return m, nil
}

func (m Model) adjustVolume(delta float64) {
	if len(m.tracks) == 0 {
		return
	}
	inst := m.tracks[m.selected]
	m.Mixer.SetTrackVolume(inst, m.Mixer.TrackStates()[inst].Volume+delta)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.Title))
	b.WriteString("\n\n")

	// Transport line.
	icon := "▶"
	if !m.Mixer.IsPlaying() {
		icon = "⏸"
	}
	cur, dur := m.Mixer.CurrentTime(), m.Mixer.Duration()
	b.WriteString(fmt.Sprintf("%s %s / %s\n", icon, clockTime(cur), clockTime(dur)))
	b.WriteString(scrubber(cur, dur, 40))
	b.WriteString("\n\n")

	// Track rows.
	states := m.Mixer.TrackStates()
	for i, inst := range m.tracks {
		st := states[inst]
		row := fmt.Sprintf("%-8s %s", inst, volumeBar(st.Volume, 12))
		switch {
		case st.Err != nil:
			row = errorStyle.Render(fmt.Sprintf("%-8s decode failed", inst))
		case st.Muted:
			row = mutedStyle.Render(row + "  muted")
		}
		if i == m.selected {
			row = selectedStyle.Render("> ") + row
		} else {
			row = "  " + row
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space play/pause · ←/→ seek · j/k track · +/- volume · m mute · q quit"))
	b.WriteString("\n")
	return b.String()
}

func scrubber(cur, dur float64, width int) string {
	if dur <= 0 {
		return strings.Repeat("─", width)
	}
	pos := int(cur / dur * float64(width))
	if pos >= width {
		pos = width - 1
	}
	return playheadStyle.Render(strings.Repeat("━", pos)+"●") + strings.Repeat("─", width-1-pos)
}

func volumeBar(v float64, width int) string {
	filled := int(v * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func clockTime(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
