// ABOUTME: Bubbletea model for the voice chat TUI
// ABOUTME: Polls the session for status and stats and maps keys to volume control
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seraphwave/seraphwave-go/pkg/protocol"
	"github.com/seraphwave/seraphwave-go/pkg/seraphwave"
)

// RefreshInterval is how often the model polls the session
const RefreshInterval = 250 * time.Millisecond

// Session is what the TUI displays and controls. *seraphwave.Client satisfies it.
type Session interface {
	Status() seraphwave.Status
	Stats() seraphwave.Stats
	SetVolume(level int)
	Mute(muted bool)
}

// Model represents the TUI state
type Model struct {
	session Session

	status seraphwave.Status
	stats  seraphwave.Stats

	lastErr   string
	ended     bool
	showDebug bool

	// Dimensions
	width  int
	height int
}

// tickMsg triggers a status poll
type tickMsg time.Time

// ErrorMsg shows the latest session error
type ErrorMsg struct {
	Err error
}

// EndedMsg marks the session as closed
type EndedMsg struct {
	Err error
}

// NewModel creates a new TUI model
func NewModel(session Session) Model {
	m := Model{session: session}
	if session != nil {
		m.status = session.Status()
	}
	return m
}

// Init starts polling
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.refresh()
		return m, tick()
	case ErrorMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
	case EndedMsg:
		m.ended = true
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
	}

	return m, nil
}

func (m *Model) refresh() {
	if m.session == nil {
		return
	}
	m.status = m.session.Status()
	m.stats = m.session.Stats()
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderSession())
	b.WriteString(m.renderControls())
	b.WriteString(m.renderStats())

	if m.showDebug {
		b.WriteString(m.renderDebug())
	}

	b.WriteString(m.renderHelp())
	return b.String()
}

// stateText describes the connection state for humans
func stateText(kind protocol.StateKind, ended bool) (string, string) {
	if ended {
		return "✗", "Disconnected"
	}
	switch kind {
	case protocol.StateOnline:
		return "●", "Online"
	case protocol.StateOffline:
		return "○", "Offline (join the game server)"
	case protocol.StateAwaitingFirstPresence:
		return "…", "Session established, waiting for presence"
	case protocol.StateAwaitingSessionAck:
		return "…", "Waiting for the gateway"
	default:
		return "…", "Connecting"
	}
}

// renderHeader renders connection status
func (m Model) renderHeader() string {
	icon, text := stateText(m.status.State, m.ended)

	return fmt.Sprintf(`┌─ Seraphwave ─────────────────────────────────────────┐
│ Status: %s %-43s │
├──────────────────────────────────────────────────────┤
`, icon, truncate(text, 43))
}

// renderSession renders the join code and account
func (m Model) renderSession() string {
	s := fmt.Sprintf("│ Code:   %-44s │\n", m.status.Code)
	if m.status.Username != "" {
		s += fmt.Sprintf("│ Player: %-44s │\n", truncate(m.status.Username, 44))
	} else {
		s += fmt.Sprintf("│ %-52s │\n", truncate("Type /voice "+m.status.Code+" in game to join", 52))
	}
	if m.status.Meta.WelcomeMsg != "" {
		s += fmt.Sprintf("│ %-52s │\n", truncate(m.status.Meta.WelcomeMsg, 52))
	}
	return s
}

// renderControls renders volume status
func (m Model) renderControls() string {
	muteIcon := ""
	if m.status.Muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.status.Volume, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %3d%%%-29s │\n",
		volumeBar, m.status.Volume, muteIcon)
}

// renderStats renders traffic statistics
func (m Model) renderStats() string {
	p, j := m.stats.Protocol, m.stats.Jitter
	s := fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Speakers: %-3d RX: %-8d TX: %-8d Dropped: %-5d │
`, j.Speakers, p.AudioFrames, p.Sent, p.Dropped)

	if m.lastErr != "" {
		s += fmt.Sprintf("│ Error: %-45s │\n", truncate(m.lastErr, 45))
	}
	return s + "│                                                      │\n"
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  d:Debug  q:Quit                  │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders pipeline counters
func (m Model) renderDebug() string {
	j, mx, c := m.stats.Jitter, m.stats.Mixer, m.stats.Capture
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Resyncs: %-6d Decode errors: %-6d Late: %-6d  │
│   Voices: %d active, %d queued%-24s │
│   Capture: %d chunks, %d headers, %d bytes%-8s │
`, j.Resyncs, j.DecodeErrors, mx.Late, mx.Active, mx.Queued, "",
		c.Chunks, c.HeaderChunks, c.Bytes, "")
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up":
		m.status.Volume = min(m.status.Volume+5, 100)
		return m, m.setVolume(m.status.Volume)
	case "down":
		m.status.Volume = max(m.status.Volume-5, 0)
		return m, m.setVolume(m.status.Volume)
	case "m":
		m.status.Muted = !m.status.Muted
		return m, m.setMuted(m.status.Muted)
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) setVolume(level int) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		if session != nil {
			session.SetVolume(level)
		}
		return nil
	}
}

func (m Model) setMuted(muted bool) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		if session != nil {
			session.Mute(muted)
		}
		return nil
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len([]rune(s)) <= length {
		return s
	}
	return string([]rune(s)[:length-3]) + "..."
}
