// ABOUTME: TUI initialization
// ABOUTME: Wraps the bubbletea program for the voice chat UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// New creates the TUI program for a session. Run it with p.Run; feed it
// ErrorMsg and EndedMsg with p.Send.
func New(session Session) *tea.Program {
	return tea.NewProgram(NewModel(session), tea.WithAltScreen())
}
