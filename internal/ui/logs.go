package ui

import (
	"errors"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/atmbitbit/internal/logtail"
)

const logFetchLimit = 500

// logState holds all log-related state.
type logState struct {
	entries []logtail.Entry
	follow  bool
	err     error
}

// logLinesMsg carries a tail of the panel's own log file.
type logLinesMsg struct {
	entries []logtail.Entry
	err     error
}

func fetchLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(path) == "" {
			return logLinesMsg{err: errors.New("no log file configured")}
		}
		entries, err := logtail.Tail(path, logFetchLimit)
		if errors.Is(err, os.ErrNotExist) {
			return logLinesMsg{}
		}
		return logLinesMsg{entries: entries, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.entries = msg.entries
	}
	m.updateLogViewport()
}

// updateLogViewport sizes the viewport and reloads its content.
func (m *Model) updateLogViewport() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// header, cmdbar, status line and the two box borders
	width, height := max(m.width-4, 1), max(m.height-5, 1)
	if m.logViewport.Width == 0 {
		m.logViewport = viewport.New(width, height)
	}
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent())
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) renderLogContent() string {
	if len(m.logState.entries) == 0 {
		return m.theme.Styles().MutedText.Render("Log is empty")
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.logState.entries))
	for _, entry := range m.logState.entries {
		line := truncate(logtail.Format(entry), max(m.logViewport.Width, 1))
		lines = append(lines, m.levelStyle(entry.Level, styles).Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		return styles.DangerText
	case "warn", "warning":
		return styles.WarningText
	case "debug", "trace":
		return styles.FaintText
	default:
		return styles.Text
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	box := m.renderTitledBox("Panel Log", m.logViewport.View(), m.width, m.height-3, true)

	var status string
	switch {
	case m.logState.err != nil:
		status = styles.DangerText.Render(m.logState.err.Error())
	case m.logState.follow:
		status = styles.SuccessText.Render("Following") + styles.FaintText.Render("  "+m.logPath)
	default:
		status = styles.WarningText.Render("Paused") + styles.FaintText.Render("  "+m.logPath)
	}
	return box + "\n " + status
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
			return m, fetchLogsCmd(m.logPath)
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		m.logState.follow = false
	}

	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}
