package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// Update returns the updated modal, a command, and whether the modal closed.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// placeModal draws body in a bordered box centred on the screen.
func placeModal(theme Theme, width, height, boxWidth int, body string, borderColor string) string {
	if boxWidth > width-4 && width > 10 {
		boxWidth = width - 4
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Padding(1, 2).
		Width(boxWidth).
		Render(body)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}

// modalTitle renders a bold title with an underline rule.
func modalTitle(theme Theme, title string, width int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", max(width, 1))))
	b.WriteString("\n\n")
	return b.String()
}
