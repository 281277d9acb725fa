package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

var helpTitles = []string{"Navigation", "Terminals", "Dialogs", "Logs", "General"}

// renderHelp renders the help overlay from the key map.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(14)

	var b strings.Builder
	b.WriteString(modalTitle(m.theme, "Keyboard Shortcuts", 36))

	sections := m.keys.FullHelp()
	for i, bindings := range sections {
		title := ""
		if i < len(helpTitles) {
			title = helpTitles[i]
		}
		b.WriteString(styles.AccentText.Bold(true).Render(title))
		b.WriteString("\n")
		for _, binding := range bindings {
			writeHelpItem(&b, binding, keyStyle, styles)
		}
		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	return placeModal(m.theme, m.width, m.height, 44, b.String(), m.theme.Accent)
}

func writeHelpItem(b *strings.Builder, binding key.Binding, keyStyle lipgloss.Style, styles Styles) {
	h := binding.Help()
	if h.Key == "" {
		return
	}
	b.WriteString(keyStyle.Render(h.Key))
	b.WriteString(styles.Text.Render(h.Desc))
	b.WriteString("\n")
}
