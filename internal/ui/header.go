package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: poller badge, terminal count and the
// outcome of the last refresh.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	pollState := m.pollState().String()
	parts := []string{
		bg.Render("atmbitbit", styles.Logo),
		styles.PollBadge(pollState).Render(pollState),
	}

	if m.store != nil && !m.store.Session().HasWallets() {
		parts = append(parts, bg.Render("No wallet configured", styles.WarningText.Bold(true)))
	}

	parts = append(parts,
		bg.Render("Terminals:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d", len(m.records)), styles.Text))

	if m.poller != nil && m.width >= 100 {
		parts = append(parts,
			bg.Render("Every", styles.MutedText)+bg.Space()+
				bg.Render(m.poller.Interval().String(), styles.Text))
	}

	switch {
	case m.refreshing:
		parts = append(parts, bg.Render("Refreshing...", styles.WarningText))
	case m.status.LastError != nil:
		msg := m.status.LastError.Error()
		if m.status.ConsecutiveFailures > 1 {
			msg = fmt.Sprintf("%s (x%d)", msg, m.status.ConsecutiveFailures)
		}
		parts = append(parts, bg.Render(truncate(msg, max(m.width/2, 20)), styles.DangerText))
	case m.status.Loaded:
		parts = append(parts,
			bg.Render("Updated", styles.MutedText)+bg.Space()+
				bg.Render(formatUpdated(time.Now(), m.status.LastUpdated), styles.Text))
	default:
		parts = append(parts, bg.Render("Not loaded yet", styles.FaintText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// formatUpdated renders a refresh timestamp relative to now.
func formatUpdated(now, t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return t.Format("15:04:05")
	}
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logState.follow {
			followLabel = "Follow"
		}
		commands = []cmd{
			{"Space", followLabel},
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"esc", "Table"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"n", "New"},
			{"e", "Edit"},
			{"d", "Delete"},
			{"x", "Export"},
			{"r", "Refresh"},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Width(m.width).
		Render(bg.Spaces(1) + bg.Join(segments, sep))
}
