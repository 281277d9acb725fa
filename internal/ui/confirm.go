package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/atmbitbit/internal/panel"
)

// confirmModal asks before deleting a terminal.
type confirmModal struct {
	ctx     context.Context
	deleter *panel.Deleter
	id      string
	prompt  string
	busy    bool
}

// deleteDoneMsg carries the result of a confirmed delete.
type deleteDoneMsg struct {
	id  string
	err error
}

func newConfirmModal(ctx context.Context, deleter *panel.Deleter, id, prompt string) *confirmModal {
	return &confirmModal{ctx: ctx, deleter: deleter, id: id, prompt: prompt}
}

func (cm *confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || cm.busy {
		return cm, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Yes):
		cm.busy = true
		return cm, deleteCmd(cm.ctx, cm.deleter, cm.id), false
	case key.Matches(keyMsg, keys.No):
		return cm, nil, true
	}
	return cm, nil, false
}

func (cm *confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	const boxWidth = 56

	var b strings.Builder
	b.WriteString(modalTitle(theme, "Delete terminal", boxWidth-6))
	b.WriteString(styles.Text.Render(cm.prompt))
	b.WriteString("\n\n")
	if cm.busy {
		b.WriteString(styles.WarningText.Render("Deleting..."))
	} else {
		b.WriteString(styles.DangerText.Render("y") + styles.MutedText.Render(" delete   ") +
			styles.AccentText.Render("n/esc") + styles.MutedText.Render(" keep"))
	}
	return placeModal(theme, width, height, boxWidth, b.String(), theme.Danger)
}

func deleteCmd(ctx context.Context, deleter *panel.Deleter, id string) tea.Cmd {
	return func() tea.Msg {
		return deleteDoneMsg{id: id, err: deleter.Delete(ctx, id)}
	}
}
