package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/atmbitbit/internal/lnbits"
	"github.com/five82/atmbitbit/internal/state"
)

type column struct {
	title string
	width int // 0 = takes the remaining width
	value func(m Model, f state.Fields) string
	right bool
}

var tableColumns = []column{
	{title: "API Key ID", width: 14, value: func(_ Model, f state.Fields) string { return f.APIKeyID }},
	{title: "Name", value: func(_ Model, f state.Fields) string { return f.Name }},
	{title: "Wallet", width: 16, value: func(m Model, f state.Fields) string { return m.walletName(f.WalletID) }},
	{title: "Fiat Currency", width: 14, value: func(_ Model, f state.Fields) string { return f.FiatCurrency }},
	{title: "Provider", width: 12, value: func(_ Model, f state.Fields) string { return f.ExchangeRateProvider }},
	{title: "Fee (%)", width: 9, right: true, value: func(_ Model, f state.Fields) string { return FormatFee(f.Fee) }},
}

const minNameWidth = 12

// FormatFee renders a fee with two decimals, or as-is when it does not parse.
func FormatFee(fee string) string {
	fee = strings.TrimSpace(fee)
	if fee == "" {
		return "-"
	}
	d, err := lnbits.Fee(fee).Decimal()
	if err != nil {
		return fee
	}
	return d.StringFixed(2)
}

// columnWidths sizes the flexible column from the total width.
func columnWidths(total int) []int {
	widths := make([]int, len(tableColumns))
	fixed := 0
	flex := -1
	for i, c := range tableColumns {
		if c.width == 0 {
			flex = i
			continue
		}
		widths[i] = c.width
		fixed += c.width
	}
	if flex >= 0 {
		widths[flex] = max(total-fixed, minNameWidth)
	}
	return widths
}

// renderTable renders the terminal list in a titled box with a toast line.
func (m Model) renderTable() string {
	styles := m.theme.Styles()
	contentHeight := m.height - 3 // header, cmdbar, toast

	title := "Terminals"
	if len(m.records) > 0 {
		title = fmt.Sprintf("Terminals (%d)", len(m.records))
	}

	var content string
	if len(m.records) == 0 {
		msg := "No terminals yet. Press n to create one."
		if m.store != nil && !m.store.Session().HasWallets() {
			msg = "No wallet with an admin key is configured."
		}
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.Muted)).
			Background(lipgloss.Color(m.theme.FocusBg)).
			Render(msg)
	} else {
		content = m.renderRows(m.width-2, contentHeight-2)
	}

	box := m.renderTitledBox(title, content, m.width, contentHeight, true)
	return box + "\n" + m.renderToast(styles)
}

// renderRows renders the header row and as many records as fit, keeping the
// selected row visible.
func (m Model) renderRows(width, height int) string {
	widths := columnWidths(width - 1)
	bgColor := m.theme.FocusBg

	headStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Muted)).
		Background(lipgloss.Color(bgColor)).
		Bold(true)
	cells := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		cells[i] = cell(c.title, widths[i], c.right)
	}
	lines := []string{headStyle.Width(width).Render(" " + strings.Join(cells, ""))}

	visible := max(height-1, 1)
	start := 0
	if m.selectedRow >= visible {
		start = m.selectedRow - visible + 1
	}
	end := min(start+visible, len(m.records))

	for i := start; i < end; i++ {
		f := m.records[i].Fields()
		for j, c := range tableColumns {
			cells[j] = cell(c.value(m, f), widths[j], c.right)
		}
		row := " " + strings.Join(cells, "")

		style := lipgloss.NewStyle().Width(width)
		if i == m.selectedRow {
			style = style.
				Background(lipgloss.Color(m.theme.SelectionBg)).
				Foreground(lipgloss.Color(m.theme.SelectionText))
		} else {
			style = style.
				Background(lipgloss.Color(bgColor)).
				Foreground(lipgloss.Color(m.theme.Text))
		}
		lines = append(lines, style.Render(row))
	}
	return strings.Join(lines, "\n")
}

// cell pads or truncates s to exactly width cells, leaving one space gap.
func cell(s string, width int, right bool) string {
	if width <= 0 {
		return ""
	}
	s = truncate(s, width-1)
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", pad-1) + s + " "
	}
	return s + strings.Repeat(" ", pad)
}

func (m Model) renderToast(styles Styles) string {
	if m.toast == "" {
		return ""
	}
	style := styles.SuccessText
	if m.toastError {
		style = styles.DangerText
	}
	return " " + style.Render(truncate(m.toast, max(m.width-2, 1)))
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(width-2, 0)
	title = truncate(title, max(innerWidth-4, 0))
	titleLen := lipgloss.Width(title)
	leftPad := max((innerWidth-titleLen-2)/2, 0)
	rightPad := max(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(height-2, 0)

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}
