package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/atmbitbit/internal/config"
	"github.com/five82/atmbitbit/internal/lnbits"
	"github.com/five82/atmbitbit/internal/panel"
	"github.com/five82/atmbitbit/internal/state"
)

type option struct {
	value string
	label string
}

// formModal edits a panel.Form. Text fields use textinputs; currency,
// provider and wallet cycle through fixed options.
type formModal struct {
	ctx  context.Context
	form *panel.Form

	inputs  map[panel.Field]*textinput.Model
	options map[panel.Field][]option
	focus   int // index into panel.DraftFields
	busy    bool
}

// submitDoneMsg carries the result of a Submission.Run.
type submitDoneMsg struct {
	op     string
	fields state.Fields
	err    error
}

func newFormModal(ctx context.Context, form *panel.Form, currencies, providers config.Catalog, wallets []lnbits.Wallet) *formModal {
	fm := &formModal{
		ctx:     ctx,
		form:    form,
		inputs:  make(map[panel.Field]*textinput.Model),
		options: make(map[panel.Field][]option),
	}
	draft := form.Draft()

	for _, field := range []panel.Field{panel.FieldName, panel.FieldFee} {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 64
		ti.Width = 30
		ti.SetValue(draft.Get(field))
		fm.inputs[field] = &ti
	}
	fm.inputs[panel.FieldFee].Placeholder = "0.00"

	fm.options[panel.FieldFiatCurrency] = catalogOptions(currencies, draft.FiatCurrency)
	fm.options[panel.FieldExchangeRateProvider] = catalogOptions(providers, draft.ExchangeRateProvider)
	walletOpts := make([]option, 0, len(wallets))
	for _, w := range wallets {
		walletOpts = append(walletOpts, option{value: w.ID, label: w.Name})
	}
	fm.options[panel.FieldWallet] = walletOpts

	fm.applyFocus()
	return fm
}

func catalogOptions(catalog config.Catalog, current string) []option {
	opts := make([]option, 0, len(catalog)+1)
	found := current == ""
	for _, code := range catalog.Keys() {
		if code == current {
			found = true
		}
		opts = append(opts, option{value: code, label: catalog.Label(code)})
	}
	if !found {
		opts = append([]option{{value: current, label: current}}, opts...)
	}
	return opts
}

func (fm *formModal) field() panel.Field {
	return panel.DraftFields[fm.focus]
}

func (fm *formModal) applyFocus() {
	for field, in := range fm.inputs {
		if field == fm.field() {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (fm *formModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if in := fm.inputs[fm.field()]; in != nil {
			updated, cmd := in.Update(msg)
			*in = updated
			return fm, cmd, false
		}
		return fm, nil, false
	}
	if fm.busy {
		return fm, nil, false
	}

	switch {
	case key.Matches(keyMsg, keys.Escape):
		fm.form.Close()
		return fm, nil, true

	case key.Matches(keyMsg, keys.Submit):
		sub, err := fm.form.Prepare()
		if err != nil {
			return fm, nil, false
		}
		fm.busy = true
		return fm, submitCmd(fm.ctx, sub), false

	case key.Matches(keyMsg, keys.NextField):
		fm.focus = (fm.focus + 1) % len(panel.DraftFields)
		fm.applyFocus()
		return fm, nil, false

	case key.Matches(keyMsg, keys.PrevField):
		fm.focus = (fm.focus + len(panel.DraftFields) - 1) % len(panel.DraftFields)
		fm.applyFocus()
		return fm, nil, false
	}

	field := fm.field()
	if opts, isSelector := fm.options[field]; isSelector {
		switch {
		case key.Matches(keyMsg, keys.OptionNext):
			fm.cycle(field, opts, 1)
		case key.Matches(keyMsg, keys.OptionPrev):
			fm.cycle(field, opts, -1)
		}
		return fm, nil, false
	}

	in := fm.inputs[field]
	updated, cmd := in.Update(keyMsg)
	*in = updated
	fm.form.Set(field, in.Value())
	return fm, cmd, false
}

func (fm *formModal) cycle(field panel.Field, opts []option, step int) {
	if len(opts) == 0 {
		return
	}
	current := fm.form.Draft().Get(field)
	idx := -1
	for i, o := range opts {
		if o.value == current {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && step > 0:
		idx = 0
	case idx < 0:
		idx = len(opts) - 1
	default:
		idx = (idx + step + len(opts)) % len(opts)
	}
	fm.form.Set(field, opts[idx].value)
}

func (fm *formModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	const boxWidth = 64
	draft := fm.form.Draft()

	title := "New terminal"
	if fm.form.Editing() {
		title = "Edit terminal " + draft.ID
	}

	var b strings.Builder
	b.WriteString(modalTitle(theme, title, boxWidth-6))

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted)).Width(24)
	for i, field := range panel.DraftFields {
		marker := "  "
		label := labelStyle
		if i == fm.focus {
			marker = styles.AccentText.Render("› ")
			label = label.Foreground(lipgloss.Color(theme.Accent))
		}
		b.WriteString(marker)
		b.WriteString(label.Render(field.String()))
		if in, ok := fm.inputs[field]; ok {
			b.WriteString(in.View())
		} else {
			b.WriteString(fm.renderSelector(styles, field, draft.Get(field), i == fm.focus))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case fm.busy:
		b.WriteString(styles.WarningText.Render("Saving..."))
	case fm.form.Err() != nil:
		b.WriteString(styles.DangerText.Render(truncate(fm.form.Err().Error(), boxWidth-6)))
	default:
		b.WriteString(styles.FaintText.Render("tab next · ←/→ choose · enter save · esc cancel"))
	}

	return placeModal(theme, width, height, boxWidth, b.String(), theme.BorderFocus)
}

func (fm *formModal) renderSelector(styles Styles, field panel.Field, value string, focused bool) string {
	label := "(none)"
	for _, o := range fm.options[field] {
		if o.value == value {
			label = o.value
			if o.label != "" && o.label != o.value {
				label = fmt.Sprintf("%s  %s", o.value, o.label)
			}
			break
		}
	}
	if value != "" && label == "(none)" {
		label = value
	}
	if !focused {
		return styles.Text.Render(label)
	}
	return styles.AccentText.Render("‹ ") + styles.Text.Render(label) + styles.AccentText.Render(" ›")
}

func submitCmd(ctx context.Context, sub *panel.Submission) tea.Cmd {
	return func() tea.Msg {
		fields, err := sub.Run(ctx)
		return submitDoneMsg{op: sub.Op(), fields: fields, err: err}
	}
}
