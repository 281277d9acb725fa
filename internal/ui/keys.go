package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings of the panel.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding
	Logs       key.Binding

	// Table actions
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Export  key.Binding
	Refresh key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Logs
	ToggleFollow key.Binding

	// Modals
	NextField  key.Binding
	PrevField  key.Binding
	OptionNext key.Binding
	OptionPrev key.Binding
	Submit     key.Binding
	Yes        key.Binding
	No         key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back / cancel"),
		),
		Logs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Toggle log view"),
		),

		New: key.NewBinding(
			key.WithKeys("n", "a"),
			key.WithHelp("n", "New terminal"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e/enter", "Edit terminal"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "Delete terminal"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Export config file"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("Space", "Toggle follow mode"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		OptionNext: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("right", "Next option"),
		),
		OptionPrev: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("left", "Previous option"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter", "ctrl+s"),
			key.WithHelp("enter", "Save"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "Confirm"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.New, k.Edit, k.Delete, k.Export, k.Refresh},
		{k.NextField, k.PrevField, k.OptionPrev, k.OptionNext, k.Submit},
		{k.Logs, k.ToggleFollow, k.Escape},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
