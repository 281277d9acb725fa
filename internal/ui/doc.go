// Package ui provides the Bubble Tea terminal interface of the AtmBitBit
// panel.
//
// # Architecture Overview
//
// Model is the single Bubble Tea model. It never talks to the network in
// Update: create, update, delete, export and manual refresh all run as
// tea.Cmd functions and report back through messages. The background poller
// runs on its own goroutine and announces each refresh with refreshedMsg via
// Program.Send.
//
// # Package Structure
//
//   - app.go: Model, Options, message routing and Run
//   - header.go: status bar (poller badge, terminal count, last refresh) and command bar
//   - table.go: terminal table, fee formatting and the titled box frame
//   - form.go: create/edit dialog on top of panel.Form
//   - confirm.go: delete confirmation on top of panel.Deleter
//   - logs.go: viewer for the panel's own log file
//   - help.go, keys.go: key bindings and the help overlay
//   - theme.go, style_helpers.go, modal.go: colors and rendering helpers
//
// # Selection
//
// The table follows the sorted view of the store (API key id, then id).
// Selection is tracked by terminal id so a refresh that reorders rows keeps
// the cursor on the same terminal.
package ui
