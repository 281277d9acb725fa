// Package app is the composition root of the AtmBitBit panel.
//
// # Overview
//
// Run wires configuration, preferences, logging, the LNbits client, the
// resource store, the poller and the panel controllers, then hands them to
// the TUI. List, Show and Export reuse the same wiring for headless use.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()        Read config.toml and ATMBITBIT_* env
//	       ├─────> prefs.Load()         Theme and last export dir
//	       ├─────> logging.ToFile()     JSON log the TUI can tail
//	       ├─────> lnbits.NewClient()   REST client for the extension
//	       ├─────> state.NewStore()     Local collection + wallet session
//	       ├─────> state.NewPoller()    Periodic refresh, stops on first failure
//	       ├─────> panel.New*()         Form, Deleter, Exporter
//	       └─────> ui.Run()             Start TUI (blocks), then stop the poller
//
// # Error Handling
//
// Configuration, preference and client errors are fatal and returned from
// Run. Everything after startup is reported inside the TUI and logged; the
// poller disables itself on its first failed refresh and only a manual
// refresh (r) reloads the table afterwards.
//
// # Headless Commands
//
//   - List: one refresh, then a tab-aligned table on stdout
//   - Show: one terminal; falls back to GET by id with each wallet's key
//   - Export: writes atmbitbit.conf to the export dir, or stdout with "-"
//
// Headless commands log to stderr instead of the log file.
package app
