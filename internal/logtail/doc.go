// Package logtail reads the end of the panel's log file for the in-app log
// view.
//
// Read keeps a ring buffer of the last N lines, so memory stays bounded no
// matter how large the file grew. Parse and Format turn zerolog's JSON lines
// into short human-readable rows:
//
//	{"level":"warn","id":"r1","time":"2026-01-02T15:04:05Z","message":"delete failed"}
//	→ 15:04:05 WARN  delete failed  id=r1
//
// Lines that are not JSON are passed through unchanged.
package logtail
