// Package logtail reads the tail of hublink's own log file for the TUI log
// pane.
//
// # Reading Log Files
//
// Read returns the last N lines of a file using a ring buffer, so memory is
// bounded by N rather than by file size:
//
//	lines, err := logtail.Read(cfg.LogPath, 200)
//
// A missing file is not an error; the pane simply stays empty until the first
// record is written.
//
// # Formatting
//
// The TUI writes JSON records via log/slog. FormatLine turns each record into
// a compact single line:
//
//	{"time":"...","level":"INFO","msg":"integration connected","attempt":"4f1c..."}
//	→ 14:02:11 INFO  integration connected attempt=4f1c...
//
// The app, command and provider attributes are dropped since every record in
// the pane carries the same values. Attributes are sorted by key. Lines that
// are not JSON objects (LOG_FORMAT=text) are shown unchanged.
package logtail
