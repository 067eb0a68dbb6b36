// Package logtail reads and parses the deskhub log file.
//
// # Reading
//
// Read returns the last N lines of a file using a ring buffer sized to N, so
// memory stays proportional to the request rather than to the file. A
// non-positive N returns the whole file. A missing file yields nil, nil so
// callers can show an empty pane before the first log write.
//
// # Parsing
//
// The logging package writes one of two formats:
//
//	2026-10-08 21:01:05 WRN fetch failed kind=tasks class=transport
//	{"time":"2026-10-08T21:01:05Z","level":"WARN","msg":"fetch failed","kind":"tasks"}
//
// Parse recognizes both and returns an Entry with the level, message and
// attributes split out. Lines in neither format (stack traces, panics) come
// back with Parsed false and their Raw text intact.
//
// Filter applies a minimum level and keeps continuation lines attached to
// the entry above them.
package logtail
