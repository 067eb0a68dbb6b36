// Package state holds the published view of every resource kind: the items
// the dashboard renders plus the counts and status around them.
//
// # Overview
//
// The sync engine is the only writer. The dashboard and the CLI read. Each
// kind has its own Published[T] guarded by a readers-writer lock, and Store
// groups the five of them with the selected conversation id.
//
//	Writer (engine goroutine):       Readers (UI, CLI):
//	┌──────────────────────┐        ┌──────────────────┐
//	│ Publish / Fail       │        │                  │
//	│ SetFetching          │───────→│ Snapshot / Meta  │
//	└──────────────────────┘ (lock) └──────────────────┘
//
// # Publish Semantics
//
//	// Decoded, empty or republished cache items
//	p.Publish(items, count, unread, outcome, stale)
//	→ Items replaced, counts replaced
//	→ LastError cleared and failure streak reset unless stale
//
//	// Fetch failure or undecodable response
//	p.Fail(placeholder, err)
//	→ Items = placeholder (one synthetic record)
//	→ Outcome = decode.Fallback
//	→ ConsecutiveFailures++
//
// Fail replaces what is visible but never touches the cache, so the next
// successful refresh or a disk load can restore real items.
//
// # Defensive Copying
//
// Snapshot clones the item slice and wraps LastError, so readers can hold a
// snapshot while the engine keeps publishing. Meta skips the item copy and
// is what tab headers use.
//
// # Offline Detection
//
// Two consecutive failures mark a collection offline. Snapshot.IsOffline is
// true only when every list kind is offline, which is what the header shows
// as "hub unreachable".
//
// # Testing Considerations
//
// The zero Store is ready to use:
//
//	store := &state.Store{}
package state
