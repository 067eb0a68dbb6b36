// Package hubsync keeps every resource kind in step with the hub.
//
// An Engine owns one Coordinator per kind. Run restores what the cache saved
// last time, shows it as stale, then loads each kind: a collection younger
// than its TTL is served from memory and anything older is fetched.
//
// After startup the engine reacts to refresh requests on the event bus,
// whether they come from the scheduler or from the user. Every request is a
// live fetch. A worker goroutine performs the request and decodes the body;
// the result is applied back on the engine goroutine, which is the only
// place cache entries and published collections change.
//
//	Idle → Fetching → Success → Idle
//	               ↘ Failure → FallbackApplied → Idle
//
// Fetches are never cancelled and carry no sequence number. When two overlap
// the one that completes last is what remains visible.
//
// A failed fetch publishes one synthetic record describing the failure and
// leaves the cache as it was. That covers unusable endpoints (no request is
// sent), transport and status errors, and bodies that match no known layout.
//
// Mutations (task actions, notification reads, quick actions, chat) run on
// the caller's goroutine and return plain errors. A successful mutation marks
// the affected kinds stale and requests a refresh.
package hubsync
