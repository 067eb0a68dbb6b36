// Package app is the composition root of deskhub.
//
// # Overview
//
// Build loads configuration and preferences, opens the storage backend and
// wires the cache, event bus, refresh scheduler, webhook client and sync
// engine into a Services value. Start runs the engine goroutine and arms the
// refresh timers. Close tears everything down in reverse order.
//
// # Entry points
//
//   - Run: the interactive dashboard, or a headless engine that only keeps
//     the cache warm when Options.Headless is set
//   - Refresh: a one-shot fetch of a single kind, used by the CLI
//   - Services.CachedItems: what is on disk for a kind, without the network
//
// # Startup
//
//  1. Read .env, then config.toml with DESKHUB_* overrides
//  2. Read prefs.toml (theme and refresh intervals, never fatal)
//  3. Open the log (file while the dashboard owns the terminal, stderr otherwise)
//  4. Open the storage backend (file, sqlite, redis or memory)
//  5. Restore cached collections, then fetch the kinds whose cache expired
//  6. Schedule periodic refreshes from the preferred intervals
//
// One-shot commands set Options.RestoreOnly so that only the requested kind
// goes over the network.
package app
