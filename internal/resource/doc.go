// Package resource defines the five resource kinds deskhub caches, their TTL
// policy, and the normalized records each kind decodes into.
//
// Records are always complete: missing optional fields are replaced with the
// package defaults (DefaultTitle, DefaultTaskPriority, DefaultActionMethod and
// friends) by the decoder, so consumers never need nil checks. Records with
// Synthetic set are locally constructed placeholders shown when a kind could
// not be loaded; they never enter the cache.
//
// Tasks and notifications follow a user-configurable refresh interval between
// MinRefreshMinutes and MaxRefreshMinutes in RefreshStepMinutes steps. The same
// value is used as their TTL. Actions and conversations use fixed windows.
package resource
