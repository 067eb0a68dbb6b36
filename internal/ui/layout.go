package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which secondary columns are hidden.
	LayoutCompactWidth = 100

	// LayoutUpdatedWidth is the minimum width to show updated timestamps.
	LayoutUpdatedWidth = 120
)

// Log pane limits.
const (
	// LogTailLines is how many lines the log pane reads from the end of the file.
	LogTailLines = 400
)

// Timing constants.
const (
	// LogRefreshInterval is how often the log pane re-reads the file while visible.
	LogRefreshInterval = 2 * time.Second
)
