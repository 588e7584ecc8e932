package ui

import "fmt"

// DisplayConfig holds configuration for UI rendering
type DisplayConfig struct {
	DefaultView ViewMode

	// Truncation limits
	MaxNameLength  int
	MaxTitleLength int

	HashDisplayLength    int
	DefaultTerminalWidth int

	// TimeLayout formats tag timestamps.
	TimeLayout string
}

// ViewMode defines how head tables are displayed
type ViewMode int

const (
	ViewTable ViewMode = iota // Bordered table (default)
	ViewTree                  // Heads grouped by kind
	ViewPlain                 // One line per head, for scripts
)

// DefaultConfig returns the default display configuration
func DefaultConfig() DisplayConfig {
	return DisplayConfig{
		DefaultView:          ViewTable,
		MaxNameLength:        40,
		MaxTitleLength:       50,
		HashDisplayLength:    7,
		DefaultTerminalWidth: 120,
		TimeLayout:           "2006-01-02 15:04:05Z07:00",
	}
}

// Global display configuration (can be overridden)
var Display = DefaultConfig()

// ParseViewMode maps a --view flag value to a ViewMode.
func ParseViewMode(s string) (ViewMode, error) {
	switch s {
	case "":
		return Display.DefaultView, nil
	case "table":
		return ViewTable, nil
	case "tree":
		return ViewTree, nil
	case "plain":
		return ViewPlain, nil
	}
	return 0, fmt.Errorf("unknown view %q (want table, tree or plain)", s)
}
