//go:build darwin

package config

// DefaultHotkeys returns the default keyboard shortcuts for macOS
// Uses Cmd where Windows/Linux use Ctrl
func DefaultHotkeys() HotkeysConfig {
	return HotkeysConfig{
		Delete:     "Backspace",
		Previous:   "Left",
		Next:       "Right",
		BackToGrid: "Escape",
		Export:     "Cmd+E",
	}
}
