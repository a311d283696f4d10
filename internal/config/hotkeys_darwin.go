//go:build darwin

package config

// DefaultHotkeys returns the default keyboard shortcuts for macOS
// Uses Cmd instead of Alt for navigation shortcuts (macOS convention)
func DefaultHotkeys() HotkeysConfig {
	return HotkeysConfig{
		// Navigation - uses Cmd on macOS
		Back:    "Cmd+Left",
		Forward: "Cmd+Right",
		Refresh: "Cmd+R",

		// Selection
		Open:       "Enter",
		SelectPrev: "Up",
		SelectNext: "Down",

		// UI
		ToggleInspector: "Cmd+I",
		Lock:            "Cmd+L",
		Escape:          "Escape",
	}
}
