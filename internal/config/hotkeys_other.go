//go:build !darwin

package config

// DefaultHotkeys returns the default keyboard shortcuts for Windows/Linux
// Uses Alt for navigation shortcuts (standard convention)
func DefaultHotkeys() HotkeysConfig {
	return HotkeysConfig{
		// Navigation - uses Alt on Windows/Linux
		Back:    "Alt+Left",
		Forward: "Alt+Right",
		Refresh: "F5",

		// Selection
		Open:       "Enter",
		SelectPrev: "Up",
		SelectNext: "Down",

		// UI
		ToggleInspector: "Ctrl+I",
		Lock:            "Ctrl+L",
		Escape:          "Escape",
	}
}
