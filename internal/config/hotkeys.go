package config

import (
	"strings"

	"gioui.org/io/event"
	"gioui.org/io/key"
)

// Hotkey is a key plus the exact modifier set that must be held.
type Hotkey struct {
	Key       key.Name
	Modifiers key.Modifiers
}

var modifierNames = map[string]key.Modifiers{
	"ctrl":    key.ModCtrl,
	"control": key.ModCtrl,
	"shift":   key.ModShift,
	"alt":     key.ModAlt,
	"option":  key.ModAlt,
	"cmd":     key.ModCommand,
	"command": key.ModCommand,
	"super":   key.ModSuper,
	"meta":    key.ModSuper,
	"win":     key.ModSuper,
}

// modifierOrder is the order String prints modifiers in.
var modifierOrder = []struct {
	mod  key.Modifiers
	name string
}{
	{key.ModCtrl, "Ctrl"},
	{key.ModCommand, "Cmd"},
	{key.ModShift, "Shift"},
	{key.ModAlt, "Alt"},
	{key.ModSuper, "Super"},
}

var namedKeys = map[string]key.Name{
	"up": key.NameUpArrow, "down": key.NameDownArrow,
	"left": key.NameLeftArrow, "right": key.NameRightArrow,
	"home": key.NameHome, "end": key.NameEnd,
	"pageup": key.NamePageUp, "pagedown": key.NamePageDown,
	"enter": key.NameReturn, "return": key.NameReturn,
	"tab": key.NameTab, "space": key.NameSpace,
	"backspace": key.NameDeleteBackward, "delete": key.NameDeleteForward,
	"escape": key.NameEscape, "esc": key.NameEscape,
	"f1": key.NameF1, "f2": key.NameF2, "f3": key.NameF3, "f4": key.NameF4,
	"f5": key.NameF5, "f6": key.NameF6, "f7": key.NameF7, "f8": key.NameF8,
	"f9": key.NameF9, "f10": key.NameF10, "f11": key.NameF11, "f12": key.NameF12,
}

// Gio reports the shifted character of a digit (Shift+1 arrives as "!").
const digits, shiftedDigits = "1234567890", "!@#$%^&*()"

// ParseHotkey parses "Ctrl+Shift+N" style strings. Unknown key names are
// kept verbatim; an empty string yields the empty Hotkey.
func ParseHotkey(s string) Hotkey {
	var h Hotkey
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if mod, ok := modifierNames[strings.ToLower(part)]; ok {
			h.Modifiers |= mod
			continue
		}
		h.Key = keyName(part)
	}
	if h.Modifiers.Contain(key.ModShift) && len(h.Key) == 1 {
		if i := strings.Index(digits, string(h.Key)); i >= 0 {
			h.Key = key.Name(shiftedDigits[i : i+1])
		}
	}
	return h
}

func keyName(s string) key.Name {
	if len(s) == 1 {
		return key.Name(strings.ToUpper(s))
	}
	if name, ok := namedKeys[strings.ToLower(s)]; ok {
		return name
	}
	return key.Name(s)
}

// Matches reports whether k is this hotkey with exactly its modifiers, so
// Ctrl+L and Ctrl+Shift+L stay distinct.
func (h Hotkey) Matches(k key.Event) bool {
	return h.Key != "" && k.Name == h.Key && k.Modifiers == h.Modifiers
}

func (h Hotkey) IsEmpty() bool { return h.Key == "" }

// String renders the hotkey the way it is written in config.
func (h Hotkey) String() string {
	if h.Key == "" {
		return ""
	}
	var b strings.Builder
	for _, m := range modifierOrder {
		if h.Modifiers.Contain(m.mod) {
			b.WriteString(m.name)
			b.WriteByte('+')
		}
	}
	name := string(h.Key)
	if h.Modifiers.Contain(key.ModShift) && len(name) == 1 {
		if i := strings.Index(shiftedDigits, name); i >= 0 {
			name = digits[i : i+1]
		}
	}
	b.WriteString(name)
	return b.String()
}

// Filter routes this hotkey's events to focus.
func (h Hotkey) Filter(focus event.Tag) key.Filter {
	return key.Filter{Focus: focus, Name: h.Key, Required: h.Modifiers}
}

// HotkeysConfig holds the keyboard shortcuts as written in the config file
type HotkeysConfig struct {
	Back            string `mapstructure:"back" json:"back"`
	Forward         string `mapstructure:"forward" json:"forward"`
	Refresh         string `mapstructure:"refresh" json:"refresh"`
	Open            string `mapstructure:"open" json:"open"`
	SelectPrev      string `mapstructure:"select_prev" json:"select_prev"`
	SelectNext      string `mapstructure:"select_next" json:"select_next"`
	ToggleInspector string `mapstructure:"toggle_inspector" json:"toggle_inspector"`
	Lock            string `mapstructure:"lock" json:"lock"`
	Escape          string `mapstructure:"escape" json:"escape"`
}

// HotkeyMatcher provides efficient hotkey matching from config
type HotkeyMatcher struct {
	// Navigation
	Back    Hotkey
	Forward Hotkey
	Refresh Hotkey

	// Selection
	Open       Hotkey
	SelectPrev Hotkey
	SelectNext Hotkey

	// UI
	ToggleInspector Hotkey
	Lock            Hotkey
	Escape          Hotkey
}

// NewHotkeyMatcher creates a matcher from config. Empty entries fall back
// to the platform defaults.
func NewHotkeyMatcher(cfg HotkeysConfig) *HotkeyMatcher {
	d := DefaultHotkeys()
	pick := func(v, def string) Hotkey {
		if strings.TrimSpace(v) == "" {
			return ParseHotkey(def)
		}
		return ParseHotkey(v)
	}
	return &HotkeyMatcher{
		Back:    pick(cfg.Back, d.Back),
		Forward: pick(cfg.Forward, d.Forward),
		Refresh: pick(cfg.Refresh, d.Refresh),

		Open:       pick(cfg.Open, d.Open),
		SelectPrev: pick(cfg.SelectPrev, d.SelectPrev),
		SelectNext: pick(cfg.SelectNext, d.SelectNext),

		ToggleInspector: pick(cfg.ToggleInspector, d.ToggleInspector),
		Lock:            pick(cfg.Lock, d.Lock),
		Escape:          pick(cfg.Escape, d.Escape),
	}
}

// All returns every configured hotkey.
func (m *HotkeyMatcher) All() []Hotkey {
	return []Hotkey{
		m.Back, m.Forward, m.Refresh,
		m.Open, m.SelectPrev, m.SelectNext,
		m.ToggleInspector, m.Lock, m.Escape,
	}
}
