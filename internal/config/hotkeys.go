package config

import (
	"strconv"
	"strings"

	"gioui.org/io/key"
)

// Hotkey is a parsed keyboard shortcut
type Hotkey struct {
	Key       key.Name
	Modifiers key.Modifiers
}

// modifierNames maps the accepted spellings to Gio modifiers
var modifierNames = map[string]key.Modifiers{
	"ctrl": key.ModCtrl, "control": key.ModCtrl,
	"shift": key.ModShift,
	"alt":   key.ModAlt, "option": key.ModAlt,
	"cmd": key.ModCommand, "command": key.ModCommand,
	"super": key.ModSuper, "meta": key.ModSuper, "win": key.ModSuper, "windows": key.ModSuper,
}

// keyNames maps the accepted spellings of named keys to Gio key names
var keyNames = map[string]key.Name{
	"left": key.NameLeftArrow, "leftarrow": key.NameLeftArrow, "arrowleft": key.NameLeftArrow,
	"right": key.NameRightArrow, "rightarrow": key.NameRightArrow, "arrowright": key.NameRightArrow,
	"up": key.NameUpArrow, "uparrow": key.NameUpArrow, "arrowup": key.NameUpArrow,
	"down": key.NameDownArrow, "downarrow": key.NameDownArrow, "arrowdown": key.NameDownArrow,
	"home": key.NameHome, "end": key.NameEnd,
	"pageup": key.NamePageUp, "pgup": key.NamePageUp,
	"pagedown": key.NamePageDown, "pgdn": key.NamePageDown,
	"enter": key.NameReturn, "return": key.NameReturn,
	"tab": key.NameTab, "space": key.NameSpace,
	"backspace": key.NameDeleteBackward, "back": key.NameDeleteBackward,
	"delete": key.NameDeleteForward, "del": key.NameDeleteForward,
	"escape": key.NameEscape, "esc": key.NameEscape,
}

// Gio reports the shifted character for Shift+digit (US layout)
var shiftedDigits = map[string]string{
	"1": "!", "2": "@", "3": "#", "4": "$", "5": "%",
	"6": "^", "7": "&", "8": "*", "9": "(", "0": ")",
}

// ParseHotkey parses a string like "Ctrl+Shift+E" or "Left".
// Unknown key names are kept verbatim. An empty string gives an empty Hotkey.
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
		h.Key = parseKeyName(part)
	}

	if h.Modifiers.Contain(key.ModShift) {
		if shifted, ok := shiftedDigits[string(h.Key)]; ok {
			h.Key = key.Name(shifted)
		}
	}
	return h
}

func parseKeyName(s string) key.Name {
	if len(s) == 1 {
		return key.Name(strings.ToUpper(s))
	}
	lower := strings.ToLower(s)
	if name, ok := keyNames[lower]; ok {
		return name
	}
	// F1..F12
	if n, err := strconv.Atoi(strings.TrimPrefix(lower, "f")); err == nil && lower[0] == 'f' && n >= 1 && n <= 12 {
		return key.Name("F" + strconv.Itoa(n))
	}
	return key.Name(s)
}

// Matches reports whether ev is this hotkey with exactly its modifiers
func (h Hotkey) Matches(ev key.Event) bool {
	return h.Key != "" && ev.Name == h.Key && ev.Modifiers == h.Modifiers
}

// IsEmpty reports whether no key is bound. An empty string in the
// config file leaves the action unbound.
func (h Hotkey) IsEmpty() bool {
	return h.Key == ""
}

// String renders the hotkey in canonical modifier order
func (h Hotkey) String() string {
	if h.Key == "" {
		return ""
	}

	var parts []string
	for _, m := range []struct {
		mod  key.Modifiers
		name string
	}{
		{key.ModCtrl, "Ctrl"}, {key.ModCommand, "Cmd"}, {key.ModShift, "Shift"},
		{key.ModAlt, "Alt"}, {key.ModSuper, "Super"},
	} {
		if h.Modifiers.Contain(m.mod) {
			parts = append(parts, m.name)
		}
	}

	name := string(h.Key)
	if h.Modifiers.Contain(key.ModShift) {
		for digit, shifted := range shiftedDigits {
			if shifted == name {
				name = digit
				break
			}
		}
	}
	return strings.Join(append(parts, name), "+")
}

// HotkeyMatcher holds the parsed bindings of the viewer
type HotkeyMatcher struct {
	Delete     Hotkey
	Previous   Hotkey
	Next       Hotkey
	BackToGrid Hotkey
	Export     Hotkey
}

// NewHotkeyMatcher parses every binding in cfg
func NewHotkeyMatcher(cfg HotkeysConfig) *HotkeyMatcher {
	return &HotkeyMatcher{
		Delete:     ParseHotkey(cfg.Delete),
		Previous:   ParseHotkey(cfg.Previous),
		Next:       ParseHotkey(cfg.Next),
		BackToGrid: ParseHotkey(cfg.BackToGrid),
		Export:     ParseHotkey(cfg.Export),
	}
}
