package config

import (
	"testing"

	"gioui.org/io/key"
)

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		in   string
		key  key.Name
		mods key.Modifiers
	}{
		{"Backspace", key.NameDeleteBackward, 0},
		{"Left", key.NameLeftArrow, 0},
		{"right", key.NameRightArrow, 0},
		{"Esc", key.NameEscape, 0},
		{"Ctrl+E", "E", key.ModCtrl},
		{"Cmd+Shift+e", "E", key.ModCommand | key.ModShift},
		{"Shift+1", "!", key.ModShift},
		{"", "", 0},
	}
	for _, tt := range tests {
		h := ParseHotkey(tt.in)
		if h.Key != tt.key || h.Modifiers != tt.mods {
			t.Errorf("ParseHotkey(%q) = %+v, want key %q mods %v", tt.in, h, tt.key, tt.mods)
		}
	}
}

func TestHotkeyMatches(t *testing.T) {
	h := ParseHotkey("Ctrl+E")
	if !h.Matches(key.Event{Name: "E", Modifiers: key.ModCtrl}) {
		t.Error("exact match expected")
	}
	if h.Matches(key.Event{Name: "E", Modifiers: key.ModCtrl | key.ModShift}) {
		t.Error("extra modifier should not match exactly")
	}
	if (Hotkey{}).Matches(key.Event{Name: "E"}) {
		t.Error("empty hotkey never matches")
	}
}

func TestHotkeyString(t *testing.T) {
	if got := ParseHotkey("shift+ctrl+1").String(); got != "Ctrl+Shift+1" {
		t.Errorf("String() = %q", got)
	}
}

func TestDefaultHotkeysParse(t *testing.T) {
	m := NewHotkeyMatcher(DefaultHotkeys())
	for name, h := range map[string]Hotkey{
		"delete": m.Delete, "previous": m.Previous, "next": m.Next,
		"back": m.BackToGrid, "export": m.Export,
	} {
		if h.IsEmpty() {
			t.Errorf("default %s hotkey is empty", name)
		}
	}
	if m.Delete.Key != key.NameDeleteBackward {
		t.Errorf("delete = %q, want backspace", m.Delete.Key)
	}
	if m.Previous.Key != key.NameLeftArrow || m.Next.Key != key.NameRightArrow {
		t.Errorf("arrows = %q/%q", m.Previous.Key, m.Next.Key)
	}
}
