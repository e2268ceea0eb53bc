package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	m := NewManagerAt(path)
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	changes := make(chan Config, 4)
	w, err := NewWatcher(m, 20*time.Millisecond, func(c Config) { changes <- c })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("import:\n  keep_partial: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if !c.Import.KeepPartial {
			t.Errorf("reloaded config = %+v", c.Import)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after write")
	}
	if !m.Get().Import.KeepPartial {
		t.Error("manager not updated")
	}
}

func TestWatcherCloseIdempotent(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "config.yaml"))
	w, err := NewWatcher(m, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
