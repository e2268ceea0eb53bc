package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d := NewDB()
	if err := d.Open(filepath.Join(t.TempDir(), "nested", "test.db")); err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	go d.Start()
	t.Cleanup(func() {
		close(d.RequestChan)
		d.Close()
	})
	return d
}

func nextResponse(t *testing.T, d *DB, op EventType) Response {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case resp := <-d.ResponseChan:
			if resp.Op == op {
				return resp
			}
		case <-timeout:
			t.Fatalf("timed out waiting for response op=%d", op)
		}
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	d := openTestDB(t)

	d.SaveSetting(KeyLastImportDir, "/photos")
	resp := nextResponse(t, d, FetchSettings)
	if resp.Err != nil {
		t.Fatalf("unexpected error: %v", resp.Err)
	}
	if resp.Settings[KeyLastImportDir] != "/photos" {
		t.Errorf("expected /photos, got %q", resp.Settings[KeyLastImportDir])
	}

	d.SaveSetting(KeyLastImportDir, "/other")
	resp = nextResponse(t, d, FetchSettings)
	if resp.Settings[KeyLastImportDir] != "/other" {
		t.Errorf("setting was not replaced, got %q", resp.Settings[KeyLastImportDir])
	}
}

func TestRecordExport(t *testing.T) {
	d := openTestDB(t)

	d.RecordExport("/exports/one", 3)
	first := nextResponse(t, d, FetchExports)
	if len(first.Exports) != 1 {
		t.Fatalf("expected 1 export, got %d", len(first.Exports))
	}

	settings := nextResponse(t, d, FetchSettings)
	if settings.Settings[KeyLastExportDir] != "/exports/one" {
		t.Errorf("last export dir not remembered, got %q", settings.Settings[KeyLastExportDir])
	}

	d.RecordExport("/exports/two", 1)
	second := nextResponse(t, d, FetchExports)
	if len(second.Exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(second.Exports))
	}
	if second.Exports[0].Destination != "/exports/two" || second.Exports[0].Count != 1 {
		t.Errorf("expected most recent export first, got %+v", second.Exports[0])
	}
}
