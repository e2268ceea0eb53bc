// Package store persists user settings and export history in SQLite.
// The catalog itself is never persisted.
package store

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

type EventType int

const (
	FetchSettings EventType = iota
	SaveSetting
	RecordExport
	FetchExports
)

// Well-known setting keys
const (
	KeyLastImportDir = "last_import_dir"
	KeyLastExportDir = "last_export_dir"
)

// maxExportHistory bounds FetchExports results
const maxExportHistory = 50

type Request struct {
	Op          EventType
	Key         string
	Value       string
	Destination string
	Count       int
}

// ExportRecord is one completed export.
type ExportRecord struct {
	Destination string
	Count       int
	CreatedAt   time.Time
}

type Response struct {
	Op       EventType
	Settings map[string]string // Key-value settings
	Exports  []ExportRecord    // Most recent first
	Err      error
}

type DB struct {
	conn         *sql.DB
	RequestChan  chan Request
	ResponseChan chan Response
}

func NewDB() *DB {
	return &DB{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
	}
}

// DefaultPath returns ~/.config/photolab/photolab.db
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	return filepath.Join(configDir, "photolab", "photolab.db")
}

// Open initializes the database connection and schema
func (d *DB) Open(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return err
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return err
	}

	settingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(settingsQuery); err != nil {
		db.Close()
		return err
	}

	exportsQuery := `
	CREATE TABLE IF NOT EXISTS exports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		destination TEXT NOT NULL,
		count INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(exportsQuery); err != nil {
		db.Close()
		return err
	}

	d.conn = db
	debug.Log(debug.STORE, "Open: %s", dbPath)
	return nil
}

// Start serves requests until RequestChan is closed.
func (d *DB) Start() {
	for req := range d.RequestChan {
		debug.Log(debug.STORE, "Request: op=%d key=%q dest=%q", req.Op, req.Key, req.Destination)
		switch req.Op {
		case FetchSettings:
			d.handleFetchSettings()
		case SaveSetting:
			d.handleSaveSetting(req.Key, req.Value)
		case RecordExport:
			d.handleRecordExport(req.Destination, req.Count)
		case FetchExports:
			d.handleFetchExports()
		}
	}
}

// RecordExport queues an export record and remembers its destination.
func (d *DB) RecordExport(destination string, count int) {
	d.RequestChan <- Request{Op: RecordExport, Destination: destination, Count: count}
	d.RequestChan <- Request{Op: SaveSetting, Key: KeyLastExportDir, Value: destination}
}

// SaveSetting queues a settings upsert.
func (d *DB) SaveSetting(key, value string) {
	d.RequestChan <- Request{Op: SaveSetting, Key: key, Value: value}
}

func (d *DB) handleFetchSettings() {
	rows, err := d.conn.Query("SELECT key, value FROM settings")
	if err != nil {
		d.ResponseChan <- Response{Op: FetchSettings, Err: err}
		return
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err == nil {
			settings[key] = value
		}
	}

	d.ResponseChan <- Response{Op: FetchSettings, Settings: settings}
}

func (d *DB) handleSaveSetting(key, value string) {
	_, err := d.conn.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		log.Printf("Store Error saving setting: %v", err)
	}
	// Trigger a fetch to sync settings
	d.handleFetchSettings()
}

func (d *DB) handleRecordExport(destination string, count int) {
	_, err := d.conn.Exec("INSERT INTO exports (destination, count, created_at) VALUES (?, ?, ?)",
		destination, count, time.Now().Unix())
	if err != nil {
		log.Printf("Store Error recording export: %v", err)
	}
	d.handleFetchExports()
}

func (d *DB) handleFetchExports() {
	rows, err := d.conn.Query(
		"SELECT destination, count, created_at FROM exports ORDER BY id DESC LIMIT ?", maxExportHistory)
	if err != nil {
		d.ResponseChan <- Response{Op: FetchExports, Err: err}
		return
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var created int64
		if err := rows.Scan(&rec.Destination, &rec.Count, &created); err == nil {
			rec.CreatedAt = time.Unix(created, 0)
			records = append(records, rec)
		}
	}

	d.ResponseChan <- Response{Op: FetchExports, Exports: records}
}

func (d *DB) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}
