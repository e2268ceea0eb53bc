package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fjyeo/Open-Photo-Lab/internal/store"
)

// storeSession runs the store worker and drains its responses
type storeSession struct {
	db *store.DB

	mu       sync.Mutex
	exports  []store.ExportRecord
	settings map[string]string
	fetched  chan struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

func openStore(path string) (*storeSession, error) {
	db := store.NewDB()
	if err := db.Open(path); err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}

	s := &storeSession{
		db:       db,
		settings: make(map[string]string),
		fetched:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		db.Start()
	}()
	go s.drain()
	return s, nil
}

func (s *storeSession) drain() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case resp := <-s.db.ResponseChan:
			if resp.Err != nil {
				log.Printf("Store: op %d failed: %v", resp.Op, resp.Err)
				continue
			}
			s.mu.Lock()
			switch resp.Op {
			case store.FetchExports:
				s.exports = resp.Exports
			case store.FetchSettings:
				s.settings = resp.Settings
			}
			s.mu.Unlock()
			if resp.Op == store.FetchExports {
				select {
				case s.fetched <- struct{}{}:
				default:
				}
			}
		}
	}
}

// RecordExport forwards to the store worker
func (s *storeSession) RecordExport(destination string, count int) {
	s.db.RecordExport(destination, count)
}

// SaveSetting forwards to the store worker
func (s *storeSession) SaveSetting(key, value string) {
	s.db.SaveSetting(key, value)
}

// Exports fetches the export history
func (s *storeSession) Exports(timeout time.Duration) ([]store.ExportRecord, error) {
	s.db.RequestChan <- store.Request{Op: store.FetchExports}
	select {
	case <-s.fetched:
	case <-time.After(timeout):
		return nil, fmt.Errorf("store did not answer within %s", timeout)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports, nil
}

// Close flushes queued requests and closes the database
func (s *storeSession) Close() {
	close(s.db.RequestChan)
	// Keep draining until the worker has answered everything it was sent
	stopped := make(chan struct{})
	go func() {
		for {
			select {
			case <-stopped:
				return
			case <-s.db.ResponseChan:
			}
		}
	}()
	close(s.done)
	s.wg.Wait()
	close(stopped)
	s.db.Close()
}
