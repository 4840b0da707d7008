package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/life-rpg/internal/interfaces"
)

// FileCache is a LocalCache kept in a single JSON file
type FileCache struct {
	path    string
	entries map[string]string
	lock    sync.RWMutex
}

var _ interfaces.LocalCache = (*FileCache)(nil)

// NewFileCache opens the cache file at path, starting empty if it does not
// exist yet
func NewFileCache(path string) (*FileCache, error) {
	fc := &FileCache{
		path:    path,
		entries: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return fc, nil
	}
	if err := json.Unmarshal(data, &fc.entries); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if fc.entries == nil {
		fc.entries = make(map[string]string)
	}
	return fc, nil
}

// Get returns the value stored under key
func (fc *FileCache) Get(_ context.Context, key string) (string, bool, error) {
	fc.lock.RLock()
	defer fc.lock.RUnlock()
	v, ok := fc.entries[key]
	return v, ok, nil
}

// Set stores value under key and flushes the file
func (fc *FileCache) Set(_ context.Context, key, value string) error {
	fc.lock.Lock()
	defer fc.lock.Unlock()
	fc.entries[key] = value
	return fc.flush()
}

// Remove deletes key and flushes the file
func (fc *FileCache) Remove(_ context.Context, key string) error {
	fc.lock.Lock()
	defer fc.lock.Unlock()
	if _, ok := fc.entries[key]; !ok {
		return nil
	}
	delete(fc.entries, key)
	return fc.flush()
}

// flush writes entries to disk through a temp file. Caller holds lock.
func (fc *FileCache) flush() error {
	dir := filepath.Dir(fc.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(fc.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	tmp := fc.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmp, fc.path); err != nil {
		return fmt.Errorf("failed to replace cache: %w", err)
	}
	return nil
}
