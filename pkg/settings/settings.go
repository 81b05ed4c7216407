// Package settings holds the mutable runtime settings shared by every
// handler, persisted to a JSON file on each mutation.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
)

const DefaultMaxFileSizeMB = 50

type fileShape struct {
	MaxFileSizeMB int      `json:"maxFileSizeMB"`
	AdminJIDs     []string `json:"adminJids,omitempty"`
}

// Store guards the settings with a single-writer discipline: readers take a
// consistent snapshot, mutations persist before returning.
type Store struct {
	mu            sync.RWMutex
	path          string
	maxFileSizeMB int
	adminJIDs     []string
}

// Load reads the settings file, falling back to defaults when it does not
// exist or cannot be parsed.
func Load(path string) *Store {
	s := &Store{path: path, maxFileSizeMB: DefaultMaxFileSizeMB}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCF("settings", "Failed to read settings file, using defaults", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
		return s
	}

	var f fileShape
	if err := json.Unmarshal(data, &f); err != nil {
		logger.WarnCF("settings", "Settings file is not valid JSON, using defaults", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return s
	}

	if f.MaxFileSizeMB > 0 {
		s.maxFileSizeMB = f.MaxFileSizeMB
	}
	s.adminJIDs = f.AdminJIDs
	return s
}

// MaxFileSizeMB returns the configured download ceiling in megabytes.
func (s *Store) MaxFileSizeMB() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxFileSizeMB
}

// MaxFileSizeBytes returns the ceiling in bytes (MB * 1,000,000).
func (s *Store) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB()) * 1_000_000
}

// AdminJIDs returns the configured admin list as stored (not normalized).
func (s *Store) AdminJIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.adminJIDs))
	copy(out, s.adminJIDs)
	return out
}

// SetMaxFileSizeMB updates and persists the ceiling. A persistence failure
// is logged and the in-memory value stays authoritative; the write is
// retried on the next mutation.
func (s *Store) SetMaxFileSizeMB(mb int) error {
	if mb <= 0 {
		return fmt.Errorf("max file size must be positive, got %d", mb)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxFileSizeMB = mb

	if err := s.saveLocked(); err != nil {
		logger.ErrorCF("settings", "Failed to persist settings", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return nil
}

func (s *Store) saveLocked() error {
	f := fileShape{
		MaxFileSizeMB: s.maxFileSizeMB,
		AdminJIDs:     s.adminJIDs,
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write settings temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}
