// Package access implements owner, admin and blacklist checks for
// privileged commands.
package access

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/enessquik/whatsapp-video-bot/pkg/jid"
	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
)

// Store holds the access lists. The admin set is computed once at startup;
// the blacklist mutates at runtime and is persisted on every change.
type Store struct {
	mu            sync.RWMutex
	owner         string
	admins        map[string]bool
	blacklist     map[string]bool
	blacklistPath string
}

// New builds the store. The admin set is the union of the configured list,
// the comma-separated env list and the owner, all normalized.
func New(ownerJID string, configured []string, envAdmins string, blacklistPath string) *Store {
	s := &Store{
		owner:         jid.Normalize(ownerJID),
		admins:        make(map[string]bool),
		blacklist:     make(map[string]bool),
		blacklistPath: blacklistPath,
	}

	for _, raw := range configured {
		if n := jid.Normalize(raw); n != "" {
			s.admins[n] = true
		}
	}
	for _, raw := range strings.Split(envAdmins, ",") {
		if n := jid.Normalize(strings.TrimSpace(raw)); n != "" {
			s.admins[n] = true
		}
	}
	if s.owner != "" {
		s.admins[s.owner] = true
	}

	s.loadBlacklist()
	return s
}

func (s *Store) Owner() string {
	return s.owner
}

func (s *Store) IsOwner(senderID string) bool {
	n := jid.Normalize(senderID)
	return n != "" && n == s.owner
}

func (s *Store) IsAdmin(senderID string) bool {
	n := jid.Normalize(senderID)
	if n == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[n]
}

func (s *Store) IsBlacklisted(chatID string) bool {
	n := jid.Normalize(chatID)
	if n == "" {
		n = chatID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blacklist[n]
}

// AddBlacklist inserts a normalized chat identifier. Returns the canonical
// form and whether the entry was new; re-adding is a no-op, not an error.
func (s *Store) AddBlacklist(raw string) (string, bool) {
	n := jid.Normalize(raw)
	if n == "" {
		n = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blacklist[n] {
		return n, false
	}
	s.blacklist[n] = true
	s.persistLocked()
	return n, true
}

// RemoveBlacklist deletes an entry. Removing an absent entry is a no-op.
func (s *Store) RemoveBlacklist(raw string) (string, bool) {
	n := jid.Normalize(raw)
	if n == "" {
		n = raw
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.blacklist[n] {
		return n, false
	}
	delete(s.blacklist, n)
	s.persistLocked()
	return n, true
}

// Blacklist returns a sorted snapshot of the current entries.
func (s *Store) Blacklist() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.blacklist))
	for j := range s.blacklist {
		out = append(out, j)
	}
	sort.Strings(out)
	return out
}

func (s *Store) loadBlacklist() {
	data, err := os.ReadFile(s.blacklistPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WarnCF("access", "Failed to read blacklist file", map[string]interface{}{
				"path":  s.blacklistPath,
				"error": err.Error(),
			})
		}
		return
	}

	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.WarnCF("access", "Blacklist file is not a JSON array, starting empty", map[string]interface{}{
			"path":  s.blacklistPath,
			"error": err.Error(),
		})
		return
	}
	for _, raw := range entries {
		n := jid.Normalize(raw)
		if n == "" {
			n = raw
		}
		if n != "" {
			s.blacklist[n] = true
		}
	}
}

// persistLocked writes the blacklist atomically. A failure is logged and the
// in-memory list stays authoritative; the next mutation retries the write.
func (s *Store) persistLocked() {
	entries := make([]string, 0, len(s.blacklist))
	for j := range s.blacklist {
		entries = append(entries, j)
	}
	sort.Strings(entries)

	if err := writeJSONFile(s.blacklistPath, entries); err != nil {
		logger.ErrorCF("access", "Failed to persist blacklist", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
