package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig_BridgeURL verifies the bridge default points at the local bridge.
func TestDefaultConfig_BridgeURL(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Bridge.URL != "ws://localhost:3001" {
		t.Errorf("Unexpected default bridge URL: %s", cfg.Bridge.URL)
	}
}

// TestDefaultConfig_BackupSchedule verifies the weekly backup default.
func TestDefaultConfig_BackupSchedule(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backup.Schedule != "0 3 * * 0" {
		t.Errorf("Unexpected default schedule: %s", cfg.Backup.Schedule)
	}
	if !cfg.Backup.Enabled {
		t.Error("Backups should be enabled by default")
	}
}

// TestLoadConfig_MissingFileUsesDefaults verifies a missing file is not an error.
func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OWNER_JID", "905550001122")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Downloads.Binary != "yt-dlp" {
		t.Errorf("Expected default downloader binary, got %s", cfg.Downloads.Binary)
	}
}

// TestLoadConfig_RequiresOwner verifies startup fails without an owner.
func TestLoadConfig_RequiresOwner(t *testing.T) {
	t.Setenv("OWNER_JID", "")

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected an error without OWNER_JID")
	}
}

// TestLoadConfig_EnvOverridesFile verifies environment wins over JSON.
func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"access":{"owner_jid":"905550001122","admin_jids":["905551112233",905559998877]},"downloads":{"binary":"youtube-dl"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv("WABOT_DOWNLOADS_BINARY", "yt-dlp-nightly")
	t.Setenv("ADMIN_JIDS", "905553334455,905556667788")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Downloads.Binary != "yt-dlp-nightly" {
		t.Errorf("Env override lost: %s", cfg.Downloads.Binary)
	}
	if len(cfg.Access.AdminJIDs) != 2 || cfg.Access.AdminJIDs[1] != "905559998877" {
		t.Errorf("Mixed-type admin list not parsed: %v", cfg.Access.AdminJIDs)
	}
	if cfg.Access.EnvAdminJIDs != "905553334455,905556667788" {
		t.Errorf("Env admin list not captured: %s", cfg.Access.EnvAdminJIDs)
	}
}
