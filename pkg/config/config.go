package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so admin lists can contain both "905551112233" and 905551112233.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Bridge    BridgeConfig    `json:"bridge"`
	Access    AccessConfig    `json:"access"`
	Paths     PathsConfig     `json:"paths"`
	Downloads DownloadsConfig `json:"downloads"`
	Backup    BackupConfig    `json:"backup"`
	Sticker   StickerConfig   `json:"sticker"`
	Logging   LoggingConfig   `json:"logging"`
}

type BridgeConfig struct {
	URL string `json:"url" env:"WABOT_BRIDGE_URL"`
}

type AccessConfig struct {
	OwnerJID  string              `json:"owner_jid" env:"OWNER_JID"`
	AdminJIDs FlexibleStringSlice `json:"admin_jids"`
	// EnvAdminJIDs stays a raw comma list; it is merged with AdminJIDs at
	// startup, not replaced.
	EnvAdminJIDs string `json:"-" env:"ADMIN_JIDS"`
}

type PathsConfig struct {
	DataDir       string `json:"data_dir" env:"WABOT_PATHS_DATA_DIR"`
	LogsDir       string `json:"logs_dir" env:"WABOT_PATHS_LOGS_DIR"`
	MediaDir      string `json:"media_dir" env:"WABOT_PATHS_MEDIA_DIR"`
	BackupsDir    string `json:"backups_dir" env:"WABOT_PATHS_BACKUPS_DIR"`
	SessionDir    string `json:"session_dir" env:"WABOT_PATHS_SESSION_DIR"`
	SettingsFile  string `json:"settings_file" env:"WABOT_PATHS_SETTINGS_FILE"`
	BlacklistFile string `json:"blacklist_file" env:"WABOT_PATHS_BLACKLIST_FILE"`
}

type DownloadsConfig struct {
	Binary      string `json:"binary" env:"WABOT_DOWNLOADS_BINARY"`
	Concurrency int    `json:"concurrency" env:"WABOT_DOWNLOADS_CONCURRENCY"`
}

type BackupConfig struct {
	Enabled  bool   `json:"enabled" env:"WABOT_BACKUP_ENABLED"`
	Schedule string `json:"schedule" env:"WABOT_BACKUP_SCHEDULE"`
}

type StickerConfig struct {
	CwebpBinary string `json:"cwebp_binary" env:"WABOT_STICKER_CWEBP_BINARY"`
}

type LoggingConfig struct {
	FileEnabled bool   `json:"file_enabled" env:"WABOT_LOGGING_FILE_ENABLED"`
	FilePath    string `json:"file_path" env:"WABOT_LOGGING_FILE_PATH"`
}

func DefaultConfig() *Config {
	data := "data"
	return &Config{
		Bridge: BridgeConfig{
			URL: "ws://localhost:3001",
		},
		Access: AccessConfig{
			AdminJIDs: FlexibleStringSlice{},
		},
		Paths: PathsConfig{
			DataDir:       data,
			LogsDir:       filepath.Join(data, "logs"),
			MediaDir:      filepath.Join(data, "media"),
			BackupsDir:    filepath.Join(data, "backups"),
			SessionDir:    filepath.Join(data, "auth_info"),
			SettingsFile:  filepath.Join(data, "settings.json"),
			BlacklistFile: filepath.Join(data, "blacklist.json"),
		},
		Downloads: DownloadsConfig{
			Binary:      "yt-dlp",
			Concurrency: 4,
		},
		Backup: BackupConfig{
			Enabled:  true,
			Schedule: "0 3 * * 0",
		},
		Sticker: StickerConfig{
			CwebpBinary: "cwebp",
		},
		Logging: LoggingConfig{
			FileEnabled: false,
			FilePath:    filepath.Join(data, "wabot.log"),
		},
	}
}

// LoadConfig reads the JSON config file over defaults, then applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := env.Parse(cfg); err != nil {
				return nil, err
			}
			return cfg, cfg.validate()
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Access.OwnerJID == "" {
		return fmt.Errorf("owner JID is required (set OWNER_JID or access.owner_jid)")
	}
	if c.Bridge.URL == "" {
		return fmt.Errorf("bridge URL is required")
	}
	return nil
}

// EnsureDirs creates every runtime directory the pipeline writes to.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogsDir, c.Paths.MediaDir, c.Paths.BackupsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
