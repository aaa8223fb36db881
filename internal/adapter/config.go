package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mmcdole/playloop/internal/catalog"
	"github.com/mmcdole/playloop/internal/search"
)

const appName = "playloop"

// Config holds all application configuration
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Player  PlayerConfig  `mapstructure:"player"`
	Storage StorageConfig `mapstructure:"storage"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CatalogConfig holds the video catalog API settings
type CatalogConfig struct {
	APIKey  string        `mapstructure:"api_key"` // overrides the key saved in the store
	BaseURL string        `mapstructure:"base_url"`
	Region  string        `mapstructure:"region"` // trending region code
	Timeout time.Duration `mapstructure:"timeout"`
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command        string        `mapstructure:"command"`
	Args           []string      `mapstructure:"args"`
	ReadyTimeout   time.Duration `mapstructure:"ready_timeout"`   // how long to wait for player IPC
	ResolveStreams bool          `mapstructure:"resolve_streams"` // hand the player a direct stream URL
}

// StorageConfig holds persistence settings
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL: catalog.DefaultBaseURL,
			Region:  search.DefaultRegion,
			Timeout: 15 * time.Second,
		},
		Player: PlayerConfig{
			Command:      "mpv",
			Args:         []string{},
			ReadyTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		UI: UIConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataDir(), appName+".log"),
			Level: "INFO",
		},
	}
}

// defaultDataDir returns the per-user data directory for the current OS
func defaultDataDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultConfigDir returns the directory searched for config.yaml
func DefaultConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// setDefaults registers every key so environment overrides are seen by Unmarshal
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("catalog.api_key", cfg.Catalog.APIKey)
	v.SetDefault("catalog.base_url", cfg.Catalog.BaseURL)
	v.SetDefault("catalog.region", cfg.Catalog.Region)
	v.SetDefault("catalog.timeout", cfg.Catalog.Timeout)

	v.SetDefault("player.command", cfg.Player.Command)
	v.SetDefault("player.args", cfg.Player.Args)
	v.SetDefault("player.ready_timeout", cfg.Player.ReadyTimeout)
	v.SetDefault("player.resolve_streams", cfg.Player.ResolveStreams)

	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from a .env file, config.yaml in configDir
// (DefaultConfigDir when empty) or the working directory, and PLAYLOOP_*
// environment variables, in increasing precedence.
func LoadConfig(configDir string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("PLAYLOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.Storage.DataDir = expandHome(cfg.Storage.DataDir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg, nil
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
