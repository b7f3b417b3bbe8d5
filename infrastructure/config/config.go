package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds settings for the server and the command-line clients.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Client  ClientConfig  `yaml:"client"`
	Scanner ScannerConfig `yaml:"scanner"`

	// ConfigPath is the file the values were read from (not serialized).
	ConfigPath string `yaml:"-"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`
	MaxUploadMB   int64         `yaml:"max_upload_mb"`
	// ScannerKeyTTL is how long a verified scanner key stays cached.
	ScannerKeyTTL time.Duration `yaml:"scanner_key_ttl"`
}

type StorageConfig struct {
	SQLitePath    string `yaml:"sqlite_path"`
	MigrationsDir string `yaml:"migrations_dir"`
	ReadPoolSize  int    `yaml:"read_pool_size"`
}

// ClientConfig drives shelfwatch and shelfreader.
type ClientConfig struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RecentInterval  time.Duration `yaml:"recent_interval"`
	KeepFilters     bool          `yaml:"keep_filters"`
	PerPage         int           `yaml:"per_page"`
}

type ScannerConfig struct {
	Key         string        `yaml:"key"`
	Section     string        `yaml:"section"`
	DedupWindow time.Duration `yaml:"dedup_window"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			ShutdownGrace: 10 * time.Second,
			MaxUploadMB:   16,
			ScannerKeyTTL: 10 * time.Minute,
		},
		Storage: StorageConfig{
			SQLitePath:   "barcodes.db",
			ReadPoolSize: 8,
		},
		Client: ClientConfig{
			BaseURL:         "http://localhost:8080",
			Timeout:         10 * time.Second,
			RefreshInterval: 5 * time.Second,
			RecentInterval:  10 * time.Second,
			PerPage:         10,
		},
		Scanner: ScannerConfig{
			DedupWindow: 3 * time.Second,
		},
	}
}

// SearchPaths are tried in order when CONFIG_PATH is not set.
var SearchPaths = []string{
	"config.yaml",
	"configs/config.yaml",
	"/etc/barcode/config.yaml",
}

// Load reads .env, then the first config file found, then applies environment overrides.
// A missing config file is not an error; defaults are used.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", slog.Any("err", err))
	}

	paths := SearchPaths
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		paths = []string{p}
	}

	cfg := Default()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.ConfigPath = path
		break
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "APP_ADDR")
	setString(&c.Storage.SQLitePath, "SQLITE_PATH")
	setString(&c.Storage.MigrationsDir, "MIGRATIONS_DIR")
	setString(&c.Client.BaseURL, "SHELFSCAN_URL")
	setString(&c.Scanner.Key, "SCANNER_KEY")
	setString(&c.Scanner.Section, "SCAN_SECTION")

	if v := os.Getenv("KEEP_FILTERS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse KEEP_FILTERS: %w", err)
		}
		c.Client.KeepFilters = b
	}
	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse REFRESH_INTERVAL: %w", err)
		}
		c.Client.RefreshInterval = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
