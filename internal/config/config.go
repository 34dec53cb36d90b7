package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a ledger.
const FileName = "tally.yaml"

// Store backends.
const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Import ImportConfig `yaml:"import" mapstructure:"import"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Git    GitConfig    `yaml:"git" mapstructure:"git"`
}

// StoreConfig selects where categories and transactions are kept.
type StoreConfig struct {
	Backend     string `yaml:"backend" mapstructure:"backend"`
	DataDir     string `yaml:"data_dir" mapstructure:"data_dir"` // csv backend, relative to the ledger root
	DatabaseURL string `yaml:"database_url,omitempty" mapstructure:"database_url"`
}

// ImportConfig controls how import files are read.
type ImportConfig struct {
	FromLine int    `yaml:"from_line" mapstructure:"from_line"` // first data line, 1-based
	InboxDir string `yaml:"inbox_dir" mapstructure:"inbox_dir"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig controls the HTTP upload server.
type ServerConfig struct {
	Addr           string `yaml:"addr" mapstructure:"addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	UploadDir      string `yaml:"upload_dir,omitempty" mapstructure:"upload_dir"` // empty = OS temp dir
}

// GitConfig controls git integration for csv ledgers.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit" mapstructure:"auto_commit"`
	AuthorName  string `yaml:"author_name" mapstructure:"author_name"`
	AuthorEmail string `yaml:"author_email" mapstructure:"author_email"`
}

// Default returns a Config with sensible defaults for a new ledger.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendCSV,
			DataDir: "data",
		},
		Import: ImportConfig{
			FromLine: 2,
			InboxDir: "import",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:           ":3333",
			MaxUploadBytes: 10 << 20,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Tally",
			AuthorEmail: "tally@localhost",
		},
	}
}

// Load reads a tally.yaml file. Missing keys take their Default value and any
// key can be overridden by a TALLY_ environment variable, e.g.
// TALLY_STORE_BACKEND or TALLY_STORE_DATABASE_URL.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.data_dir", d.Store.DataDir)
	v.SetDefault("store.database_url", d.Store.DatabaseURL)
	v.SetDefault("import.from_line", d.Import.FromLine)
	v.SetDefault("import.inbox_dir", d.Import.InboxDir)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.upload_dir", d.Server.UploadDir)
	v.SetDefault("git.auto_commit", d.Git.AutoCommit)
	v.SetDefault("git.author_name", d.Git.AuthorName)
	v.SetDefault("git.author_email", d.Git.AuthorEmail)
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendCSV:
		if c.Store.DataDir == "" {
			return errors.New("store.data_dir is required for the csv backend")
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("store.database_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if c.Import.FromLine < 1 {
		return fmt.Errorf("import.from_line must be at least 1, got %d", c.Import.FromLine)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	return nil
}

// DataDir returns the csv data directory for a ledger at root.
func (c *Config) DataDir(root string) string {
	return resolve(root, c.Store.DataDir)
}

// InboxDir returns the import inbox directory for a ledger at root.
func (c *Config) InboxDir(root string) string {
	return resolve(root, c.Import.InboxDir)
}

// UploadDir returns the HTTP upload spool directory, or "" for the OS temp dir.
func (c *Config) UploadDir(root string) string {
	if c.Server.UploadDir == "" {
		return ""
	}
	return resolve(root, c.Server.UploadDir)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
