// Package config loads postbox settings from a config file, a .env file and
// POSTBOX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/artpar/postbox/internal/storage"
)

// EnvPrefix prefixes environment overrides, e.g. POSTBOX_STORAGE_DRIVER.
const EnvPrefix = "POSTBOX"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

type Config struct {
	DataDir    string        `mapstructure:"data_dir" validate:"required"`
	Storage    StorageConfig `mapstructure:"storage"`
	HTTP       HTTPConfig    `mapstructure:"http"`
	Log        LogConfig     `mapstructure:"log"`
	SeedSample bool          `mapstructure:"seed_sample"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type StorageConfig struct {
	Driver     string `mapstructure:"driver" validate:"oneof=sqlite memory"`
	Path       string `mapstructure:"path"`
	QuotaBytes int    `mapstructure:"quota_bytes" validate:"gt=0"`
}

type HTTPConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" validate:"gte=0"`
	FollowRedirects bool          `mapstructure:"follow_redirects"`
	Cookies         bool          `mapstructure:"cookies"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// DefaultDataDir returns ~/.postbox, or .postbox when the home directory is
// unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".postbox"
	}
	return filepath.Join(home, ".postbox")
}

// Load reads configuration. An explicit configPath must exist; otherwise
// config.yaml is looked up in the working directory and the data directory,
// and defaults apply when neither has one. A .env file in the working
// directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(v.GetString("data_dir"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(cfg.DataDir, "postbox.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())

	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.quota_bytes", storage.DefaultQuota)

	v.SetDefault("http.timeout", time.Duration(0))
	v.SetDefault("http.follow_redirects", true)
	v.SetDefault("http.cookies", false)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")

	v.SetDefault("seed_sample", true)
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		DataDir: dataDir,
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			Path:       filepath.Join(dataDir, "postbox.db"),
			QuotaBytes: storage.DefaultQuota,
		},
		HTTP: HTTPConfig{
			FollowRedirects: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		SeedSample: true,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.Path == "" {
		return fmt.Errorf("invalid config: storage.path is required for the %s driver", DriverSQLite)
	}
	return nil
}
