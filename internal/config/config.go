// Package config provides Viper-based configuration loading for the
// mapper daemon.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GameConfig holds settings for the MUD connection.
type GameConfig struct {
	// Host is the game server hostname.
	Host string `mapstructure:"host"`
	// Port is the game server TCP port.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout on the game connection. Zero
	// disables the deadline; most MUDs have long quiet stretches.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout on the game connection.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" connect address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GameConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// MapperConfig holds mapper engine settings.
type MapperConfig struct {
	// SpeedwalkTimeout is how long to wait for a room arrival after
	// sending a movement command before the speedwalk is abandoned.
	SpeedwalkTimeout time.Duration `mapstructure:"speedwalk_timeout"`
	// SaveInterval is how often the in-memory graph is flushed to the
	// store. Zero saves only on shutdown.
	SaveInterval time.Duration `mapstructure:"save_interval"`
}

// StoreConfig holds map persistence settings.
type StoreConfig struct {
	// Path is the bbolt database file for the persistent map.
	Path string `mapstructure:"path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File, when non-empty, routes output to a rotated log file instead
	// of stderr.
	File string `mapstructure:"file"`
	// MaxSizeMB is the rotation threshold for File output.
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is how many rotated files to keep.
	MaxBackups int `mapstructure:"max_backups"`
}

// ScriptingConfig holds Lua hook settings.
type ScriptingConfig struct {
	// Enabled toggles the Lua hook dispatcher.
	Enabled bool `mapstructure:"enabled"`
	// Dir is the directory of *.lua hook scripts, loaded in
	// lexicographic order.
	Dir string `mapstructure:"dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Game      GameConfig      `mapstructure:"game"`
	Mapper    MapperConfig    `mapstructure:"mapper"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateMapper(c.Mapper); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Store.Path == "" {
		errs = append(errs, "store.path must not be empty")
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.Enabled && c.Scripting.Dir == "" {
		errs = append(errs, "scripting.dir must not be empty when scripting.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.Host == "" {
		errs = append(errs, "game.host must not be empty")
	}
	if g.Port < 1 || g.Port > 65535 {
		errs = append(errs, fmt.Sprintf("game.port must be 1-65535, got %d", g.Port))
	}
	if g.ReadTimeout < 0 {
		errs = append(errs, "game.read_timeout must not be negative")
	}
	if g.WriteTimeout < 0 {
		errs = append(errs, "game.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateMapper(m MapperConfig) error {
	var errs []string
	if m.SpeedwalkTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("mapper.speedwalk_timeout must be positive, got %s", m.SpeedwalkTimeout))
	}
	if m.SaveInterval < 0 {
		errs = append(errs, "mapper.save_interval must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", l.Format))
	}
	if l.File != "" && l.MaxSizeMB < 1 {
		errs = append(errs, fmt.Sprintf("logging.max_size_mb must be >= 1 when logging.file is set, got %d", l.MaxSizeMB))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MSDPMAP_ prefix
	v.SetEnvPrefix("MSDPMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.host", "localhost")
	v.SetDefault("game.port", 4000)
	v.SetDefault("game.read_timeout", "0")
	v.SetDefault("game.write_timeout", "30s")

	v.SetDefault("mapper.speedwalk_timeout", "5s")
	v.SetDefault("mapper.save_interval", "1m")

	v.SetDefault("store.path", "msdpmap.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)

	v.SetDefault("scripting.enabled", false)
	v.SetDefault("scripting.dir", "scripts")
}
