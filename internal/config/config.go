package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"typehide/internal/typespan"
)

const (
	configName = "typehide"
	envPrefix  = "TYPEHIDE"
)

// ErrDisabled is returned by Check when the enabled setting is off.
var ErrDisabled = errors.New("typehide is disabled by configuration")

type Config struct {
	Enabled            bool     `mapstructure:"enabled"`
	Hidden             bool     `mapstructure:"hidden"`
	IgnoreKinds        []string `mapstructure:"ignore_kinds"`
	Theme              string   `mapstructure:"theme"`
	Workers            int      `mapstructure:"workers"`
	CacheSize          int      `mapstructure:"cache_size"`
	FoldThresholdLines int      `mapstructure:"fold_threshold_lines"`
	StatePath          string   `mapstructure:"state_path"`
	LogLevel           string   `mapstructure:"log_level"`
	Excludes           []string `mapstructure:"excludes"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:            true,
		Hidden:             true,
		IgnoreKinds:        []string{},
		Theme:              "nord",
		Workers:            defaultWorkers(),
		CacheSize:          256,
		FoldThresholdLines: 2,
		StatePath:          DefaultStatePath(),
		LogLevel:           "warn",
		Excludes:           []string{},
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		return 1
	}
	if n > 4 {
		return 4
	}
	return n
}

// DefaultStatePath is the bbolt file holding persisted preferences.
func DefaultStatePath() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), configName, "state.db")
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, configName, "state.db")
}

// Load reads typehide.{toml,yaml,json} from root, then from the user config
// directory. An explicit path wins over both. Environment variables
// prefixed TYPEHIDE_ override file values. A missing file yields defaults.
func Load(root string, explicit string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("enabled", def.Enabled)
	v.SetDefault("hidden", def.Hidden)
	v.SetDefault("ignore_kinds", def.IgnoreKinds)
	v.SetDefault("theme", def.Theme)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("cache_size", def.CacheSize)
	v.SetDefault("fold_threshold_lines", def.FoldThresholdLines)
	v.SetDefault("state_path", def.StatePath)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("excludes", def.Excludes)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName(configName)
		if root != "" {
			v.AddConfigPath(root)
		}
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown kind names and out-of-range numbers.
func (c *Config) Validate() error {
	if _, err := c.IgnoredKinds(); err != nil {
		return &Error{Field: "ignore_kinds", Message: err.Error()}
	}
	if c.Workers < 1 {
		return &Error{Field: "workers", Message: "must be at least 1"}
	}
	if c.CacheSize < 1 {
		return &Error{Field: "cache_size", Message: "must be at least 1"}
	}
	if c.FoldThresholdLines < 0 {
		return &Error{Field: "fold_threshold_lines", Message: "must not be negative"}
	}
	return nil
}

// Check returns ErrDisabled when the tool is switched off.
func (c *Config) Check() error {
	if !c.Enabled {
		return ErrDisabled
	}
	return nil
}

func (c *Config) IgnoredKinds() ([]typespan.Kind, error) {
	return typespan.ParseKinds(c.IgnoreKinds)
}

type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}
