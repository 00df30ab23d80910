// Package config loads knoldeck settings from defaults, an optional YAML
// file, KNOLDECK_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/srs"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides. KNOLDECK_DB_PATH sets
// db.path.
const EnvPrefix = "KNOLDECK_"

// Config is the full application configuration.
type Config struct {
	DB       DBConfig       `koanf:"db"`
	Log      LogConfig      `koanf:"log"`
	Schedule ScheduleConfig `koanf:"schedule"`
	Import   ImportConfig   `koanf:"import"`
}

type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type ScheduleConfig struct {
	Timezone      string  `koanf:"timezone"`
	InitialEase   float64 `koanf:"initial_ease"`
	MinEase       float64 `koanf:"min_ease"`
	ResetInterval int     `koanf:"reset_interval"`
	FirstInterval int     `koanf:"first_interval"`
	MaxInterval   int     `koanf:"max_interval"`
}

type ImportConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"db":         "db.path",
	"log-level":  "log.level",
	"log-format": "log.format",
	"timezone":   "schedule.timezone",
	"repos-dir":  "import.repos_dir",
}

func defaults() map[string]any {
	p := srs.DefaultParams()
	return map[string]any{
		"db.path":                 "knoldeck.db",
		"log.level":               "info",
		"log.format":              "text",
		"schedule.timezone":       "Local",
		"schedule.initial_ease":   p.InitialEase,
		"schedule.min_ease":       p.MinEase,
		"schedule.reset_interval": p.ResetInterval,
		"schedule.first_interval": p.FirstInterval,
		"schedule.max_interval":   p.MaxInterval,
		"import.repos_dir":        "repos",
	}
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := defaults()
	fs.String("config", "", "Path to a YAML config file")
	fs.String("db", d["db.path"].(string), "Path to the SQLite database file")
	fs.String("log-level", d["log.level"].(string), "Log level: debug, info, warn or error")
	fs.String("log-format", d["log.format"].(string), "Log format: text or json")
	fs.String("timezone", d["schedule.timezone"].(string), "IANA time zone used to date reviews")
	fs.String("repos-dir", d["import.repos_dir"].(string), "Directory git sources are cloned into")
}

// Load builds the configuration. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, v := range defaults() {
		if err := k.Set(key, v); err != nil {
			return nil, fmt.Errorf("failed to set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		// Unchanged flags only fill keys that are still unset.
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns KNOLDECK_SCHEDULE_MIN_EASE into schedule.min_ease. The first
// underscore separates the section from the key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, found := strings.Cut(s, "_")
	if !found {
		return s
	}
	return section + "." + key
}

// Validate checks the configuration, including the scheduler parameters it
// describes.
func (c *Config) Validate() error {
	if err := domain.Check(c); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	_, err := c.Params()
	return err
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Schedule.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, &domain.ValidationError{Field: "timezone", Reason: err.Error()}
	}
	return loc, nil
}

// Params returns the scheduler parameters, starting from the stock tier
// table.
func (c *Config) Params() (*srs.Params, error) {
	p := srs.DefaultParams()
	p.InitialEase = c.Schedule.InitialEase
	p.MinEase = c.Schedule.MinEase
	p.ResetInterval = c.Schedule.ResetInterval
	p.FirstInterval = c.Schedule.FirstInterval
	p.MaxInterval = c.Schedule.MaxInterval
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
