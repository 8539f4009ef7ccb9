// Package config loads flashdeck settings. Sources are layered, later ones
// winning: flag defaults, an optional YAML file, FLASHDECK_* environment
// variables, then flags set on the command line.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/flashdeck/internal/storage"
)

// EnvPrefix prefixes every environment variable read by Load, e.g.
// FLASHDECK_DB_PATH for db.path.
const EnvPrefix = "FLASHDECK_"

// Config is the resolved application configuration.
type Config struct {
	DB   DBConfig   `koanf:"db"`
	HTTP HTTPConfig `koanf:"http"`
	Log  LogConfig  `koanf:"log"`
	Sort string     `koanf:"sort" validate:"omitempty,oneof=recent alpha-asc alpha-desc num-asc num-desc"`
}

// DBConfig locates the card database.
type DBConfig struct {
	Path        string        `koanf:"path" validate:"required"`
	OpenTimeout time.Duration `koanf:"open_timeout" validate:"gt=0"`
}

// HTTPConfig configures the JSON API.
type HTTPConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"db":           "db.path",
	"open-timeout": "db.open_timeout",
	"addr":         "http.addr",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"sort":         "sort",
}

// Flags returns the flag set understood by Load. The caller parses it.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML config file")
	fs.String("db", "flashdeck.db", "Path to the SQLite database file")
	fs.Duration("open-timeout", storage.DefaultOpenTimeout, "How long opening the database may take")
	fs.String("addr", ":8080", "Listen address for the serve command")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "text", "Log format (text, json)")
	fs.String("sort", "recent", "Sort mode (recent, alpha-asc, alpha-desc, num-asc, num-desc)")
	return fs
}

// Load resolves configuration from a parsed flag set.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Unchanged flags only fill keys nothing else has set.
	flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(flags, nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// envKey turns FLASHDECK_DB_OPEN_TIMEOUT into db.open_timeout: the first
// underscore separates the section, the rest belong to the key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if s == "sort" {
		return s
	}
	return strings.Replace(s, "_", ".", 1)
}

// Logger builds the slog logger described by c, writing to w.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
