package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "IQUIZ_"

// Config holds all application configuration.
type Config struct {
	DB     DBConfig     `koanf:"db"`
	Log    LogConfig    `koanf:"log"`
	Server ServerConfig `koanf:"server"`
	Import ImportConfig `koanf:"import"`
	Review ReviewConfig `koanf:"review"`
}

type DBConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"required,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `koanf:"format" validate:"required,oneof=text json"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required,hostname_port"`
}

type ImportConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
	Pattern  string `koanf:"pattern" validate:"required"`
}

type ReviewConfig struct {
	MaxRetries int `koanf:"max_retries" validate:"gte=0,lte=100"`
}

// Defaults returns the values used when nothing else sets a key.
func Defaults() map[string]any {
	return map[string]any{
		"db.path":            "iquiz.db",
		"log.level":          "info",
		"log.format":         "text",
		"server.addr":        "localhost:8080",
		"import.repos_dir":   "repos",
		"import.pattern":     "**/*.{md,markdown}",
		"review.max_retries": 3,
	}
}

// flagKeys maps CLI flag names to configuration keys.
var flagKeys = map[string]string{
	"db":          "db.path",
	"log-level":   "log.level",
	"log-format":  "log.format",
	"addr":        "server.addr",
	"repos-dir":   "import.repos_dir",
	"pattern":     "import.pattern",
	"max-retries": "review.max_retries",
}

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file at path (skipped when path is empty), IQUIZ_* environment
// variables and flags that were explicitly set on flags (which may be nil).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey turns IQUIZ_IMPORT_REPOS_DIR into import.repos_dir: the first
// underscore separates the section from the field name.
func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	return strings.Replace(k, "_", ".", 1), v
}

// Validate checks the configuration against its struct tags.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
