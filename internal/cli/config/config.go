package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/modelkit/internal/logging"
	"github.com/conduit-lang/modelkit/internal/model"
)

// ConfigName is the base name of the configuration file.
const ConfigName = "modelkit"

// EnvPrefix prefixes environment variable overrides, e.g. MODELKIT_SERVER_PORT.
const EnvPrefix = "MODELKIT"

// Config represents the modelkit configuration
type Config struct {
	Logging     LoggingConfig             `mapstructure:"logging"`
	Server      ServerConfig              `mapstructure:"server"`
	Watch       WatchConfig               `mapstructure:"watch"`
	Definitions []string                  `mapstructure:"definitions"`
	Roles       map[string]map[string]any `mapstructure:"roles"`

	// File is the configuration file that was read, if any.
	File string `mapstructure:"-"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ServerConfig represents the introspection server configuration
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WatchConfig represents definition file watching configuration
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("server.port", 4080)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("watch.debounce", "200ms")
	v.SetDefault("definitions", []string{})

	// Enable environment variable support
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load loads the configuration from modelkit.yaml or modelkit.yml in the
// current directory. A missing file is not an error.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}
	return decode(v)
}

// LoadFile loads the configuration from an explicit path.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	if config.File != "" {
		roles, err := readRoles(config.File)
		if err != nil {
			return nil, err
		}
		if roles != nil {
			config.Roles = roles
		}
		config.Definitions = resolvePaths(filepath.Dir(config.File), config.Definitions)
	}

	// Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// readRoles re-reads the roles section directly: viper folds keys to lower
// case, but role defaults are keyed by case-sensitive property names.
func readRoles(path string) (map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var raw struct {
		Roles map[string]map[string]any `yaml:"roles"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse roles in %s: %w", path, err)
	}
	return raw.Roles, nil
}

// resolvePaths makes definition paths relative to the configuration file.
func resolvePaths(dir string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(dir, p)
	}
	return out
}

// Apply installs the configured role defaults into r. Classes defined
// afterwards pick them up.
func (c *Config) Apply(r *model.Registry) {
	for role, values := range c.Roles {
		r.SetRoleDefaults(role, values)
		logging.L().Debug("role defaults applied",
			zap.String("role", role),
			zap.Int("properties", len(values)),
		)
	}
}

// Logger builds the logger described by the logging section.
func (c *Config) Logger() (*zap.Logger, error) {
	return logging.New(c.Logging.Level, c.Logging.Development)
}

// GetProjectRoot tries to find the project root by looking for modelkit.yaml
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{ConfigName + ".yaml", ConfigName + ".yml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir, nil
			}
		}

		// Move up one directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return "", fmt.Errorf("not in a modelkit project (no %s.yaml found)", ConfigName)
		}
		dir = parent
	}
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got: %s", cfg.Logging.Level)
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got: %d", cfg.Server.Port)
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got: %s", cfg.Watch.Debounce)
	}
	return nil
}
