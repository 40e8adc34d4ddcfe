package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. CLAUDEBRIDGE_SERVER_PORT.
const EnvPrefix = "CLAUDEBRIDGE"

// DefaultConfigFile is looked up in the working directory when no --config is given.
const DefaultConfigFile = "config.yaml"

// ServerConfig defines the HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            int           `mapstructure:"port" yaml:"port"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Addr returns the listen address for the server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ClaudeConfig defines how the Claude CLI is invoked.
type ClaudeConfig struct {
	BinaryPath string        `mapstructure:"binary_path" yaml:"binary_path"`
	WorkDir    string        `mapstructure:"work_dir" yaml:"work_dir"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// UnsetEnv lists variables stripped from the child environment.
	UnsetEnv []string `mapstructure:"unset_env" yaml:"unset_env"`
}

// LoggingConfig defines the logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// Config is the top-level configuration struct.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Claude  ClaudeConfig  `mapstructure:"claude" yaml:"claude"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// AppConfig holds the loaded configuration.
var AppConfig *Config

// New returns a viper instance carrying the defaults and the environment
// bindings. Callers may bind flags on it before calling LoadConfig.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("claude.binary_path", "claude")
	v.SetDefault("claude.work_dir", defaultWorkDir())
	v.SetDefault("claude.timeout", 120*time.Second)
	v.SetDefault("claude.unset_env", []string{"CLAUDECODE"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func defaultWorkDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Projects")
}

// LoadConfig reads the configuration file at configPath into v, decodes it
// and stores the result in AppConfig. An empty configPath falls back to
// DefaultConfigFile, which is optional.
func LoadConfig(v *viper.Viper, configPath string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("could not read config file at %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	AppConfig = &cfg
	return &cfg, nil
}

// Validate checks the values that would otherwise fail late, at request time.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid server.max_body_bytes %d: must be positive", c.Server.MaxBodyBytes)
	}
	if strings.TrimSpace(c.Claude.BinaryPath) == "" {
		return errors.New("claude.binary_path must not be empty")
	}
	if c.Claude.Timeout <= 0 {
		return fmt.Errorf("invalid claude.timeout %s: must be positive", c.Claude.Timeout)
	}
	return nil
}

// YAML renders the configuration the way it would be written in config.yaml.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
