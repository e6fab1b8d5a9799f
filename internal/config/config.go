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

// EnvPrefix prefixes every environment variable viper binds.
const EnvPrefix = "TYPE_EXTRACTOR"

// Config holds all configuration settings
type Config struct {
	// Compiler defaults applied before command-line flags
	Frontend FrontendConfig `yaml:"frontend" mapstructure:"frontend"`

	// Extra destinations for extracted declarations
	Output OutputConfig `yaml:"output" mapstructure:"output"`

	// Batch extraction settings
	Batch BatchConfig `yaml:"batch" mapstructure:"batch"`

	Log LogConfig `yaml:"log" mapstructure:"log"`
}

type FrontendConfig struct {
	Sysroot     string   `yaml:"sysroot,omitempty" mapstructure:"sysroot"`
	ResourceDir string   `yaml:"resource_dir,omitempty" mapstructure:"resource_dir"`
	Target      string   `yaml:"target,omitempty" mapstructure:"target"`
	Language    string   `yaml:"language,omitempty" mapstructure:"language"` // "c", "c++" or empty to infer
	IncludeDirs []string `yaml:"include_dirs,omitempty" mapstructure:"include_dirs"`
	Defines     []string `yaml:"defines,omitempty" mapstructure:"defines"` // NAME or NAME=VALUE
}

type OutputConfig struct {
	// SQLitePath, when set, also records every declaration in a SQLite database.
	SQLitePath  string `yaml:"sqlite_path,omitempty" mapstructure:"sqlite_path"`
	// PostgresDSN, when set, also records every declaration in PostgreSQL.
	PostgresDSN string `yaml:"postgres_dsn,omitempty" mapstructure:"postgres_dsn"`
}

type BatchConfig struct {
	Workers    int      `yaml:"workers" mapstructure:"workers"`
	Extensions []string `yaml:"extensions" mapstructure:"extensions"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "text" or "json"
	File   string `yaml:"file,omitempty" mapstructure:"file"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Batch: BatchConfig{
			Workers:    4,
			Extensions: []string{".h", ".hh", ".hpp", ".hxx"},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load loads configuration from file. An empty path searches the standard
// locations; a missing file there is not an error.
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".type-extractor")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".type-extractor"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.Frontend.Sysroot = expandPath(cfg.Frontend.Sysroot)
	cfg.Frontend.ResourceDir = expandPath(cfg.Frontend.ResourceDir)
	cfg.Output.SQLitePath = expandPath(cfg.Output.SQLitePath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if result := cfg.Validate(); result.HasErrors() {
		return nil, result
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("frontend.sysroot", cfg.Frontend.Sysroot)
	v.SetDefault("frontend.resource_dir", cfg.Frontend.ResourceDir)
	v.SetDefault("frontend.target", cfg.Frontend.Target)
	v.SetDefault("frontend.language", cfg.Frontend.Language)
	v.SetDefault("frontend.include_dirs", cfg.Frontend.IncludeDirs)
	v.SetDefault("frontend.defines", cfg.Frontend.Defines)
	v.SetDefault("output.sqlite_path", cfg.Output.SQLitePath)
	v.SetDefault("output.postgres_dsn", cfg.Output.PostgresDSN)
	v.SetDefault("batch.workers", cfg.Batch.Workers)
	v.SetDefault("batch.extensions", cfg.Batch.Extensions)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[1:])
}

// CompilerArgs renders the frontend settings as compiler flags. They are
// placed before the user's flags, so the command line wins.
func (c *Config) CompilerArgs() []string {
	var args []string
	f := c.Frontend
	if f.Target != "" {
		args = append(args, "-target", f.Target)
	}
	if f.Sysroot != "" {
		args = append(args, "--sysroot="+f.Sysroot)
	}
	if f.ResourceDir != "" {
		args = append(args, "-resource-dir", f.ResourceDir)
	}
	if f.Language != "" {
		args = append(args, "-x", f.Language)
	}
	for _, dir := range f.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	for _, def := range f.Defines {
		args = append(args, "-D"+def)
	}
	return args
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
