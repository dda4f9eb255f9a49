package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the global crsh configuration.
type Config struct {
	// Prompt is a template; \u, \h, \w and \$ are expanded before display.
	Prompt string `yaml:"prompt" validate:"required_without=PromptScript"`
	// PromptScript is a Starlark file defining prompt(cwd, status).
	PromptScript string        `yaml:"prompt_script"`
	History      HistoryConfig `yaml:"history"`
	Audit        AuditConfig   `yaml:"audit"`
	// CaptureOutput buffers each line's output and prints it after the
	// line finishes instead of streaming it.
	CaptureOutput bool   `yaml:"capture_output"`
	Color         string `yaml:"color" validate:"oneof=auto always never"`
	Debug         bool   `yaml:"debug"`
}

// HistoryConfig controls the REPL history file.
type HistoryConfig struct {
	File  string `yaml:"file"`
	Limit int    `yaml:"limit" validate:"gte=0"`
}

// AuditConfig controls audit log settings.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// DefaultPrompt matches the classic "> " prompt.
const DefaultPrompt = "> "

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Prompt: DefaultPrompt,
		History: HistoryConfig{
			File:  filepath.Join(home, ".local", "share", "crsh", "history"),
			Limit: 1000,
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    filepath.Join(home, ".local", "share", "crsh", "audit.jsonl"),
		},
		Color: "auto",
	}
}

// Load reads the config from the standard location (~/.config/crsh/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads and validates the config at path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.PromptScript = expandHome(cfg.PromptScript)
	cfg.History.File = expandHome(cfg.History.File)
	cfg.Audit.Path = expandHome(cfg.Audit.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for semantic errors. Field names in
// the report are the YAML keys.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	return validate.Struct(c)
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "crsh", "config.yaml")
}

func expandHome(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, p[1:])
}
