// Package config loads lectern's TOML config file, .env credentials and
// prompt overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/neilberkman/lectern/internal/core/llm"
)

const (
	DefaultHTTPAddr          = "127.0.0.1:8000"
	DefaultSummarizeSchedule = "@every 5m"
	DefaultMaxUploadMB       = 500
	DefaultFFmpegPath        = "ffmpeg"
	DefaultWhisperPath       = "whisper-cli"
)

type Config struct {
	// Dir is the directory config.toml, .env and prompts/ were read from
	Dir string

	DataDir           string
	Provider          string
	Models            map[string]string
	BaseURLs          map[string]string
	FFmpegPath        string
	WhisperPath       string
	WhisperModel      string
	Language          string
	HTTPAddr          string
	SummarizeSchedule string
	MaxUploadMB       int

	// Keys holds provider API keys read from the environment
	Keys map[string]string
}

type tomlConfig struct {
	DataDir           string            `toml:"data_dir"`
	Provider          string            `toml:"provider"`
	Models            map[string]string `toml:"models"`
	BaseURLs          map[string]string `toml:"base_urls"`
	FFmpegPath        string            `toml:"ffmpeg_path"`
	WhisperPath       string            `toml:"whisper_path"`
	WhisperModel      string            `toml:"whisper_model"`
	Language          string            `toml:"language"`
	HTTPAddr          string            `toml:"http_addr"`
	SummarizeSchedule string            `toml:"summarize_schedule"`
	MaxUploadMB       int               `toml:"max_upload_mb"`
}

// DefaultDir returns ~/.config/lectern
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "lectern")
	}
	return filepath.Join(home, ".config", "lectern")
}

// Load reads config from dir (DefaultDir when empty). A missing config
// file yields the defaults; a malformed one is an error.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}

	// Existing environment wins over both files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	var tc tomlConfig
	tomlPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		if _, err := toml.DecodeFile(tomlPath, &tc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", tomlPath, err)
		}
	}

	cfg := &Config{
		Dir:               dir,
		DataDir:           expandHome(tc.DataDir),
		Provider:          strings.ToLower(strings.TrimSpace(tc.Provider)),
		Models:            tc.Models,
		BaseURLs:          tc.BaseURLs,
		FFmpegPath:        tc.FFmpegPath,
		WhisperPath:       tc.WhisperPath,
		WhisperModel:      expandHome(tc.WhisperModel),
		Language:          tc.Language,
		HTTPAddr:          tc.HTTPAddr,
		SummarizeSchedule: tc.SummarizeSchedule,
		MaxUploadMB:       tc.MaxUploadMB,
		Keys:              make(map[string]string),
	}
	cfg.applyDefaults()

	for name, env := range llm.EnvKeys {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			cfg.Keys[name] = v
		}
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(c.Dir, "data")
	}
	if c.FFmpegPath == "" {
		c.FFmpegPath = DefaultFFmpegPath
	}
	if c.WhisperPath == "" {
		c.WhisperPath = DefaultWhisperPath
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.SummarizeSchedule == "" {
		c.SummarizeSchedule = DefaultSummarizeSchedule
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = DefaultMaxUploadMB
	}
	if c.Models == nil {
		c.Models = map[string]string{}
	}
	if c.BaseURLs == nil {
		c.BaseURLs = map[string]string{}
	}
}

// DBPath is the session store file
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "lectern.db")
}

// SettingsPath is the runtime settings file
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.toml")
}

// PromptsDir holds optional prompt override files
func (c *Config) PromptsDir() string {
	return filepath.Join(c.Dir, "prompts")
}

// StateDir holds the background watcher PID and log files
func (c *Config) StateDir() string {
	return filepath.Join(c.DataDir, "run")
}

// SelectorOptions builds the provider selector options
func (c *Config) SelectorOptions() llm.Options {
	return llm.Options{
		Keys:      c.Keys,
		Models:    c.Models,
		BaseURLs:  c.BaseURLs,
		Preferred: c.Provider,
	}
}

// Prompts returns the default prompts with any file overrides applied
func (c *Config) Prompts() (llm.Prompts, error) {
	return llm.LoadPrompts(c.PromptsDir())
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
