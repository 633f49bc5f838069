package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ari/claude-monitor/internal/tracker"
)

// Config represents the application configuration
type Config struct {
	// ClaudeDir is the Claude Code data directory, ~/.claude by default.
	ClaudeDir string `mapstructure:"claude_dir"`
	// Port the dashboard listens on (localhost only).
	Port int `mapstructure:"port"`
	// TokenLimit is the estimated rolling-window budget.
	TokenLimit int64 `mapstructure:"token_limit"`
	// WindowHours is the rolling window length.
	WindowHours int `mapstructure:"window_hours"`
}

// LoadConfig loads configuration from the specified path or the default
// location (~/.claude-monitor/config.toml). A missing config file is not an
// error: every setting has a usable default.
func LoadConfig(configPath string) (*Config, error) {
	viperInstance := viper.New()

	viperInstance.SetDefault("claude_dir", tracker.GetClaudeDir())
	viperInstance.SetDefault("port", 3456)
	viperInstance.SetDefault("token_limit", tracker.DefaultTokenLimit)
	viperInstance.SetDefault("window_hours", tracker.RollingWindowHours)

	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".claude-monitor", "config.toml")
	}
	viperInstance.SetConfigFile(configPath)

	if err := viperInstance.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := viperInstance.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ProjectsDir returns the directory holding per-project session transcripts.
func (c *Config) ProjectsDir() string {
	return filepath.Join(c.ClaudeDir, "projects")
}

// HistoryFile returns the path of the prompt history file.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.ClaudeDir, "history.jsonl")
}
