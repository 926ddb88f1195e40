// Package config loads and saves the hw2 defaults file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/divijg19/hw2/internal/core"
	"github.com/divijg19/hw2/internal/morse"
)

// PathEnv overrides the config file location when set.
const PathEnv = "HW2_CONFIG"

// LogLevelEnv overrides the configured log level when set.
const LogLevelEnv = "HW2_LOG_LEVEL"

// Config holds user defaults. Zero values mean "use the built-in default".
type Config struct {
	Input    string `json:"input,omitempty"`
	Output   string `json:"output,omitempty"`
	Roster   string `json:"roster,omitempty"`
	DBPath   string `json:"dbPath,omitempty"`
	MaxSteps int    `json:"maxSteps,omitempty"`
	LogLevel string `json:"logLevel,omitempty"`
	Editor   string `json:"editor,omitempty"`
}

// Keys lists the settable keys in display order.
var Keys = []string{"input", "output", "roster", "dbPath", "maxSteps", "logLevel", "editor"}

// ConfigPath returns $HW2_CONFIG or config.json under the user's config directory.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(PathEnv)); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config path: %w", err)
	}
	return filepath.Join(dir, "hw2", "config.json"), nil
}

// Load reads the config file. A missing file yields an empty Config.
func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to the config file, replacing it atomically.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("save config: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.json")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("save config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

// Set assigns a value by key, validating it first.
func Set(cfg Config, key, value string) (Config, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "input":
		cfg.Input = value
	case "output":
		cfg.Output = value
	case "roster":
		cfg.Roster = value
	case "dbPath":
		cfg.DBPath = value
	case "maxSteps":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("maxSteps must be a non-negative integer")
		}
		cfg.MaxSteps = n
	case "logLevel":
		if _, err := ParseLevel(value); err != nil {
			return cfg, err
		}
		cfg.LogLevel = strings.ToLower(value)
	case "editor":
		cfg.Editor = value
	default:
		return cfg, fmt.Errorf("unknown key %q", key)
	}
	return cfg, nil
}

// Get returns the effective value for key, with defaults applied.
func Get(cfg Config, key string) (string, error) {
	switch key {
	case "input":
		return InputFile(cfg), nil
	case "output":
		return OutputFile(cfg), nil
	case "roster":
		return cfg.Roster, nil
	case "dbPath":
		return cfg.DBPath, nil
	case "maxSteps":
		return strconv.Itoa(MaxSteps(cfg)), nil
	case "logLevel":
		return LogLevel(cfg).String(), nil
	case "editor":
		return cfg.Editor, nil
	default:
		return "", fmt.Errorf("unknown key %q", key)
	}
}

// InputFile returns the configured transliterator input or morse.DefaultInputFile.
func InputFile(cfg Config) string {
	if cfg.Input != "" {
		return cfg.Input
	}
	return morse.DefaultInputFile
}

// OutputFile returns the configured transliterator output or morse.DefaultOutputFile.
func OutputFile(cfg Config) string {
	if cfg.Output != "" {
		return cfg.Output
	}
	return morse.DefaultOutputFile
}

// MaxSteps returns the configured step limit or core.DefaultMaxSteps.
func MaxSteps(cfg Config) int {
	if cfg.MaxSteps > 0 {
		return cfg.MaxSteps
	}
	return core.DefaultMaxSteps
}

// LogLevel returns the level from $HW2_LOG_LEVEL, then the config, then warn.
func LogLevel(cfg Config) slog.Level {
	for _, s := range []string{os.Getenv(LogLevelEnv), cfg.LogLevel} {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if level, err := ParseLevel(s); err == nil {
			return level
		}
	}
	return slog.LevelWarn
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
