package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/vk/taskgridgo/internal/procexec"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	TaskPaths []string // hcl files or directories
	Dir       string   // working directory of every task

	Env       []string // KEY=VALUE overrides from the command line
	Capture   bool
	NoBuiltin bool

	LogFormat string
	LogLevel  string

	// Environ replaces os.Environ as the lowest environment layer when set.
	Environ []string
	// Process and Fs replace the real OS implementations when set.
	Process procexec.Process
	Fs      afero.Fs
}

// NewConfig validates cfg and returns a copy with defaults applied.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	cfg.Dir = dir

	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, errors.New("invalid log format: must be 'text' or 'json'")
	}

	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid log level: must be 'debug', 'info', 'warn', or 'error'")
	}

	return &cfg, nil
}
