// Package common provides shared dependencies for restock commands.
package common

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/restock/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/restock/internal/config"
)

// Viper keys bound by the root command.
const (
	KeyConfig   = "config"
	KeyDebug    = "debug"
	KeyLogLevel = "log_level"
)

var (
	// ErrLoggerRequired is returned when a command runs without a logger.
	ErrLoggerRequired = errors.New("logger is required")
	// ErrConfigRequired is returned when a command runs without configuration.
	ErrConfigRequired = errors.New("config is required")
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger logger.Logger
	Config *config.Config
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// NewCommandDeps loads the configuration named by the root flags, applies the
// flag overrides and builds the logger.
func NewCommandDeps() (*CommandDeps, error) {
	cfg, err := config.Load(viper.GetString(KeyConfig))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if level := viper.GetString(KeyLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if viper.GetBool(KeyDebug) {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
		cfg.Logging.Format = logger.FormatConsole
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("invalid config: %w", validateErr)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &CommandDeps{Logger: log, Config: cfg}, nil
}
