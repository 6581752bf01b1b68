// Package cli implements the jusctl command-line interface.
package cli

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/apptik-go/jus/pkg/config"
	"github.com/apptik-go/jus/pkg/logging"
)

// CLI holds shared state for all commands: the loaded configuration and a
// component logger, built once in the root command's PersistentPreRunE and
// threaded through every
// subcommand rather than read from globals.
type CLI struct {
	Config *config.Config
	Logger zerolog.Logger
}

// New loads configuration and sets up logging at the given level.
func New(level logging.LogLevel) (*CLI, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(logging.Config{Level: level, Pretty: true, Output: os.Stderr})
	return &CLI{
		Config: cfg,
		Logger: logging.NewLogger("jusctl"),
	}, nil
}
