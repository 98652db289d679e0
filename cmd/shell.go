// Package cmd implements the palisade subcommands.
package cmd

import (
	"os"

	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/shell"
)

// RunShell starts the interactive console.
func RunShell(configFile string) error {
	settings, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := newLogger(settings)

	s, err := shell.New(settings, log)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Run(os.Stdin, os.Stdout)
}

func newLogger(settings *config.Settings) *logging.Logger {
	cfg := logging.DefaultConfig()
	switch settings.LogLevel {
	case "debug":
		cfg.Level = logging.LevelDebug
	case "info":
		cfg.Level = logging.LevelInfo
	case "warn":
		cfg.Level = logging.LevelWarn
	case "error":
		cfg.Level = logging.LevelError
	}
	log := logging.New(cfg)
	logging.SetDefault(log)
	return log
}
