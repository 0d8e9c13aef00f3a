package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/relicta-tech/changeplan/internal/config"
)

var (
	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	// logFile is the --log-file destination, closed by Cleanup.
	logFile *os.File
)

// configureLogger applies the output settings to the logger and makes it
// the slog default, so the use cases log through it. A nil config leaves
// the defaults in place apart from --no-color.
func configureLogger(c *config.Config) {
	plain := flags.noColor || (c != nil && !c.Output.Color)
	if plain {
		lipgloss.SetColorProfile(termenv.Ascii)
		logger.SetColorProfile(termenv.Ascii)
	}

	if c != nil {
		switch {
		case c.Output.Format == "json":
			logger.SetFormatter(log.JSONFormatter)
		case plain:
			logger.SetFormatter(log.TextFormatter)
		}
		logger.SetLevel(logLevelFor(c.Output))
	}

	slog.SetDefault(slog.New(logger))
}

// logLevelFor resolves the effective level. Quiet beats verbose, and both
// beat the configured level.
func logLevelFor(out config.OutputConfig) log.Level {
	switch {
	case out.Quiet:
		return log.ErrorLevel
	case out.Verbose:
		return log.DebugLevel
	}
	level, err := log.ParseLevel(out.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func openLogFile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	logger.SetOutput(f)
	return nil
}

// Cleanup releases the log file. main calls it before exiting.
func Cleanup() {
	if logFile == nil {
		return
	}
	_ = logFile.Close()
	logFile = nil
	logger.SetOutput(os.Stderr)
}
