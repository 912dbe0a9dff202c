package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction for callers that assemble their
// own settings, such as the CLI layer.
type Config struct {
	// Level is one of trace, debug, info, warn, error.
	Level string

	// Format is "console", "json" or "auto". Auto picks console output
	// when attached to a terminal.
	Format string

	// Output is "stderr" or "stdout".
	Output string

	// AddCaller annotates events with file and line.
	AddCaller bool
}

// DefaultConfig returns the settings used when no configuration is
// provided.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "auto",
		Output: "stderr",
	}
}

// NewLoggerFromConfig builds a logger from cfg. A nil cfg uses defaults.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(configWriter(cfg)).
		Level(level).
		With().
		Timestamp().
		Logger()

	if cfg.AddCaller || level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// Configure replaces the default logger with one built from cfg.
func Configure(cfg *Config) {
	SetDefault(NewLoggerFromConfig(cfg))
}

func configWriter(cfg *Config) io.Writer {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		out = os.Stdout
	default:
		out = os.Stderr
	}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return out
	case "console":
		return zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	default:
		if isatty() {
			return zerolog.ConsoleWriter{
				Out:        out,
				TimeFormat: time.Kitchen,
				NoColor:    os.Getenv("NO_COLOR") != "",
			}
		}
		return out
	}
}
