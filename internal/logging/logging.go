// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/db-assistant/internal/config"
)

// Setup installs the global logger described by cfg. Output goes to out
// (normally stderr, which keeps stdout free for the MCP stdio transport)
// and, when cfg.File is set, to a time-rotated file.
func Setup(cfg config.LoggingConfig, out io.Writer) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if out == nil {
		out = os.Stderr
	}

	var primary io.Writer = out
	if cfg.Format != "json" && os.Getenv("ENV") != "production" {
		primary = zerolog.ConsoleWriter{Out: out}
	}

	writers := []io.Writer{primary}
	if cfg.File != "" {
		rotated, err := newRotatingFile(cfg)
		if err != nil {
			return err
		}
		writers = append(writers, rotated)
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return nil
}

func newRotatingFile(cfg config.LoggingConfig) (io.Writer, error) {
	opts := []rotatelogs.Option{rotatelogs.WithLinkName(cfg.File)}
	if cfg.MaxAge > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(cfg.MaxAge))
	}
	if cfg.RotationTime > 0 {
		opts = append(opts, rotatelogs.WithRotationTime(cfg.RotationTime))
	}

	w, err := rotatelogs.New(cfg.File+".%Y%m%d", opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return w, nil
}
