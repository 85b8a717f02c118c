package main

import (
	stderrors "errors"
	"io"
	"log/slog"
	"strings"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/errors"
)

// loadConfig reads the configuration named by --config, or ./fiber.json
// when it exists, or the defaults. Flag overrides are applied before
// validation.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configPath != "" {
		cfg, err = config.LoadFile(flags.configPath)
	} else {
		cfg, err = config.Load(".")
		if stderrors.Is(err, errors.New("E202")) {
			cfg, err = config.New(), nil
		}
	}
	if err != nil {
		return nil, err
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the slog handler named by the log configuration.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
