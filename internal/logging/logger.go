package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/twmccart/watchface1/internal/config"
)

// New returns the process logger: colourised console output in dev, JSON
// otherwise.
func New(cfg *config.Config, version string, appName string) *slog.Logger {
	if strings.EqualFold(cfg.App.Env, "dev") || version == "dev" {
		h := tint.NewHandler(os.Stdout, &tint.Options{
			Level:      cfg.LogLevel(),
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.App.Env,
	)
}
