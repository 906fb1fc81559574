// Package logging provides structured logging on top of slog with
// per-module levels. Output goes to stderr and, when journald is
// present, to the systemd journal (journalctl -t vcap).
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is a duck-typed interface satisfied by *slog.Logger. Use it
// where the concrete type would only add coupling.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu            sync.RWMutex
	globalConfig  Config
	isInitialized bool
	moduleLoggers = make(map[string]*slog.Logger)
)

// Initialize sets up the logging system and rebuilds any loggers that
// were handed out before configuration was known.
func Initialize(config Config) {
	mu.Lock()
	defer mu.Unlock()

	globalConfig = config
	isInitialized = true

	for module := range moduleLoggers {
		moduleLoggers[module] = newModuleLogger(module)
	}

	slog.SetDefault(slog.New(newHandler(config.Format, levelFor(""))))
}

// GetLogger returns a logger tagged with the given module name,
// creating it if needed.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	if logger, ok := moduleLoggers[module]; ok {
		mu.RUnlock()
		return logger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}
	logger := newModuleLogger(module)
	moduleLoggers[module] = logger
	return logger
}

// newModuleLogger builds a logger honoring the module-specific level
// override, if configured. Callers must hold mu.
func newModuleLogger(module string) *slog.Logger {
	format := "text"
	if isInitialized {
		format = globalConfig.Format
	}
	return slog.New(newHandler(format, levelFor(module))).With("module", module)
}

func levelFor(module string) slog.Level {
	level := slog.LevelInfo
	if !isInitialized {
		return level
	}
	if parsed, ok := parseLevel(globalConfig.Level); ok {
		level = parsed
	}
	if module != "" {
		if override, exists := globalConfig.Modules[module]; exists {
			if parsed, ok := parseLevel(override); ok {
				level = parsed
			}
		}
	}
	return level
}

// newHandler builds the handler chain: stderr always, journal when
// journald is accepting messages.
func newHandler(format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stream slog.Handler
	if format == "json" {
		stream = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		stream = slog.NewTextHandler(os.Stderr, opts)
	}

	if !journalAvailable() {
		return stream
	}
	return multiHandler{stream, newJournalHandler(level)}
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// multiHandler fans a record out to every handler that wants it.
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m {
		if h.Enabled(ctx, r.Level) {
			_ = h.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}
