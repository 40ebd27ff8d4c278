// Package logging wraps slog with the category-gated debug helpers the rest
// of camcore uses for high-volume paths (per-frame, per-packet) that would
// otherwise flood a plain Info/Debug log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Category gates a family of high-frequency debug logs.
type Category string

const (
	CategoryCapture Category = "capture"
	CategoryEncode  Category = "encode"
	CategoryRTP     Category = "rtp"
	CategoryMonitor Category = "monitor"
	CategoryAll     Category = "all"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config describes how to build a Logger.
type Config struct {
	Level      Level
	Format     Format
	OutputFile string

	mu         sync.RWMutex
	categories map[Category]bool
}

func NewConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatText,
		categories: make(map[Category]bool),
	}
}

func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug, nil
	case "info", "INFO", "":
		return LevelInfo, nil
	case "warn", "WARN", "warning":
		return LevelWarn, nil
	case "error", "ERROR":
		return LevelError, nil
	default:
		return "", fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", s)
	}
}

func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", "JSON":
		return FormatJSON, nil
	case "text", "TEXT", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid log format: %s (must be text or json)", s)
	}
}

func (l Level) toSlog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EnableCategory turns on a debug category (CategoryAll enables every one).
func (c *Config) EnableCategory(cat Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cat == CategoryAll {
		c.categories[CategoryCapture] = true
		c.categories[CategoryEncode] = true
		c.categories[CategoryRTP] = true
		c.categories[CategoryMonitor] = true
		return
	}
	c.categories[cat] = true
}

func (c *Config) isEnabled(cat Category) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.categories[cat]
}

// Logger wraps *slog.Logger with camcore's debug categories.
type Logger struct {
	*slog.Logger
	cfg  *Config
	file *os.File
}

// New builds a Logger from cfg, opening OutputFile if set.
func New(cfg *Config) (*Logger, error) {
	var w io.Writer = os.Stdout
	var f *os.File

	if cfg.OutputFile != "" {
		var err error
		f, err = os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", cfg.OutputFile, err)
		}
		w = f
	}

	opts := &slog.HandlerOptions{Level: cfg.Level.toSlog()}
	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler), cfg: cfg, file: f}, nil
}

func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), cfg: l.cfg, file: l.file}
}

// DebugCapture logs per-frame capture diagnostics when CategoryCapture is enabled.
func (l *Logger) DebugCapture(msg string, args ...any) {
	if l.cfg.isEnabled(CategoryCapture) {
		l.Debug(msg, append([]any{"category", "capture"}, args...)...)
	}
}

// DebugEncode logs per-frame encoder diagnostics when CategoryEncode is enabled.
func (l *Logger) DebugEncode(msg string, args ...any) {
	if l.cfg.isEnabled(CategoryEncode) {
		l.Debug(msg, append([]any{"category", "encode"}, args...)...)
	}
}

// DebugRTP logs per-packet RTP diagnostics when CategoryRTP is enabled.
func (l *Logger) DebugRTP(msg string, args ...any) {
	if l.cfg.isEnabled(CategoryRTP) {
		l.Debug(msg, append([]any{"category", "rtp"}, args...)...)
	}
}

// DebugMonitor logs device-monitor scan diagnostics when CategoryMonitor is enabled.
func (l *Logger) DebugMonitor(msg string, args ...any) {
	if l.cfg.isEnabled(CategoryMonitor) {
		l.Debug(msg, append([]any{"category", "monitor"}, args...)...)
	}
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns (and lazily creates) the package-level default logger.
func Default() *Logger {
	once.Do(func() {
		l, err := New(NewConfig())
		if err != nil {
			l = &Logger{Logger: slog.Default(), cfg: NewConfig()}
		}
		defaultLogger = l
	})
	return defaultLogger
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	defaultLogger = l
	slog.SetDefault(l.Logger)
}
