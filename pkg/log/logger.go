package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/small-frappuccino/applygate/pkg/util"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager holds the category loggers and their rotating file sinks.
type Manager struct {
	application *slog.Logger
	discord     *slog.Logger
	errors      *slog.Logger

	files []*lumberjack.Logger
}

var (
	// GlobalLogger is initialized by SetupLogger and used by the accessor functions.
	GlobalLogger *Manager

	setupOnce sync.Once
	fallback  = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// SetupLogger initializes the global logger with one rotating file per category
// plus console output. It is idempotent.
func SetupLogger() error {
	var err error
	setupOnce.Do(func() {
		logDir := util.LogsDirPath()
		if mkErr := os.MkdirAll(logDir, 0o755); mkErr != nil {
			err = fmt.Errorf("create logs directory: %w", mkErr)
			return
		}

		m := &Manager{}
		m.application = m.newCategoryLogger(logDir, "application.log", os.Stdout)
		m.discord = m.newCategoryLogger(logDir, "discord_events.log", os.Stdout)
		m.errors = m.newCategoryLogger(logDir, "error.log", os.Stderr)
		GlobalLogger = m
	})
	return err
}

func (m *Manager) newCategoryLogger(dir, name string, console io.Writer) *slog.Logger {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, name),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}
	m.files = append(m.files, file)
	return slog.New(slog.NewTextHandler(io.MultiWriter(console, file), nil))
}

// Sync closes the rotating file sinks. Call on shutdown.
func (m *Manager) Sync() {
	if m == nil {
		return
	}
	for _, f := range m.files {
		_ = f.Close()
	}
}

// ApplicationLogger returns the logger for application lifecycle events.
func ApplicationLogger() *slog.Logger {
	if GlobalLogger == nil {
		return fallback
	}
	return GlobalLogger.application
}

// DiscordLogger returns the logger for Discord gateway and API events.
func DiscordLogger() *slog.Logger {
	if GlobalLogger == nil {
		return fallback
	}
	return GlobalLogger.discord
}

// ErrorLoggerRaw returns the logger dedicated to error reporting.
func ErrorLoggerRaw() *slog.Logger {
	if GlobalLogger == nil {
		return fallback
	}
	return GlobalLogger.errors
}
