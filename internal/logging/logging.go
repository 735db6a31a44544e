package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"laserctl/internal/config"
)

// Manager owns the process logger. Console output goes to stderr so the
// operator console keeps stdout to itself; configuring a file moves all log
// output there instead.
type Manager struct {
	mu        sync.RWMutex
	writer    io.Writer
	format    string
	overrides map[string]slog.Leveler
	base      *slog.Logger
	file      *os.File
}

func NewManager() *Manager {
	m := &Manager{
		writer: os.Stderr,
		format: config.LogFormatText,
	}
	m.base = slog.New(m.newHandler(slog.LevelInfo))

	return m
}

func (m *Manager) Configure(cfg config.LoggingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	overrides := make(map[string]slog.Leveler, len(cfg.Components))
	for component, raw := range cfg.Components {
		l, err := parseLevel(raw)
		if err != nil {
			return fmt.Errorf("component %q: %w", component, err)
		}
		overrides[component] = l
	}

	format, err := parseFormat(cfg.Format)
	if err != nil {
		return err
	}

	if m.file != nil {
		_ = m.file.Close()
		m.file = nil
	}

	writer := io.Writer(os.Stderr)
	if strings.TrimSpace(cfg.File) != "" {
		cleanPath := filepath.Clean(cfg.File)
		// #nosec G304 -- path comes from the user's own config file.
		file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		m.file = file
		writer = file
	}

	m.writer = writer
	m.format = format
	m.overrides = overrides
	m.base = slog.New(m.newHandler(level))
	slog.SetDefault(m.base)

	return nil
}

// Logger returns a component-tagged logger. Components named in the config
// override map get their own level; everything else shares the base level.
func (m *Manager) Logger(component string) *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if level, ok := m.overrides[component]; ok {
		return slog.New(m.newHandler(level)).With("component", component)
	}

	return m.base.With("component", component)
}

// newHandler reads writer and format, the caller must hold the lock.
func (m *Manager) newHandler(level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if m.format == config.LogFormatJSON {
		return slog.NewJSONHandler(m.writer, opts)
	}

	return slog.NewTextHandler(m.writer, opts)
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			return err
		}
		m.file = nil
	}

	return nil
}

func parseLevel(raw string) (slog.Leveler, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return nil, fmt.Errorf("unsupported log level: %q", raw)
	}
}

func parseFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case config.LogFormatText, "":
		return config.LogFormatText, nil
	case config.LogFormatJSON:
		return config.LogFormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported log format: %q", raw)
	}
}
