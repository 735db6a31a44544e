package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConnectorType identifies which transport backend should be used.
type ConnectorType string

const (
	ConnectorSerial ConnectorType = "serial"
	ConnectorMock   ConnectorType = "mock"

	DefaultSerialBaud  = 115200
	DefaultBufferLimit = 4096

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// LoggingConfig defines runtime logging behavior. An empty File keeps log
// output on the console; Components overrides the level for individual
// component loggers (e.g. {"controller": "debug"}).
type LoggingConfig struct {
	Level      string            `json:"level"`
	Format     string            `json:"format"`
	File       string            `json:"file"`
	Components map[string]string `json:"components,omitempty"`
}

// ConnectionConfig contains connector-specific connection parameters.
type ConnectionConfig struct {
	Connector  ConnectorType `json:"connector"`
	SerialPort string        `json:"serial_port"`
	SerialBaud int           `json:"serial_baud"`
}

// ControllerConfig tunes the controller's buffering behavior.
type ControllerConfig struct {
	// BufferLimit is the pending-buffer depth, in bytes, above which the
	// controller warns about backpressure. Zero disables the warning.
	BufferLimit int `json:"buffer_limit"`
}

// HistoryConfig controls the sqlite telemetry log.
type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// AppConfig is the root persisted application configuration.
type AppConfig struct {
	Connection ConnectionConfig `json:"connection"`
	Controller ControllerConfig `json:"controller"`
	History    HistoryConfig    `json:"history"`
	Logging    LoggingConfig    `json:"logging"`
}

func Default() AppConfig {
	return AppConfig{
		Connection: ConnectionConfig{
			Connector:  ConnectorSerial,
			SerialPort: "",
			SerialBaud: DefaultSerialBaud,
		},
		Controller: ControllerConfig{
			BufferLimit: DefaultBufferLimit,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: LogFormatText,
			File:   "",
		},
	}
}

func Load(path string) (AppConfig, error) {
	cfg := Default()
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- path is resolved by app runtime and points to user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(raw, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config json: %w", err)
	}

	cfg.FillMissingDefaults()

	return cfg, nil
}

func (c *AppConfig) FillMissingDefaults() {
	if c.Connection.Connector == "" {
		c.Connection.Connector = ConnectorSerial
	}
	if c.Connection.SerialBaud <= 0 {
		c.Connection.SerialBaud = DefaultSerialBaud
	}
	if c.Controller.BufferLimit < 0 {
		c.Controller.BufferLimit = DefaultBufferLimit
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
}

func (c AppConfig) Validate() error {
	switch c.Connection.Connector {
	case ConnectorSerial:
		if strings.TrimSpace(c.Connection.SerialPort) == "" {
			return errors.New("serial port is required")
		}
		if c.Connection.SerialBaud <= 0 {
			return errors.New("serial baud must be positive")
		}
	case ConnectorMock:
		// nothing to validate, mock needs no endpoint
	default:
		return fmt.Errorf("unknown connector: %s", c.Connection.Connector)
	}

	if c.History.Enabled && strings.TrimSpace(c.History.Path) == "" {
		return errors.New("history path is required when history is enabled")
	}

	return nil
}

func Save(path string, cfg AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	raw, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, raw, 0o600); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp config: %w", err)
	}

	return nil
}
