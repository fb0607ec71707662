package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"i4.energy/across/mfr/modem"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// ATTimeout bounds a single command exchange
	ATTimeout time.Duration `yaml:"at_timeout"`
	// InitTimeout bounds the modem bring-up after the port is opened
	InitTimeout time.Duration `yaml:"init_timeout"`
	// ReadTimeout is the serial port read timeout
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// ShutdownCommand is sent to the modem before the port is closed (e.g. "AT#SHDN")
	ShutdownCommand string `yaml:"shutdown_command,omitempty"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.ATTimeout = 5 * time.Second
		c.InitTimeout = 30 * time.Second
		c.ReadTimeout = 100 * time.Millisecond
		c.LogLevel = "info"
		return nil
	}
}

// WithFile overlays the YAML document at path. A missing file leaves the
// config unchanged.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("read config: %w", err)
		}

		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		for name, dst := range map[string]*time.Duration{
			"AT_TIMEOUT":   &c.ATTimeout,
			"INIT_TIMEOUT": &c.InitTimeout,
			"READ_TIMEOUT": &c.ReadTimeout,
		} {
			if value := os.Getenv(name); value != "" {
				d, err := time.ParseDuration(value)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				*dst = d
			}
		}

		if shutdown := os.Getenv("SHUTDOWN_COMMAND"); shutdown != "" {
			c.ShutdownCommand = shutdown
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		duration := func(dst *time.Duration, f *pflag.Flag) {
			d, perr := time.ParseDuration(f.Value.String())
			if perr != nil {
				err = fmt.Errorf("--%s: %w", f.Name, perr)
				return
			}
			*dst = d
		}

		fSet.Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, err := strconv.Atoi(f.Value.String()); err == nil {
					c.BaudRate = b
				}
			case "at-timeout":
				duration(&c.ATTimeout, f)
			case "init-timeout":
				duration(&c.InitTimeout, f)
			case "read-timeout":
				duration(&c.ReadTimeout, f)
			case "shutdown-command":
				c.ShutdownCommand = f.Value.String()
			case "log-level":
				c.LogLevel = f.Value.String()
			}
		})
		return err
	}
}

// SaveConfig writes c to path as YAML, creating the directory if needed.
func SaveConfig(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DeleteConfig removes the document at path. A missing file is not an error.
func DeleteConfig(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete config: %w", err)
	}
	return nil
}

// DefaultConfigPath is ~/SCS/conf/ge910_conf.yaml, or a relative path when
// the home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("SCS", "conf", "ge910_conf.yaml")
	}
	return filepath.Join(home, "SCS", "conf", "ge910_conf.yaml")
}

// Level maps LogLevel onto slog, defaulting to info.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ModemConfig builds the modem configuration for a serial connection.
func (c *Config) ModemConfig() (modem.Config, error) {
	return modem.NewConfigBuilder().
		WithATTimeout(c.ATTimeout).
		WithInitTimeout(c.InitTimeout).
		WithShutdownCommand(c.ShutdownCommand).
		WithDialer(modem.SerialDialer{
			PortName:    c.SerialPort,
			BaudRate:    c.BaudRate,
			ReadTimeout: c.ReadTimeout,
		}).
		Build()
}
