package modem

import (
	"fmt"
	"time"

	"i4.energy/across/mfr/at"
)

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	if c.ShutdownCommand != "" {
		if _, err := at.Parse(c.ShutdownCommand); err != nil {
			return fmt.Errorf("shutdown command: %w", err)
		}
	}
	return nil
}

type Config struct {
	Dialer Dialer
	// EchoOn leaves command echo enabled instead of sending ATE0.
	EchoOn bool
	// ATTimeout bounds a single exchange when the caller's context has no
	// deadline.
	ATTimeout time.Duration
	// InitTimeout bounds the bring-up sequence in SwitchOn.
	InitTimeout time.Duration
	// PollInterval is the pause between AT pings while the modem boots.
	PollInterval time.Duration
	// ShutdownCommand is sent best-effort by SwitchOff before the transport
	// is closed, e.g. "AT#SHDN".
	ShutdownCommand string
}

func (c *Config) setDefaults() {
	if c.ATTimeout == 0 {
		c.ATTimeout = 5 * time.Second
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = 30 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 500 * time.Millisecond
	}
}

// ConfigBuilder assembles a Config.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

func (b *ConfigBuilder) WithEchoOn(on bool) *ConfigBuilder {
	b.config.EchoOn = on
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.InitTimeout = d
	return b
}

func (b *ConfigBuilder) WithPollInterval(d time.Duration) *ConfigBuilder {
	b.config.PollInterval = d
	return b
}

func (b *ConfigBuilder) WithShutdownCommand(cmd string) *ConfigBuilder {
	b.config.ShutdownCommand = cmd
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	config := b.config
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	config.setDefaults()
	return config, nil
}
