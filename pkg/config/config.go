// Package config loads client settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nasrpc/nasrpc-go/pkg/log"
	"github.com/nasrpc/nasrpc-go/pkg/rpc"
	"github.com/nasrpc/nasrpc-go/pkg/transport"
	"github.com/nasrpc/nasrpc-go/pkg/truenas"
	"github.com/nasrpc/nasrpc-go/pkg/wire"
)

// Validation errors.
var (
	ErrMissingAddress   = errors.New("address is required")
	ErrInvalidProtocol  = errors.New("invalid protocol")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrNegativeDuration = errors.New("duration must not be negative")
	ErrPasswordOnly     = errors.New("password given without username")
)

// Config holds client settings.
type Config struct {
	// Address is a host name, host:port or ws(s):// URL.
	Address string `yaml:"address"`

	// Protocol is "jsonrpc" or "legacy".
	Protocol string `yaml:"protocol"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`
	APIKey   string `yaml:"api_key"`

	TLS       TLSConfig       `yaml:"tls"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	KeepAlive KeepAliveConfig `yaml:"keepalive"`

	// ProtocolLog is a file path for a protocol capture (empty = off).
	ProtocolLog string `yaml:"protocol_log"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// TLSConfig configures certificate verification.
type TLSConfig struct {
	Insecure   bool   `yaml:"insecure"`
	CAFile     string `yaml:"ca_file"`
	ServerName string `yaml:"server_name"`
}

// TimeoutConfig bounds each phase of a session. Zero disables a bound
// except where noted.
type TimeoutConfig struct {
	// Dial bounds the WebSocket upgrade.
	Dial time.Duration `yaml:"dial"`

	// Handshake bounds the wait for "connected" (zero uses the engine
	// default).
	Handshake time.Duration `yaml:"handshake"`

	// Call bounds each call.
	Call time.Duration `yaml:"call"`

	// Write bounds each frame write.
	Write time.Duration `yaml:"write"`
}

// KeepAliveConfig configures ping/pong liveness checks.
type KeepAliveConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"`
	PongTimeout time.Duration `yaml:"pong_timeout"`
	MaxMissed   int           `yaml:"max_missed"`
}

// Default returns the default settings. Address is left empty.
func Default() *Config {
	ka := transport.DefaultKeepAliveConfig()
	return &Config{
		Protocol: wire.VariantPlain.String(),
		Timeouts: TimeoutConfig{
			Dial:      transport.DefaultHandshakeTimeout,
			Handshake: rpc.DefaultHandshakeTimeout,
			Write:     10 * time.Second,
		},
		KeepAlive: KeepAliveConfig{
			Enabled:     true,
			Interval:    ka.PingInterval,
			PongTimeout: ka.PongTimeout,
			MaxMissed:   ka.MaxMissedPongs,
		},
		LogLevel: "info",
	}
}

// LoadError describes a configuration file that could not be used.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return e.File + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.File + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Parse reads YAML on top of the defaults. It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path on top of the defaults. It does not
// validate, so flags can still fill in missing values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to parse YAML", Cause: err}
	}
	return cfg, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return ErrMissingAddress
	}
	if _, err := c.Variant(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Password != "" && c.Username == "" && c.APIKey == "" {
		return ErrPasswordOnly
	}
	for name, d := range map[string]time.Duration{
		"timeouts.dial":          c.Timeouts.Dial,
		"timeouts.handshake":     c.Timeouts.Handshake,
		"timeouts.call":          c.Timeouts.Call,
		"timeouts.write":         c.Timeouts.Write,
		"keepalive.interval":     c.KeepAlive.Interval,
		"keepalive.pong_timeout": c.KeepAlive.PongTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%s: %w", name, ErrNegativeDuration)
		}
	}
	if c.KeepAlive.MaxMissed < 0 {
		return fmt.Errorf("keepalive.max_missed must not be negative, got %d", c.KeepAlive.MaxMissed)
	}
	return nil
}

// Variant returns the protocol variant.
func (c *Config) Variant() (wire.Variant, error) {
	v, err := wire.ParseVariant(c.Protocol)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidProtocol, err)
	}
	return v, nil
}

// Credentials returns the login credentials.
func (c *Config) Credentials() truenas.Credentials {
	return truenas.Credentials{
		Username: c.Username,
		Password: c.Password,
		APIKey:   c.APIKey,
	}
}

// NeedsPassword reports whether a username was given without a password
// or API key.
func (c *Config) NeedsPassword() bool {
	return c.Username != "" && c.Password == "" && c.APIKey == ""
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
}

// EngineConfig builds the engine configuration. logger and plog may be nil.
func (c *Config) EngineConfig(logger *slog.Logger, plog log.Logger) (rpc.Config, error) {
	variant, err := c.Variant()
	if err != nil {
		return rpc.Config{}, err
	}

	tlsConfig, err := transport.ClientTLSConfig(transport.TLSOptions{
		CAFile:             c.TLS.CAFile,
		ServerName:         c.TLS.ServerName,
		InsecureSkipVerify: c.TLS.Insecure,
	})
	if err != nil {
		return rpc.Config{}, err
	}

	cfg := rpc.Config{
		Address: c.Address,
		Variant: variant,
		Dialer: &transport.WebSocketDialer{
			TLSConfig:        tlsConfig,
			DefaultPath:      variant.DefaultPath(),
			HandshakeTimeout: c.Timeouts.Dial,
			WriteTimeout:     c.Timeouts.Write,
		},
		HandshakeTimeout: c.Timeouts.Handshake,
		CallTimeout:      c.Timeouts.Call,
		Logger:           logger,
		ProtocolLogger:   plog,
	}
	if c.KeepAlive.Enabled {
		cfg.KeepAlive = &transport.KeepAliveConfig{
			PingInterval:   c.KeepAlive.Interval,
			PongTimeout:    c.KeepAlive.PongTimeout,
			MaxMissedPongs: c.KeepAlive.MaxMissed,
		}
	}
	return cfg, nil
}
