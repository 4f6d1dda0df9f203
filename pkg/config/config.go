// Package config loads runtime configuration from the environment, with an
// optional .env file for development setups.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/grafana/dskit/flagext"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zrezke/rerun/pkg/backend"
	"github.com/zrezke/rerun/pkg/comms"
	"github.com/zrezke/rerun/pkg/recording"
)

// Environment variable names.
const (
	EnvViewerAddr    = "RERUN_VIEWER_ADDR"
	EnvControlAddr   = "RERUN_CONTROL_ADDR"
	EnvFlushBytes    = "RERUN_FLUSH_BYTES"
	EnvFlushInterval = "RERUN_FLUSH_INTERVAL"
	EnvCompression   = "RERUN_COMPRESSION"
	EnvLogLevel      = "RERUN_LOG_LEVEL"
)

// Config carries all runtime settings. Every field has a default, so the
// zero environment is valid.
type Config struct {
	viewerAddr    string
	controlAddr   string
	flushBytes    flagext.Bytes
	flushInterval time.Duration
	compression   recording.Compression
	logLevel      logrus.Level
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win
// over it.
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	cfg := Config{
		viewerAddr:    comms.DefaultViewerAddr,
		controlAddr:   backend.DefaultControlAddr,
		flushInterval: 200 * time.Millisecond,
		compression:   recording.CompressionZstd,
		logLevel:      logrus.InfoLevel,
	}
	_ = cfg.flushBytes.Set("1MiB")

	if addr := os.Getenv(EnvViewerAddr); addr != "" {
		cfg.viewerAddr = addr
	}
	if addr := os.Getenv(EnvControlAddr); addr != "" {
		cfg.controlAddr = addr
	}

	if raw := os.Getenv(EnvFlushBytes); raw != "" {
		if err := cfg.flushBytes.Set(raw); err != nil {
			return Config{}, fmt.Errorf("%s must be a byte size like 512KiB: %w", EnvFlushBytes, err)
		}
	}

	if raw := os.Getenv(EnvFlushInterval); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be a duration like 200ms: %w", EnvFlushInterval, err)
		}
		cfg.flushInterval = interval
	}

	if raw := os.Getenv(EnvCompression); raw != "" {
		compression, err := recording.ParseCompression(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvCompression, err)
		}
		cfg.compression = compression
	}

	if raw := os.Getenv(EnvLogLevel); raw != "" {
		level, err := logrus.ParseLevel(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%s must be a log level like debug: %w", EnvLogLevel, err)
		}
		cfg.logLevel = level
	}

	return cfg, nil
}

// ViewerAddr is the address SDK clients send log messages to.
func (c Config) ViewerAddr() string { return c.viewerAddr }

// ControlAddr is the address the backend control API listens on.
func (c Config) ControlAddr() string { return c.controlAddr }

// FlushBytes is the client send buffer size.
func (c Config) FlushBytes() flagext.Bytes { return c.flushBytes }

// FlushInterval bounds how long messages may sit in the client send buffer.
func (c Config) FlushInterval() time.Duration { return c.flushInterval }

// Compression is the codec recording files are written with.
func (c Config) Compression() recording.Compression { return c.compression }

// LogLevel is the logrus level to run at.
func (c Config) LogLevel() logrus.Level { return c.logLevel }

// ClientConfig assembles the comms client settings for this configuration.
func (c Config) ClientConfig(logger *logrus.Logger) comms.ClientConfig {
	return comms.ClientConfig{
		Addr:          c.viewerAddr,
		FlushBytes:    c.flushBytes,
		FlushInterval: c.flushInterval,
		Logger:        logger,
	}
}
