// Package config loads settings shared by the gRPC and HTTP binaries.
//
// Values are resolved in order: defaults, an optional YAML file, then
// environment variables. Binaries apply their flags last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/milad/nem12/internal/nem12"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	GRPCAddr   string `yaml:"grpc_addr"`
	HTTPAddr   string `yaml:"http_addr"`
	GRPCTarget string `yaml:"grpc_target"`

	NEM12Path string `yaml:"nem12_path"`
	Separator string `yaml:"separator"`

	// GRPCWaitTimeout bounds how long the HTTP gateway waits for gRPC health at startup.
	GRPCWaitTimeout time.Duration `yaml:"grpc_wait_timeout"`
}

func Default() Config {
	return Config{
		GRPCAddr:        ":9090",
		HTTPAddr:        ":8080",
		GRPCTarget:      "127.0.0.1:9090",
		NEM12Path:       "meterdata.nem12",
		Separator:       nem12.DefaultSeparator,
		GRPCWaitTimeout: 20 * time.Second,
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when empty)
// and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) {
	c.GRPCAddr = envOr(getenv, "GRPC_ADDR", c.GRPCAddr)
	c.HTTPAddr = envOr(getenv, "HTTP_ADDR", c.HTTPAddr)
	c.GRPCTarget = envOr(getenv, "GRPC_TARGET", c.GRPCTarget)
	c.NEM12Path = envOr(getenv, "NEM12_PATH", c.NEM12Path)
	c.Separator = envOr(getenv, "NEM12_SEPARATOR", c.Separator)
	c.GRPCWaitTimeout = envDurationMs(getenv, "GRPC_WAIT_TIMEOUT_MS", c.GRPCWaitTimeout)
}

func (c Config) Validate() error {
	switch {
	case c.Separator == "":
		return fmt.Errorf("%w: separator must not be empty", ErrInvalidConfig)
	case c.GRPCAddr == "":
		return fmt.Errorf("%w: grpc_addr must not be empty", ErrInvalidConfig)
	case c.HTTPAddr == "":
		return fmt.Errorf("%w: http_addr must not be empty", ErrInvalidConfig)
	case c.GRPCWaitTimeout < 0:
		return fmt.Errorf("%w: grpc_wait_timeout must be >= 0", ErrInvalidConfig)
	}
	return nil
}

// ParserOptions returns the nem12 parser options the config selects.
func (c Config) ParserOptions() []nem12.Option {
	return []nem12.Option{nem12.WithSeparator(c.Separator)}
}

func envOr(getenv func(string) string, k, fallback string) string {
	if v := getenv(k); v != "" {
		return v
	}
	return fallback
}

func envDurationMs(getenv func(string) string, k string, fallback time.Duration) time.Duration {
	v := getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}
