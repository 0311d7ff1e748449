// Package config loads engine configuration from an optional YAML file with
// RELAY_-prefixed environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Sessions SessionsConfig `koanf:"sessions"`
}

type ServerConfig struct {
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

type SessionsConfig struct {
	// Backend selects the session persistence: memory, bolt, or sqlite.
	Backend string `koanf:"backend"`
	// TTL applies to the memory backend; zero means sessions never expire.
	TTL time.Duration `koanf:"ttl"`
	// Max bounds the number of live sessions in the memory backend; zero
	// means unbounded.
	Max int `koanf:"max"`
	// Path is the database file for the bolt and sqlite backends.
	Path string `koanf:"path"`
}

// Load reads configuration from path (skipped when empty or absent) and then
// applies RELAY_ environment overrides, e.g. RELAY_SERVER_PORT=9090.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("RELAY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "RELAY_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("server.timeout") {
		k.Set("server.timeout", "30s")
	}
	if !k.Exists("sessions.backend") {
		k.Set("sessions.backend", "memory")
	}
	if !k.Exists("sessions.ttl") {
		k.Set("sessions.ttl", "30m")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	switch cfg.Sessions.Backend {
	case "memory":
	case "bolt", "sqlite":
		if cfg.Sessions.Path == "" {
			return nil, fmt.Errorf("sessions.path is required for the %s backend", cfg.Sessions.Backend)
		}
	default:
		return nil, fmt.Errorf("unknown sessions.backend %q", cfg.Sessions.Backend)
	}

	return &cfg, nil
}
