// Package config loads querypilot configuration from file, environment, and
// CLI flags, koanf-layered with flags taking the highest precedence.
package config

import (
	"fmt"
	"time"

	"github.com/querypilot/querypilot/pkg/core"
)

// Default configuration values.
const (
	DefaultMaxRows      = 10000
	DefaultQueryTimeout = 10 * time.Minute
	DefaultCountTimeout = 30 * time.Second
	DefaultCacheTTL     = 5 * time.Minute
	DefaultCacheRows    = 1000
)

// TargetConfig describes one configured database target.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Path     string            `koanf:"path"`
	Catalog  string            `koanf:"catalog"`
	HTTPPath string            `koanf:"http_path"`
	Token    string            `koanf:"token"`
	Options  map[string]string `koanf:"options"`
}

// LimitsConfig bounds query execution.
type LimitsConfig struct {
	MaxRows      int           `koanf:"max_rows"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
	CountTimeout time.Duration `koanf:"count_timeout"`
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	TTL     time.Duration `koanf:"ttl"`
	MaxRows int           `koanf:"max_rows"`
}

// GeneratorConfig points at the external SQL regeneration service.
type GeneratorConfig struct {
	Endpoint string `koanf:"endpoint"`
}

// Config is the root configuration.
type Config struct {
	Targets       map[string]TargetConfig `koanf:"targets"`
	DefaultTarget string                  `koanf:"default_target"`
	Limits        LimitsConfig            `koanf:"limits"`
	Cache         CacheConfig             `koanf:"cache"`
	Generator     GeneratorConfig         `koanf:"generator"`
	Verbose       bool                    `koanf:"verbose"`
}

// Target resolves a named target (or the default when name is empty) into a
// connection config.
func (c *Config) Target(name string) (core.ConnConfig, error) {
	if name == "" {
		name = c.DefaultTarget
	}
	if name == "" {
		return core.ConnConfig{}, fmt.Errorf("no target specified and no default_target configured")
	}
	t, ok := c.Targets[name]
	if !ok {
		return core.ConnConfig{}, fmt.Errorf("target %q not found in configuration", name)
	}

	engine, err := core.ParseEngineType(t.Type)
	if err != nil {
		return core.ConnConfig{}, fmt.Errorf("target %q: %w", name, err)
	}

	return core.ConnConfig{
		Type:     engine,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		User:     t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Path:     t.Path,
		Catalog:  t.Catalog,
		HTTPPath: t.HTTPPath,
		Token:    t.Token,
		Options:  t.Options,
	}, nil
}
