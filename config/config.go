// Package config loads the driver's service configuration from a JSON
// file. Every field is optional; the zero value selects the built-in
// behavior.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nci/gomemcache/memcache"

	"github.com/eoscience/eopfzarr/cache"
	"github.com/eoscience/eopfzarr/georef"
	"github.com/eoscience/eopfzarr/metadata"
)

type ServiceConfig struct {
	// MetadataTTLSeconds and NetworkTTLSeconds override the built-in
	// cache lifetimes. Zero keeps the defaults.
	MetadataTTLSeconds int `json:"metadata_ttl_seconds"`
	NetworkTTLSeconds  int `json:"network_ttl_seconds"`

	// CacheCeiling bounds each cache tier's entry count.
	CacheCeiling int `json:"cache_ceiling"`

	// MemcacheAddress enables the second-level remote document cache
	// when set, e.g. "127.0.0.1:11211".
	MemcacheAddress string `json:"memcache_address"`

	// ExtentDefaultsFile points at a YAML file overriding the
	// fallback extent boxes.
	ExtentDefaultsFile string `json:"extent_defaults_file"`

	Verbose bool `json:"verbose"`
}

// LoadConfigFile reads and parses the service configuration.
func LoadConfigFile(path string) (*ServiceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error while reading config file %v: %v", path, err)
	}
	cfg := &ServiceConfig{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("error at JSON decoding of config file %v: %v", path, err)
	}
	if cfg.MetadataTTLSeconds < 0 || cfg.NetworkTTLSeconds < 0 || cfg.CacheCeiling < 0 {
		return nil, fmt.Errorf("config file %v: TTLs and cache ceiling must not be negative", path)
	}
	return cfg, nil
}

func (c *ServiceConfig) MetadataTTL() time.Duration {
	if c.MetadataTTLSeconds > 0 {
		return time.Duration(c.MetadataTTLSeconds) * time.Second
	}
	return cache.MetadataTTL
}

func (c *ServiceConfig) NetworkTTL() time.Duration {
	if c.NetworkTTLSeconds > 0 {
		return time.Duration(c.NetworkTTLSeconds) * time.Second
	}
	return cache.NetworkTTL
}

func (c *ServiceConfig) Ceiling() int {
	if c.CacheCeiling > 0 {
		return c.CacheCeiling
	}
	return cache.DefaultCeiling
}

// Defaults loads the extent-defaults override file when configured and
// falls back to the built-in boxes otherwise.
func (c *ServiceConfig) Defaults() (*georef.Defaults, error) {
	if c.ExtentDefaultsFile == "" {
		return georef.NewDefaults(), nil
	}
	return georef.LoadDefaults(c.ExtentDefaultsFile)
}

// Loader builds the metadata loader, attaching the memcached tier when
// an address is configured.
func (c *ServiceConfig) Loader() *metadata.Loader {
	loader := metadata.NewLoader(c.Verbose)
	if c.MemcacheAddress != "" {
		loader.Memcache = memcache.New(c.MemcacheAddress)
	}
	return loader
}
