/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the configuration of the bookshelf server.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	// Path to a YAML fixtures file; The built-in catalogue is served when empty.
	Fixtures string `yaml:"fixtures"`

	// Simulated latency of every call to the store
	StoreLatency Duration `yaml:"storeLatency"`

	// Whether __schema and __type queries are answered; Enabled when unset.
	Introspection *bool `yaml:"introspection"`

	Cache  CacheConfig  `yaml:"cache"`
	Loader LoaderConfig `yaml:"loader"`
}

// CacheConfig configures the LRU cache in front of the store. The cache is disabled when Size is
// 0.
type CacheConfig struct {
	Size int      `yaml:"size"`
	TTL  Duration `yaml:"ttl"`
}

// LoaderConfig configures the books loader.
type LoaderConfig struct {
	MaxBatchSize int      `yaml:"maxBatchSize"`
	Wait         Duration `yaml:"wait"`
}

// Default values
const (
	DefaultHost     = "localhost"
	DefaultPort     = 4000
	DefaultLogLevel = "info"
	DefaultCacheTTL = 5 * time.Minute
)

// Duration is a time.Duration written as a string such as "10ms" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.BytesUnmarshaler.
func (d *Duration) UnmarshalYAML(data []byte) error {
	var s string
	if err := yaml.Unmarshal(data, &s); err != nil {
		return err
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(duration)
	return nil
}

// MarshalYAML implements yaml.BytesMarshaler.
func (d Duration) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(d.String())
}

// Duration returns d as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Addr returns the address to listen on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// IsCacheEnabled returns true if the store is fronted by a cache.
func (c *Config) IsCacheEnabled() bool {
	return c.Cache.Size > 0
}

// IsIntrospectionEnabled returns true unless introspection is explicitly disabled.
func (c *Config) IsIntrospectionEnabled() bool {
	return c.Introspection == nil || *c.Introspection
}
