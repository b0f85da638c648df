// Package timeouts provides the request-scoped I/O deadlines used by handlers
// and the startup hooks.
//
// Every store call runs under one of these tiers:
//   - Ping: health checks
//   - Short: single-document reads (verification lookups, role reads)
//   - Medium: listings and single writes
//   - Long: multi-collection writes (approval, grant, revoke)
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document reads.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for listings and single writes.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long returns the timeout for writes touching several collections.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// Config holds timeout values. Zero values are ignored.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// Configure overrides the non-zero values in cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Medium > 0 {
		medium = cfg.Medium
	}
	if cfg.Long > 0 {
		long = cfg.Long
	}
}

// Reset restores the defaults. Used by tests.
func Reset() {
	Configure(Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong})
}

// envKeys maps each tier to its environment variable.
var envKeys = []struct {
	name string
	set  func(*Config, time.Duration)
}{
	{"MEMBERHUB_TIMEOUT_PING", func(c *Config, d time.Duration) { c.Ping = d }},
	{"MEMBERHUB_TIMEOUT_SHORT", func(c *Config, d time.Duration) { c.Short = d }},
	{"MEMBERHUB_TIMEOUT_MEDIUM", func(c *Config, d time.Duration) { c.Medium = d }},
	{"MEMBERHUB_TIMEOUT_LONG", func(c *Config, d time.Duration) { c.Long = d }},
}

// ConfigureFromEnv reads MEMBERHUB_TIMEOUT_{PING,SHORT,MEDIUM,LONG}
// (durations such as "5s"). Invalid or non-positive values are ignored.
// Returns how many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for _, k := range envKeys {
		v := os.Getenv(k.name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			k.set(&cfg, d)
			n++
		}
	}
	Configure(cfg)
	return n
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Long: long}
}

// Fields returns the active configuration as zap fields for startup logging.
func Fields() []zap.Field {
	c := Current()
	return []zap.Field{
		zap.Duration("timeout_ping", c.Ping),
		zap.Duration("timeout_short", c.Short),
		zap.Duration("timeout_medium", c.Medium),
		zap.Duration("timeout_long", c.Long),
	}
}

// WithTimeout creates a context with timeout whose cancel function logs a
// warning when the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "approve application")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
