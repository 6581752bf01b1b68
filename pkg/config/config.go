// Package config loads the queue's tunables from environment variables or
// a config file via viper, binding them to a typed struct the way the
// wider example pack's services do.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/apptik-go/jus/pkg/cache"
	"github.com/apptik-go/jus/pkg/pool"
	"github.com/apptik-go/jus/pkg/retry"
)

// Config holds the configuration options enumerated for the queue.
type Config struct {
	NetworkThreadPoolSize int `mapstructure:"network_thread_pool_size"`

	CacheMaxSizeBytes      int64   `mapstructure:"cache_max_size_bytes"`
	CacheHysteresisFactor  float64 `mapstructure:"cache_hysteresis_factor"`
	CacheDir               string  `mapstructure:"cache_dir"`

	PoolMaxBytes int `mapstructure:"pool_max_bytes"`

	SlowRequestThresholdMs int `mapstructure:"slow_request_threshold_ms"`

	DefaultTimeoutMs         int     `mapstructure:"default_timeout_ms"`
	DefaultMaxRetries        int     `mapstructure:"default_max_retries"`
	DefaultBackoffMultiplier float64 `mapstructure:"default_backoff_multiplier"`

	RedisAddr      string `mapstructure:"redis_addr"`
	UseRedisCache  bool   `mapstructure:"use_redis_cache"`
	CacheKeyPrefix string `mapstructure:"cache_key_prefix"`
}

// Load reads configuration from a "jus.{yaml,toml,json}" file on the
// search path plus JUS_-prefixed environment variables, applying the
// enumerated defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("jus")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("JUS")
	v.AutomaticEnv()

	v.SetDefault("network_thread_pool_size", 4)
	v.SetDefault("cache_max_size_bytes", cache.DefaultMaxSizeBytes)
	v.SetDefault("cache_hysteresis_factor", cache.DefaultHysteresisFactor)
	v.SetDefault("cache_dir", "")
	v.SetDefault("pool_max_bytes", pool.DefaultPoolMaxBytes)
	v.SetDefault("slow_request_threshold_ms", int(DefaultSlowRequestThresholdMs))
	v.SetDefault("default_timeout_ms", int(retry.DefaultTimeout/time.Millisecond))
	v.SetDefault("default_max_retries", retry.DefaultMaxRetries)
	v.SetDefault("default_backoff_multiplier", retry.DefaultBackoffMultiplier)
	v.SetDefault("redis_addr", "")
	v.SetDefault("use_redis_cache", false)
	v.SetDefault("cache_key_prefix", "jus:")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("jus/config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("jus/config: unmarshal: %w", err)
	}
	if cfg.NetworkThreadPoolSize <= 0 {
		cfg.NetworkThreadPoolSize = 4
	}
	return &cfg, nil
}

// DefaultSlowRequestThresholdMs mirrors the network façade's own default so
// config.Load and jus.DefaultSlowRequestThreshold never disagree.
const DefaultSlowRequestThresholdMs = 3000

// SlowRequestThreshold returns SlowRequestThresholdMs as a time.Duration.
func (c *Config) SlowRequestThreshold() time.Duration {
	return time.Duration(c.SlowRequestThresholdMs) * time.Millisecond
}

// DefaultTimeout returns DefaultTimeoutMs as a time.Duration.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutMs) * time.Millisecond
}

// RetryPolicy builds a *retry.Policy from the loaded defaults.
func (c *Config) RetryPolicy() *retry.Policy {
	return retry.New(c.DefaultTimeout(), c.DefaultMaxRetries, c.DefaultBackoffMultiplier)
}
