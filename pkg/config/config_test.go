package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsWithNoConfigFile(t *testing.T) {
	t.Setenv("JUS_NETWORK_THREAD_POOL_SIZE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NetworkThreadPoolSize != 4 {
		t.Errorf("NetworkThreadPoolSize = %d, want 4", cfg.NetworkThreadPoolSize)
	}
	if cfg.CacheMaxSizeBytes != 5*1024*1024 {
		t.Errorf("CacheMaxSizeBytes = %d, want 5MiB", cfg.CacheMaxSizeBytes)
	}
	if cfg.DefaultTimeout() != 2500*time.Millisecond {
		t.Errorf("DefaultTimeout() = %v, want 2500ms", cfg.DefaultTimeout())
	}
	if cfg.SlowRequestThreshold() != 3000*time.Millisecond {
		t.Errorf("SlowRequestThreshold() = %v, want 3000ms", cfg.SlowRequestThreshold())
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("JUS_NETWORK_THREAD_POOL_SIZE", "8")
	t.Setenv("JUS_USE_REDIS_CACHE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NetworkThreadPoolSize != 8 {
		t.Errorf("NetworkThreadPoolSize = %d, want 8", cfg.NetworkThreadPoolSize)
	}
	if !cfg.UseRedisCache {
		t.Error("expected UseRedisCache to be true from JUS_USE_REDIS_CACHE=true")
	}
}

func TestRetryPolicy_BuildsFromConfig(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := cfg.RetryPolicy()
	if p == nil {
		t.Fatal("RetryPolicy() returned nil")
	}
}
