package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseHostMode(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    HostMode
		expectError bool
	}{
		{name: "empty defaults to standalone", input: "", expected: HostModeStandalone},
		{name: "standalone", input: "standalone", expected: HostModeStandalone},
		{name: "redis with spaces and case", input: " Redis ", expected: HostModeRedis},
		{name: "unknown", input: "qiankun", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHostMode(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	cfg.Sanitize()

	if cfg.API.BaseURL != "http://localhost:8081/api" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.API.Timeout)
	}
	if !reflect.DeepEqual(cfg.API.LoginPaths, []string{"/user/login", "/auth/login"}) {
		t.Errorf("unexpected login paths %v", cfg.API.LoginPaths)
	}
	if cfg.Session.Backend != SessionBackendSQLite {
		t.Errorf("expected sqlite backend, got %s", cfg.Session.Backend)
	}
	if !strings.HasSuffix(cfg.Session.SQLitePath, "session.db") {
		t.Errorf("expected default sqlite path, got %q", cfg.Session.SQLitePath)
	}
	if cfg.Host.Mode != HostModeStandalone {
		t.Errorf("expected standalone host mode, got %s", cfg.Host.Mode)
	}
	if cfg.Host.LoginURL() != "http://localhost:3000/login" {
		t.Errorf("unexpected login url %q", cfg.Host.LoginURL())
	}
	if cfg.Cache.UserCacheSize != 1024 {
		t.Errorf("unexpected cache size %d", cfg.Cache.UserCacheSize)
	}
	if cfg.NeedsRedis() {
		t.Error("default config should not need redis")
	}
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", " https://api.example.com/api/ ")
	t.Setenv("API_TIMEOUT", "2h")
	t.Setenv("API_LOGIN_PATHS", "user/login/, /auth/login,/auth/login,")
	t.Setenv("SESSION_BACKEND", "REDIS")
	t.Setenv("SESSION_REDIS_PREFIX", "app:")
	t.Setenv("REDIS_URI", "redis.internal:6380")
	t.Setenv("REDIS_USE_CLUSTER", "true")
	t.Setenv("REDIS_CLUSTER_NODES", "a:1,b:2")
	t.Setenv("HOST_MODE", "redis")
	t.Setenv("MAIN_APP_BASE_URL", "https://shell.example.com/")
	t.Setenv("USER_CACHE_SIZE", "-5")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	cfg.Sanitize()

	if cfg.API.BaseURL != "https://api.example.com/api" {
		t.Errorf("expected trimmed base url, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != maxAPITimeout {
		t.Errorf("expected timeout clamped to %v, got %v", maxAPITimeout, cfg.API.Timeout)
	}
	if !reflect.DeepEqual(cfg.API.LoginPaths, []string{"/user/login", "/auth/login"}) {
		t.Errorf("unexpected login paths %v", cfg.API.LoginPaths)
	}
	if cfg.Session.Backend != SessionBackendRedis || cfg.Session.RedisPrefix != "app:" {
		t.Errorf("unexpected session config %+v", cfg.Session)
	}
	if cfg.Redis.URI != "redis.internal:6380" || !cfg.Redis.UseCluster {
		t.Errorf("unexpected redis config %+v", cfg.Redis)
	}
	if !reflect.DeepEqual(cfg.Redis.ClusterNodes, []string{"a:1", "b:2"}) {
		t.Errorf("unexpected cluster nodes %v", cfg.Redis.ClusterNodes)
	}
	if cfg.Host.LoginURL() != "https://shell.example.com/login" {
		t.Errorf("unexpected login url %q", cfg.Host.LoginURL())
	}
	if cfg.Cache.UserCacheSize != 1024 {
		t.Errorf("expected cache size fallback, got %d", cfg.Cache.UserCacheSize)
	}
	if !cfg.NeedsRedis() {
		t.Error("expected redis to be needed")
	}
}

func TestAPIConfig_SanitizeClampsLowTimeout(t *testing.T) {
	cfg := APIConfig{Timeout: 10 * time.Millisecond}
	cfg.Sanitize()

	if cfg.Timeout != minAPITimeout {
		t.Fatalf("expected timeout clamped to %v, got %v", minAPITimeout, cfg.Timeout)
	}
	if len(cfg.LoginPaths) != 0 {
		t.Fatalf("expected no login paths, got %v", cfg.LoginPaths)
	}
}

func TestHostConfig_SanitizeUnknownMode(t *testing.T) {
	cfg := HostConfig{Mode: "iframe", StateKey: "k"}
	cfg.Sanitize()

	if cfg.Mode != HostModeStandalone {
		t.Fatalf("expected fallback to standalone, got %s", cfg.Mode)
	}
	if cfg.StateChannel != "k:changes" {
		t.Fatalf("expected derived channel, got %q", cfg.StateChannel)
	}
}

func TestDetectDevMode(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	cfg := AppConfig{}
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Fatal("expected NODE_ENV=development to enable dev mode")
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}
	if cfg.Prefix != defaultMetricsPrefix {
		t.Fatalf("expected default prefix, got %q", cfg.Prefix)
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
}
