package config

import (
	"fmt"
	"strings"
)

// HostMode selects how the session bridge finds its host shell.
type HostMode string

const (
	// HostModeStandalone runs without a host; the local session is authoritative.
	HostModeStandalone HostMode = "standalone"
	// HostModeRedis subscribes to global state published through Redis.
	HostModeRedis HostMode = "redis"
)

// ValidHostModes returns all valid host mode names.
func ValidHostModes() []HostMode {
	return []HostMode{HostModeStandalone, HostModeRedis}
}

// ParseHostMode validates a host mode name.
func ParseHostMode(s string) (HostMode, error) {
	mode := HostMode(strings.ToLower(strings.TrimSpace(s)))
	if mode == "" {
		return HostModeStandalone, nil
	}
	for _, m := range ValidHostModes() {
		if m == mode {
			return mode, nil
		}
	}
	return "", fmt.Errorf("invalid host mode: %s (valid: standalone, redis)", s)
}

// HostConfig describes the host shell application.
type HostConfig struct {
	Mode         HostMode `env:"HOST_MODE"          envDefault:"standalone"`
	StateKey     string   `env:"HOST_STATE_KEY"     envDefault:"mmk:global-state"`
	StateChannel string   `env:"HOST_STATE_CHANNEL" envDefault:"mmk:global-state:changes"`
	Name         string   `env:"HOST_APP_NAME"      envDefault:"user-module"`

	// MainAppBaseURL is where standalone runs send users to sign in.
	MainAppBaseURL string `env:"MAIN_APP_BASE_URL" envDefault:"http://localhost:3000"`
}

// Sanitize falls back to standalone on an unknown mode and trims URLs.
func (h *HostConfig) Sanitize() {
	mode, err := ParseHostMode(string(h.Mode))
	if err != nil {
		mode = HostModeStandalone
	}
	h.Mode = mode

	h.StateKey = strings.TrimSpace(h.StateKey)
	if h.StateKey == "" {
		h.StateKey = "mmk:global-state"
	}
	h.StateChannel = strings.TrimSpace(h.StateChannel)
	if h.StateChannel == "" {
		h.StateChannel = h.StateKey + ":changes"
	}
	h.MainAppBaseURL = strings.TrimRight(strings.TrimSpace(h.MainAppBaseURL), "/")
	if h.MainAppBaseURL == "" {
		h.MainAppBaseURL = "http://localhost:3000"
	}
}

// LoginURL is the main application's sign-in page.
func (h *HostConfig) LoginURL() string {
	return h.MainAppBaseURL + "/login"
}

// CacheConfig sizes the local user cache.
type CacheConfig struct {
	UserCacheSize int `env:"USER_CACHE_SIZE" envDefault:"1024"`
}

// Sanitize enforces a positive cache size.
func (c *CacheConfig) Sanitize() {
	if c.UserCacheSize <= 0 {
		c.UserCacheSize = 1024
	}
}
