package config

import (
	"strings"
	"time"
)

const (
	minAPITimeout = time.Second
	maxAPITimeout = 5 * time.Minute
)

// APIConfig describes the backend the request pipeline talks to.
type APIConfig struct {
	// BaseURL is prefixed to every request path.
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8081/api"`

	// Timeout bounds each call end to end.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`

	// LoginPaths are path suffixes that never carry the client fingerprint header.
	LoginPaths []string `env:"API_LOGIN_PATHS" envDefault:"/user/login,/auth/login"`

	// UserAgent is sent on every request when set.
	UserAgent string `env:"API_USER_AGENT" envDefault:"mmk-user"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")

	if a.Timeout < minAPITimeout {
		a.Timeout = minAPITimeout
	}
	if a.Timeout > maxAPITimeout {
		a.Timeout = maxAPITimeout
	}

	paths := make([]string, 0, len(a.LoginPaths))
	seen := make(map[string]bool, len(a.LoginPaths))
	for _, p := range a.LoginPaths {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	a.LoginPaths = paths
	a.UserAgent = strings.TrimSpace(a.UserAgent)
}
