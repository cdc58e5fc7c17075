package config

import (
	"os"
	"path/filepath"
	"strings"
)

// SessionBackend selects where the persistent session lives.
type SessionBackend string

const (
	// SessionBackendSQLite keeps the session in a local SQLite file.
	SessionBackendSQLite SessionBackend = "sqlite"
	// SessionBackendRedis keeps the session in Redis, shared between processes.
	SessionBackendRedis SessionBackend = "redis"
)

const defaultSessionFile = "session.db"

// SessionConfig contains persistent session store configuration.
type SessionConfig struct {
	Backend     SessionBackend `env:"SESSION_BACKEND"      envDefault:"sqlite"`
	SQLitePath  string         `env:"SESSION_SQLITE_PATH"`
	RedisPrefix string         `env:"SESSION_REDIS_PREFIX" envDefault:"mmk-user:session:"`
}

// Sanitize normalizes the backend and fills the default SQLite location.
func (s *SessionConfig) Sanitize() {
	switch SessionBackend(strings.ToLower(strings.TrimSpace(string(s.Backend)))) {
	case SessionBackendRedis:
		s.Backend = SessionBackendRedis
	default:
		s.Backend = SessionBackendSQLite
	}

	s.SQLitePath = strings.TrimSpace(s.SQLitePath)
	if s.SQLitePath == "" {
		s.SQLitePath = defaultSessionPath()
	}

	if s.RedisPrefix = strings.TrimSpace(s.RedisPrefix); s.RedisPrefix == "" {
		s.RedisPrefix = "mmk-user:session:"
	}
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "mmk-user", defaultSessionFile)
}
