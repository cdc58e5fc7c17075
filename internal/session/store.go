// Package session is the typed view of the persisted client session.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainauth "github.com/target/mmk-user-module/internal/domain/auth"
	"github.com/target/mmk-user-module/internal/ports"
)

// ErrMalformedUserInfo is returned when the stored user info cannot be decoded.
var ErrMalformedUserInfo = errors.New("malformed user info")

// Store reads and writes the session keys of a KVStore. Writes are serialized so a
// clear and a mirror never interleave field by field.
type Store struct {
	kv     ports.KVStore
	logger *slog.Logger
	mu     sync.Mutex
}

// NewStore wraps kv.
func NewStore(kv ports.KVStore, logger *slog.Logger) *Store {
	if kv == nil {
		panic("session KVStore is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, logger: logger.With("component", "session")}
}

// Token returns the stored token, or "" when there is none.
func (s *Store) Token(ctx context.Context) (string, error) {
	v, _, err := s.kv.Get(ctx, domainauth.KeyToken)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return v, nil
}

// UserInfo returns the stored user info, nil when absent.
// A value that does not decode yields an error wrapping ErrMalformedUserInfo.
func (s *Store) UserInfo(ctx context.Context) (*domainauth.UserInfo, error) {
	raw, ok, err := s.kv.Get(ctx, domainauth.KeyUserInfo)
	if err != nil {
		return nil, fmt.Errorf("read user info: %w", err)
	}
	if !ok || raw == "" || raw == "null" {
		return nil, nil
	}
	var info domainauth.UserInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedUserInfo, err)
	}
	return &info, nil
}

// LoggedIn reports the stored login flag.
func (s *Store) LoggedIn(ctx context.Context) (bool, error) {
	v, _, err := s.kv.Get(ctx, domainauth.KeyLoggedIn)
	if err != nil {
		return false, fmt.Errorf("read login flag: %w", err)
	}
	return v == "true", nil
}

// Snapshot reads the whole session. A malformed user info is reported as an error
// alongside the fields that could be read.
func (s *Store) Snapshot(ctx context.Context) (domainauth.Session, error) {
	var sess domainauth.Session
	var err error
	if sess.Token, err = s.Token(ctx); err != nil {
		return sess, err
	}
	if sess.LoggedIn, err = s.LoggedIn(ctx); err != nil {
		return sess, err
	}
	sess.UserInfo, err = s.UserInfo(ctx)
	return sess, err
}

// Apply mirrors a host global state field by field: a boolean login flag is written and
// anything else deletes it, a non-empty token is written and an empty one deletes it,
// and a non-nil user info is written as JSON while nil deletes it.
// Every field is attempted; failures are joined.
func (s *Store) Apply(ctx context.Context, state domainauth.GlobalState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if state.IsLoggedIn != nil {
		errs = append(errs, s.set(ctx, domainauth.KeyLoggedIn, fmt.Sprint(*state.IsLoggedIn)))
	} else {
		errs = append(errs, s.del(ctx, domainauth.KeyLoggedIn))
	}

	if state.Token != "" {
		errs = append(errs, s.set(ctx, domainauth.KeyToken, state.Token))
	} else {
		errs = append(errs, s.del(ctx, domainauth.KeyToken))
	}

	if state.UserInfo != nil {
		errs = append(errs, s.writeUserInfo(ctx, state.UserInfo))
	} else {
		errs = append(errs, s.del(ctx, domainauth.KeyUserInfo))
	}
	return errors.Join(errs...)
}

// SetUserInfo replaces the stored user info; nil deletes it.
func (s *Store) SetUserInfo(ctx context.Context, info *domainauth.UserInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if info == nil {
		return s.del(ctx, domainauth.KeyUserInfo)
	}
	return s.writeUserInfo(ctx, info)
}

// Clear removes every session key. Clearing an empty session is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, domainauth.SessionKeys()...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.DebugContext(ctx, "session cleared")
	return nil
}

// Valid reports whether a usable session exists at now: a token must be present and,
// when the token is a JWT carrying an expiry, that expiry must lie in the future.
// Opaque tokens are trusted as-is; the backend remains the authority.
func (s *Store) Valid(ctx context.Context, now time.Time) (bool, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, nil
	}
	exp, ok := tokenExpiry(token)
	if !ok {
		return true, nil
	}
	return now.Before(exp), nil
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func (s *Store) writeUserInfo(ctx context.Context, info *domainauth.UserInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode user info: %w", err)
	}
	return s.set(ctx, domainauth.KeyUserInfo, string(data))
}

func (s *Store) set(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *Store) del(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
