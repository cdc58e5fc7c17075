package auth

// Package auth contains domain-level types for the client session.
// It is pure and free of framework/adapter concerns.

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/target/mmk-user-module/internal/domain/model"
)

// Keys under which the session is persisted.
const (
	KeyToken    = "auth_token"
	KeyUserInfo = "userInfo"
	KeyLoggedIn = "isLoggedIn"
)

// SessionKeys lists every persisted session key.
func SessionKeys() []string {
	return []string{KeyToken, KeyUserInfo, KeyLoggedIn}
}

// UserInfo is the signed-in user's record as shared by the host.
// Fields this module does not know about are kept verbatim in Extra so a round
// trip through the store never loses host data.
type UserInfo struct {
	ID                model.ID         `json:"id,omitempty"`
	Username          string           `json:"username,omitempty"`
	Email             string           `json:"email,omitempty"`
	RealName          string           `json:"realName,omitempty"`
	Avatar            string           `json:"avatar,omitempty"`
	Status            model.UserStatus `json:"status"`
	ClientFingerprint string           `json:"clientFingerprint,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// userInfoFields aliases UserInfo without its methods.
type userInfoFields UserInfo

var userInfoKeys = map[string]bool{
	"id": true, "username": true, "email": true, "realName": true,
	"avatar": true, "status": true, "clientFingerprint": true,
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (u *UserInfo) UnmarshalJSON(data []byte) error {
	var known userInfoFields
	if err := json.Unmarshal(data, &known); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("decode user info: %w", err)
	}
	for k := range all {
		if userInfoKeys[k] {
			delete(all, k)
		}
	}
	if len(all) > 0 {
		known.Extra = all
	}
	*u = UserInfo(known)
	return nil
}

// MarshalJSON merges the known fields over Extra.
func (u UserInfo) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(userInfoFields(u))
	if err != nil {
		return nil, err
	}
	if len(u.Extra) == 0 {
		return base, nil
	}
	merged := make(map[string]json.RawMessage, len(u.Extra)+len(userInfoKeys))
	for k, v := range u.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// HasFingerprint reports whether a client fingerprint is present.
func (u *UserInfo) HasFingerprint() bool {
	return u != nil && u.ClientFingerprint != ""
}

// Session is the locally persisted view of the signed-in user.
type Session struct {
	Token    string
	LoggedIn bool
	UserInfo *UserInfo
}

// HasToken reports whether an auth token is present.
func (s Session) HasToken() bool { return s.Token != "" }

// GlobalState is the shared state a host shell pushes to its micro-applications.
// A nil IsLoggedIn means the host did not send a boolean; an empty Token and a nil
// UserInfo mean absent.
type GlobalState struct {
	IsLoggedIn *bool     `json:"isLoggedIn,omitempty"`
	Token      string    `json:"token,omitempty"`
	UserInfo   *UserInfo `json:"userInfo,omitempty"`
}

// UnmarshalJSON decodes each field on its own. A field of the wrong type reads as
// absent instead of failing the whole state; only a body that is not an object errors.
func (s *GlobalState) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode global state: %w", err)
	}

	*s = GlobalState{}
	if raw, ok := fields["isLoggedIn"]; ok && !isJSONNull(raw) {
		var flag bool
		if json.Unmarshal(raw, &flag) == nil {
			s.IsLoggedIn = &flag
		}
	}
	if raw, ok := fields["token"]; ok {
		var token string
		if json.Unmarshal(raw, &token) == nil {
			s.Token = token
		}
	}
	if raw, ok := fields["userInfo"]; ok && !isJSONNull(raw) {
		var info UserInfo
		if json.Unmarshal(raw, &info) == nil {
			s.UserInfo = &info
		}
	}
	return nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// LoggedIn returns a GlobalState flag value.
func LoggedIn(v bool) *bool { return &v }
