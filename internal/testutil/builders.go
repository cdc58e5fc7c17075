package testutil

import (
	"github.com/target/mmk-user-module/internal/domain/auth"
	"github.com/target/mmk-user-module/internal/domain/model"
)

// UserBuilder helps build test users.
type UserBuilder struct {
	user model.User
}

// NewUser creates a user builder with sensible defaults.
func NewUser(id int64) *UserBuilder {
	return &UserBuilder{
		user: model.User{
			ID:       model.IDFrom(id),
			Username: "user" + model.IDFrom(id).String(),
			Email:    "user" + model.IDFrom(id).String() + "@example.com",
			Status:   model.UserStatusNormal,
		},
	}
}

// WithUsername sets the username.
func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.user.Username = username
	return b
}

// WithRealName sets the real name.
func (b *UserBuilder) WithRealName(name string) *UserBuilder {
	b.user.RealName = name
	return b
}

// WithStatus sets the status.
func (b *UserBuilder) WithStatus(status model.UserStatus) *UserBuilder {
	b.user.Status = status
	return b
}

// Build returns the built user.
func (b *UserBuilder) Build() model.User {
	return b.user
}

// SignedInState is a host state for a signed-in user with a fingerprint.
func SignedInState(token, fingerprint string) auth.GlobalState {
	return auth.GlobalState{
		IsLoggedIn: auth.LoggedIn(true),
		Token:      token,
		UserInfo: &auth.UserInfo{
			ID:                "7",
			Username:          "ann",
			Email:             "ann@example.com",
			ClientFingerprint: fingerprint,
		},
	}
}
