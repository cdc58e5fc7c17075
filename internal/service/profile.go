package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	domainauth "github.com/target/mmk-user-module/internal/domain/auth"
	"github.com/target/mmk-user-module/internal/domain/model"
	"github.com/target/mmk-user-module/internal/pipeline"
	"github.com/target/mmk-user-module/internal/ports"
	"github.com/target/mmk-user-module/internal/session"
)

const mePath = "/user/me"

// ProfileSync is what ProfileService needs to push a refreshed profile upward.
// Both fields must be set for the push to happen.
type ProfileSync struct {
	Session *session.Store
	Pusher  ports.StatePusher
}

func (p ProfileSync) enabled() bool { return p.Session != nil && p.Pusher != nil }

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Client Requester    // Required
	Sync   ProfileSync  // Optional
	Logger *slog.Logger // Optional
}

// ProfileService covers the signed-in user's own account.
type ProfileService struct {
	client Requester
	sync   ProfileSync
	logger *slog.Logger
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(opts ProfileServiceOptions) *ProfileService {
	if opts.Client == nil {
		panic("Requester is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{
		client: opts.Client,
		sync:   opts.Sync,
		logger: logger.With("component", "profile"),
	}
}

// Me returns the current user's profile.
func (s *ProfileService) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := s.client.Do(ctx, pipeline.Request{Method: http.MethodGet, Path: mePath}, &user); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &user, nil
}

// Avatar returns the current user's avatar URL.
func (s *ProfileService) Avatar(ctx context.Context) (string, error) {
	var avatar string
	if err := s.client.Do(ctx, pipeline.Request{Method: http.MethodGet, Path: mePath + "/avatar"}, &avatar); err != nil {
		return "", fmt.Errorf("get avatar: %w", err)
	}
	return avatar, nil
}

// Update applies a partial self-update. On success the refreshed profile is pushed upward
// so the host and the stored session see it; a failed push is logged only.
func (s *ProfileService) Update(ctx context.Context, req model.UpdateProfileRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate profile update: %w", err)
	}

	var user model.User
	if err := s.client.Do(ctx, pipeline.Request{Method: http.MethodPatch, Path: mePath, Body: req}, &user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if s.sync.enabled() {
		if err := s.pushProfile(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "profile updated but the refreshed user info was not pushed", "error", err)
		}
	}
	return &user, nil
}

// pushProfile merges user into the stored user info and pushes the whole session state,
// so a host that replaces its state keeps the token and the fingerprint.
func (s *ProfileService) pushProfile(ctx context.Context, user model.User) error {
	sess, err := s.sync.Session.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	info := domainauth.UserInfo{}
	if sess.UserInfo != nil {
		info = *sess.UserInfo
	}
	if !user.ID.IsZero() {
		info.ID = user.ID
	}
	info.Username = user.Username
	info.Email = user.Email
	info.RealName = user.RealName
	info.Avatar = user.Avatar
	info.Status = user.Status

	return s.sync.Pusher.PushState(ctx, domainauth.GlobalState{
		IsLoggedIn: domainauth.LoggedIn(sess.LoggedIn || sess.HasToken()),
		Token:      sess.Token,
		UserInfo:   &info,
	})
}

// Deactivate soft-deletes the current account. The caller decides what happens to the session.
func (s *ProfileService) Deactivate(ctx context.Context, req model.DeactivateRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, fmt.Errorf("validate deactivation: %w", err)
	}
	var ok bool
	if err := s.client.Do(ctx, pipeline.Request{Method: http.MethodPost, Path: mePath + "/deactivate", Body: req}, &ok); err != nil {
		return false, fmt.Errorf("deactivate account: %w", err)
	}
	return ok, nil
}

// SendVerificationCode asks the backend to mail a one-time code to email.
func (s *ProfileService) SendVerificationCode(ctx context.Context, email string) error {
	if err := model.ValidateEmail(email); err != nil {
		return fmt.Errorf("validate email: %w", err)
	}
	if err := s.client.Do(ctx, pipeline.Request{
		Method: http.MethodPost,
		Path:   "/user/sendVerificationCode",
		Query:  url.Values{"email": {email}},
	}, nil); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	return nil
}
