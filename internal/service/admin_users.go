package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/target/mmk-user-module/internal/domain/model"
	"github.com/target/mmk-user-module/internal/pipeline"
	"github.com/target/mmk-user-module/internal/usercache"
)

const adminUserPath = "/user/admin/user"

// AdminUserServiceOptions groups dependencies for AdminUserService.
type AdminUserServiceOptions struct {
	Client Requester        // Required
	Cache  *usercache.Cache // Optional: listed and returned users are kept here
	Logger *slog.Logger     // Optional
}

// AdminUserService is the administrator's view of user accounts.
type AdminUserService struct {
	client Requester
	cache  *usercache.Cache
	logger *slog.Logger
}

// NewAdminUserService constructs a new AdminUserService.
func NewAdminUserService(opts AdminUserServiceOptions) *AdminUserService {
	if opts.Client == nil {
		panic("Requester is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminUserService{
		client: opts.Client,
		cache:  opts.Cache,
		logger: logger.With("component", "admin_users"),
	}
}

// List fetches one page of normal users and caches its records.
func (s *AdminUserService) List(ctx context.Context, req model.ListUsersRequest) (*model.UserPage, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate list request: %w", err)
	}

	var page model.UserPage
	err := s.client.Do(ctx, pipeline.Request{
		Method: http.MethodGet,
		Path:   adminUserPath + "/list/normal",
		Query:  req.Query(),
	}, &page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	if s.cache != nil {
		if skipped := s.cache.UpsertMany(page.Records); skipped > 0 {
			s.logger.WarnContext(ctx, "listed users without usable ids were not cached", "skipped", skipped)
		}
	}
	return &page, nil
}

// Update applies a partial update to another user's account.
func (s *AdminUserService) Update(ctx context.Context, id model.ID, req model.UpdateUserRequest) (*model.User, error) {
	n, err := requireUserID(id)
	if err != nil {
		return nil, fmt.Errorf("validate update request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate update request: %w", err)
	}

	var user model.User
	if err := s.client.Do(ctx, pipeline.Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("%s/%d", adminUserPath, n),
		Body:   req,
	}, &user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.remember(user)
	return &user, nil
}

// Ban suspends an account for the given duration.
func (s *AdminUserService) Ban(ctx context.Context, id model.ID, status model.BanStatus) error {
	n, err := requireUserID(id)
	if err != nil {
		return fmt.Errorf("validate ban request: %w", err)
	}
	req := model.BanRequest{BanStatus: status}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("validate ban request: %w", err)
	}

	if err := s.client.Do(ctx, pipeline.Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("%s/%d/ban", adminUserPath, n),
		Body:   req,
	}, nil); err != nil {
		return fmt.Errorf("ban user: %w", err)
	}
	s.logger.InfoContext(ctx, "user banned", "user_id", n, "ban_status", int(status))
	return nil
}

// Unban lifts a suspension.
func (s *AdminUserService) Unban(ctx context.Context, id model.ID) error {
	n, err := requireUserID(id)
	if err != nil {
		return fmt.Errorf("validate unban request: %w", err)
	}
	if err := s.client.Do(ctx, pipeline.Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("%s/%d/unban", adminUserPath, n),
	}, nil); err != nil {
		return fmt.Errorf("unban user: %w", err)
	}
	s.logger.InfoContext(ctx, "user unbanned", "user_id", n)
	return nil
}

// Delete removes an account and evicts it from the cache.
func (s *AdminUserService) Delete(ctx context.Context, id model.ID) error {
	n, err := requireUserID(id)
	if err != nil {
		return fmt.Errorf("validate delete request: %w", err)
	}
	if err := s.client.Do(ctx, pipeline.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%d", adminUserPath, n),
	}, nil); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if s.cache != nil {
		s.cache.Remove(n)
	}
	s.logger.InfoContext(ctx, "user deleted", "user_id", n)
	return nil
}

// Create registers a new account.
func (s *AdminUserService) Create(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validate create request: %w", err)
	}

	var user model.User
	if err := s.client.Do(ctx, pipeline.Request{
		Method: http.MethodPost,
		Path:   adminUserPath,
		Body:   req,
	}, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.remember(user)
	return &user, nil
}

// Cached returns a user seen by an earlier call. A miss means List should be called again.
func (s *AdminUserService) Cached(id any) (model.User, bool) {
	if s.cache == nil {
		return model.User{}, false
	}
	return s.cache.Get(id)
}

func (s *AdminUserService) remember(user model.User) {
	if s.cache == nil || user.ID.IsZero() {
		return
	}
	s.cache.Upsert(user)
}
