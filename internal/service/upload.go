package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/target/mmk-user-module/internal/domain/model"
	apperrors "github.com/target/mmk-user-module/internal/errors"
	"github.com/target/mmk-user-module/internal/pipeline"
)

const picPath = "middleware/pic"

// MsgInvalidImageURL is returned when the view endpoint answers without a usable URL.
const MsgInvalidImageURL = "image url in response is invalid"

// UploadServiceOptions groups dependencies for UploadService.
type UploadServiceOptions struct {
	Client Requester    // Required
	Logger *slog.Logger // Optional
}

// UploadService hands out presigned avatar upload targets and resolves stored images.
type UploadService struct {
	client Requester
	logger *slog.Logger
}

// NewUploadService constructs a new UploadService.
func NewUploadService(opts UploadServiceOptions) *UploadService {
	if opts.Client == nil {
		panic("Requester is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{client: opts.Client, logger: logger.With("component", "upload")}
}

// AvatarUploadTarget returns an upload target for the current user's avatar.
func (s *UploadService) AvatarUploadTarget(ctx context.Context) (*model.UploadTarget, error) {
	return s.uploadTarget(ctx, picPath+"/upload/avatar")
}

// UserAvatarUploadTarget returns an upload target for another user's avatar.
func (s *UploadService) UserAvatarUploadTarget(ctx context.Context, userID model.ID) (*model.UploadTarget, error) {
	n, err := requireUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("validate upload request: %w", err)
	}
	return s.uploadTarget(ctx, fmt.Sprintf("%s/upload/avatar/%d", picPath, n))
}

func (s *UploadService) uploadTarget(ctx context.Context, path string) (*model.UploadTarget, error) {
	var target model.UploadTarget
	if err := s.client.Do(ctx, pipeline.Request{Method: http.MethodGet, Path: path}, &target); err != nil {
		return nil, fmt.Errorf("get upload target: %w", err)
	}
	return &target, nil
}

// ViewURL resolves a file record to its public URL.
func (s *UploadService) ViewURL(ctx context.Context, fileID string) (string, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return "", fmt.Errorf("validate view request: %w", apperrors.ValidationField("fileId", "file id is required"))
	}

	var raw json.RawMessage
	if err := s.client.Do(ctx, pipeline.Request{
		Method: http.MethodGet,
		Path:   picPath + "/view/" + url.PathEscape(fileID),
	}, &raw); err != nil {
		return "", fmt.Errorf("get image url: %w", err)
	}

	var u string
	if err := json.Unmarshal(raw, &u); err != nil || strings.TrimSpace(u) == "" {
		s.logger.WarnContext(ctx, "view endpoint returned no usable url", "file_id", fileID)
		return "", fmt.Errorf("get image url: %w", &apperrors.AppError{
			Kind:    apperrors.KindHTTP,
			Message: MsgInvalidImageURL,
			Status:  http.StatusOK,
			Cause:   err,
		})
	}
	return u, nil
}
