package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/mmk-user-module/internal/errors"
	"github.com/target/mmk-user-module/internal/testutil"
)

func TestUploadService_UploadTargets(t *testing.T) {
	h := newHarness(t)
	svc := NewUploadService(UploadServiceOptions{Client: h.client})

	target := map[string]any{"url": "https://s3.example.com/put?sig=x", "fileRecordID": "f-1"}
	h.backend.RespondData(http.MethodGet, "/middleware/pic/upload/avatar", target)
	h.backend.RespondData(http.MethodGet, "/middleware/pic/upload/avatar/7", target)

	got, err := svc.AvatarUploadTarget(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example.com/put?sig=x", got.URL)
	assert.Equal(t, "f-1", got.FileRecordID)

	got, err = svc.UserAvatarUploadTarget(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "f-1", got.FileRecordID)

	_, err = svc.UserAvatarUploadTarget(context.Background(), "")
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 2, h.backend.Count())
}

func TestUploadService_ViewURL(t *testing.T) {
	h := newHarness(t)
	svc := NewUploadService(UploadServiceOptions{Client: h.client})

	h.backend.RespondData(http.MethodGet, "/middleware/pic/view/f-1", "https://cdn.example.com/f-1.png")
	h.backend.RespondData(http.MethodGet, "/middleware/pic/view/empty", "")
	h.backend.RespondData(http.MethodGet, "/middleware/pic/view/object", map[string]any{"url": "x"})
	h.backend.Respond(http.MethodGet, "/middleware/pic/view/nodata", http.StatusOK, map[string]any{"code": 200})

	u, err := svc.ViewURL(context.Background(), " f-1 ")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/f-1.png", u)

	for _, id := range []string{"empty", "object", "nodata"} {
		_, err := svc.ViewURL(context.Background(), id)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr, id)
		assert.Equal(t, MsgInvalidImageURL, appErr.Message, id)
	}

	_, err = svc.ViewURL(context.Background(), "  ")
	assert.Equal(t, "fileId", apperrors.GetField(err))
}

func TestUploadService_ViewURLPropagatesBackendErrors(t *testing.T) {
	h := newHarness(t)
	svc := NewUploadService(UploadServiceOptions{Client: h.client})
	h.backend.Respond(http.MethodGet, "/middleware/pic/view/gone", http.StatusNotFound, testutil.Envelope(404, "file not found", nil))

	_, err := svc.ViewURL(context.Background(), "gone")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "file not found", appErr.Message)
}
