package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-user-module/internal/domain/model"
	apperrors "github.com/target/mmk-user-module/internal/errors"
	"github.com/target/mmk-user-module/internal/testutil"
	"github.com/target/mmk-user-module/internal/usercache"
)

func newAdminService(t *testing.T) (*AdminUserService, *harness, *usercache.Cache) {
	t.Helper()
	h := newHarness(t)
	cache := usercache.New(usercache.Options{Size: 16})
	return NewAdminUserService(AdminUserServiceOptions{Client: h.client, Cache: cache}), h, cache
}

func TestNewAdminUserService_RequiredDependency(t *testing.T) {
	assert.Panics(t, func() {
		NewAdminUserService(AdminUserServiceOptions{})
	})
}

func TestAdminUserService_List(t *testing.T) {
	svc, h, cache := newAdminService(t)
	h.backend.RespondData(http.MethodGet, "/user/admin/user/list/normal", map[string]any{
		"records": []map[string]any{
			{"id": "7", "username": "A"},
			{"id": nil, "username": "B"},
			{"id": 9, "username": "C", "status": 2},
		},
		"total": 3, "size": 12, "current": 1, "pages": 1,
	})

	page, err := svc.List(context.Background(), model.ListUsersRequest{SortBy: model.SortByDefault, SortOrder: model.SortAsc})
	require.NoError(t, err)
	assert.Len(t, page.Records, 3)
	assert.Equal(t, int64(3), page.Total)

	last, ok := h.backend.Last()
	require.True(t, ok)
	assert.Equal(t, "1", last.Query.Get("currentPage"))
	assert.Equal(t, "12", last.Query.Get("pageSize"))
	assert.False(t, last.Query.Has("sortBy"))
	assert.False(t, last.Query.Has("sortOrder"))

	// the null id record is skipped, the others are reachable by either id shape
	assert.Equal(t, 2, cache.Len())
	byString, ok := svc.Cached("7")
	require.True(t, ok)
	byNumber, ok := svc.Cached(7)
	require.True(t, ok)
	assert.Equal(t, byString, byNumber)
	assert.Equal(t, "A", byNumber.Username)

	c, ok := svc.Cached(9)
	require.True(t, ok)
	assert.Equal(t, model.UserStatusBanned30Days, c.Status)
}

func TestAdminUserService_ListSortAndFilter(t *testing.T) {
	svc, h, _ := newAdminService(t)
	h.backend.RespondData(http.MethodGet, "/user/admin/user/list/normal", map[string]any{"records": []any{}})

	status := model.UserStatusNormal
	_, err := svc.List(context.Background(), model.ListUsersRequest{
		CurrentPage:  2,
		SearchQuery:  "ann",
		FilterStatus: &status,
		SortBy:       model.SortByName,
	})
	require.NoError(t, err)

	last, _ := h.backend.Last()
	assert.Equal(t, "2", last.Query.Get("currentPage"))
	assert.Equal(t, "ann", last.Query.Get("searchQuery"))
	assert.Equal(t, "0", last.Query.Get("filterStatus"))
	assert.Equal(t, "name", last.Query.Get("sortBy"))
	assert.Equal(t, "desc", last.Query.Get("sortOrder"))

	_, err = svc.List(context.Background(), model.ListUsersRequest{SortOrder: "sideways"})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, 1, h.backend.Count())
}

func TestAdminUserService_Ban(t *testing.T) {
	svc, h, _ := newAdminService(t)
	h.backend.RespondData(http.MethodPatch, "/user/admin/user/7/ban", true)

	err := svc.Ban(context.Background(), "7", model.BanStatus(4))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "banStatus", apperrors.GetField(err))
	assert.Zero(t, h.backend.Count())

	require.NoError(t, svc.Ban(context.Background(), "7", model.BanStatus30Days))
	require.Equal(t, 1, h.backend.Count())

	last, _ := h.backend.Last()
	assert.Equal(t, http.MethodPatch, last.Method)
	assert.Equal(t, "/user/admin/user/7/ban", last.Path)
	assert.JSONEq(t, `{"banStatus":2}`, string(last.Body))
}

func TestAdminUserService_RejectsBadIDs(t *testing.T) {
	svc, h, _ := newAdminService(t)
	ctx := context.Background()
	name := "x"

	for _, id := range []model.ID{"", "0", "-3", "abc", "7abc"} {
		_, err := svc.Update(ctx, id, model.UpdateUserRequest{RealName: &name})
		assert.Equal(t, "id", apperrors.GetField(err), "update %q", id)
		assert.True(t, apperrors.IsValidation(svc.Ban(ctx, id, model.BanStatus15Days)), "ban %q", id)
		assert.True(t, apperrors.IsValidation(svc.Unban(ctx, id)), "unban %q", id)
		assert.True(t, apperrors.IsValidation(svc.Delete(ctx, id)), "delete %q", id)
	}
	assert.Zero(t, h.backend.Count())
}

func TestAdminUserService_UpdateRefreshesCache(t *testing.T) {
	svc, h, _ := newAdminService(t)
	h.backend.RespondData(http.MethodPatch, "/user/admin/user/7", map[string]any{"id": 7, "username": "ann", "realName": "Ann B"})

	_, err := svc.Update(context.Background(), "7", model.UpdateUserRequest{})
	assert.True(t, apperrors.IsValidation(err))

	name := "Ann B"
	user, err := svc.Update(context.Background(), "7", model.UpdateUserRequest{RealName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Ann B", user.RealName)

	last, _ := h.backend.Last()
	assert.JSONEq(t, `{"realName":"Ann B"}`, string(last.Body))

	cached, ok := svc.Cached(7)
	require.True(t, ok)
	assert.Equal(t, "Ann B", cached.RealName)
}

func TestAdminUserService_UnbanAndDelete(t *testing.T) {
	svc, h, cache := newAdminService(t)
	cache.Upsert(testutil.NewUser(7).Build())
	h.backend.RespondData(http.MethodPatch, "/user/admin/user/7/unban", true)
	h.backend.RespondData(http.MethodDelete, "/user/admin/user/7", true)

	require.NoError(t, svc.Unban(context.Background(), "7"))
	last, _ := h.backend.Last()
	assert.Equal(t, "/user/admin/user/7/unban", last.Path)
	assert.Empty(t, last.Body)

	require.NoError(t, svc.Delete(context.Background(), "7"))
	_, ok := svc.Cached(7)
	assert.False(t, ok)
}

func TestAdminUserService_DeleteFailureKeepsCache(t *testing.T) {
	svc, h, cache := newAdminService(t)
	cache.Upsert(testutil.NewUser(7).Build())
	h.backend.Respond(http.MethodDelete, "/user/admin/user/7", http.StatusOK, testutil.Envelope(500, "cannot delete admin", nil))

	err := svc.Delete(context.Background(), "7")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "cannot delete admin", appErr.Message)
	assert.Equal(t, apperrors.CodePtr(500), appErr.Code)

	_, ok := svc.Cached(7)
	assert.True(t, ok)
}

func TestAdminUserService_Create(t *testing.T) {
	svc, h, _ := newAdminService(t)
	h.backend.RespondData(http.MethodPost, "/user/admin/user", map[string]any{"id": 12, "username": "bob"})

	_, err := svc.Create(context.Background(), model.CreateUserRequest{Username: "bob", Password: "pw", Email: "nope"})
	assert.Equal(t, "email", apperrors.GetField(err))
	assert.Zero(t, h.backend.Count())

	user, err := svc.Create(context.Background(), model.CreateUserRequest{Username: "bob", Password: "pw", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.ID("12"), user.ID)

	last, _ := h.backend.Last()
	assert.JSONEq(t, `{"username":"bob","password":"pw","email":"bob@example.com"}`, string(last.Body))

	_, ok := svc.Cached("12")
	assert.True(t, ok)
}

func TestAdminUserService_CachedWithoutCache(t *testing.T) {
	h := newHarness(t)
	svc := NewAdminUserService(AdminUserServiceOptions{Client: h.client})
	_, ok := svc.Cached(1)
	assert.False(t, ok)
}
