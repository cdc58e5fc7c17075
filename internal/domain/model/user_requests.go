//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	apperrors "github.com/target/mmk-user-module/internal/errors"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 12
)

// SortField selects the column the user listing is ordered by.
type SortField string

const (
	SortByDefault  SortField = "default"
	SortByName     SortField = "name"
	SortByCode     SortField = "code"
	SortByUsername SortField = "username"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListUsersRequest controls paging, filtering and sorting of the admin user listing.
// Notes:
// - Zero CurrentPage and PageSize fall back to DefaultPage and DefaultPageSize.
// - SortBy empty or "default" leaves ordering to the backend; SortOrder is then not sent.
// - SortOrder defaults to desc.
// - FilterStatus nil means all statuses.
type ListUsersRequest struct {
	CurrentPage  int         `json:"currentPage"`
	PageSize     int         `json:"pageSize"`
	SearchQuery  string      `json:"searchQuery"`
	FilterStatus *UserStatus `json:"filterStatus"`
	SortBy       SortField   `json:"sortBy"`
	SortOrder    SortOrder   `json:"sortOrder"`
}

// Validate rejects negative paging values and unknown enum values.
func (r ListUsersRequest) Validate() error {
	return asAppError(validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPage, validation.Min(0)),
		validation.Field(&r.PageSize, validation.Min(0)),
		validation.Field(&r.FilterStatus, validation.In(
			UserStatusNormal, UserStatusBanned15Days, UserStatusBanned30Days, UserStatusBannedForever,
		)),
		validation.Field(&r.SortBy, validation.In(SortByDefault, SortByName, SortByCode, SortByUsername)),
		validation.Field(&r.SortOrder, validation.In(SortAsc, SortDesc)),
	))
}

// Query builds the outgoing query string. Empty values are omitted rather than sent blank.
func (r ListUsersRequest) Query() url.Values {
	q := url.Values{}

	page := r.CurrentPage
	if page <= 0 {
		page = DefaultPage
	}
	size := r.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	q.Set("currentPage", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(size))

	if s := strings.TrimSpace(r.SearchQuery); s != "" {
		q.Set("searchQuery", s)
	}
	if r.FilterStatus != nil {
		q.Set("filterStatus", strconv.Itoa(int(*r.FilterStatus)))
	}
	if r.SortBy != "" && r.SortBy != SortByDefault {
		q.Set("sortBy", string(r.SortBy))
		order := r.SortOrder
		if order == "" {
			order = SortDesc
		}
		q.Set("sortOrder", string(order))
	}
	return q
}

// UpdateUserRequest is an administrator's partial update. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Username *string     `json:"username,omitempty"`
	UserCode *string     `json:"userCode,omitempty"`
	Email    *string     `json:"email,omitempty"`
	RealName *string     `json:"realName,omitempty"`
	Avatar   *string     `json:"avatar,omitempty"`
	Status   *UserStatus `json:"status,omitempty"`
}

// IsEmpty reports whether no field is set.
func (r UpdateUserRequest) IsEmpty() bool {
	return r.Username == nil && r.UserCode == nil && r.Email == nil &&
		r.RealName == nil && r.Avatar == nil && r.Status == nil
}

// Validate requires at least one field and checks the formats of the ones present.
func (r UpdateUserRequest) Validate() error {
	if r.IsEmpty() {
		return apperrors.Validation("no fields to update")
	}
	return asAppError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&r.Status, validation.In(
			UserStatusNormal, UserStatusBanned15Days, UserStatusBanned30Days, UserStatusBannedForever,
		)),
	))
}

// BanRequest is the body of the ban call.
type BanRequest struct {
	BanStatus BanStatus `json:"banStatus"`
}

// Validate only accepts the three supported ban durations.
func (r BanRequest) Validate() error {
	return asAppError(validation.ValidateStruct(&r,
		validation.Field(&r.BanStatus, validation.Required, validation.In(BanStatus15Days, BanStatus30Days, BanStatusForever)),
	))
}

// CreateUserRequest is an administrator creating an account.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	RealName string `json:"realName,omitempty"`
}

// Validate requires username, password and a well-formed email.
func (r CreateUserRequest) Validate() error {
	return asAppError(validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
	))
}

// UpdateProfileRequest is the signed-in user's partial self-update. Sensitive changes
// carry their proof alongside (OldPassword for Password, EmailCode for Email).
type UpdateProfileRequest struct {
	Username    *string `json:"username,omitempty"`
	RealName    *string `json:"realName,omitempty"`
	Avatar      *string `json:"avatar,omitempty"`
	Email       *string `json:"email,omitempty"`
	EmailCode   *string `json:"emailCode,omitempty"`
	Password    *string `json:"password,omitempty"`
	OldPassword *string `json:"oldPassword,omitempty"`
}

// IsEmpty reports whether no field is set.
func (r UpdateProfileRequest) IsEmpty() bool {
	return r.Username == nil && r.RealName == nil && r.Avatar == nil && r.Email == nil &&
		r.EmailCode == nil && r.Password == nil && r.OldPassword == nil
}

// Validate requires at least one field and a well-formed email when one is given.
func (r UpdateProfileRequest) Validate() error {
	if r.IsEmpty() {
		return apperrors.Validation("no fields to update")
	}
	return asAppError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
	))
}

// DeactivateRequest confirms self-deactivation.
type DeactivateRequest struct {
	EmailCode string `json:"emailCode"`
	Password  string `json:"password"`
}

// Validate requires both proofs.
func (r DeactivateRequest) Validate() error {
	return asAppError(validation.ValidateStruct(&r,
		validation.Field(&r.EmailCode, validation.Required),
		validation.Field(&r.Password, validation.Required),
	))
}

// ValidateEmail checks a standalone email parameter.
func ValidateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return apperrors.ValidationField("email", "email: "+err.Error())
	}
	return nil
}

// asAppError converts ozzo validation errors into a validation AppError naming the first
// offending field in alphabetical order.
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(validation.Errors)
	if !ok || len(errs) == 0 {
		return apperrors.Wrap(err, apperrors.KindValidation, err.Error())
	}
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return &apperrors.AppError{
		Kind:    apperrors.KindValidation,
		Message: errs.Error(),
		Field:   fields[0],
		Cause:   err,
	}
}
