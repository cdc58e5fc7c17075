//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is a user id as it travels on the wire. The backend sends numbers, route
// parameters and host payloads often carry the same id as a string, and null means absent.
// The zero value is the absent id.
type ID string

// IDFrom formats a numeric id.
func IDFrom(v int64) ID {
	return ID(strconv.FormatInt(v, 10))
}

// Int64 coerces the id to its numeric form.
func (id ID) Int64() (int64, bool) {
	return CoerceID(string(id))
}

// IsZero reports whether the id is absent.
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts a JSON number, a string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids as numbers, other ids as strings and the absent id as null.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if n, ok := id.Int64(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(id))
}

// CoerceID turns an id of any supported shape into an int64. Integers, integral floats,
// json.Number, ID and numeric strings (surrounding spaces ignored) are accepted.
// Anything else, including partially numeric strings such as "7abc", is rejected.
func CoerceID(v any) (int64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || x >= math.MaxInt64 || x < math.MinInt64 {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		return CoerceID(x.String())
	case ID:
		return CoerceID(string(x))
	case *ID:
		if x == nil {
			return 0, false
		}
		return CoerceID(string(*x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// UserStatus is the account state reported by the backend.
type UserStatus int

const (
	UserStatusNormal        UserStatus = 0
	UserStatusBanned15Days  UserStatus = 1
	UserStatusBanned30Days  UserStatus = 2
	UserStatusBannedForever UserStatus = 3
)

// Valid reports whether the status is one the backend defines.
func (s UserStatus) Valid() bool {
	return s >= UserStatusNormal && s <= UserStatusBannedForever
}

// String returns a human label for the status.
func (s UserStatus) String() string {
	switch s {
	case UserStatusNormal:
		return "normal"
	case UserStatusBanned15Days:
		return "banned-15d"
	case UserStatusBanned30Days:
		return "banned-30d"
	case UserStatusBannedForever:
		return "banned-permanent"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseUserStatus parses either the numeric form or the label returned by String.
func ParseUserStatus(value string) (UserStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(v); err == nil {
		s := UserStatus(n)
		return s, s.Valid()
	}
	for _, s := range []UserStatus{UserStatusNormal, UserStatusBanned15Days, UserStatusBanned30Days, UserStatusBannedForever} {
		if s.String() == v {
			return s, true
		}
	}
	return 0, false
}

// BanStatus is the ban duration an administrator can apply.
type BanStatus int

const (
	BanStatus15Days  BanStatus = 1
	BanStatus30Days  BanStatus = 2
	BanStatusForever BanStatus = 3
)

// Valid reports whether the ban status is supported.
func (b BanStatus) Valid() bool {
	return b >= BanStatus15Days && b <= BanStatusForever
}

// User is the profile record returned by the user endpoints.
type User struct {
	ID         ID         `json:"id"`
	UserCode   string     `json:"userCode,omitempty"`
	Username   string     `json:"username"`
	Email      string     `json:"email,omitempty"`
	Avatar     string     `json:"avatar,omitempty"`
	RealName   string     `json:"realName,omitempty"`
	Status     UserStatus `json:"status"`
	BanEndTime *string    `json:"banEndTime,omitempty"`
	CreateTime string     `json:"createTime,omitempty"`
	UpdateTime string     `json:"updateTime,omitempty"`
	IsDeleted  *int       `json:"isDeleted,omitempty"`
}

// UserPage is one page of the admin user listing.
type UserPage struct {
	Records []User `json:"records"`
	Total   int64  `json:"total"`
	Size    int    `json:"size"`
	Current int    `json:"current"`
	Pages   int    `json:"pages"`
}

// UploadTarget is a presigned upload URL plus the file record it will fill.
type UploadTarget struct {
	URL          string `json:"url"`
	FileRecordID string `json:"fileRecordID"`
}
