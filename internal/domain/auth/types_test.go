package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-user-module/internal/domain/model"
)

func TestUserInfo_RoundTripKeepsUnknownFields(t *testing.T) {
	raw := `{"id":7,"username":"ann","clientFingerprint":"fp-1","roles":["admin"],"tenant":{"id":3}}`

	var u UserInfo
	require.NoError(t, json.Unmarshal([]byte(raw), &u))

	assert.Equal(t, model.ID("7"), u.ID)
	assert.Equal(t, "fp-1", u.ClientFingerprint)
	assert.True(t, u.HasFingerprint())
	require.Contains(t, u.Extra, "roles")
	assert.NotContains(t, u.Extra, "username")

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":7,"username":"ann","status":0,"clientFingerprint":"fp-1","roles":["admin"],"tenant":{"id":3}}`,
		string(out))
}

func TestUserInfo_KnownFieldsWinOverExtra(t *testing.T) {
	u := UserInfo{
		Username: "ann",
		Extra:    map[string]json.RawMessage{"username": json.RawMessage(`"stale"`), "x": json.RawMessage(`1`)},
	}
	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"ann","status":0,"x":1}`, string(out))
}

func TestUserInfo_Malformed(t *testing.T) {
	var u UserInfo
	assert.Error(t, json.Unmarshal([]byte(`{"id":`), &u))
	assert.Error(t, json.Unmarshal([]byte(`"just a string"`), &u))
}

func TestUserInfo_HasFingerprint(t *testing.T) {
	var nilInfo *UserInfo
	assert.False(t, nilInfo.HasFingerprint())
	assert.False(t, (&UserInfo{}).HasFingerprint())
}

func TestGlobalState_JSON(t *testing.T) {
	var st GlobalState
	require.NoError(t, json.Unmarshal([]byte(`{"isLoggedIn":false}`), &st))
	require.NotNil(t, st.IsLoggedIn)
	assert.False(t, *st.IsLoggedIn)
	assert.Empty(t, st.Token)
	assert.Nil(t, st.UserInfo)

	out, err := json.Marshal(GlobalState{IsLoggedIn: LoggedIn(true), Token: "t1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"isLoggedIn":true,"token":"t1"}`, string(out))
}

func TestGlobalState_WrongTypedFieldsReadAsAbsent(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantFlag  *bool
		wantToken string
		wantUser  bool
	}{
		{name: "string flag", raw: `{"isLoggedIn":"false","token":""}`},
		{name: "numeric flag keeps token", raw: `{"isLoggedIn":1,"token":"t2"}`, wantToken: "t2"},
		{name: "null flag", raw: `{"isLoggedIn":null,"token":"t1"}`, wantToken: "t1"},
		{name: "numeric token", raw: `{"isLoggedIn":true,"token":42}`, wantFlag: LoggedIn(true)},
		{name: "object token", raw: `{"isLoggedIn":false,"token":{"v":"t"}}`, wantFlag: LoggedIn(false)},
		{name: "string user info", raw: `{"token":"t1","userInfo":"ann"}`, wantToken: "t1"},
		{name: "null user info", raw: `{"token":"t1","userInfo":null}`, wantToken: "t1"},
		{name: "valid user info", raw: `{"token":"t1","userInfo":{"clientFingerprint":"fp"}}`, wantToken: "t1", wantUser: true},
		{name: "null body", raw: `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st GlobalState
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &st))
			assert.Equal(t, tt.wantFlag, st.IsLoggedIn)
			assert.Equal(t, tt.wantToken, st.Token)
			assert.Equal(t, tt.wantUser, st.UserInfo != nil)
		})
	}
}

func TestGlobalState_NonObjectErrors(t *testing.T) {
	for _, raw := range []string{`"x"`, `[]`, `{"token":`, `7`} {
		var st GlobalState
		assert.Error(t, json.Unmarshal([]byte(raw), &st), raw)
	}
}

func TestSession_HasToken(t *testing.T) {
	assert.True(t, Session{Token: "t"}.HasToken())
	assert.False(t, Session{}.HasToken())
	assert.ElementsMatch(t, []string{"auth_token", "userInfo", "isLoggedIn"}, SessionKeys())
}
