package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	domainauth "github.com/target/mmk-user-module/internal/domain/auth"
	mocksession "github.com/target/mmk-user-module/internal/mocks/session"
	"github.com/target/mmk-user-module/internal/pipeline"
	"github.com/target/mmk-user-module/internal/session"
	"github.com/target/mmk-user-module/internal/testutil"
)

type harness struct {
	backend *testutil.Backend
	client  *pipeline.Client
	kv      *mocksession.MemoryStore
	store   *session.Store
}

// newHarness wires a real pipeline against a fake backend with a signed-in session.
func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := testutil.NewBackend(t)
	kv := mocksession.NewMemoryStore(map[string]string{
		domainauth.KeyToken:    "tok-1",
		domainauth.KeyLoggedIn: "true",
		domainauth.KeyUserInfo: `{"id":7,"username":"ann","clientFingerprint":"fp-1","tenant":"acme"}`,
	})
	store := session.NewStore(kv, nil)

	client, err := pipeline.New(pipeline.Options{
		Config:  pipeline.Config{BaseURL: backend.URL(), LoginPaths: []string{"/user/login"}},
		Session: store,
		Deps:    pipeline.Deps{Probe: pipeline.ProbeFunc(func() bool { return true })},
	})
	require.NoError(t, err)
	return &harness{backend: backend, client: client, kv: kv, store: store}
}
