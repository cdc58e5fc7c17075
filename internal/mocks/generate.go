// Package mocks provides gomock implementations of the ports for tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockKVStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), "auth_token").Return("t1", true, nil)
//
// Hand-written doubles with real behavior live in internal/mocks/session.
package mocks

// Generate mock for KVStore interface from internal/ports package.
// This creates MockKVStore with methods for all KVStore interface methods:
// Get, Set, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=kv_store_mock.go github.com/target/mmk-user-module/internal/ports KVStore

// Generate mock for StatePusher interface from internal/ports package.
// This creates MockStatePusher with methods for all StatePusher interface methods:
// PushState
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=state_pusher_mock.go github.com/target/mmk-user-module/internal/ports StatePusher
