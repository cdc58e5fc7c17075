package ports

import (
	"context"

	domainauth "github.com/target/mmk-user-module/internal/domain/auth"
)

// StateListener receives each global state change together with the previous state.
type StateListener func(state, prev domainauth.GlobalState)

// SubscribeFunc registers a listener for global state changes. When fireImmediately is
// true the listener is invoked with the current state before SubscribeFunc returns.
// The returned func removes the listener.
type SubscribeFunc func(ctx context.Context, listener StateListener, fireImmediately bool) (unsubscribe func(), err error)

// SetStateFunc asks the host to replace the shared global state.
type SetStateFunc func(ctx context.Context, state domainauth.GlobalState) error

// HostProps is what a host shell hands to the module when it mounts it.
// Either func may be nil; the module must cope with both being absent.
type HostProps struct {
	Name                string
	OnGlobalStateChange SubscribeFunc
	SetGlobalState      SetStateFunc
}

// StatePusher pushes state upward to whatever currently owns the session.
type StatePusher interface {
	PushState(ctx context.Context, state domainauth.GlobalState) error
}
