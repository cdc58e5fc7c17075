package session

// Package session contains simple hand-written test doubles for the session and host ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"sort"
	"sync"

	domainauth "github.com/target/mmk-user-module/internal/domain/auth"
	"github.com/target/mmk-user-module/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.KVStore = (*MemoryStore)(nil)

// ErrInjected is returned by MemoryStore when a failure is injected for a key.
var ErrInjected = errors.New("injected store failure")

// MemoryStore is an in-memory KVStore for unit tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string

	// FailGet makes Get fail for the listed keys.
	FailGet map[string]bool
	// Writes counts Set and Delete calls per key.
	Writes map[string]int
}

// NewMemoryStore creates a store pre-populated with seed.
func NewMemoryStore(seed map[string]string) *MemoryStore {
	values := make(map[string]string, len(seed))
	for k, v := range seed {
		values[k] = v
	}
	return &MemoryStore{
		values:  values,
		FailGet: map[string]bool{},
		Writes:  map[string]int{},
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailGet[key] {
		return "", false, ErrInjected
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.Writes[key]++
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
		m.Writes[k]++
	}
	return nil
}

// Value returns the raw stored value.
func (m *MemoryStore) Value(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the stored keys in sorted order.
func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Host is an in-memory host shell. Publish delivers state synchronously to every listener.
type Host struct {
	mu        sync.Mutex
	state     domainauth.GlobalState
	listeners map[int]ports.StateListener
	nextID    int

	// SubscribeErr makes OnGlobalStateChange fail.
	SubscribeErr error
	// Pushed records every SetGlobalState call.
	Pushed []domainauth.GlobalState
}

// NewHost creates a host holding the initial state.
func NewHost(initial domainauth.GlobalState) *Host {
	return &Host{state: initial, listeners: map[int]ports.StateListener{}}
}

// Props returns props exposing both host capabilities.
func (h *Host) Props() *ports.HostProps {
	return &ports.HostProps{
		Name:                "memory-host",
		OnGlobalStateChange: h.OnGlobalStateChange,
		SetGlobalState:      h.SetGlobalState,
	}
}

// OnGlobalStateChange implements ports.SubscribeFunc.
func (h *Host) OnGlobalStateChange(_ context.Context, listener ports.StateListener, fireImmediately bool) (func(), error) {
	if h.SubscribeErr != nil {
		return nil, h.SubscribeErr
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = listener
	current := h.state
	h.mu.Unlock()

	if fireImmediately {
		listener(current, domainauth.GlobalState{})
	}
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}, nil
}

// SetGlobalState implements ports.SetStateFunc by recording and publishing the state.
func (h *Host) SetGlobalState(_ context.Context, state domainauth.GlobalState) error {
	h.mu.Lock()
	h.Pushed = append(h.Pushed, state)
	h.mu.Unlock()
	h.Publish(state)
	return nil
}

// Publish replaces the state and notifies listeners.
func (h *Host) Publish(state domainauth.GlobalState) {
	h.mu.Lock()
	prev := h.state
	h.state = state
	listeners := make([]ports.StateListener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		l(state, prev)
	}
}

// Listeners returns the number of registered listeners.
func (h *Host) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
