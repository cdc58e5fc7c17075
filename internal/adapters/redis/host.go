package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/target/mmk-user-module/internal/domain/auth"
	"github.com/target/mmk-user-module/internal/ports"
)

// HostOptions configures a Redis-backed host shell.
type HostOptions struct {
	Client  redis.UniversalClient
	Key     string // current global state
	Channel string // change notifications
	Logger  *slog.Logger
}

// Host implements the host shell contract over Redis: the current global state is stored
// at Key and every change is published on Channel.
type Host struct {
	client  redis.UniversalClient
	key     string
	channel string
	logger  *slog.Logger
}

// NewHost creates a Redis host.
func NewHost(opts HostOptions) *Host {
	if opts.Client == nil {
		panic("redis client is required")
	}
	if opts.Key == "" {
		opts.Key = "mmk:global-state"
	}
	if opts.Channel == "" {
		opts.Channel = opts.Key + ":changes"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		client:  opts.Client,
		key:     opts.Key,
		channel: opts.Channel,
		logger:  logger.With("component", "redis_host", "channel", opts.Channel),
	}
}

// Props exposes the host capabilities to the session bridge.
func (h *Host) Props(name string) *ports.HostProps {
	return &ports.HostProps{
		Name:                name,
		OnGlobalStateChange: h.OnGlobalStateChange,
		SetGlobalState:      h.SetGlobalState,
	}
}

// State returns the current global state. A missing key is the empty state.
func (h *Host) State(ctx context.Context) (domainauth.GlobalState, error) {
	data, err := h.client.Get(ctx, h.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.GlobalState{}, nil
		}
		return domainauth.GlobalState{}, fmt.Errorf("redis get state: %w", err)
	}
	var state domainauth.GlobalState
	if err := json.Unmarshal(data, &state); err != nil {
		return domainauth.GlobalState{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, nil
}

// SetGlobalState stores the state and publishes it in one transaction.
func (h *Host) SetGlobalState(ctx context.Context, state domainauth.GlobalState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, h.key, data, 0)
		pipe.Publish(ctx, h.channel, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}

// OnGlobalStateChange subscribes to the change channel. The subscription is confirmed
// before the current state is read, so no change published afterwards is missed.
// Listener calls happen on a single goroutine, in publish order.
func (h *Host) OnGlobalStateChange(ctx context.Context, listener ports.StateListener, fireImmediately bool) (func(), error) {
	if listener == nil {
		return nil, errors.New("listener is required")
	}

	sub := h.client.Subscribe(ctx, h.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", h.channel, err)
	}

	current, err := h.State(ctx)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}
	if fireImmediately {
		listener(current, domainauth.GlobalState{})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		prev := current
		for msg := range sub.Channel() {
			var state domainauth.GlobalState
			if err := json.Unmarshal([]byte(msg.Payload), &state); err != nil {
				h.logger.Warn("discarding malformed global state", "error", err)
				continue
			}
			listener(state, prev)
			prev = state
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := sub.Close(); err != nil {
				h.logger.Debug("close subscription failed", "error", err)
			}
			<-done
		})
	}, nil
}
