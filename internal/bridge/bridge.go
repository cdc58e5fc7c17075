// Package bridge keeps the local session consistent with a host shell that owns the
// authoritative login state. Without a host it degrades to standalone mode and the local
// session is the only truth.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/target/mmk-user-module/internal/domain/auth"
	"github.com/target/mmk-user-module/internal/ports"
	"github.com/target/mmk-user-module/internal/session"
)

// Mode is the bridge lifecycle state.
type Mode string

const (
	ModeInactive   Mode = "inactive"
	ModeEmbedded   Mode = "embedded"
	ModeStandalone Mode = "standalone"
)

// Warnings surfaced when activation degrades to standalone.
const (
	WarnNoHost      = "no host props provided, running standalone: host session changes will not be mirrored"
	WarnNoSubscribe = "host props carry no state subscription, running standalone: host session changes will not be mirrored"
)

var (
	// ErrInactive is returned by operations that need an active bridge.
	ErrInactive = errors.New("session bridge is not active")
	// ErrAlreadyActive is returned when Activate is called twice without Deactivate.
	ErrAlreadyActive = errors.New("session bridge is already active")
)

// Status describes the outcome of Activate.
type Status struct {
	Mode    Mode
	Host    string
	Warning string
}

// LogoutHook runs when a mirrored host state drops the token.
type LogoutHook func(ctx context.Context)

// Options configures a Bridge.
type Options struct {
	Session  *session.Store
	LoginURL string
	Logger   *slog.Logger
	Now      func() time.Time
}

// Bridge mirrors host state into the session store and pushes local changes upward.
type Bridge struct {
	store    *session.Store
	loginURL string
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	mode        Mode
	host        string
	unsubscribe func()
	setState    ports.SetStateFunc

	hooksMu sync.RWMutex
	hooks   []LogoutHook
}

var _ ports.StatePusher = (*Bridge)(nil)

// New creates an inactive bridge.
func New(opts Options) *Bridge {
	if opts.Session == nil {
		panic("bridge requires a session store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Bridge{
		store:    opts.Session,
		loginURL: opts.LoginURL,
		logger:   logger.With("component", "bridge"),
		now:      now,
		mode:     ModeInactive,
	}
}

// OnLogout registers a hook run whenever the host clears the token.
func (b *Bridge) OnLogout(hook LogoutHook) {
	if hook == nil {
		return
	}
	b.hooksMu.Lock()
	defer b.hooksMu.Unlock()
	b.hooks = append(b.hooks, hook)
}

// Activate attaches the bridge to a host. Missing props, a missing subscription or a
// failing subscription degrade to standalone mode with a warning; none of them fail.
func (b *Bridge) Activate(ctx context.Context, props *ports.HostProps) (Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mode != ModeInactive {
		return Status{Mode: b.mode, Host: b.host}, ErrAlreadyActive
	}

	if props == nil {
		return b.standalone(ctx, "", nil, WarnNoHost), nil
	}
	if props.OnGlobalStateChange == nil {
		return b.standalone(ctx, props.Name, props.SetGlobalState, WarnNoSubscribe), nil
	}

	// the listener outlives the activation call
	listenCtx := context.WithoutCancel(ctx)
	unsubscribe, err := props.OnGlobalStateChange(ctx, func(state, prev domainauth.GlobalState) {
		b.mirror(listenCtx, state, prev)
	}, true)
	if err != nil {
		warning := fmt.Sprintf("subscribing to host %q failed, running standalone: %v", props.Name, err)
		return b.standalone(ctx, props.Name, props.SetGlobalState, warning), nil
	}

	b.mode = ModeEmbedded
	b.host = props.Name
	b.unsubscribe = unsubscribe
	b.setState = props.SetGlobalState
	if b.setState == nil {
		b.logger.WarnContext(ctx, "host props carry no setGlobalState, state pushes will be dropped", "host", props.Name)
	}
	b.logger.InfoContext(ctx, "session bridge attached to host", "host", props.Name)
	return Status{Mode: ModeEmbedded, Host: props.Name}, nil
}

// standalone must be called with b.mu held.
func (b *Bridge) standalone(ctx context.Context, host string, setState ports.SetStateFunc, warning string) Status {
	b.mode = ModeStandalone
	b.host = host
	b.setState = setState
	b.logger.WarnContext(ctx, warning)
	return Status{Mode: ModeStandalone, Host: host, Warning: warning}
}

// mirror applies one host notification. Failures are logged and never propagated to the host.
func (b *Bridge) mirror(ctx context.Context, state, prev domainauth.GlobalState) {
	b.logger.DebugContext(ctx, "host state changed",
		"logged_in", state.IsLoggedIn != nil && *state.IsLoggedIn,
		"token_present", state.Token != "",
		"user_info_present", state.UserInfo != nil,
	)

	if err := b.store.Apply(ctx, state); err != nil {
		b.logger.ErrorContext(ctx, "failed to mirror host state into session", "error", err)
	}

	if prev.Token != "" && state.Token == "" {
		b.logger.InfoContext(ctx, "host signed out")
		b.runLogoutHooks(ctx)
	}
}

func (b *Bridge) runLogoutHooks(ctx context.Context) {
	b.hooksMu.RLock()
	hooks := make([]LogoutHook, len(b.hooks))
	copy(hooks, b.hooks)
	b.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(ctx)
	}
}

// PushState asks the host to adopt state. In standalone mode only the user info is
// written locally, best effort.
func (b *Bridge) PushState(ctx context.Context, state domainauth.GlobalState) error {
	mode, setState := b.snapshot()

	switch {
	case mode == ModeInactive:
		return ErrInactive
	case setState != nil:
		if err := setState(ctx, state); err != nil {
			return fmt.Errorf("push state to host: %w", err)
		}
		return nil
	case mode == ModeEmbedded:
		b.logger.WarnContext(ctx, "dropping state push, host accepts none")
		return nil
	}

	if state.UserInfo != nil {
		if err := b.store.SetUserInfo(ctx, state.UserInfo); err != nil {
			b.logger.WarnContext(ctx, "standalone user info write failed", "error", err)
		}
	}
	return nil
}

// SignIn establishes a session. Embedded bridges hand the state to the host, which
// mirrors it back; standalone bridges write every field locally.
func (b *Bridge) SignIn(ctx context.Context, state domainauth.GlobalState) error {
	mode, _ := b.snapshot()
	switch mode {
	case ModeInactive:
		return ErrInactive
	case ModeEmbedded:
		return b.PushState(ctx, state)
	}
	if err := b.store.Apply(ctx, state); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// SignOut clears the local session. An embedded bridge tells the host, whose mirrored
// notification runs the logout hooks; otherwise they run here.
func (b *Bridge) SignOut(ctx context.Context) error {
	mode, setState := b.snapshot()
	if mode == ModeInactive {
		return ErrInactive
	}

	var errs []error
	pushed := false
	if mode == ModeEmbedded && setState != nil {
		if err := setState(ctx, domainauth.GlobalState{IsLoggedIn: domainauth.LoggedIn(false)}); err != nil {
			errs = append(errs, fmt.Errorf("push sign out to host: %w", err))
		} else {
			pushed = true
		}
	}
	if err := b.store.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	if !pushed {
		b.runLogoutHooks(ctx)
	}
	return errors.Join(errs...)
}

// Deactivate detaches from the host. The stored session is left as is.
func (b *Bridge) Deactivate() {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.setState = nil
	b.mode = ModeInactive
	b.host = ""
	b.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mode returns the current lifecycle state.
func (b *Bridge) Mode() Mode {
	mode, _ := b.snapshot()
	return mode
}

// SessionValid decides whether authenticated work may proceed. The host owns the session
// when embedded; standalone bridges check the stored token.
func (b *Bridge) SessionValid(ctx context.Context) (bool, error) {
	switch b.Mode() {
	case ModeInactive:
		return false, ErrInactive
	case ModeEmbedded:
		return true, nil
	}
	return b.store.Valid(ctx, b.now())
}

// LoginURL is where a user without a valid session is sent.
func (b *Bridge) LoginURL() string {
	return b.loginURL
}

func (b *Bridge) snapshot() (Mode, ports.SetStateFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode, b.setState
}
