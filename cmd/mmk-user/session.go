package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/target/mmk-user-module/internal/bootstrap"
	domainauth "github.com/target/mmk-user-module/internal/domain/auth"
	"github.com/target/mmk-user-module/internal/session"
)

type sessionStatus struct {
	Mode           string `json:"mode"`
	Host           string `json:"host,omitempty"`
	HasToken       bool   `json:"hasToken"`
	LoggedIn       bool   `json:"loggedIn"`
	HasUserInfo    bool   `json:"hasUserInfo"`
	HasFingerprint bool   `json:"hasFingerprint"`
	UserInfoError  string `json:"userInfoError,omitempty"`
	Valid          bool   `json:"valid"`
	LoginURL       string `json:"loginUrl,omitempty"`
}

func runSessionStatus(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "session-status")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		out := sessionStatus{Mode: string(app.Bridge.Mode())}
		if app.Host != nil {
			out.Host = app.Config.Host.Name
		}

		sess, err := app.Session.Snapshot(ctx)
		switch {
		case errors.Is(err, session.ErrMalformedUserInfo):
			out.UserInfoError = err.Error()
		case err != nil:
			return fmt.Errorf("read session: %w", err)
		}
		out.HasToken = sess.HasToken()
		out.LoggedIn = sess.LoggedIn
		out.HasUserInfo = sess.UserInfo != nil
		out.HasFingerprint = sess.UserInfo.HasFingerprint()

		if out.Valid, err = app.Bridge.SessionValid(ctx); err != nil {
			return fmt.Errorf("check session: %w", err)
		}
		if !out.Valid {
			out.LoginURL = app.Bridge.LoginURL()
		}
		return writeJSON(cmdCtx.Stdout, out)
	})
}

type stateFlags struct {
	Token       string
	Fingerprint string
	User        string
	UserFile    string
}

func (f stateFlags) userInfo() (*domainauth.UserInfo, error) {
	raw := strings.TrimSpace(f.User)
	if f.UserFile != "" {
		if raw != "" {
			return nil, usagef("--user and --user-file are mutually exclusive")
		}
		data, err := os.ReadFile(f.UserFile)
		if err != nil {
			return nil, fmt.Errorf("read user file: %w", err)
		}
		raw = strings.TrimSpace(string(data))
	}

	var info domainauth.UserInfo
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			return nil, usagef("user info is not valid JSON: %v", err)
		}
	}
	if fp := strings.TrimSpace(f.Fingerprint); fp != "" {
		info.ClientFingerprint = fp
	}
	if raw == "" && info.ClientFingerprint == "" {
		return nil, nil
	}
	return &info, nil
}

func bindStateFlags(fs *flag.FlagSet, f *stateFlags) {
	fs.StringVar(&f.Token, "token", "", "auth token")
	fs.StringVar(&f.Fingerprint, "fingerprint", "", "client fingerprint, merged into the user info")
	fs.StringVar(&f.User, "user", "", "user info as JSON")
	fs.StringVar(&f.UserFile, "user-file", "", "read user info JSON from a file")
}

func runSessionLogin(cmdCtx *commandContext, args []string) error {
	var flags stateFlags
	fs := newFlagSet(cmdCtx, "session-login")
	bindStateFlags(fs, &flags)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(flags.Token) == "" {
		return usagef("--token is required")
	}
	info, err := flags.userInfo()
	if err != nil {
		return err
	}
	state := domainauth.GlobalState{
		IsLoggedIn: domainauth.LoggedIn(true),
		Token:      strings.TrimSpace(flags.Token),
		UserInfo:   info,
	}

	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if err := app.Bridge.SignIn(ctx, state); err != nil {
			return err
		}
		return writef(cmdCtx.Stdout, "signed in (%s)\n", app.Bridge.Mode())
	})
}

func runSessionLogout(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "session-logout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if err := app.Bridge.SignOut(ctx); err != nil {
			return err
		}
		return writeln(cmdCtx.Stdout, "signed out")
	})
}

func runWatch(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "watch")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchCtx := *cmdCtx
	watchCtx.Ctx = ctx
	return withApp(&watchCtx, func(ctx context.Context, app *bootstrap.App) error {
		app.Bridge.OnLogout(func(context.Context) {
			_ = writeln(cmdCtx.Stdout, "host signed out, local session cleared")
		})
		if err := writef(cmdCtx.Stdout, "watching host state (%s), press Ctrl-C to stop\n", app.Bridge.Mode()); err != nil {
			return err
		}
		<-ctx.Done()
		cmdCtx.Logger.Info("watch stopped")
		return nil
	})
}

func runHostPublish(cmdCtx *commandContext, args []string) error {
	var flags stateFlags
	fs := newFlagSet(cmdCtx, "host-publish")
	bindStateFlags(fs, &flags)
	logout := fs.Bool("logout", false, "publish a signed-out state")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var state domainauth.GlobalState
	if *logout {
		state.IsLoggedIn = domainauth.LoggedIn(false)
	} else {
		info, err := flags.userInfo()
		if err != nil {
			return err
		}
		state = domainauth.GlobalState{
			IsLoggedIn: domainauth.LoggedIn(strings.TrimSpace(flags.Token) != ""),
			Token:      strings.TrimSpace(flags.Token),
			UserInfo:   info,
		}
	}

	app, err := buildApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)
	if app.Host == nil {
		return usagef("host-publish needs HOST_MODE=redis")
	}
	if err := app.Host.SetGlobalState(cmdCtx.Ctx, state); err != nil {
		return err
	}
	return writeln(cmdCtx.Stdout, "global state published")
}
