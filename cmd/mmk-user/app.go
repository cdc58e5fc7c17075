package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/target/mmk-user-module/internal/bootstrap"
	"github.com/target/mmk-user-module/internal/bridge"
	apperrors "github.com/target/mmk-user-module/internal/errors"
)

func buildApp(cmdCtx *commandContext) (*bootstrap.App, error) {
	build := cmdCtx.newApp
	if build == nil {
		build = bootstrap.NewApp
	}
	return build(cmdCtx.Ctx, bootstrap.AppOptions{Config: cmdCtx.Config, Logger: cmdCtx.Logger})
}

// openApp wires the module and attaches the session bridge. Callers own Close.
func openApp(cmdCtx *commandContext) (*bootstrap.App, error) {
	app, err := buildApp(cmdCtx)
	if err != nil {
		return nil, err
	}
	st, err := app.Activate(cmdCtx.Ctx)
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}
	cmdCtx.Logger.Debug("session bridge active", "mode", string(st.Mode), "host", st.Host)
	return app, nil
}

func closeApp(cmdCtx *commandContext, app *bootstrap.App) {
	if err := app.Close(); err != nil {
		cmdCtx.Logger.Warn("close app failed", "error", err)
	}
}

// withApp opens the app, runs fn and closes it again.
func withApp(cmdCtx *commandContext, fn func(ctx context.Context, app *bootstrap.App) error) error {
	app, err := openApp(cmdCtx)
	if err != nil {
		return err
	}
	defer closeApp(cmdCtx, app)
	return fn(cmdCtx.Ctx, app)
}

// withSession is withApp for commands that call authenticated endpoints.
func withSession(cmdCtx *commandContext, fn func(ctx context.Context, app *bootstrap.App) error) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if err := requireSession(ctx, app.Bridge); err != nil {
			return err
		}
		return fn(ctx, app)
	})
}

func requireSession(ctx context.Context, b *bridge.Bridge) error {
	valid, err := b.SessionValid(ctx)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if !valid {
		return apperrors.Unauthorized(0, "no valid session, sign in at "+b.LoginURL(), nil)
	}
	return nil
}
