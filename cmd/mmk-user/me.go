package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-user-module/internal/bootstrap"
	"github.com/target/mmk-user-module/internal/domain/model"
)

type meOutput struct {
	Profile *model.User `json:"profile"`
	Avatar  string      `json:"avatar,omitempty"`
}

func runMe(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "me")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		var out meOutput
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			profile, err := app.Services.Profile.Me(gctx)
			if err != nil {
				return err
			}
			out.Profile = profile
			return nil
		})
		g.Go(func() error {
			avatar, err := app.Services.Profile.Avatar(gctx)
			if err != nil {
				// the profile is still useful without an avatar
				cmdCtx.Logger.WarnContext(gctx, "fetch avatar failed", "error", err)
				return nil
			}
			out.Avatar = avatar
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}
		return writeJSON(cmdCtx.Stdout, out)
	})
}

func runMeUpdate(cmdCtx *commandContext, args []string) error {
	var username, realName, avatar, email, emailCode, password, oldPassword optionalString
	fs := newFlagSet(cmdCtx, "me-update")
	fs.Var(&username, "username", "new login name")
	fs.Var(&realName, "real-name", "new display name")
	fs.Var(&avatar, "avatar", "new avatar URL")
	fs.Var(&email, "email", "new email address (needs --email-code)")
	fs.Var(&emailCode, "email-code", "verification code sent to the new email")
	fs.Var(&password, "password", "new password (needs --old-password)")
	fs.Var(&oldPassword, "old-password", "current password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if email.set && !emailCode.set {
		return usagef("--email requires --email-code")
	}
	if password.set && !oldPassword.set {
		return usagef("--password requires --old-password")
	}

	req := model.UpdateProfileRequest{
		Username:    username.ptr(),
		RealName:    realName.ptr(),
		Avatar:      avatar.ptr(),
		Email:       email.ptr(),
		EmailCode:   emailCode.ptr(),
		Password:    password.ptr(),
		OldPassword: oldPassword.ptr(),
	}
	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		user, err := app.Services.Profile.Update(ctx, req)
		if err != nil {
			return err
		}
		return writeJSON(cmdCtx.Stdout, user)
	})
}

func runMeDeactivate(cmdCtx *commandContext, args []string) error {
	var req model.DeactivateRequest
	fs := newFlagSet(cmdCtx, "me-deactivate")
	fs.StringVar(&req.EmailCode, "email-code", "", "verification code (required)")
	fs.StringVar(&req.Password, "password", "", "current password (required)")
	yes := fs.Bool("yes", false, "confirm deactivation")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if !*yes {
		return usagef("refusing to deactivate without --yes")
	}

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		ok, err := app.Services.Profile.Deactivate(ctx, req)
		if err != nil {
			return err
		}
		if !ok {
			return writeln(cmdCtx.Stdout, "deactivation was not accepted")
		}
		// the account is gone, so is the session
		if err := app.Bridge.SignOut(ctx); err != nil {
			return fmt.Errorf("sign out after deactivation: %w", err)
		}
		return writeln(cmdCtx.Stdout, "account deactivated, signed out")
	})
}

func runSendCode(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "send-code")
	email := fs.String("email", "", "address to send the code to (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if err := app.Services.Profile.SendVerificationCode(ctx, *email); err != nil {
			return err
		}
		return writef(cmdCtx.Stdout, "verification code sent to %s\n", *email)
	})
}

func runAvatarUploadURL(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "avatar-upload-url")
	user := fs.String("user", "", "admin: target another user's avatar")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		var (
			target *model.UploadTarget
			err    error
		)
		if *user != "" {
			target, err = app.Services.Upload.UserAvatarUploadTarget(ctx, model.ID(*user))
		} else {
			target, err = app.Services.Upload.AvatarUploadTarget(ctx)
		}
		if err != nil {
			return err
		}
		return writeJSON(cmdCtx.Stdout, target)
	})
}

func runAvatarView(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "avatar-view")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected exactly one file id")
	}
	fileID := fs.Arg(0)

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		u, err := app.Services.Upload.ViewURL(ctx, fileID)
		if err != nil {
			return err
		}
		return writeln(cmdCtx.Stdout, u)
	})
}
