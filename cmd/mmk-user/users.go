package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/mmk-user-module/internal/bootstrap"
	"github.com/target/mmk-user-module/internal/domain/model"
)

type listFlags struct {
	Page      int
	Size      int
	Search    string
	Status    string
	SortBy    string
	SortOrder string
	Query     string
	JSON      bool
	Show      string
}

func bindListFlags(fs *flag.FlagSet, opts *listFlags) {
	fs.IntVar(&opts.Page, "page", model.DefaultPage, "page number, starting at 1")
	fs.IntVar(&opts.Size, "size", model.DefaultPageSize, "page size")
	fs.StringVar(&opts.Search, "search", "", "search by username, real name or code")
	fs.StringVar(&opts.Status, "status", "", "filter by status (0-3 or normal, banned-15d, banned-30d, banned-permanent)")
	fs.StringVar(&opts.SortBy, "sort-by", "", "sort column: default, name, code, username")
	fs.StringVar(&opts.SortOrder, "sort-order", "", "asc or desc (default desc)")
}

func (o listFlags) request() (model.ListUsersRequest, error) {
	req := model.ListUsersRequest{
		CurrentPage: o.Page,
		PageSize:    o.Size,
		SearchQuery: o.Search,
		SortBy:      model.SortField(strings.ToLower(strings.TrimSpace(o.SortBy))),
		SortOrder:   model.SortOrder(strings.ToLower(strings.TrimSpace(o.SortOrder))),
	}
	if strings.TrimSpace(o.Status) != "" {
		status, ok := model.ParseUserStatus(o.Status)
		if !ok {
			return req, usagef("invalid --status %q", o.Status)
		}
		req.FilterStatus = &status
	}
	return req, nil
}

func runUsersList(cmdCtx *commandContext, args []string) error {
	var opts listFlags
	fs := newFlagSet(cmdCtx, "users-list")
	bindListFlags(fs, &opts)
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression applied to the page before printing")
	fs.BoolVar(&opts.JSON, "json", false, "print the page as JSON")
	fs.StringVar(&opts.Show, "show", "", "after listing, print this user from the local cache")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		if _, err := jmespath.Compile(q); err != nil {
			return usagef("invalid --query: %v", err)
		}
	}
	req, err := opts.request()
	if err != nil {
		return err
	}

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		page, err := app.Services.Admin.List(ctx, req)
		if err != nil {
			return err
		}
		switch {
		case strings.TrimSpace(opts.Query) != "":
			if err := printQuery(cmdCtx.Stdout, opts.Query, page); err != nil {
				return err
			}
		case opts.JSON:
			if err := writeJSON(cmdCtx.Stdout, page); err != nil {
				return err
			}
		default:
			if err := printUserTable(cmdCtx.Stdout, page); err != nil {
				return err
			}
		}
		if opts.Show != "" {
			return showCached(cmdCtx.Stdout, app, opts.Show)
		}
		return nil
	})
}

func runUsersShow(cmdCtx *commandContext, args []string) error {
	var opts listFlags
	fs := newFlagSet(cmdCtx, "users-show")
	bindListFlags(fs, &opts)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected exactly one user id")
	}
	id := fs.Arg(0)
	req, err := opts.request()
	if err != nil {
		return err
	}

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if _, err := app.Services.Admin.List(ctx, req); err != nil {
			return err
		}
		return showCached(cmdCtx.Stdout, app, id)
	})
}

func showCached(w io.Writer, app *bootstrap.App, id string) error {
	user, ok := app.Services.Admin.Cached(id)
	if !ok {
		return fmt.Errorf("user %s is not on the listed page", id)
	}
	return writeJSON(w, user)
}

// printQuery round trips the page through JSON so the expression sees wire field names.
func printQuery(w io.Writer, expr string, page *model.UserPage) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decode page: %w", err)
	}
	result, err := jmespath.Search(expr, data)
	if err != nil {
		return fmt.Errorf("evaluate query: %w", err)
	}
	return writeJSON(w, result)
}

func printUserTable(w io.Writer, page *model.UserPage) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "ID\tUSERNAME\tREAL NAME\tEMAIL\tSTATUS\tBAN ENDS\n"); err != nil {
		return err
	}
	for _, u := range page.Records {
		banEnd := "-"
		if u.BanEndTime != nil && *u.BanEndTime != "" {
			banEnd = *u.BanEndTime
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Username, dash(u.RealName), dash(u.Email), u.Status, banEnd); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	return writef(w, "\npage %d/%d, %d users total\n", page.Current, page.Pages, page.Total)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// optionalString records whether a string flag was set, so partial updates only send what
// the caller named.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

func (o *optionalString) ptr() *string {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

func runUsersCreate(cmdCtx *commandContext, args []string) error {
	var req model.CreateUserRequest
	fs := newFlagSet(cmdCtx, "users-create")
	fs.StringVar(&req.Username, "username", "", "login name (required)")
	fs.StringVar(&req.Password, "password", "", "initial password (required)")
	fs.StringVar(&req.Email, "email", "", "email address (required)")
	fs.StringVar(&req.RealName, "real-name", "", "display name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		user, err := app.Services.Admin.Create(ctx, req)
		if err != nil {
			return err
		}
		return writeJSON(cmdCtx.Stdout, user)
	})
}

func runUsersUpdate(cmdCtx *commandContext, args []string) error {
	var username, code, email, realName, avatar, status optionalString
	fs := newFlagSet(cmdCtx, "users-update")
	fs.Var(&username, "username", "new login name")
	fs.Var(&code, "code", "new user code")
	fs.Var(&email, "email", "new email address")
	fs.Var(&realName, "real-name", "new display name")
	fs.Var(&avatar, "avatar", "new avatar URL")
	fs.Var(&status, "status", "new status (0-3 or its label)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected exactly one user id")
	}
	id := model.ID(fs.Arg(0))

	req := model.UpdateUserRequest{
		Username: username.ptr(),
		UserCode: code.ptr(),
		Email:    email.ptr(),
		RealName: realName.ptr(),
		Avatar:   avatar.ptr(),
	}
	if status.set {
		s, ok := model.ParseUserStatus(status.value)
		if !ok {
			return usagef("invalid --status %q", status.value)
		}
		req.Status = &s
	}

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		user, err := app.Services.Admin.Update(ctx, id, req)
		if err != nil {
			return err
		}
		return writeJSON(cmdCtx.Stdout, user)
	})
}

var banDurations = map[string]model.BanStatus{
	"15d":       model.BanStatus15Days,
	"30d":       model.BanStatus30Days,
	"permanent": model.BanStatusForever,
	"1":         model.BanStatus15Days,
	"2":         model.BanStatus30Days,
	"3":         model.BanStatusForever,
}

func runUsersBan(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet(cmdCtx, "users-ban")
	duration := fs.String("duration", "15d", "15d, 30d or permanent")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected exactly one user id")
	}
	status, ok := banDurations[strings.ToLower(strings.TrimSpace(*duration))]
	if !ok {
		return usagef("invalid --duration %q", *duration)
	}
	id := model.ID(fs.Arg(0))

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if err := app.Services.Admin.Ban(ctx, id, status); err != nil {
			return err
		}
		return writef(cmdCtx.Stdout, "user %s banned (%s)\n", id, *duration)
	})
}

func runUsersUnban(cmdCtx *commandContext, args []string) error {
	return runUserAction(cmdCtx, "users-unban", args, "unbanned", func(ctx context.Context, app *bootstrap.App, id model.ID) error {
		return app.Services.Admin.Unban(ctx, id)
	})
}

func runUsersDelete(cmdCtx *commandContext, args []string) error {
	return runUserAction(cmdCtx, "users-delete", args, "deleted", func(ctx context.Context, app *bootstrap.App, id model.ID) error {
		return app.Services.Admin.Delete(ctx, id)
	})
}

func runUserAction(
	cmdCtx *commandContext,
	name string,
	args []string,
	verb string,
	action func(ctx context.Context, app *bootstrap.App, id model.ID) error,
) error {
	fs := newFlagSet(cmdCtx, name)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("expected exactly one user id")
	}
	id := model.ID(fs.Arg(0))

	return withSession(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if err := action(ctx, app, id); err != nil {
			return err
		}
		return writef(cmdCtx.Stdout, "user %s %s\n", id, verb)
	})
}
