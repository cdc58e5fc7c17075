package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/target/mmk-user-module/config"
	"github.com/target/mmk-user-module/internal/bootstrap"
	apperrors "github.com/target/mmk-user-module/internal/errors"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdout io.Writer
	Stderr io.Writer

	// newApp is swapped in tests to inject a Redis client or HTTP client.
	newApp func(ctx context.Context, opts bootstrap.AppOptions) (*bootstrap.App, error)
}

// usageError marks failures caused by how the command was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	cfg, cfgErr := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.LogLevel, cfg.IsDev)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	if cfgErr != nil {
		logger.ErrorContext(context.Background(), "load config", "error", cfgErr)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	os.Exit(execute(cmdCtx, cmd, os.Args[2:])) //nolint:forbidigo // exit status reports the command outcome
}

// execute runs cmd and maps its error to an exit status: 0 on success, 2 for usage
// errors and 1 for everything else.
func execute(cmdCtx *commandContext, cmd command, args []string) int {
	err := cmd.run(cmdCtx, args)
	if err == nil {
		return 0
	}
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	var uerr usageError
	if errors.As(err, &uerr) {
		_ = writef(cmdCtx.Stderr, "%s: %v\n", cmd.name, uerr)
		return 2
	}
	cmdCtx.Logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmd.name, "error", err)
	if printErr := printError(cmdCtx.Stderr, err); printErr != nil {
		cmdCtx.Logger.Error("print error failed", "error", printErr)
	}
	return 1
}

// printError writes the normalized form of err as a single JSON line.
func printError(w io.Writer, err error) error {
	enc := json.NewEncoder(w)
	if encErr := enc.Encode(apperrors.Normalize(err)); encErr != nil {
		return fmt.Errorf("encode error: %w", encErr)
	}
	return nil
}

func commands() map[string]command {
	list := []command{
		{name: "users-list", description: "List users (admin) with paging, filters and an optional JMESPath query", run: runUsersList},
		{name: "users-show", description: "List a page and print one user from the local cache", run: runUsersShow},
		{name: "users-create", description: "Create a user (admin)", run: runUsersCreate},
		{name: "users-update", description: "Update a user (admin)", run: runUsersUpdate},
		{name: "users-ban", description: "Ban a user for 15 days, 30 days or permanently (admin)", run: runUsersBan},
		{name: "users-unban", description: "Lift a ban (admin)", run: runUsersUnban},
		{name: "users-delete", description: "Delete a user (admin)", run: runUsersDelete},
		{name: "me", description: "Show the signed-in user's profile and avatar", run: runMe},
		{name: "me-update", description: "Update the signed-in user's profile", run: runMeUpdate},
		{name: "me-deactivate", description: "Deactivate the signed-in user's account", run: runMeDeactivate},
		{name: "send-code", description: "Send an email verification code", run: runSendCode},
		{name: "avatar-upload-url", description: "Get a presigned avatar upload target", run: runAvatarUploadURL},
		{name: "avatar-view", description: "Resolve a file id to its view URL", run: runAvatarView},
		{name: "session-status", description: "Show the persisted session", run: runSessionStatus},
		{name: "session-login", description: "Store a token and user info as the signed-in session", run: runSessionLogin},
		{name: "session-logout", description: "Clear the signed-in session", run: runSessionLogout},
		{name: "watch", description: "Mirror the host's global state until interrupted", run: runWatch},
		{name: "host-publish", description: "Publish a global state on the Redis host", run: runHostPublish},
	}
	out := make(map[string]command, len(list))
	for _, c := range list {
		out[c.name] = c
	}
	return out
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: mmk-user <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-20s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// newFlagSet returns a flag set whose parse errors are reported as usage errors.
func newFlagSet(cmdCtx *commandContext, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cmdCtx.Stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err: err}
	}
	return nil
}
