package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	apperrors "github.com/target/stalkcentral/internal/errors"
	"github.com/target/stalkcentral/internal/observability/metrics"
	"github.com/target/stalkcentral/internal/observability/statsd"
	"github.com/target/stalkcentral/internal/service"
)

type sessionControl interface {
	State() domainauth.SessionState
	LoginAnonymously(ctx context.Context) (domainauth.Principal, error)
	Logout(ctx context.Context) error
}

type signInControl interface {
	BeginSignIn(ctx context.Context, scopes ...domainauth.Scope) error
	Phase() service.Phase
	LastOutcome() service.Outcome
	Busy() bool
}

var errQuit = errors.New("quit")

type commandFn func(ctx context.Context, s *shell, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type shellConfig struct {
	In      io.Reader
	Out     io.Writer
	Session sessionControl
	Login   signInControl
	// Metrics is nil when metrics go to StatsD.
	Metrics *statsd.Recorder
	Logger  *slog.Logger
}

// shell reads commands from In, one per line.
type shell struct {
	cfg      shellConfig
	commands map[string]command
}

func newShell(cfg shellConfig) *shell {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &shell{cfg: cfg, commands: commands()}
}

func commands() map[string]command {
	return map[string]command{
		"signin": {
			name:        "signin",
			description: "Sign in with Apple, optionally naming scopes (email, name)",
			run:         runSignIn,
		},
		"guest": {
			name:        "guest",
			description: "Continue without an account",
			run:         runGuest,
		},
		"logout": {
			name:        "logout",
			description: "Sign out",
			run:         runLogout,
		},
		"status": {
			name:        "status",
			description: "Show the session and the current sign-in attempt",
			run:         runStatus,
		},
		"help": {
			name:        "help",
			description: "List commands",
			run:         runHelp,
		},
		"quit": {
			name:        "quit",
			description: "Exit",
			run:         func(context.Context, *shell, []string) error { return errQuit },
		},
	}
}

// Run processes commands until quit, end of input, or ctx is done.
// Command failures are reported and do not end the shell.
func (s *shell) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.cfg.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if err := s.exec(ctx, line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	if name == "exit" {
		name = "quit"
	}
	cmd, ok := s.commands[name]
	if !ok {
		return writef(s.cfg.Out, "unknown command %q, type help for a list\n", fields[0])
	}
	err := cmd.run(ctx, s, fields[1:])
	if err == nil || errors.Is(err, errQuit) {
		return err
	}
	s.cfg.Logger.DebugContext(ctx, "command failed", "command", name, "error", err)
	return writef(s.cfg.Out, "%s: %s\n", name, describeError(err))
}

func describeError(err error) string {
	if apperrors.IsUserCancelled(err) {
		return "cancelled"
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

func runSignIn(ctx context.Context, s *shell, args []string) error {
	if s.cfg.Login == nil {
		return errors.New("sign in is not available")
	}
	var scopes []domainauth.Scope
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
				scopes = append(scopes, domainauth.Scope(part))
			}
		}
	}
	if err := s.cfg.Login.BeginSignIn(ctx, scopes...); err != nil {
		return err
	}
	return writeln(s.cfg.Out, "sign in started")
}

func runGuest(ctx context.Context, s *shell, _ []string) error {
	p, err := s.cfg.Session.LoginAnonymously(ctx)
	if err != nil {
		return err
	}
	return writef(s.cfg.Out, "signed in as guest %s\n", p.UID)
}

func runLogout(ctx context.Context, s *shell, _ []string) error {
	if err := s.cfg.Session.Logout(ctx); err != nil {
		return err
	}
	return writeln(s.cfg.Out, "signed out")
}

func runStatus(_ context.Context, s *shell, _ []string) error {
	state := s.cfg.Session.State()
	w := s.cfg.Out
	switch {
	case state.User == nil:
		if err := writeln(w, "session:   signed out"); err != nil {
			return err
		}
	case state.User.Email == "":
		if err := writef(w, "session:   %s (no email)\n", state.User.UID); err != nil {
			return err
		}
	default:
		if err := writef(w, "session:   %s <%s>\n", state.User.UID, state.User.Email); err != nil {
			return err
		}
	}
	if l := s.cfg.Login; l != nil {
		if err := writef(w, "sign in:   %s (busy=%t, last=%s)\n", l.Phase(), l.Busy(), l.LastOutcome()); err != nil {
			return err
		}
	}
	if rec := s.cfg.Metrics; rec != nil {
		for _, name := range []string{metrics.SignInAttempt, metrics.AnonymousLogin, metrics.Logout, metrics.SessionTransition} {
			if err := writef(w, "  %-28s %d\n", name, rec.Total(name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func runHelp(_ context.Context, s *shell, _ []string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	if err := writeln(s.cfg.Out, "Available commands:"); err != nil {
		return err
	}
	for _, name := range names {
		if err := writef(s.cfg.Out, "  %-8s %s\n", name, s.commands[name].description); err != nil {
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
