// Package terminal renders the app's screens to a text terminal.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	domainauth "github.com/target/stalkcentral/internal/domain/auth"
	"github.com/target/stalkcentral/internal/ports"
)

const defaultDissolve = 300 * time.Millisecond

// ErrClosed is returned by drawing calls after Close.
var ErrClosed = errors.New("terminal: window closed")

// Options configures a Window.
type Options struct {
	Out io.Writer // defaults to os.Stdout
	// Dissolve is the pause between the faint and the full frame of a cross-dissolve.
	Dissolve time.Duration
	// Sleep replaces time.Sleep (tests).
	Sleep func(time.Duration)
}

// Window is a ports.Window that writes frames to Out.
type Window struct {
	mu       sync.Mutex
	out      io.Writer
	dissolve time.Duration
	sleep    func(time.Duration)
	closed   bool
	root     *domainauth.Screen

	frame  lipgloss.Style
	title  lipgloss.Style
	muted  lipgloss.Style
	action lipgloss.Style
	faint  lipgloss.Style
	link   lipgloss.Style
}

var _ ports.Window = (*Window)(nil)

// New constructs a live Window.
func New(opts Options) *Window {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	dissolve := opts.Dissolve
	if dissolve < 0 {
		dissolve = 0
	} else if dissolve == 0 {
		dissolve = defaultDissolve
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	r := lipgloss.NewRenderer(out)
	return &Window{
		out:      out,
		dissolve: dissolve,
		sleep:    sleep,
		frame: r.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#f56a96")).
			Padding(1, 3).
			Align(lipgloss.Center),
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#15202b")).
			Background(lipgloss.Color("#f56a96")).
			Padding(0, 1),
		muted: r.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#A49FA5"}),
		action: r.NewStyle().
			Foreground(lipgloss.Color("#56FF4E")),
		faint: r.NewStyle().Faint(true),
		link: r.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#7aa2f7")),
	}
}

// SetRoot draws screen. A cross-dissolve over an existing root draws a faint frame,
// waits Dissolve, then draws the full frame.
func (w *Window) SetRoot(screen domainauth.Screen, transition domainauth.Transition) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	body := w.render(screen)
	if transition == domainauth.TransitionCrossDissolve && w.root != nil {
		if _, err := fmt.Fprintln(w.out, w.faint.Render(body)); err != nil {
			return err
		}
		w.sleep(w.dissolve)
	}
	if _, err := fmt.Fprintln(w.out, body); err != nil {
		return err
	}
	s := screen
	w.root = &s
	return nil
}

// PresentAuthorization prints the provider URL for the user to open.
func (w *Window) PresentAuthorization(authURL string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	box := lipgloss.JoinVertical(lipgloss.Left,
		w.title.Render("Sign in with Apple"),
		"",
		"Open this link in your browser to continue:",
		w.link.Render(authURL),
	)
	_, err := fmt.Fprintln(w.out, w.frame.Align(lipgloss.Left).Render(box))
	return err
}

// Live reports whether the window has not been closed.
func (w *Window) Live() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed
}

// Root returns the screen currently displayed.
func (w *Window) Root() (domainauth.Screen, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.root == nil {
		return domainauth.Screen{}, false
	}
	return *w.root, true
}

// Close stops drawing; further calls fail with ErrClosed.
func (w *Window) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

func (w *Window) render(screen domainauth.Screen) string {
	var lines []string
	switch screen.Kind {
	case domainauth.ScreenHome:
		lines = w.homeLines(screen.User)
	default:
		lines = []string{
			w.title.Render("StalkCentral"),
			"",
			w.muted.Render("Sign in to keep your stalks in sync."),
			"",
			w.action.Render("[signin]") + " Sign in with Apple",
			w.action.Render("[guest]") + "  Continue as guest",
		}
	}
	return w.frame.Render(strings.Join(lines, "\n"))
}

func (w *Window) homeLines(u *domainauth.User) []string {
	who := "Guest"
	uid := ""
	if u != nil {
		uid = u.UID
		if u.Email != "" {
			who = u.Email
		}
	}
	return []string{
		w.title.Render("StalkCentral"),
		"",
		"Signed in as " + who,
		w.muted.Render(uid),
		"",
		w.action.Render("[logout]") + " Log out",
	}
}
