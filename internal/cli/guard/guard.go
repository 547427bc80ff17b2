// Package guard gates protected work on a resolved, authenticated session.
package guard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/llmadmin-dev/llmadmin/internal/cli/nav"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

// ErrUnauthenticated is returned when the session resolved without a user
var ErrUnauthenticated = errors.New("not logged in")

// Checker resolves the session. CheckAuth blocks until it has settled.
type Checker interface {
	CheckAuth(ctx context.Context) session.Snapshot
}

// Indicator is shown while the session is resolving
type Indicator interface {
	Start()
	Stop()
}

// Protected is work that only runs for an authenticated session
type Protected func(ctx context.Context, snap session.Snapshot) error

// Guard blocks protected work until authentication has resolved
type Guard struct {
	checker   Checker
	indicator Indicator
	navigator nav.Navigator
}

// Option configures a Guard
type Option func(*Guard)

// WithIndicator sets the loading indicator
func WithIndicator(i Indicator) Option {
	return func(g *Guard) { g.indicator = i }
}

// WithNavigator sets where an anonymous session is sent
func WithNavigator(n nav.Navigator) Option {
	return func(g *Guard) { g.navigator = n }
}

// New creates a guard over checker. Without options it shows no indicator
// and does not navigate.
func New(checker Checker, opts ...Option) *Guard {
	g := &Guard{
		checker:   checker,
		indicator: nopIndicator{},
		navigator: nav.Discard,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run checks auth and then runs protected if, and only if, the session
// resolved authenticated.
func (g *Guard) Run(ctx context.Context, protected Protected) error {
	g.indicator.Start()
	snap := g.checker.CheckAuth(ctx)
	g.indicator.Stop()

	if snap.IsLoading || !snap.Resolved() {
		// a torn-down container never settles; nothing protected runs
		return ErrUnauthenticated
	}
	if !snap.IsAuthenticated {
		g.navigator.Navigate(nav.RouteLogin)
		return ErrUnauthenticated
	}
	return protected(ctx, snap)
}

// Wrap adapts protected work to a cobra RunE
func (g *Guard) Wrap(fn func(cmd *cobra.Command, args []string, snap session.Snapshot) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return g.Run(cmd.Context(), func(_ context.Context, snap session.Snapshot) error {
			return fn(cmd, args, snap)
		})
	}
}

type nopIndicator struct{}

func (nopIndicator) Start() {}
func (nopIndicator) Stop()  {}

// TextIndicator writes a status line while the session resolves
type TextIndicator struct {
	mu      sync.Mutex
	out     io.Writer
	message string
	active  bool
}

// NewTextIndicator creates an indicator that prints message to out
func NewTextIndicator(out io.Writer, message string) *TextIndicator {
	return &TextIndicator{out: out, message: message}
}

func (t *TextIndicator) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active {
		return
	}
	t.active = true
	fmt.Fprintf(t.out, "%s\r", t.message)
}

func (t *TextIndicator) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.active = false
	// blank out the status line
	fmt.Fprintf(t.out, "%*s\r", len(t.message), "")
}

// Active reports whether the indicator is showing
func (t *TextIndicator) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
