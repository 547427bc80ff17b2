// Package provider exposes the session to commands and chains navigation
// after login, logout and register.
package provider

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/nav"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

// ErrNoProvider means auth state was requested outside a provider
var ErrNoProvider = errors.New("auth state requested outside of a provider")

// Provider wraps the session container for a single front end
type Provider struct {
	container *session.Container
	navigator nav.Navigator
	logger    zerolog.Logger

	mountOnce sync.Once
	ready     chan struct{}
}

// New creates a provider around container. A nil navigator discards
// navigation.
func New(container *session.Container, navigator nav.Navigator, logger zerolog.Logger) *Provider {
	if navigator == nil {
		navigator = nav.Discard
	}
	return &Provider{
		container: container,
		navigator: navigator,
		logger:    logger.With().Str("component", "provider").Logger(),
		ready:     make(chan struct{}),
	}
}

// Mount runs initialization once. User-triggered actions wait for it.
// Later calls return the current snapshot without initializing again.
func (p *Provider) Mount(ctx context.Context, seed *session.Seed) session.Snapshot {
	mounted := false
	p.mountOnce.Do(func() {
		defer close(p.ready)
		updates, _ := p.container.Subscribe()
		go p.trace(updates)
		p.container.Initialize(ctx, seed)
		mounted = true
	})
	if !mounted {
		p.logger.Debug().Msg("Provider already mounted")
	}
	return p.container.Snapshot()
}

// Unmount tears the session down. Results of calls still in flight are
// dropped and tracing stops. Safe to call more than once.
func (p *Provider) Unmount() {
	p.container.Close()
}

// trace logs state transitions until the container is closed
func (p *Provider) trace(updates <-chan session.Snapshot) {
	for snap := range updates {
		p.logger.Debug().
			Str("state", snap.State.String()).
			Bool("authenticated", snap.IsAuthenticated).
			Msg("Session state changed")
	}
}

// Mounted reports whether mount-time initialization has finished
func (p *Provider) Mounted() bool {
	select {
	case <-p.ready:
		return true
	default:
		return false
	}
}

func (p *Provider) awaitMount(ctx context.Context) error {
	select {
	case <-p.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) Snapshot() session.Snapshot { return p.container.Snapshot() }

func (p *Provider) User() *client.User { return p.container.Snapshot().User }

func (p *Provider) IsLoading() bool { return p.container.Snapshot().IsLoading }

func (p *Provider) IsAuthenticated() bool { return p.container.Snapshot().IsAuthenticated }

// CheckAuth resolves the session. The first call mounts the provider.
func (p *Provider) CheckAuth(ctx context.Context) session.Snapshot {
	if !p.Mounted() {
		return p.Mount(ctx, nil)
	}
	return p.container.Initialize(ctx, nil)
}

// Login signs in and navigates to the dashboard on success
func (p *Provider) Login(ctx context.Context, email, password string) error {
	if err := p.awaitMount(ctx); err != nil {
		return err
	}
	if err := p.container.Login(ctx, email, password); err != nil {
		return err
	}
	p.navigator.Navigate(nav.RouteDashboard)
	return nil
}

// Logout always ends on the login route
func (p *Provider) Logout(ctx context.Context) {
	p.container.Logout(ctx)
	p.navigator.Navigate(nav.RouteLogin)
}

// Register creates the account and navigates to login on success
func (p *Provider) Register(ctx context.Context, email, password, name string) error {
	if err := p.awaitMount(ctx); err != nil {
		return err
	}
	if err := p.container.Register(ctx, email, password, name); err != nil {
		return err
	}
	p.navigator.Navigate(nav.RouteLogin)
	return nil
}

// CachedSeed returns the last persisted session snapshot, unverified
func (p *Provider) CachedSeed() (*session.Seed, bool) {
	return p.container.CachedSeed()
}

type contextKey struct{}

// WithProvider attaches p to ctx
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the provider attached to ctx
func FromContext(ctx context.Context) (*Provider, error) {
	p, ok := ctx.Value(contextKey{}).(*Provider)
	if !ok || p == nil {
		return nil, ErrNoProvider
	}
	return p, nil
}

// MustFromContext is FromContext for code that cannot run without a provider
func MustFromContext(ctx context.Context) *Provider {
	p, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return p
}
