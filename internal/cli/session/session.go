// Package session holds the single source of truth for whether this client is
// authenticated.
//
// A Container moves through Uninitialized → Loading → Authenticated or
// Anonymous. Authenticated goes back to Loading on login or register, and to
// Anonymous on logout. A 401 seen by the HTTP client clears the stored
// credentials; the next Initialize reflects that.
//
// Every state change replaces the whole Snapshot. Readers get copies.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/credentials"
)

// ErrIncompleteCredentials is returned when login succeeds but the server
// does not hand out both a token and an API key.
var ErrIncompleteCredentials = errors.New("server did not return both a token and an API key")

var errEmptyProfile = errors.New("identity endpoint returned no user")

// State is the lifecycle position of the session
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is an immutable view of the session
type Snapshot struct {
	User            *client.User
	IsAuthenticated bool
	IsLoading       bool
	State           State
}

// Resolved reports whether initialization has settled
func (s Snapshot) Resolved() bool {
	return s.State == StateAuthenticated || s.State == StateAnonymous
}

// Seed is pre-hydrated state adopted by Initialize without a network call
type Seed struct {
	User            *client.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// API is the subset of the HTTP client the container drives
type API interface {
	Login(ctx context.Context, email, password string) (*client.AuthResponse, error)
	Register(ctx context.Context, name, email, password string) (*client.AuthResponse, error)
	Me(ctx context.Context) (*client.User, error)
	Logout(ctx context.Context) error
	SetToken(token string) error
	SetAPIKey(apiKey string) error
	ClearAuth() error
}

// Store is the credential store as seen by the container
type Store interface {
	Available() bool
	Credentials() credentials.Credentials
	SaveJSON(name string, v any) error
	LoadJSON(name string, v any) bool
}

// Container is the auth state machine. One per process.
type Container struct {
	api    API
	store  Store
	logger zerolog.Logger

	mu      sync.RWMutex
	state   Snapshot
	closed  bool
	subs    map[int]chan Snapshot
	nextSub int

	inflight singleflight.Group
}

// New creates a container in the Uninitialized state
func New(api API, store Store, logger zerolog.Logger) *Container {
	return &Container{
		api:    api,
		store:  store,
		logger: logger.With().Str("component", "session").Logger(),
		subs:   make(map[int]chan Snapshot),
	}
}

// Snapshot returns a copy of the current state
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clone(c.state)
}

// Subscribe delivers every subsequent state change. Slow readers only see
// the latest value. Call the returned func to unsubscribe.
func (c *Container) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Snapshot, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

// Close tears the container down. State writes that land afterwards, such as
// a late identity response, are dropped.
func (c *Container) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

func (c *Container) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// set swaps in a new snapshot and notifies subscribers
func (c *Container) set(next Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Debug().Str("state", next.State.String()).Msg("Dropping state write after close")
		return
	}
	c.state = clone(next)

	for _, ch := range c.subs {
		select {
		case ch <- clone(next):
		default:
			// replace the unread value with the newer one
			select {
			case <-ch:
			default:
			}
			ch <- clone(next)
		}
	}
}

func (c *Container) setLoading() {
	cur := c.Snapshot()
	cur.IsLoading = true
	cur.State = StateLoading
	c.set(cur)
}

func anonymous() Snapshot {
	return Snapshot{State: StateAnonymous}
}

func authenticated(user *client.User) Snapshot {
	return Snapshot{User: user, IsAuthenticated: true, State: StateAuthenticated}
}

func clone(s Snapshot) Snapshot {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
