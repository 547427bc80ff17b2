package session

import (
	"context"

	"github.com/llmadmin-dev/llmadmin/internal/cli/credentials"
)

const initializeKey = "initialize"

// Initialize resolves the session and returns the settled snapshot. It never
// fails: any problem resolves to Anonymous.
//
// A non-nil seed is adopted verbatim without touching the network. Without a
// seed the stored credentials are checked against the identity endpoint.
// Concurrent callers share one in-flight resolution.
func (c *Container) Initialize(ctx context.Context, seed *Seed) Snapshot {
	if seed != nil {
		c.logger.Debug().Bool("authenticated", seed.IsAuthenticated).Msg("Using seeded state")
		next := Snapshot{User: seed.User, IsAuthenticated: seed.IsAuthenticated, State: StateAnonymous}
		if seed.IsAuthenticated {
			next.State = StateAuthenticated
		}
		c.set(next)
		return c.Snapshot()
	}

	if !c.store.Available() {
		c.logger.Debug().Msg("No credential storage in this context, skipping initialization")
		cur := c.Snapshot()
		cur.IsLoading = false
		if !cur.Resolved() {
			cur = anonymous()
		}
		c.set(cur)
		return c.Snapshot()
	}

	// the shared resolution must outlive any single caller
	shared := context.WithoutCancel(ctx)
	v, _, _ := c.inflight.Do(initializeKey, func() (any, error) {
		return c.resolve(shared), nil
	})
	// every caller gets its own copy of the shared result
	return clone(v.(Snapshot))
}

func (c *Container) resolve(ctx context.Context) Snapshot {
	c.setLoading()

	creds := c.store.Credentials()
	if !creds.Complete() {
		if creds.Token != "" || creds.APIKey != "" {
			c.logger.Info().
				Bool("has_token", creds.Token != "").
				Bool("has_api_key", creds.APIKey != "").
				Msg("Discarding partial credentials")
			if err := c.api.ClearAuth(); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to discard partial credentials")
			}
		} else {
			c.logger.Debug().Msg("No credentials found")
		}
		c.set(anonymous())
		return c.Snapshot()
	}

	if err := c.adopt(creds.Token, creds.APIKey); err != nil {
		return c.fail(err)
	}

	user, err := c.api.Me(ctx)
	if err != nil {
		return c.fail(err)
	}
	if user == nil {
		return c.fail(errEmptyProfile)
	}

	c.set(authenticated(user))
	c.persistSnapshot()
	c.logger.Debug().Str("user_id", user.ID).Msg("Session restored")
	return c.Snapshot()
}

// fail clears credentials and resolves Anonymous
func (c *Container) fail(err error) Snapshot {
	c.logger.Info().Err(err).Msg("Stored credentials rejected, clearing session")
	if clearErr := c.api.ClearAuth(); clearErr != nil {
		c.logger.Warn().Err(clearErr).Msg("Failed to clear credentials")
	}
	c.set(anonymous())
	return c.Snapshot()
}

func (c *Container) adopt(token, apiKey string) error {
	if err := c.api.SetToken(token); err != nil {
		return err
	}
	return c.api.SetAPIKey(apiKey)
}

// Login authenticates and persists both credentials. On failure the session
// is Anonymous and the error is returned for the caller to present.
func (c *Container) Login(ctx context.Context, email, password string) error {
	c.setLoading()

	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.set(anonymous())
		return err
	}
	if resp == nil || resp.Token == "" || resp.APIKey == "" {
		c.set(anonymous())
		return ErrIncompleteCredentials
	}

	if err := c.adopt(resp.Token, resp.APIKey); err != nil {
		_ = c.api.ClearAuth()
		c.set(anonymous())
		return err
	}

	user := resp.User
	c.set(authenticated(&user))
	c.persistSnapshot()
	c.logger.Info().Str("user_id", user.ID).Msg("Logged in")
	return nil
}

// Logout tells the server (best effort) and then always clears local state
func (c *Container) Logout(ctx context.Context) {
	c.setLoading()

	defer func() {
		if err := c.api.ClearAuth(); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to clear credentials on logout")
		}
		c.set(anonymous())
	}()

	if err := c.api.Logout(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Logout request failed, clearing local session anyway")
	}
}

// Register creates an account and keeps any issued credentials. It does not
// authenticate the session; the caller decides whether to log in next.
func (c *Container) Register(ctx context.Context, email, password, name string) error {
	prev := c.Snapshot()
	c.setLoading()

	restore := func() {
		prev.IsLoading = false
		if !prev.Resolved() {
			prev = anonymous()
		}
		c.set(prev)
	}

	resp, err := c.api.Register(ctx, name, email, password)
	if err != nil {
		restore()
		return err
	}

	if resp != nil && resp.Token != "" && resp.APIKey != "" {
		if err := c.adopt(resp.Token, resp.APIKey); err != nil {
			restore()
			return err
		}
	}

	restore()
	return nil
}

// CachedSeed returns the last persisted {user, isAuthenticated} snapshot.
// It is what the session looked like, not a verified session.
func (c *Container) CachedSeed() (*Seed, bool) {
	var seed Seed
	if !c.store.LoadJSON(credentials.KeySnapshot, &seed) {
		return nil, false
	}
	return &seed, true
}

func (c *Container) persistSnapshot() {
	if c.isClosed() {
		return
	}
	snap := c.Snapshot()
	seed := Seed{User: snap.User, IsAuthenticated: snap.IsAuthenticated}
	if err := c.store.SaveJSON(credentials.KeySnapshot, seed); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to persist session snapshot")
	}
}
