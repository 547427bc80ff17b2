package guard

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/nav"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

type checkerFunc func(ctx context.Context) session.Snapshot

func (f checkerFunc) CheckAuth(ctx context.Context) session.Snapshot { return f(ctx) }

func resolved(authenticated bool) session.Snapshot {
	if authenticated {
		return session.Snapshot{User: &client.User{ID: "1"}, IsAuthenticated: true, State: session.StateAuthenticated}
	}
	return session.Snapshot{State: session.StateAnonymous}
}

func TestRun_BlocksWhileLoading(t *testing.T) {
	release := make(chan struct{})
	checker := checkerFunc(func(context.Context) session.Snapshot {
		<-release
		return resolved(true)
	})

	var buf bytes.Buffer
	indicator := NewTextIndicator(&buf, "Checking session...")
	g := New(checker, WithIndicator(indicator))

	var ran atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- g.Run(context.Background(), func(context.Context, session.Snapshot) error {
			ran.Store(true)
			return nil
		})
	}()

	require.Eventually(t, indicator.Active, time.Second, 5*time.Millisecond)
	assert.False(t, ran.Load(), "protected work ran before auth resolved")

	close(release)
	require.NoError(t, <-done)
	assert.True(t, ran.Load())
	assert.False(t, indicator.Active())
	assert.Contains(t, buf.String(), "Checking session...")
}

func TestRun_Anonymous(t *testing.T) {
	recorder := &nav.Recorder{}
	g := New(checkerFunc(func(context.Context) session.Snapshot { return resolved(false) }), WithNavigator(recorder))

	err := g.Run(context.Background(), func(context.Context, session.Snapshot) error {
		t.Fatal("protected work must not run")
		return nil
	})

	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, nav.RouteLogin, recorder.Last())
}

func TestRun_NeverSettled(t *testing.T) {
	stuck := session.Snapshot{IsLoading: true, State: session.StateLoading}
	g := New(checkerFunc(func(context.Context) session.Snapshot { return stuck }))

	err := g.Run(context.Background(), func(context.Context, session.Snapshot) error {
		t.Fatal("protected work must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRun_PassesSnapshotAndError(t *testing.T) {
	g := New(checkerFunc(func(context.Context) session.Snapshot { return resolved(true) }))
	boom := errors.New("boom")

	err := g.Run(context.Background(), func(_ context.Context, snap session.Snapshot) error {
		assert.Equal(t, "1", snap.User.ID)
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRun_ChecksOnEveryRun(t *testing.T) {
	var calls atomic.Int32
	g := New(checkerFunc(func(context.Context) session.Snapshot {
		calls.Add(1)
		return resolved(true)
	}))

	noop := func(context.Context, session.Snapshot) error { return nil }
	require.NoError(t, g.Run(context.Background(), noop))
	require.NoError(t, g.Run(context.Background(), noop))
	assert.Equal(t, int32(2), calls.Load())
}

func TestWrap(t *testing.T) {
	g := New(checkerFunc(func(context.Context) session.Snapshot { return resolved(true) }))

	var gotArgs []string
	cmd := &cobra.Command{
		Use: "test",
		RunE: g.Wrap(func(cmd *cobra.Command, args []string, snap session.Snapshot) error {
			gotArgs = args
			assert.True(t, snap.IsAuthenticated)
			return nil
		}),
	}
	cmd.SetArgs([]string{"a", "b"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, []string{"a", "b"}, gotArgs)
}
