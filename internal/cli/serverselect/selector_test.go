package serverselect

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmadmin-dev/llmadmin/internal/cli/config"
	"github.com/llmadmin-dev/llmadmin/internal/cli/userconfig"
)

func setup(t *testing.T, pick func(*config.Config) (*config.Server, error)) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	prev := promptSelection
	promptSelection = pick
	warnOut = io.Discard
	t.Cleanup(func() { promptSelection = prev })
}

func noPrompt(t *testing.T) func(*config.Config) (*config.Server, error) {
	return func(*config.Config) (*config.Server, error) {
		t.Fatal("prompt must not be shown")
		return nil, nil
	}
}

var twoServers = &config.Config{Servers: []config.Server{
	{URL: "https://prod.example.com", Alias: "prod"},
	{URL: "http://localhost:8000", Alias: "local"},
}}

func TestResolveServer_Flag(t *testing.T) {
	setup(t, noPrompt(t))

	s, err := ResolveServer(twoServers, "local")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", s.URL)

	_, err = ResolveServer(twoServers, "staging")
	assert.Error(t, err)
}

func TestResolveServer_SavedSelection(t *testing.T) {
	setup(t, noPrompt(t))
	require.NoError(t, userconfig.SetSelectedServer("https://prod.example.com"))

	s, err := ResolveServer(twoServers, "")
	require.NoError(t, err)
	assert.Equal(t, "prod", s.Alias)
}

func TestResolveServer_StaleSelectionIsCleared(t *testing.T) {
	setup(t, func(cfg *config.Config) (*config.Server, error) { return &cfg.Servers[1], nil })
	require.NoError(t, userconfig.SetSelectedServer("https://gone.example.com"))

	s, err := ResolveServer(twoServers, "")
	require.NoError(t, err)
	assert.Equal(t, "local", s.Alias)

	saved, err := userconfig.GetSelectedServer()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", saved)
}

func TestResolveServer_SingleServer(t *testing.T) {
	setup(t, noPrompt(t))
	cfg := &config.Config{Servers: []config.Server{{URL: "http://localhost:8000", Alias: "default"}}}

	s, err := ResolveServer(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, "default", s.Alias)

	saved, _ := userconfig.GetSelectedServer()
	assert.Equal(t, "http://localhost:8000", saved)
}

func TestResolveServer_PromptCancelled(t *testing.T) {
	cancelled := errors.New("server selection cancelled")
	setup(t, func(*config.Config) (*config.Server, error) { return nil, cancelled })

	_, err := ResolveServer(twoServers, "")
	assert.ErrorIs(t, err, cancelled)
}

func TestPromptServerSelection_NoServers(t *testing.T) {
	_, err := PromptServerSelection(&config.Config{})
	assert.ErrorContains(t, err, "no servers configured")
}
