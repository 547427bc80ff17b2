package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "llmadmin version dev\n", out.String())
}

func TestOfflineCommandsSkipBootstrap(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"version", "init", "select-server", "dash"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, "true", cmd.Annotations[offline], name)
	}

	for _, name := range []string{"login", "logout", "register", "whoami", "users", "groups", "quotas", "profile", "metrics"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Empty(t, cmd.Annotations[offline], name)
	}
}

func TestProtectedCommandBootstrapsFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("LLMADMIN_API_URL", "http://127.0.0.1:1")
	t.Setenv("LLMADMIN_CREDENTIAL_BACKEND", "memory")

	cmd := NewRootCmd()
	errOut := &bytes.Buffer{}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"whoami"})

	// nothing stored: the guard stops before any request is made
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
	assert.Contains(t, errOut.String(), "llmadmin login")
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"server", "output", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "s", cmd.PersistentFlags().Lookup("server").Shorthand)
}
