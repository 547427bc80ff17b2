package credentials

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestKeyringStorage(t *testing.T) {
	keyring.MockInit()

	store := NewStore(NewKeyringStorage("https://a.example.com"), zerolog.Nop())
	other := NewStore(NewKeyringStorage("https://b.example.com"), zerolog.Nop())
	require.True(t, store.Available())

	require.NoError(t, store.Set(KeyToken, "t1"))
	require.NoError(t, store.Set(KeyAPIKey, "k1"))
	assert.Equal(t, Credentials{Token: "t1", APIKey: "k1"}, store.Credentials())
	assert.Equal(t, Credentials{}, other.Credentials())

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	assert.Equal(t, Credentials{}, store.Credentials())
}

func TestKeyringStorage_UnavailableKeyring(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service"))
	t.Cleanup(keyring.MockInit)

	storage := NewKeyringStorage("https://a.example.com")
	assert.False(t, storage.Available())

	// the store treats it like any storage that cannot persist
	store := NewStore(storage, zerolog.Nop())
	require.NoError(t, store.Set(KeyToken, "t1"))
	assert.Equal(t, "", store.Get(KeyToken))
}
