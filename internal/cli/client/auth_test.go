package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmadmin-dev/llmadmin/internal/cli/credentials"
)

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)
		assert.Equal(t, "secret1", req.Password)

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"user":{"id":"1","email":"a@b.com","name":"A","role":"admin"},"token":"t1","apiKey":"k1"}`))
	}))
	defer server.Close()

	store := newTestStore(t, "", "")
	c := New(server.URL, store)

	resp, err := c.Login(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.Token)
	assert.Equal(t, "k1", resp.APIKey)
	assert.Equal(t, "a@b.com", resp.User.Email)
	assert.True(t, resp.User.IsAdmin())

	// persistence belongs to the session container
	assert.Equal(t, credentials.Credentials{}, store.Credentials())
}

func TestAuthResponse_SnakeCaseFields(t *testing.T) {
	var resp AuthResponse
	err := json.Unmarshal([]byte(`{
		"access_token": "jwt",
		"token_type": "bearer",
		"api_key": "llm_abc",
		"refresh_token": "r1",
		"user": {"id": "u1", "email": "x@y.com", "name": "X", "role": "USER"}
	}`), &resp)
	require.NoError(t, err)

	assert.Equal(t, "jwt", resp.Token)
	assert.Equal(t, "llm_abc", resp.APIKey)
	assert.Equal(t, "r1", resp.RefreshToken)
	assert.Equal(t, "u1", resp.User.ID)
	assert.False(t, resp.User.IsAdmin())
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)

		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Ana", req.Name)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(AuthResponse{
			User:   User{ID: "2", Email: req.Email, Name: req.Name, Role: "user"},
			Token:  "t2",
			APIKey: "k2",
		})
	}))
	defer server.Close()

	c := New(server.URL, newTestStore(t, "", ""))
	resp, err := c.Register(context.Background(), "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "t2", resp.Token)
	assert.Equal(t, "ana@example.com", resp.User.Email)
}

func TestMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/auth/me", r.URL.Path)
		if r.Header.Get(HeaderAuthorization) != "Bearer t1" || r.Header.Get(HeaderAPIKey) != "k1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(User{ID: "1", Email: "a@b.com", Name: "A", Role: "user"})
	}))
	defer server.Close()

	c := New(server.URL, newTestStore(t, "t1", "k1"))
	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)
}

func TestLogout(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/logout", r.URL.Path)
		called = true
		_, _ = w.Write([]byte(`{"message":"Successfully logged out"}`))
	}))
	defer server.Close()

	c := New(server.URL, newTestStore(t, "t1", "k1"))
	require.NoError(t, c.Logout(context.Background()))
	assert.True(t, called)
}
