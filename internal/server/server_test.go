package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmadmin-dev/llmadmin/internal/auth"
	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/config"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

type fakeBackend struct {
	*httptest.Server
	token        string
	logoutCalls  atomic.Int32
	sawCookieHdr atomic.Bool
}

// newBackend serves the auth API. token/k1 is the only accepted pair.
func newBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{token: signToken(t, testSecret, time.Hour)}

	authorized := func(r *http.Request) bool {
		return r.Header.Get(client.HeaderAuthorization) == "Bearer "+b.token &&
			r.Header.Get(client.HeaderAPIKey) == "k1"
	}

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "" {
			b.sawCookieHdr.Store(true)
		}
		switch r.URL.Path {
		case "/api/auth/login":
			var req client.LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Password != "secret1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
				return
			}
			_, _ = w.Write([]byte(`{"user":{"id":"1","email":"a@b.com","name":"Ada","role":"admin"},"token":"` + b.token + `","apiKey":"k1"}`))
		case "/api/auth/register":
			var req client.RegisterRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Email == "taken@b.com" {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"detail":"Email already registered"}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"user":{"id":"2","email":"` + req.Email + `","name":"` + req.Name + `","role":"user"},"token":"t2","apiKey":"k2"}`))
		case "/api/auth/me":
			if !authorized(r) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":"1","email":"a@b.com","name":"Ada","role":"admin"}`))
		case "/api/auth/logout":
			b.logoutCalls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/users":
			if !authorized(r) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(b.Close)
	return b
}

func newTestServer(t *testing.T, backendURL string, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := &config.Config{
		API: config.APIConfig{URL: backendURL, Timeout: 5 * time.Second},
		Gateway: config.GatewayConfig{
			ListenAddr:     ":0",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
	for _, m := range mutate {
		m(cfg)
	}
	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func withSession(req *http.Request, token, apiKey string) *http.Request {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieToken, Value: token})
	}
	if apiKey != "" {
		req.AddCookie(&http.Cookie{Name: cookieAPIKey, Value: apiKey})
	}
	return req
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func assertCleared(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	for _, name := range []string{cookieToken, cookieAPIKey} {
		c := responseCookie(rec, name)
		require.NotNil(t, c, "expected %s cookie to be cleared", name)
		assert.Empty(t, c.Value)
		assert.Negative(t, c.MaxAge)
	}
}

func TestNew_InvalidAPIURL(t *testing.T) {
	cfg := &config.Config{API: config.APIConfig{URL: "localhost"}}
	_, err := New(cfg, zerolog.Nop(), "test")
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, "http://localhost:8000")

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "llmadmin-dash", body["service"])
	assert.NotEmpty(t, rec.Header().Get(client.HeaderRequestID))
}

func TestRouteGuard(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)
	expired := signToken(t, testSecret, -time.Minute)

	tests := []struct {
		name     string
		path     string
		token    string
		apiKey   string
		status   int
		location string
	}{
		{"anonymous on protected page", "/dashboard", "", "", http.StatusFound, "/login?redirect=%2Fdashboard"},
		{"anonymous on unknown page", "/groups/7", "", "", http.StatusFound, "/login?redirect=%2Fgroups%2F7"},
		{"anonymous on root", "/", "", "", http.StatusFound, "/login?redirect=%2F"},
		{"anonymous on login", "/login", "", "", http.StatusOK, ""},
		{"anonymous on register", "/register", "", "", http.StatusOK, ""},
		{"signed in on login", "/login", backend.token, "k1", http.StatusFound, "/dashboard"},
		{"signed in on register", "/register", backend.token, "k1", http.StatusFound, "/dashboard"},
		{"signed in on root", "/", backend.token, "k1", http.StatusFound, "/dashboard"},
		{"expired token", "/dashboard", expired, "k1", http.StatusFound, "/login?redirect=%2Fdashboard"},
		{"token without api key", "/dashboard", backend.token, "", http.StatusFound, "/login?redirect=%2Fdashboard"},
		{"static assets bypass", "/favicon.ico", "", "", http.StatusNotFound, ""},
		{"opaque token left to backend", "/login", "opaque-token", "k1", http.StatusFound, "/dashboard"},
		{"signed in on login look-alike", "/login-history", backend.token, "k1", http.StatusNotFound, ""},
		{"anonymous on register look-alike", "/registered-users", "", "", http.StatusFound, "/login?redirect=%2Fregistered-users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withSession(httptest.NewRequest(http.MethodGet, tt.path, nil), tt.token, tt.apiKey)
			rec := do(srv, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
}

func TestRouteGuard_ClearsStaleCookies(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	req := withSession(httptest.NewRequest(http.MethodGet, "/login", nil), signToken(t, testSecret, -time.Minute), "k1")
	rec := do(srv, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assertCleared(t, rec)
}

func TestLogin_SetsCookiesAndRedirects(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	rec := do(srv, postForm("/login", url.Values{"email": {"a@b.com"}, "password": {"secret1"}}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	token := responseCookie(rec, cookieToken)
	require.NotNil(t, token)
	assert.Equal(t, backend.token, token.Value)
	assert.True(t, token.HttpOnly)
	assert.Positive(t, token.MaxAge)
	assert.LessOrEqual(t, token.MaxAge, int(time.Hour.Seconds()))

	apiKey := responseCookie(rec, cookieAPIKey)
	require.NotNil(t, apiKey)
	assert.Equal(t, "k1", apiKey.Value)
}

func TestLogin_Redirect(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	tests := []struct {
		redirect string
		want     string
	}{
		{"/users", "/users"},
		{"", "/dashboard"},
		{"//evil.example", "/dashboard"},
		{"https://evil.example", "/dashboard"},
		{"/login", "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.redirect, func(t *testing.T) {
			rec := do(srv, postForm("/login", url.Values{
				"email":    {"a@b.com"},
				"password": {"secret1"},
				"redirect": {tt.redirect},
			}))
			require.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
}

func TestLogin_Rejected(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	rec := do(srv, postForm("/login", url.Values{"email": {"a@b.com"}, "password": {"wrong-pass"}}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password")
	assert.Contains(t, rec.Body.String(), `value="a@b.com"`)
	assert.Nil(t, responseCookie(rec, cookieToken))
}

func TestLogin_InvalidForm(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	rec := do(srv, postForm("/login", url.Values{"email": {"not-an-email"}, "password": {"secret1"}}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be a valid email address")
	assert.Nil(t, responseCookie(rec, cookieToken))
}

func TestRegister_RedirectsToLoginWithoutSession(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	rec := do(srv, postForm("/register", url.Values{
		"name":     {"Nia"},
		"email":    {"n@b.com"},
		"password": {"secret1"},
	}))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?registered=1", rec.Header().Get("Location"))
	assert.Nil(t, responseCookie(rec, cookieToken))

	page := do(srv, httptest.NewRequest(http.MethodGet, "/login?registered=1", nil))
	assert.Contains(t, page.Body.String(), "Account created")
}

func TestRegister_Rejected(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	rec := do(srv, postForm("/register", url.Values{
		"name":     {"Tao"},
		"email":    {"taken@b.com"},
		"password": {"secret1"},
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email already registered")
}

func TestLogout_ClearsCookiesWhenBackendFails(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	req := withSession(postForm("/logout", nil), backend.token, "k1")
	rec := do(srv, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assertCleared(t, rec)
	assert.Equal(t, int32(1), backend.logoutCalls.Load())
}

func TestDashboard_RendersUser(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	rec := do(srv, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), backend.token, "k1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@b.com")
	assert.Contains(t, rec.Body.String(), "Ada")
}

func TestDashboard_RejectedSession(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	rec := do(srv, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), backend.token, "revoked"))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fdashboard", rec.Header().Get("Location"))
	assertCleared(t, rec)
}

func TestDashboard_VerifiesSignatureWhenConfigured(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL, func(cfg *config.Config) {
		cfg.Gateway.TokenSecret = "another-secret"
	})

	rec := do(srv, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), backend.token, "k1"))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fdashboard", rec.Header().Get("Location"))
}

// doLive sends req through a real listener. The reverse proxy needs a
// response writer that supports CloseNotify, which the recorder lacks.
func doLive(t *testing.T, srv *Server, req *http.Request) *http.Response {
	t.Helper()
	live := httptest.NewServer(srv.Handler())
	t.Cleanup(live.Close)

	target, err := url.Parse(live.URL)
	require.NoError(t, err)
	req.URL.Scheme = target.Scheme
	req.URL.Host = target.Host
	req.RequestURI = ""

	resp, err := live.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAPIProxy_AttachesSessionCredentials(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	resp := doLive(t, srv, withSession(httptest.NewRequest(http.MethodGet, "/api/users", nil), backend.token, "k1"))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
	assert.False(t, backend.sawCookieHdr.Load(), "gateway cookies leaked to the backend")
	assert.Empty(t, resp.Cookies())
}

func TestAPIProxy_UnauthorizedEndsSession(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	resp := doLive(t, srv, withSession(httptest.NewRequest(http.MethodGet, "/api/users", nil), backend.token, "revoked"))

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	cleared := map[string]bool{}
	for _, c := range resp.Cookies() {
		assert.Empty(t, c.Value, c.Name)
		assert.Negative(t, c.MaxAge, c.Name)
		cleared[c.Name] = true
	}
	assert.Equal(t, map[string]bool{cookieToken: true, cookieAPIKey: true}, cleared)
}

func TestMetricsEndpoint(t *testing.T) {
	backend := newBackend(t)
	srv := newTestServer(t, backend.URL)

	do(srv, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	do(srv, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil), backend.token, "k1"))

	rec := do(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `llmadmin_gateway_auth_redirects_total{reason="signed_out"} 1`)
	assert.Contains(t, body, `llmadmin_api_client_requests_total{method="GET",status="200"} 1`)
	assert.Contains(t, body, "llmadmin_gateway_request_duration_seconds")
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"/quotas", "/quotas"},
		{"/users?page=2", "/users?page=2"},
		{"", "/dashboard"},
		{"quotas", "/dashboard"},
		{"//evil.example", "/dashboard"},
		{`/\evil.example`, "/dashboard"},
		{"/register", "/dashboard"},
		{"/logout", "/dashboard"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeRedirect(tt.target, "/dashboard"), tt.target)
	}
}
