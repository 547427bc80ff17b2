package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/credentials"
	"github.com/llmadmin-dev/llmadmin/internal/cli/forms"
	"github.com/llmadmin-dev/llmadmin/internal/cli/guard"
	"github.com/llmadmin-dev/llmadmin/internal/cli/nav"
	"github.com/llmadmin-dev/llmadmin/internal/cli/provider"
	"github.com/llmadmin-dev/llmadmin/internal/cli/session"
)

type loginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	Redirect string `form:"redirect" json:"redirect"`
}

type registerForm struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// requestSession is the auth stack for one browser request. Credentials live
// in memory and come from, or go back to, the session cookies.
type requestSession struct {
	store    *credentials.Store
	provider *provider.Provider
	nav      *nav.Recorder
}

func (s *Server) newSession(creds credentials.Credentials) *requestSession {
	store := credentials.NewStore(credentials.NewMemoryStorage(), s.logger)
	if creds.Complete() {
		_ = store.Set(credentials.KeyToken, creds.Token)
		_ = store.Set(credentials.KeyAPIKey, creds.APIKey)
	}

	recorder := &nav.Recorder{}
	api := client.New(s.apiURL.String(), store,
		client.WithHTTPClient(s.httpClient),
		client.WithNavigator(recorder),
		client.WithLogger(s.logger),
		client.WithMetrics(s.apiMetrics),
	)
	container := session.New(api, store, s.logger)

	return &requestSession{
		store:    store,
		provider: provider.New(container, recorder, s.logger),
		nav:      recorder,
	}
}

// close unmounts the session once the request is answered
func (rs *requestSession) close() {
	rs.provider.Unmount()
}

func (s *Server) loginPage(c *gin.Context) {
	data := gin.H{"Title": "Sign in", "Redirect": c.Query("redirect")}
	if c.Query("registered") != "" {
		data["Notice"] = "Account created. Sign in to continue."
	}
	c.HTML(http.StatusOK, "login", data)
}

func (s *Server) login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "login", gin.H{"Title": "Sign in", "Error": "Invalid form submission"})
		return
	}
	form.Email = strings.TrimSpace(form.Email)

	render := func(status int, msg string) {
		c.HTML(status, "login", gin.H{
			"Title":    "Sign in",
			"Error":    msg,
			"Email":    form.Email,
			"Redirect": form.Redirect,
		})
	}

	if err := forms.Validate(client.LoginRequest{Email: form.Email, Password: form.Password}); err != nil {
		render(http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	rs := s.newSession(credentials.Credentials{})
	defer rs.close()
	rs.provider.Mount(ctx, &session.Seed{})

	if err := rs.provider.Login(ctx, form.Email, form.Password); err != nil {
		s.logger.Warn().Err(err).Str("email", form.Email).Msg("Login failed")
		render(failureStatus(err), userMessage(err, "Login failed"))
		return
	}

	s.logger.Info().Str("user_id", rs.provider.User().ID).Msg("User signed in")
	s.setSessionCookies(c, rs.store.Credentials())
	c.Redirect(http.StatusSeeOther, safeRedirect(form.Redirect, rs.nav.Last()))
}

func (s *Server) registerPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register", gin.H{"Title": "Create account"})
}

// register creates the account but does not sign in. The browser is sent to
// the login page.
func (s *Server) register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "register", gin.H{"Title": "Create account", "Error": "Invalid form submission"})
		return
	}
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)

	render := func(status int, msg string) {
		c.HTML(status, "register", gin.H{
			"Title": "Create account",
			"Error": msg,
			"Name":  form.Name,
			"Email": form.Email,
		})
	}

	req := client.RegisterRequest{Name: form.Name, Email: form.Email, Password: form.Password}
	if err := forms.Validate(req); err != nil {
		render(http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	rs := s.newSession(credentials.Credentials{})
	defer rs.close()
	rs.provider.Mount(ctx, &session.Seed{})

	if err := rs.provider.Register(ctx, req.Email, req.Password, req.Name); err != nil {
		s.logger.Warn().Err(err).Str("email", req.Email).Msg("Registration failed")
		render(failureStatus(err), userMessage(err, "Registration failed"))
		return
	}

	s.logger.Info().Str("email", req.Email).Msg("Account registered")
	c.Redirect(http.StatusSeeOther, rs.nav.Last()+"?registered=1")
}

// logout always clears the cookies, whatever the backend says
func (s *Server) logout(c *gin.Context) {
	rs := s.newSession(sessionCookies(c))
	defer rs.close()
	rs.provider.Logout(c.Request.Context())

	s.clearSessionCookies(c)
	c.Redirect(http.StatusSeeOther, rs.nav.Last())
}

func (s *Server) dashboard(c *gin.Context) {
	rs := s.newSession(sessionCookies(c))
	defer rs.close()
	g := guard.New(rs.provider, guard.WithNavigator(rs.nav))

	err := g.Run(c.Request.Context(), func(_ context.Context, snap session.Snapshot) error {
		c.HTML(http.StatusOK, "dashboard", gin.H{"Title": "Dashboard", "User": snap.User})
		return nil
	})
	if errors.Is(err, guard.ErrUnauthenticated) {
		s.clearSessionCookies(c)
		s.metrics.redirect("session_rejected")
		c.Redirect(http.StatusFound, loginURL(c.Request.URL.Path))
	}
}

func failureStatus(err error) int {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
		return apiErr.StatusCode
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// userMessage is the text shown on the form for a failed call
func userMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
		for _, msg := range []string{apiErr.Detail, apiErr.Message, apiErr.ErrorText} {
			if msg != "" {
				return msg
			}
		}
	}
	return fallback
}
