package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/llmadmin-dev/llmadmin/internal/auth"
	"github.com/llmadmin-dev/llmadmin/internal/cli/credentials"
	"github.com/llmadmin-dev/llmadmin/internal/cli/nav"
)

// Session cookie names
const (
	cookieToken  = "token"
	cookieAPIKey = "apiKey"

	// used when the token carries no exp claim
	defaultCookieTTL = 7 * 24 * time.Hour
)

// Pages reachable without a session
var publicRoutes = []string{nav.RouteLogin, nav.RouteRegister}

// Paths the route guard never touches
var bypassPrefixes = []string{
	"/api/",
	"/static/",
	"/favicon.ico",
	"/robots.txt",
	"/sitemap.xml",
	"/health",
	"/metrics",
	"/logout",
}

func isPublicRoute(path string) bool {
	for _, route := range publicRoutes {
		if path == route || strings.HasPrefix(path, route+"/") {
			return true
		}
	}
	return false
}

func isBypassed(path string) bool {
	if path == "/api" {
		return true
	}
	for _, prefix := range bypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// routeGuard sends signed-in users away from the login and register pages
// and everyone else to the login page, remembering where they were going.
func (s *Server) routeGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isBypassed(path) {
			c.Next()
			return
		}

		signedIn := s.hasSession(c)
		public := isPublicRoute(path)

		switch {
		case signedIn && public:
			s.metrics.redirect("signed_in")
			c.Redirect(http.StatusFound, nav.RouteDashboard)
			c.Abort()
		case !signedIn && !public:
			s.metrics.redirect("signed_out")
			c.Redirect(http.StatusFound, loginURL(path))
			c.Abort()
		default:
			c.Next()
		}
	}
}

func loginURL(redirect string) string {
	return nav.RouteLogin + "?redirect=" + url.QueryEscape(redirect)
}

// hasSession reports whether the request carries a usable credential pair.
// A stale pair is cleared on the way out.
func (s *Server) hasSession(c *gin.Context) bool {
	creds := sessionCookies(c)
	if creds.Token == "" && creds.APIKey == "" {
		return false
	}
	if creds.Complete() && s.tokenUsable(creds.Token) {
		return true
	}
	s.clearSessionCookies(c)
	return false
}

func (s *Server) tokenUsable(token string) bool {
	if s.verifier != nil {
		_, err := s.verifier.Verify(token)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Rejected session cookie")
		}
		return err == nil
	}
	return auth.Usable(token, time.Now())
}

func sessionCookies(c *gin.Context) credentials.Credentials {
	token, _ := c.Cookie(cookieToken)
	apiKey, _ := c.Cookie(cookieAPIKey)
	return credentials.Credentials{Token: token, APIKey: apiKey}
}

func (s *Server) setSessionCookies(c *gin.Context, creds credentials.Credentials) {
	maxAge := int(defaultCookieTTL.Seconds())
	if claims, err := auth.Inspect(creds.Token); err == nil {
		if d, ok := claims.ExpiresIn(time.Now()); ok && d > 0 {
			maxAge = int(d.Seconds())
		}
	}

	secure := s.config.Gateway.SecureCookies
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieToken, creds.Token, maxAge, "/", "", secure, true)
	c.SetCookie(cookieAPIKey, creds.APIKey, maxAge, "/", "", secure, true)
}

func (s *Server) clearSessionCookies(c *gin.Context) {
	secure := s.config.Gateway.SecureCookies
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieToken, "", -1, "/", "", secure, true)
	c.SetCookie(cookieAPIKey, "", -1, "/", "", secure, true)
}

// expiredCookies is clearSessionCookies for handlers outside gin
func (s *Server) expiredCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, 2)
	for _, name := range []string{cookieToken, cookieAPIKey} {
		out = append(out, &http.Cookie{
			Name:     name,
			Path:     "/",
			MaxAge:   -1,
			Secure:   s.config.Gateway.SecureCookies,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return out
}

// safeRedirect accepts only local, non-public paths
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") ||
		isPublicRoute(target) || target == "/logout" {
		return fallback
	}
	return target
}
