// Package server is the dashboard gateway. It serves the login and register
// pages, keeps the session in cookies, guards page routes and proxies /api to
// the admin backend with the session credentials attached.
package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/llmadmin-dev/llmadmin/internal/auth"
	"github.com/llmadmin-dev/llmadmin/internal/cli/client"
	"github.com/llmadmin-dev/llmadmin/internal/cli/nav"
	"github.com/llmadmin-dev/llmadmin/internal/config"
)

// Server represents the dashboard gateway
type Server struct {
	router     *gin.Engine
	config     *config.Config
	logger     zerolog.Logger
	verifier   *auth.Verifier
	apiURL     *url.URL
	proxy      *httputil.ReverseProxy
	httpClient *http.Client
	registry   *prometheus.Registry
	metrics    *metrics
	apiMetrics *client.Metrics
	version    string
}

// New creates a new gateway instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	apiURL, err := url.Parse(cfg.API.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", cfg.API.URL, err)
	}
	if apiURL.Scheme == "" || apiURL.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: scheme and host are required", cfg.API.URL)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := &Server{
		config:     cfg,
		logger:     zlog.With().Str("component", "gateway").Logger(),
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: cfg.API.Timeout},
		registry:   registry,
		metrics:    newMetrics(registry),
		apiMetrics: client.NewMetrics(registry),
		version:    version,
	}

	if cfg.Gateway.TokenSecret != "" {
		server.verifier = auth.NewVerifier(cfg.Gateway.TokenSecret)
		zlog.Debug().Msg("Session cookie signatures will be verified")
	} else {
		zlog.Info().Msg("No token secret configured - session cookies are checked for expiry only")
	}

	server.proxy = server.newAPIProxy()
	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.SetHTMLTemplate(pages)

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware (cors panics on an empty origin list)
	if len(s.config.Gateway.AllowedOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.Gateway.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", client.HeaderAuthorization, client.HeaderAPIKey},
			ExposeHeaders:    []string{"Content-Length", client.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Runs for every route, including unknown ones
	s.router.Use(s.routeGuard())

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	// Backend API, credentials come from the session cookies
	s.router.Any("/api/*path", gin.WrapH(s.proxy))

	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, nav.RouteDashboard)
	})
	s.router.GET(nav.RouteLogin, s.loginPage)
	s.router.POST(nav.RouteLogin, s.login)
	s.router.GET(nav.RouteRegister, s.registerPage)
	s.router.POST(nav.RouteRegister, s.register)
	s.router.POST("/logout", s.logout)
	s.router.GET(nav.RouteDashboard, s.dashboard)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(client.HeaderRequestID)
		if id == "" {
			id = ulid.Make().String()
		}
		c.Set("request_id", id)
		c.Header(client.HeaderRequestID, id)
		c.Next()
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		s.metrics.observeRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), duration)

		s.logger.Info().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "llmadmin-dash",
		"version":   s.version,
	})
}

// Handler returns the gateway's http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.Gateway.ListenAddr

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.API.Timeout + 30*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("api_url", s.apiURL.String()).Msg("Starting dashboard gateway")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("gateway failed: %w", err)
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
