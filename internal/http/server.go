// Package http provides the main HTTP server and request routing.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	signatureHTTP "github.com/clinsign/clinsign/internal/signature/http"
)

// Server represents the main HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
	host   string
	port   int
}

// NewServer creates a new HTTP server. The router must be assembled with
// SetupRouter before Start is called.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		host:   host,
		port:   port,
	}
}

// RouterConfig groups the handlers and middlewares mounted on the main router.
type RouterConfig struct {
	GinMode             string
	CORSEnabled         bool
	CORSAllowOrigins    string
	AuthMiddleware      gin.HandlerFunc
	RateLimitMiddleware gin.HandlerFunc
	MetricsMiddleware   gin.HandlerFunc
	SignatureHandler    *signatureHTTP.SignatureHandler
	ValidationHandler   *signatureHTTP.ValidationHandler
	AuditLogHandler     *signatureHTTP.AuditLogHandler
}

// SetupRouter assembles the Gin router with all routes and middlewares.
//
// Route layout:
//   - GET  /health                     liveness probe
//   - GET  /ready                      readiness probe (checks database)
//   - GET  /v1/validation/:token       public document validation page data
//   - GET  /v1/signature               authenticated, action-dispatched reads
//   - POST /v1/signature               authenticated, action-dispatched writes
//   - GET  /v1/signature/audit-logs    authenticated audit trail listing
func (s *Server) SetupRouter(cfg RouterConfig) {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.MetricsMiddleware != nil {
		router.Use(cfg.MetricsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	// The validation endpoint backs the QR code printed on signed documents
	// and must stay reachable without a session.
	v1.GET("/validation/:token", cfg.ValidationHandler.GetHandler)

	protected := v1.Group("")
	protected.Use(cfg.AuthMiddleware)
	if cfg.RateLimitMiddleware != nil {
		protected.Use(cfg.RateLimitMiddleware)
	}
	protected.GET("/signature", cfg.SignatureHandler.GetHandler)
	protected.POST("/signature", cfg.SignatureHandler.PostHandler)
	protected.GET("/signature/audit-logs", cfg.AuditLogHandler.ListHandler)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic, checking
// each backing component.
func (s *Server) readinessHandler(c *gin.Context) {
	components := make(map[string]string)
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Error("readiness check failed", slog.Any("error", err))
			components["database"] = "error"
			ready = false
		} else {
			components["database"] = "ok"
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured, call SetupRouter first")
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
