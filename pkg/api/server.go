// Package api implements the Query/Session HTTP Engine: request intake,
// optional X-API-Key auth, per-(endpoint,identity) rate limiting, session
// binding, and synchronous LLM-driven responses over the query/session
// operations this domain exposes.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/sentryd/pkg/catalog"
	"github.com/codeready-toolchain/sentryd/pkg/cluster"
	"github.com/codeready-toolchain/sentryd/pkg/config"
	"github.com/codeready-toolchain/sentryd/pkg/llm"
	"github.com/codeready-toolchain/sentryd/pkg/session"
	"github.com/codeready-toolchain/sentryd/pkg/version"
)

// Deps collects everything the HTTP engine needs. Every field is required
// except Logger, which defaults to slog.Default().
type Deps struct {
	Config      *config.APIConfig
	Driver      *llm.Driver
	Catalog     *catalog.Catalog
	Sessions    *session.Store
	Guard       *cluster.Guard
	ClusterName string
	Logger      *slog.Logger
}

// Server owns the gin engine and everything a handler needs to serve one
// request: the LLM Driver, the query session store, the Cluster Guard,
// and the engine's own rate limiters.
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	cfg         *config.APIConfig
	driver      *llm.Driver
	cat         *catalog.Catalog
	sessions    *session.Store
	guard       *cluster.Guard
	clusterName string
	limiters    *limiterRegistry
	logger      *slog.Logger
	startedAt   time.Time
}

// New builds a Server and wires its routes. Panics if a required Deps
// field is missing — the engine has no partial-service operating mode.
func New(d Deps) *Server {
	if d.Config == nil || d.Driver == nil || d.Catalog == nil || d.Sessions == nil || d.Guard == nil {
		panic("api: New called with incomplete Deps")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:      gin.New(),
		cfg:         d.Config,
		driver:      d.Driver,
		cat:         d.Catalog,
		sessions:    d.Sessions,
		guard:       d.Guard,
		clusterName: d.ClusterName,
		limiters:    newLimiterRegistry(d.Config),
		logger:      logger.With("component", "api"),
		startedAt:   time.Now(),
	}

	s.engine.Use(gin.Recovery(), securityHeaders())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/health", s.healthHandler)
	s.engine.GET("/api/v1/docs", s.docsHandler)

	v1 := s.engine.Group("/api/v1")
	v1.POST("/query", apiKeyAuth(s.cfg.APIKeys, false), s.limiters.rateLimit("query"), s.queryHandler)

	sessions := v1.Group("/sessions")
	sessions.POST("", apiKeyAuth(s.cfg.APIKeys, false), s.limiters.rateLimit("session.create"), s.createSessionHandler)
	sessions.GET("/stats", apiKeyAuth(s.cfg.APIKeys, true), s.statsHandler)
	sessions.GET("/:id", apiKeyAuth(s.cfg.APIKeys, true), s.limiters.rateLimit("session.get"), s.getSessionHandler)
	sessions.POST("/:id/query", apiKeyAuth(s.cfg.APIKeys, true), s.limiters.rateLimit("session.query"), s.sessionQueryHandler)
	sessions.DELETE("/:id", apiKeyAuth(s.cfg.APIKeys, true), s.deleteSessionHandler)
}

// Start begins serving on cfg.Addr, blocking until the listener fails or
// Shutdown is called (in which case it returns http.ErrServerClosed, not
// an error the caller needs to treat as fatal).
func (s *Server) Start() error {
	s.httpServer = &http.Server{Addr: s.cfg.Addr, Handler: s.engine}
	s.logger.Info("api: listening", "addr", s.cfg.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// checkClusterContext is the cluster guard ingress hook: a request naming
// a cluster other than this engine's configured
// one is rejected before any LLM call. Returns true if the request may
// proceed.
func (s *Server) checkClusterContext(c *gin.Context, reqCtx *RequestContext) bool {
	if reqCtx == nil || reqCtx.Cluster == "" {
		return true
	}
	if reqCtx.Cluster != s.clusterName {
		c.JSON(http.StatusForbidden, gin.H{"error": fmt.Sprintf("cluster %q is not served by this engine", reqCtx.Cluster)})
		return false
	}
	if err := s.guard.Require(reqCtx.Cluster); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func (s *Server) versionString() string {
	return version.Full()
}
