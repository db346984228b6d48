package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/server/endpoint"
	"github.com/kbukum/whisperd/server/middleware"
)

// Server is an HTTP server backed by Gin. Gin is mounted at "/" on a root
// ServeMux so other http.Handlers can share the port, and the middleware
// stack wraps the mux rather than the Gin engine.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	handler    http.Handler
	config     Config
	log        *logger.Logger

	mu       sync.RWMutex
	listener net.Listener
}

// New creates a new Server. Call ApplyMiddleware before Start to install the
// standard middleware stack.
func New(cfg *Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	s := &Server{
		engine: engine,
		mux:    mux,
		config: *cfg,
		log:    log.WithComponent("server"),
	}
	s.handler = s.h2c(mux)

	s.httpServer = &http.Server{
		Addr:              cfg.Address(),
		Handler:           http.HandlerFunc(s.serveHTTP),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       seconds(cfg.ReadTimeout),
		WriteTimeout:      seconds(cfg.WriteTimeout),
		IdleTimeout:       seconds(cfg.IdleTimeout),
	}
	return s
}

// serveHTTP dispatches through the current handler so middleware applied
// after New still takes effect.
func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.Handler().ServeHTTP(w, r)
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handle mounts an http.Handler at the given pattern on the root ServeMux.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
	s.log.Debug("Handler mounted", map[string]interface{}{
		"pattern": pattern,
	})
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handler
}

// h2c lets HTTP/2 clients talk to the server without TLS.
func (s *Server) h2c(h http.Handler) http.Handler {
	return h2c.NewHandler(h, &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          seconds(s.config.IdleTimeout),
	})
}

// ApplyMiddleware installs the standard stack around the root mux:
// request ID, request logging, panic recovery, CORS (when origins are
// configured) and the body size limit.
func (s *Server) ApplyMiddleware() {
	stack := []middleware.Middleware{
		middleware.RequestID(),
		middleware.RequestLogger(s.log),
		middleware.Recovery(s.log),
	}
	if s.config.CORS.Enabled() {
		stack = append(stack, middleware.CORS(&s.config.CORS))
	}
	stack = append(stack, middleware.BodySizeLimit(s.config.MaxBodySize))

	s.mu.Lock()
	s.handler = s.h2c(middleware.Chain(stack...)(s.mux))
	s.mu.Unlock()
}

// RegisterDefaultEndpoints registers /info and /ready. Service-specific
// health lives with the service's own handlers.
func (s *Server) RegisterDefaultEndpoints(serviceName string, checker endpoint.HealthChecker, extra endpoint.InfoProvider) {
	s.engine.GET("/info", endpoint.Info(serviceName, extra))
	s.engine.GET("/ready", endpoint.Readiness(serviceName, checker))
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", logger.ErrorFields("serve", err))
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": listener.Addr().String(),
	})
	return nil
}

// Stop drains in-flight requests for at most the configured shutdown
// timeout, then closes remaining connections.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, seconds(s.config.ShutdownTimeout))
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("Graceful shutdown incomplete, closing connections", logger.ErrorFields("shutdown", err))
		_ = s.httpServer.Close()
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.mu.Lock()
	s.listener = nil
	s.mu.Unlock()

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Listening reports whether the server currently holds a bound listener.
func (s *Server) Listening() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listener != nil
}
