// Package server exposes the local control plane used by the operator CLI.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/andresjosehr/dollarspy/internal/service"
	"github.com/gin-gonic/gin"
)

// DefaultPort is the control plane port when none is configured.
const DefaultPort = 3847

const shutdownTimeout = 5 * time.Second

// Server serves registry state and transport status over HTTP.
// It has no authentication and must only bind to loopback.
type Server struct {
	registry  service.GroupRegistry
	transport service.Transport
	logger    *slog.Logger
	addr      string
}

// New creates a control plane listening on host:port.
func New(registry service.GroupRegistry, transport service.Transport, host string, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if host == "" {
		host = "127.0.0.1"
	}
	if port == 0 {
		port = DefaultPort
	}

	return &Server{
		registry:  registry,
		transport: transport,
		logger:    logger,
		addr:      net.JoinHostPort(host, strconv.Itoa(port)),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// SetupRouter builds the gin engine with every route.
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(s.requestLogger(), gin.CustomRecovery(s.recoverPanic))

	r.GET("/healthz", s.Health)
	r.GET("/status", s.Status)
	r.GET("/groups", s.Groups)
	r.GET("/monitored", s.ListMonitored)
	r.POST("/monitored", s.ReplaceMonitored)
	r.GET("/monitored/:id", s.GetMonitored)
	r.PUT("/monitored/:id", s.AddMonitored)
	r.DELETE("/monitored/:id", s.RemoveMonitored)

	r.NoRoute(notFound)
	r.NoMethod(notFound)

	return r
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on an existing listener until ctx is canceled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Control plane listening", "addr", listener.Addr().String())
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("control plane stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down control plane: %w", err)
	}
	s.logger.Info("Control plane stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Handled request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error("Control plane handler panicked",
		"path", c.Request.URL.Path,
		"error", fmt.Sprint(recovered))
	respondError(c, http.StatusInternalServerError, fmt.Errorf("internal error: %v", recovered))
}

func notFound(c *gin.Context) {
	respondError(c, http.StatusNotFound, errors.New("not found"))
}

// respondOK writes {ok:true, ...payload}.
func respondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// respondError writes {ok:false, error}.
func respondError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": err.Error()})
}
