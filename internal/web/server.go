package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"xui-keys-bot/internal/constants"
	"xui-keys-bot/internal/services"
)

// StatusChecker reports the health of configured servers
type StatusChecker interface {
	CheckAll(ctx context.Context) []services.ServerStatus
}

// Server exposes health and server status over HTTP
type Server struct {
	http    *http.Server
	servers StatusChecker
	logger  *logrus.Logger
}

// NewServer creates the status HTTP server listening on addr
func NewServer(addr string, servers StatusChecker, logger *logrus.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{servers: servers, logger: logger}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the gin engine with all routes
func (s *Server) Handler() http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), s.logRequests)

	engine.GET("/healthz", s.health)
	engine.GET("/servers", s.serverStatus)

	return engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) serverStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.ServerStatusCheckDeadline*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, s.servers.CheckAll(ctx))
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.WithFields(logrus.Fields{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start),
	}).Debug("HTTP request")
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Infof("Status endpoint listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
